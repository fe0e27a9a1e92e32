// Package scheduler triggers the daily scheduled-batch run in process.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aikyn/invoice-engine/internal/config"
	"github.com/aikyn/invoice-engine/internal/service"
)

type Scheduler struct {
	cron   *cron.Cron
	engine *service.Engine
	cfg    config.BatchConfig
	log    zerolog.Logger
}

func New(engine *service.Engine, cfg config.BatchConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		engine: engine,
		cfg:    cfg,
		log:    log,
	}
}

// Start registers the batch entry and begins ticking. No-op when batch runs
// are disabled.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.log.Info().Msg("batch scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.CronSpec, s.runBatch)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("cron", s.cfg.CronSpec).Msg("batch scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runBatch() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	summary, err := s.engine.RunScheduled(ctx, service.ScheduledInput{
		RunDate:   time.Now().UTC(),
		SendEmail: s.cfg.SendEmail,
	}, "scheduler")
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled batch run failed")
		return
	}

	s.log.Info().
		Int("customers_loaded", summary.CustomersLoaded).
		Int("schedule_matches", summary.ScheduleMatches).
		Int("pdfs_generated", summary.PDFsGenerated).
		Int("emails_sent", summary.EmailsSent).
		Int("failures", len(summary.Failures)).
		Msg("scheduled batch run completed")
}
