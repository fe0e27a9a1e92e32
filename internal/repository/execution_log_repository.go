package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aikyn/invoice-engine/internal/model"
)

type ExecutionLogRepository struct {
	db *gorm.DB
}

func NewExecutionLogRepository(db *gorm.DB) *ExecutionLogRepository {
	return &ExecutionLogRepository{db: db}
}

// Create inserts the log row at run start, before any work happens.
func (r *ExecutionLogRepository) Create(ctx context.Context, entry *model.ExecutionLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO execution_logs (
			id,
			run_date,
			mode,
			started_at,
			completed_at,
			customers_loaded,
			schedule_matches,
			pdfs_generated,
			emails_sent,
			failures,
			error_trace,
			triggered_by,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.RunDate,
		entry.Mode,
		entry.StartedAt,
		entry.CompletedAt,
		entry.CustomersLoaded,
		entry.ScheduleMatches,
		entry.PDFsGenerated,
		entry.EmailsSent,
		entry.Failures,
		entry.ErrorTrace,
		entry.TriggeredBy,
		entry.CreatedAt,
	).Error
}

// Update rewrites the mutable run fields. Called throughout the run and once
// more on the exit path with CompletedAt set.
func (r *ExecutionLogRepository) Update(ctx context.Context, entry *model.ExecutionLog) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE execution_logs
		SET
			mode = ?,
			completed_at = ?,
			customers_loaded = ?,
			schedule_matches = ?,
			pdfs_generated = ?,
			emails_sent = ?,
			failures = ?,
			error_trace = ?
		WHERE id = ?
	`,
		entry.Mode,
		entry.CompletedAt,
		entry.CustomersLoaded,
		entry.ScheduleMatches,
		entry.PDFsGenerated,
		entry.EmailsSent,
		entry.Failures,
		entry.ErrorTrace,
		entry.ID,
	).Error
}

// ListRecent returns the latest runs for operator review.
func (r *ExecutionLogRepository) ListRecent(ctx context.Context, limit int) ([]model.ExecutionLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []model.ExecutionLog
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			run_date,
			mode,
			started_at,
			completed_at,
			customers_loaded,
			schedule_matches,
			pdfs_generated,
			emails_sent,
			failures,
			error_trace,
			triggered_by,
			created_at
		FROM execution_logs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
