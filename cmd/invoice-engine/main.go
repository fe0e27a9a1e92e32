package main

import (
	"fmt"
	"os"

	"github.com/aikyn/invoice-engine/internal/auth"
	"github.com/aikyn/invoice-engine/internal/config"
	"github.com/aikyn/invoice-engine/internal/db"
	"github.com/aikyn/invoice-engine/internal/excel"
	httphandler "github.com/aikyn/invoice-engine/internal/http"
	"github.com/aikyn/invoice-engine/internal/http/middleware"
	"github.com/aikyn/invoice-engine/internal/logger"
	"github.com/aikyn/invoice-engine/internal/mail"
	"github.com/aikyn/invoice-engine/internal/pdf"
	"github.com/aikyn/invoice-engine/internal/repository"
	"github.com/aikyn/invoice-engine/internal/scheduler"
	"github.com/aikyn/invoice-engine/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	customerRepo := repository.NewCustomerRepository(database)
	invoiceRepo := repository.NewInvoiceRepository(database)
	execLogRepo := repository.NewExecutionLogRepository(database)

	engine := service.NewEngine(
		customerRepo,
		invoiceRepo,
		execLogRepo,
		pdf.NewGenerator(),
		mail.NewMailer(cfg.SMTP),
		cfg.Invoices.OutputDir,
		log,
	)
	reporting := service.NewReporting(invoiceRepo, execLogRepo, excel.NewGenerator())
	management := service.NewManagement(customerRepo, log)

	batch := scheduler.New(engine, cfg.Batch, log)
	if err := batch.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start batch scheduler")
	}
	defer batch.Stop()

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(engine, reporting, management, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting invoice engine")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
