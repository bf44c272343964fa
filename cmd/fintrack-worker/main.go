package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	// The worker only reads contracts and exports; it publishes nothing.
	store := res.Store
	w := worker.NewLedgerWorker(
		services.NewDebtService(store, store, nil),
		services.NewReportService(store, store, store, res.Exporter),
		services.NewReminderService(store, cfg.UndatedReminderTTL),
		cfg.ReminderCleanupInterval,
	)

	if res.Exporter == nil {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	var consumer worker.Consumer
	if res.Client != nil {
		consumer = res.Client
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}

	if err := w.Run(ctx, consumer); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
