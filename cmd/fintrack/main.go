package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/services"
)

// pinger is implemented by stores that can report their readiness.
type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
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

	store := res.Store
	svc := apphttp.Services{
		Ledger:    services.NewLedgerService(store, store, res.Publisher),
		Reports:   services.NewReportService(store, store, store, res.Exporter),
		Debts:     services.NewDebtService(store, store, res.Publisher),
		Reminders: services.NewReminderService(store, cfg.UndatedReminderTTL),
	}

	opts := apphttp.Options{
		Logger: logger,
		RateLimit: ratelimit.Config{
			RequestsPerWindow: cfg.RateLimitPerMinute,
			Window:            time.Minute,
			MaxKeys:           cfg.RateLimitMaxSessions,
		},
	}
	if p, ok := store.(pinger); ok {
		opts.Ready = p.Ping
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, opts)
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", res.Publisher != nil,
		"export", res.Exporter != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
