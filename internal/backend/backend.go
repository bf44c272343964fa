// Package backend assembles the store and optional collaborators (event
// publisher, period exporter) selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	gsheets "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	return bt == SQLiteBackend || bt == MemoryBackend
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	// AMQP is optional; an empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export is optional; an empty spreadsheet ID disables it.
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	cfg := Config{
		Type:                BackendType(appConfig.DataBackend),
		SQLiteDBPath:        appConfig.SQLiteDBPath,
		AMQPURL:             appConfig.AMQPURL,
		AMQPExchange:        appConfig.AMQPExchange,
		AMQPQueue:           appConfig.AMQPQueue,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetName:     appConfig.GoogleSheetName,
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	return nil
}

// Result bundles what the binaries wire into services. Publisher, Exporter
// and Client are nil when the matching integration is not configured.
type Result struct {
	Store     ports.Store
	Publisher ports.EventPublisher
	Exporter  ports.PeriodExporter
	// Client is the AMQP connection, shared by the publisher and the worker's consumer.
	Client *amqp.Client
}

// Close releases the AMQP connection and the store.
func (r *Result) Close() error {
	var errs []error
	if r.Client != nil {
		errs = append(errs, r.Client.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return errors.Join(errs...)
}

// Factory creates backends based on configuration
type Factory struct {
	logger *log.Logger
	// newExporter is swapped in tests to avoid contacting Google.
	newExporter func(ctx context.Context, cfg Config) (ports.PeriodExporter, error)
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{
		logger:      logger.WithComponent(log.ComponentBackend),
		newExporter: newSheetsExporter,
	}
}

// Create opens the store and the optional integrations. A store failure is
// fatal; AMQP and Sheets failures are logged and the integration is skipped.
func (f *Factory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.Store = repo
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		res.Store = memory.New()
		f.logger.Info("Initialized memory backend")
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			res.Client = client
			res.Publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	if cfg.GoogleSpreadsheetID != "" {
		exporter, err := f.newExporter(ctx, cfg)
		if err != nil {
			f.logger.Warn("Failed to initialize Google Sheets exporter, exports disabled", log.FieldError, err)
		} else {
			res.Exporter = exporter
		}
	}

	return res, nil
}

func newSheetsExporter(ctx context.Context, cfg Config) (ports.PeriodExporter, error) {
	creds, err := gsheets.CredentialsFromEnv()
	if err != nil {
		return nil, err
	}
	return gsheets.New(ctx, gsheets.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: creds,
	})
}
