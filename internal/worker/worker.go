// Package worker holds the background jobs of the fintrack-worker binary:
// ledger event handling and periodic reminder cleanup.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"

	"golang.org/x/sync/errgroup"
)

type (
	Reconciler interface {
		Reconcile(ctx context.Context, owner, contractID string) (core.Reconciliation, error)
	}

	PeriodExporter interface {
		ExportPeriod(ctx context.Context, owner string, year, month int) error
	}

	ReminderCleaner interface {
		CleanupUndated(ctx context.Context) (int, error)
	}

	// Consumer delivers queue messages to a handler until ctx is done.
	Consumer interface {
		ConsumeWithRetry(ctx context.Context, handler amqp.Handler) error
	}
)

// LedgerWorker reacts to ledger events and keeps the reminder list tidy.
type LedgerWorker struct {
	debts           Reconciler
	reports         PeriodExporter
	reminders       ReminderCleaner
	cleanupInterval time.Duration
}

func NewLedgerWorker(debts Reconciler, reports PeriodExporter, reminders ReminderCleaner, cleanupInterval time.Duration) *LedgerWorker {
	return &LedgerWorker{
		debts:           debts,
		reports:         reports,
		reminders:       reminders,
		cleanupInterval: cleanupInterval,
	}
}

// HandleMessage dispatches one event. Errors that retrying cannot fix are
// marked permanent so the message is dropped instead of requeued.
func (w *LedgerWorker) HandleMessage(ctx context.Context, msg *amqp.Message) error {
	switch msg.Type {
	case amqp.TypePaymentRegistered:
		return w.handlePayment(ctx, msg)
	case amqp.TypePeriodChanged:
		return w.export(ctx, msg.OwnerKey, msg.Year, msg.Month)
	default:
		return amqp.Permanent(fmt.Errorf("unknown message type %q", msg.Type))
	}
}

func (w *LedgerWorker) handlePayment(ctx context.Context, msg *amqp.Message) error {
	rec, err := w.debts.Reconcile(ctx, msg.OwnerKey, msg.ContractID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		// Contract deleted after the payment; nothing left to check.
		return amqp.Permanent(fmt.Errorf("reconcile %s: %w", msg.ContractID, err))
	case err != nil:
		return fmt.Errorf("reconcile %s: %w", msg.ContractID, err)
	}

	fields := log.NewFields().
		WithComponent(log.ComponentWorker).
		WithOperation(log.OpReconcile).
		WithOwner(msg.OwnerKey).
		WithPayment(msg.ContractID, msg.TransactionID, msg.AmountCents)
	fields["consistent"] = rec.Consistent()
	fields["gap_cents"] = rec.Gap.Cents
	slog.InfoContext(ctx, "Payment reconciled", fields.ToSlice()...)

	return w.export(ctx, msg.OwnerKey, msg.Year, msg.Month)
}

func (w *LedgerWorker) export(ctx context.Context, owner string, year, month int) error {
	err := w.reports.ExportPeriod(ctx, owner, year, month)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrExportUnavailable):
		slog.DebugContext(ctx, "No exporter configured, skipping period export",
			log.FieldComponent, log.ComponentWorker,
			log.FieldOwnerKey, owner,
			log.FieldYear, year,
			log.FieldMonth, month)
		return nil
	case errors.Is(err, core.ErrInvalidMonth):
		return amqp.Permanent(err)
	default:
		return fmt.Errorf("export %d-%02d: %w", year, month, err)
	}
}

// CleanupOnce removes expired undated reminders.
func (w *LedgerWorker) CleanupOnce(ctx context.Context) {
	n, err := w.reminders.CleanupUndated(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Reminder cleanup failed",
			log.FieldComponent, log.ComponentWorker,
			log.FieldOperation, log.OpCleanup,
			log.FieldError, err)
		return
	}
	slog.DebugContext(ctx, "Reminder cleanup finished",
		log.FieldComponent, log.ComponentWorker,
		log.FieldOperation, log.OpCleanup,
		"removed", n)
}

// RunCleanup runs CleanupOnce immediately and then on every tick until ctx is done.
func (w *LedgerWorker) RunCleanup(ctx context.Context) error {
	if w.cleanupInterval <= 0 {
		return nil
	}
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	w.CleanupOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.CleanupOnce(ctx)
		}
	}
}

// Run consumes events (when a consumer is given) and runs the cleanup loop
// until ctx is cancelled or one of them fails.
func (w *LedgerWorker) Run(ctx context.Context, consumer Consumer) error {
	g, gctx := errgroup.WithContext(ctx)
	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeWithRetry(gctx, w.HandleMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error { return w.RunCleanup(gctx) })

	slog.InfoContext(ctx, "Worker started",
		log.FieldComponent, log.ComponentWorker,
		"consuming", consumer != nil,
		"cleanup_interval", w.cleanupInterval.String())
	return g.Wait()
}
