package ports

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Ports for storage and outbound adapters. Every read and write is scoped by
// the owner key supplied by the session collaborator.
type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, owner, id string) error
		// ListTransactions returns rows with OccurredAt in [start, end].
		ListTransactions(ctx context.Context, owner string, start, end time.Time) ([]core.Transaction, error)
		ListTransactionsByContract(ctx context.Context, owner, contractID string) ([]core.Transaction, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, owner string, kind core.Kind) ([]core.Category, error)
		CreateCategories(ctx context.Context, cats []core.Category) ([]core.Category, error)
		DeleteCategory(ctx context.Context, owner, id string) error
	}

	// ContractStore persists debt and financing contracts. UpdateContract
	// succeeds only when c.Version matches the stored version, and bumps it;
	// a stale version yields core.ErrConflict.
	ContractStore interface {
		CreateContract(ctx context.Context, c core.Contract) (core.Contract, error)
		GetContract(ctx context.Context, owner, id string) (core.Contract, error)
		ListContracts(ctx context.Context, owner string) ([]core.Contract, error)
		UpdateContract(ctx context.Context, c core.Contract) (core.Contract, error)
		DeleteContract(ctx context.Context, owner, id string) error
	}

	ReminderStore interface {
		CreateReminder(ctx context.Context, r core.Reminder) (core.Reminder, error)
		GetReminder(ctx context.Context, owner, id string) (core.Reminder, error)
		UpdateReminder(ctx context.Context, r core.Reminder) error
		DeleteReminder(ctx context.Context, owner, id string) error
		ListDatedReminders(ctx context.Context, owner string, start, end time.Time) ([]core.Reminder, error)
		ListUndatedReminders(ctx context.Context, owner string) ([]core.Reminder, error)
		// DeleteUndatedBefore removes undated reminders of every owner created
		// before cutoff and returns how many were removed.
		DeleteUndatedBefore(ctx context.Context, cutoff time.Time) (int, error)
	}

	// PaymentRecorder is implemented by stores that can persist a contract
	// update and its ledger entry atomically.
	PaymentRecorder interface {
		RecordPayment(ctx context.Context, c core.Contract, entry core.Transaction) (core.Contract, core.Transaction, error)
	}

	// Store is the full storage collaborator.
	Store interface {
		TransactionStore
		CategoryStore
		ContractStore
		ReminderStore
		Close() error
	}

	EventPublisher interface {
		PublishPaymentRegistered(ctx context.Context, owner string, c core.Contract, entry core.Transaction) error
		PublishPeriodChanged(ctx context.Context, owner string, year, month int) error
	}

	// PeriodExporter writes a period report to an external sink.
	PeriodExporter interface {
		ExportPeriod(ctx context.Context, owner string, r core.PeriodReport) error
	}
)
