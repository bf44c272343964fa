package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

// LedgerService owns the transaction and category lifecycle. Writes go to the
// store first; change events are published afterwards and never fail the call.
type LedgerService struct {
	transactions ports.TransactionStore
	categories   ports.CategoryStore
	events       ports.EventPublisher
}

func NewLedgerService(transactions ports.TransactionStore, categories ports.CategoryStore, events ports.EventPublisher) *LedgerService {
	return &LedgerService{
		transactions: transactions,
		categories:   categories,
		events:       events,
	}
}

// TransactionPatch carries the fields to change; nil fields are left alone.
type TransactionPatch struct {
	Kind        *core.Kind
	Amount      *core.Money
	Category    *string
	Description *string
	OccurredAt  *time.Time
	Status      *core.SettlementStatus
	IsRecurring *bool
}

// AddTransaction records a new ledger entry, seeding the owner's default
// categories for its kind on first use.
func (s *LedgerService) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t, err := normalizeTransaction(t)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.ensureDefaultCategories(ctx, t.OwnerKey, t.Kind); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.transactions.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		log.FieldComponent, log.ComponentLedger,
		log.FieldOperation, log.OpCreate,
		log.FieldOwnerKey, saved.OwnerKey,
		log.FieldTransactionID, saved.ID,
		log.FieldKind, saved.Kind,
		log.FieldAmountCents, saved.Amount.Cents)

	s.publishPeriodChanged(ctx, saved.OwnerKey, saved.OccurredAt)
	return saved, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	return s.transactions.GetTransaction(ctx, owner, id)
}

// ListTransactions returns the owner's entries inside the given month.
func (s *LedgerService) ListTransactions(ctx context.Context, owner string, year, month int) ([]core.Transaction, error) {
	if err := core.ValidateMonth(month); err != nil {
		return nil, err
	}
	p := core.ResolvePeriod(year, month)
	txs, err := s.transactions.ListTransactions(ctx, owner, p.Start, p.End)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// EditTransaction applies patch. A kind change without an explicit status
// resets the status to Pending since the old one belongs to the other kind.
func (s *LedgerService) EditTransaction(ctx context.Context, owner, id string, patch TransactionPatch) (core.Transaction, error) {
	cur, err := s.transactions.GetTransaction(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, err
	}

	next := cur
	if patch.Kind != nil && *patch.Kind != cur.Kind {
		next.Kind = *patch.Kind
		next.Status = core.StatusPending
	}
	if patch.Amount != nil {
		next.Amount = *patch.Amount
	}
	if patch.Category != nil {
		next.Category = *patch.Category
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.OccurredAt != nil {
		next.OccurredAt = *patch.OccurredAt
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.IsRecurring != nil {
		next.IsRecurring = *patch.IsRecurring
	}

	next, err = normalizeTransaction(next)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.transactions.UpdateTransaction(ctx, next); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated",
		log.FieldComponent, log.ComponentLedger,
		log.FieldOperation, log.OpUpdate,
		log.FieldOwnerKey, owner,
		log.FieldTransactionID, id)

	s.publishPeriodChanged(ctx, owner, next.OccurredAt)
	if core.PeriodOf(cur.OccurredAt).Key() != core.PeriodOf(next.OccurredAt).Key() {
		s.publishPeriodChanged(ctx, owner, cur.OccurredAt)
	}
	return next, nil
}

// ToggleSettlement flips the entry between Pending and its settled status.
func (s *LedgerService) ToggleSettlement(ctx context.Context, owner, id string) (core.Transaction, error) {
	cur, err := s.transactions.GetTransaction(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, err
	}
	status := core.StatusPending
	if !core.Classify(cur).Settled {
		status = core.SettledStatus(cur.Kind)
	}
	return s.EditTransaction(ctx, owner, id, TransactionPatch{Status: &status})
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, owner, id string) error {
	cur, err := s.transactions.GetTransaction(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.transactions.DeleteTransaction(ctx, owner, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted",
		log.FieldComponent, log.ComponentLedger,
		log.FieldOperation, log.OpDelete,
		log.FieldOwnerKey, owner,
		log.FieldTransactionID, id)

	s.publishPeriodChanged(ctx, owner, cur.OccurredAt)
	return nil
}

// ListCategories returns the owner's categories of kind k, seeding the
// defaults when the owner has none yet.
func (s *LedgerService) ListCategories(ctx context.Context, owner string, k core.Kind) ([]core.Category, error) {
	if !k.Valid() {
		return nil, core.ErrInvalidKind
	}
	if err := s.ensureDefaultCategories(ctx, owner, k); err != nil {
		return nil, err
	}
	cats, err := s.categories.ListCategories(ctx, owner, k)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *LedgerService) AddCategory(ctx context.Context, owner, name string, k core.Kind) (core.Category, error) {
	c := core.Category{OwnerKey: owner, Name: strings.TrimSpace(name), Kind: k}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.ensureDefaultCategories(ctx, owner, k); err != nil {
		return core.Category{}, err
	}
	created, err := s.categories.CreateCategories(ctx, []core.Category{c})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	if len(created) == 0 {
		return core.Category{}, fmt.Errorf("category %q: %w", c.Name, core.ErrConflict)
	}
	return created[0], nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, owner, id string) error {
	if err := s.categories.DeleteCategory(ctx, owner, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *LedgerService) ensureDefaultCategories(ctx context.Context, owner string, k core.Kind) error {
	existing, err := s.categories.ListCategories(ctx, owner, k)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	names := core.DefaultCategoryNames(k)
	defaults := make([]core.Category, 0, len(names))
	for _, name := range names {
		defaults = append(defaults, core.Category{OwnerKey: owner, Name: name, Kind: k, IsDefault: true})
	}
	if _, err := s.categories.CreateCategories(ctx, defaults); err != nil {
		return fmt.Errorf("seed default categories: %w", err)
	}

	slog.InfoContext(ctx, "Default categories seeded",
		log.FieldComponent, log.ComponentLedger,
		log.FieldOwnerKey, owner,
		log.FieldKind, k,
		"count", len(defaults))
	return nil
}

func (s *LedgerService) publishPeriodChanged(ctx context.Context, owner string, at time.Time) {
	if s.events == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping period change")
		return
	}
	at = at.UTC()
	if err := s.events.PublishPeriodChanged(ctx, owner, at.Year(), int(at.Month())); err != nil {
		slog.ErrorContext(ctx, "Failed to publish period change",
			log.FieldComponent, log.ComponentLedger,
			log.FieldOwnerKey, owner,
			log.FieldYear, at.Year(),
			log.FieldMonth, int(at.Month()),
			log.FieldError, err)
	}
}

// normalizeTransaction defaults the status, closes the status set per kind
// and replaces blank categories.
func normalizeTransaction(t core.Transaction) (core.Transaction, error) {
	if !t.Kind.Valid() {
		return core.Transaction{}, core.ErrInvalidKind
	}
	if t.Status == "" {
		t.Status = core.StatusPending
	}
	if !t.Status.ValidFor(t.Kind) {
		return core.Transaction{}, fmt.Errorf("%s %s: %w", t.Kind, t.Status, core.ErrInvalidStatus)
	}
	t.Category = core.NormalizeCategory(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	t.OccurredAt = t.OccurredAt.UTC()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
