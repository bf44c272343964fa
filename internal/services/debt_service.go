package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"

	"github.com/shopspring/decimal"
)

// DebtService tracks debt and financing contracts and registers payments
// against them. Payments on one contract are serialized.
type DebtService struct {
	contracts ports.ContractStore
	ledger    ports.TransactionStore
	events    ports.EventPublisher
	locks     *keyedLocker
	now       func() time.Time
}

func NewDebtService(contracts ports.ContractStore, ledger ports.TransactionStore, events ports.EventPublisher) *DebtService {
	return &DebtService{
		contracts: contracts,
		ledger:    ledger,
		events:    events,
		locks:     newKeyedLocker(),
		now:       time.Now,
	}
}

// WithClock replaces the clock used to date payment entries.
func (s *DebtService) WithClock(now func() time.Time) *DebtService {
	s.now = now
	return s
}

// ContractPatch carries the editable contract fields; nil fields are left alone.
type ContractPatch struct {
	Description         *string
	Category            *core.FinancingCategory
	TotalAmount         *core.Money
	StartDate           *time.Time
	DueDate             *time.Time
	InstallmentCount    *int
	MonthlyInterestRate *decimal.Decimal
}

// PaymentResult is the outcome of a registered payment.
type PaymentResult struct {
	Contract core.Contract
	Entry    core.Transaction
}

func (s *DebtService) CreateContract(ctx context.Context, c core.Contract) (core.Contract, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return core.Contract{}, err
	}
	saved, err := s.contracts.CreateContract(ctx, c)
	if err != nil {
		return core.Contract{}, fmt.Errorf("save contract: %w", err)
	}

	slog.InfoContext(ctx, "Contract created",
		log.FieldComponent, log.ComponentDebt,
		log.FieldOperation, log.OpCreate,
		log.FieldOwnerKey, saved.OwnerKey,
		log.FieldContractID, saved.ID,
		"contract_type", saved.Type,
		log.FieldAmountCents, saved.TotalAmount.Cents)
	return saved, nil
}

func (s *DebtService) GetContract(ctx context.Context, owner, id string) (core.Contract, error) {
	return s.contracts.GetContract(ctx, owner, id)
}

func (s *DebtService) ListContracts(ctx context.Context, owner string) ([]core.Contract, error) {
	cs, err := s.contracts.ListContracts(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	return cs, nil
}

func (s *DebtService) Summary(ctx context.Context, owner string) (core.ContractsSummary, error) {
	cs, err := s.ListContracts(ctx, owner)
	if err != nil {
		return core.ContractsSummary{}, err
	}
	return core.SummarizeContracts(cs), nil
}

// Financings returns the owner's financing contracts grouped by category.
func (s *DebtService) Financings(ctx context.Context, owner string) (map[core.FinancingCategory][]core.Contract, error) {
	cs, err := s.ListContracts(ctx, owner)
	if err != nil {
		return nil, err
	}
	return core.GroupFinancings(cs), nil
}

// EditContract applies patch under the contract's lock. Payment progress is
// not editable here; use RegisterPayment.
func (s *DebtService) EditContract(ctx context.Context, owner, id string, patch ContractPatch) (core.Contract, error) {
	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return core.Contract{}, err
	}
	defer unlock()

	c, err := s.contracts.GetContract(ctx, owner, id)
	if err != nil {
		return core.Contract{}, err
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Category != nil {
		c.Category = *patch.Category
	}
	if patch.TotalAmount != nil {
		c.TotalAmount = *patch.TotalAmount
	}
	if patch.StartDate != nil {
		c.StartDate = *patch.StartDate
	}
	if patch.DueDate != nil {
		c.DueDate = *patch.DueDate
	}
	if patch.InstallmentCount != nil {
		c.InstallmentCount = *patch.InstallmentCount
	}
	if patch.MonthlyInterestRate != nil {
		c.MonthlyInterestRate = *patch.MonthlyInterestRate
	}
	c = c.Normalize()
	if c.State() == core.ContractSettled || c.InstallmentsPaid > c.InstallmentCount {
		c.InstallmentsPaid = c.InstallmentCount
	}
	if err := c.Validate(); err != nil {
		return core.Contract{}, err
	}

	updated, err := s.contracts.UpdateContract(ctx, c)
	if err != nil {
		return core.Contract{}, fmt.Errorf("update contract: %w", err)
	}
	return updated, nil
}

// DeleteContract removes the contract. Its payment entries stay in the ledger.
func (s *DebtService) DeleteContract(ctx context.Context, owner, id string) error {
	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.contracts.DeleteContract(ctx, owner, id); err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	slog.InfoContext(ctx, "Contract deleted",
		log.FieldComponent, log.ComponentDebt,
		log.FieldOperation, log.OpDelete,
		log.FieldOwnerKey, owner,
		log.FieldContractID, id)
	return nil
}

// RegisterPayment adds amount to the contract and records the companion
// expense dated now. Stores implementing ports.PaymentRecorder persist both
// atomically. Otherwise the contract is written first; if the ledger write
// then fails the returned error is a *PartialPaymentError carrying the
// updated contract.
func (s *DebtService) RegisterPayment(ctx context.Context, owner, id string, amount core.Money) (PaymentResult, error) {
	if err := amount.Validate(); err != nil {
		return PaymentResult{}, err
	}

	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return PaymentResult{}, err
	}
	defer unlock()

	c, err := s.contracts.GetContract(ctx, owner, id)
	if err != nil {
		return PaymentResult{}, err
	}
	next, entry, err := c.ApplyPayment(amount, s.now())
	if err != nil {
		return PaymentResult{}, err
	}
	if next.PaidAmount.Cents > next.TotalAmount.Cents {
		slog.WarnContext(ctx, "Payment exceeds contract total",
			log.FieldComponent, log.ComponentDebt,
			log.FieldOwnerKey, owner,
			log.FieldContractID, id,
			"paid_cents", next.PaidAmount.Cents,
			"total_cents", next.TotalAmount.Cents)
	}

	result, err := s.persistPayment(ctx, next, entry)
	if err != nil {
		return result, err
	}

	slog.InfoContext(ctx, "Payment registered",
		log.NewFields().
			WithComponent(log.ComponentDebt).
			WithOperation(log.OpPayment).
			WithOwner(owner).
			WithPayment(result.Contract.ID, result.Entry.ID, amount.Cents).
			ToSlice()...)

	if s.events == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping payment event")
	} else if err := s.events.PublishPaymentRegistered(ctx, owner, result.Contract, result.Entry); err != nil {
		slog.ErrorContext(ctx, "Failed to publish payment event",
			log.FieldComponent, log.ComponentDebt,
			log.FieldContractID, id,
			log.FieldError, err)
	}
	return result, nil
}

func (s *DebtService) persistPayment(ctx context.Context, next core.Contract, entry core.Transaction) (PaymentResult, error) {
	if recorder, ok := s.contracts.(ports.PaymentRecorder); ok {
		updated, saved, err := recorder.RecordPayment(ctx, next, entry)
		if err != nil {
			return PaymentResult{}, err
		}
		return PaymentResult{Contract: updated, Entry: saved}, nil
	}

	updated, err := s.contracts.UpdateContract(ctx, next)
	if err != nil {
		return PaymentResult{}, fmt.Errorf("update contract: %w", err)
	}
	saved, err := s.ledger.CreateTransaction(ctx, entry)
	if err != nil {
		slog.ErrorContext(ctx, "Contract updated but payment entry not recorded",
			log.FieldComponent, log.ComponentDebt,
			log.FieldContractID, updated.ID,
			log.FieldAmountCents, entry.Amount.Cents,
			log.FieldReconciliation, true,
			log.FieldError, err)
		return PaymentResult{Contract: updated, Entry: entry}, &PartialPaymentError{Contract: updated, Entry: entry, Err: err}
	}
	return PaymentResult{Contract: updated, Entry: saved}, nil
}

// Reconcile compares the contract's paid amount with its linked ledger entries.
func (s *DebtService) Reconcile(ctx context.Context, owner, id string) (core.Reconciliation, error) {
	c, err := s.contracts.GetContract(ctx, owner, id)
	if err != nil {
		return core.Reconciliation{}, err
	}
	entries, err := s.ledger.ListTransactionsByContract(ctx, owner, id)
	if err != nil {
		return core.Reconciliation{}, fmt.Errorf("list contract entries: %w", err)
	}
	r := core.Reconcile(c, entries)
	if !r.Consistent() {
		slog.WarnContext(ctx, "Contract and ledger disagree",
			log.FieldComponent, log.ComponentDebt,
			log.FieldOperation, log.OpReconcile,
			log.FieldOwnerKey, owner,
			log.FieldContractID, id,
			"gap_cents", r.Gap.Cents)
	}
	return r, nil
}

// IsPartialPayment reports whether err is a recoverable payment gap.
func IsPartialPayment(err error) bool {
	return errors.Is(err, ErrLedgerEntryNotRecorded)
}
