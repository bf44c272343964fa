package services

import (
	"errors"
	"fmt"

	"fintrack/internal/core"
)

var (
	// ErrLedgerEntryNotRecorded marks a payment whose contract update was
	// persisted but whose companion expense was not.
	ErrLedgerEntryNotRecorded = errors.New("payment ledger entry not recorded")
	ErrExportUnavailable      = errors.New("no period exporter configured")
	ErrReminderDated          = errors.New("reminder has a date")
)

// PartialPaymentError is returned by RegisterPayment when the contract was
// updated but the ledger write failed. The gap is recoverable with Reconcile.
type PartialPaymentError struct {
	Contract core.Contract
	Entry    core.Transaction
	Err      error
}

func (e *PartialPaymentError) Error() string {
	return fmt.Sprintf("contract %s updated but ledger entry not recorded: %v", e.Contract.ID, e.Err)
}

func (e *PartialPaymentError) Unwrap() []error {
	return []error{ErrLedgerEntryNotRecorded, e.Err}
}
