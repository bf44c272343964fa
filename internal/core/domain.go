package core

import (
	"errors"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	StatusPending  SettlementStatus = "pending"
	StatusReceived SettlementStatus = "received"
	StatusPaid     SettlementStatus = "paid"
)

// Uncategorized replaces blank category labels.
const Uncategorized = "Uncategorized"

type (
	// Kind is the direction of a money movement.
	Kind string

	// SettlementStatus tells whether money has actually moved.
	SettlementStatus string

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string
		OwnerKey    string
		Kind        Kind
		Amount      Money
		Category    string
		Description string
		OccurredAt  time.Time
		Status      SettlementStatus
		IsRecurring bool
		// ContractID links payment entries back to the debt they settle.
		ContractID string
		CreatedAt  time.Time
	}

	Category struct {
		ID        string
		OwnerKey  string
		Name      string
		Kind      Kind
		IsDefault bool
	}

	Reminder struct {
		ID          string
		OwnerKey    string
		Description string
		At          *time.Time // nil for undated reminders
		LeadTime    string
		CreatedAt   time.Time
	}
)

// MaxDescriptionLength bounds every stored description, in bytes.
const MaxDescriptionLength = 200

var (
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidKind         = errors.New("invalid transaction kind")
	ErrInvalidStatus       = errors.New("invalid settlement status for kind")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrMissingDate         = errors.New("transaction date cannot be zero")
	ErrEmptyOwner          = errors.New("empty owner key")
	ErrEmptyCategory       = errors.New("empty category name")
	ErrInvalidInstallments = errors.New("invalid installment count")
	ErrInvalidContractType = errors.New("invalid contract type")
	ErrInvalidRate         = errors.New("invalid interest rate")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("concurrent modification")
)

var validationErrors = []error{
	ErrInvalidMonth, ErrInvalidAmount, ErrInvalidKind, ErrInvalidStatus,
	ErrEmptyDescription, ErrDescriptionTooLong, ErrMissingDate, ErrEmptyOwner,
	ErrEmptyCategory, ErrInvalidInstallments, ErrInvalidContractType, ErrInvalidRate,
}

// IsValidation reports whether err stems from rejected input rather than a
// storage or infrastructure failure.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ParseKind accepts both the English names and the legacy direction tags.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "entrada", "receita":
		return KindIncome, nil
	case "expense", "saida", "despesa":
		return KindExpense, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// ParseSettlementStatus maps a raw status value onto the closed set of statuses.
// Anything unknown, including the empty string, is Pending.
func ParseSettlementStatus(s string) SettlementStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "received", "recebido":
		return StatusReceived
	case "paid", "pago":
		return StatusPaid
	default:
		return StatusPending
	}
}

// ValidFor reports whether s is Pending or the settled status of kind k.
func (s SettlementStatus) ValidFor(k Kind) bool {
	return s == StatusPending || s == SettledStatus(k)
}

// SettledStatus returns the status that marks a transaction of kind k as settled.
func SettledStatus(k Kind) SettlementStatus {
	if k == KindIncome {
		return StatusReceived
	}
	return StatusPaid
}

// NormalizeCategory trims the label and substitutes Uncategorized for blanks.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Uncategorized
	}
	return s
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerKey) == "" {
		return ErrEmptyOwner
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if t.OccurredAt.IsZero() {
		return ErrMissingDate
	}
	if len(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.OwnerKey) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.OwnerKey) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if len(r.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// IsDated reports whether the reminder has a date attached.
func (r Reminder) IsDated() bool {
	return r.At != nil && !r.At.IsZero()
}
