package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	ContractDebt      ContractType = "debt"
	ContractFinancing ContractType = "financing"
)

const (
	FinancingHouse      FinancingCategory = "house"
	FinancingCar        FinancingCategory = "car"
	FinancingMotorcycle FinancingCategory = "motorcycle"
	FinancingOther      FinancingCategory = "other"
)

// Ledger labels for entries emitted by RegisterPayment.
const (
	DebtPaymentCategory      = "Debt Payment"
	FinancingPaymentCategory = "Financing Payment"
)

const (
	ContractOpen    ContractState = "open"
	ContractSettled ContractState = "settled"
)

type (
	ContractType      string
	FinancingCategory string
	ContractState     string

	// Contract is a debt or financing obligation tracked outside the ledger.
	// PaidAmount may exceed TotalAmount; overpayment is not rejected.
	Contract struct {
		ID               string
		OwnerKey         string
		Type             ContractType
		Description      string
		Category         FinancingCategory
		TotalAmount      Money
		PaidAmount       Money
		StartDate        time.Time
		DueDate          time.Time
		InstallmentCount int
		InstallmentsPaid int
		// MonthlyInterestRate is a percentage, zero for plain debts.
		MonthlyInterestRate decimal.Decimal
		Version             int64
		CreatedAt           time.Time
	}

	// ContractsSummary aggregates every contract of an owner.
	ContractsSummary struct {
		TotalOwed     Money
		TotalPaid     Money
		Remaining     Money
		OpenCount     int
		SettledCount  int
		ContractCount int
	}
)

func ParseContractType(s string) (ContractType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debt", "divida":
		return ContractDebt, nil
	case "financing", "financiamento":
		return ContractFinancing, nil
	default:
		return "", ErrInvalidContractType
	}
}

// ParseFinancingCategory maps blanks and unknown values to FinancingOther.
func ParseFinancingCategory(s string) FinancingCategory {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "house", "casa":
		return FinancingHouse
	case "car", "carro":
		return FinancingCar
	case "motorcycle", "moto":
		return FinancingMotorcycle
	default:
		return FinancingOther
	}
}

// Normalize applies the per-type defaults: a debt is a single bullet
// obligation without interest.
func (c Contract) Normalize() Contract {
	if c.Type == ContractDebt {
		c.InstallmentCount = 1
		c.MonthlyInterestRate = decimal.Zero
		if c.InstallmentsPaid > 1 {
			c.InstallmentsPaid = 1
		}
	}
	if c.Type == ContractFinancing {
		c.Category = ParseFinancingCategory(string(c.Category))
	}
	if c.InstallmentCount < 1 {
		c.InstallmentCount = 1
	}
	return c
}

func (c Contract) Validate() error {
	if strings.TrimSpace(c.OwnerKey) == "" {
		return ErrEmptyOwner
	}
	if c.Type != ContractDebt && c.Type != ContractFinancing {
		return ErrInvalidContractType
	}
	if strings.TrimSpace(c.Description) == "" {
		return ErrEmptyDescription
	}
	if len(c.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if c.TotalAmount.Cents < 0 || c.PaidAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if c.InstallmentCount < 1 || c.InstallmentsPaid < 0 {
		return ErrInvalidInstallments
	}
	if c.MonthlyInterestRate.IsNegative() {
		return ErrInvalidRate
	}
	return nil
}

// Remaining is TotalAmount - PaidAmount; negative after an overpayment.
func (c Contract) Remaining() Money {
	return c.TotalAmount.Sub(c.PaidAmount)
}

// ProgressPercent is the paid share of the total, 0 when the total is zero.
func (c Contract) ProgressPercent() float64 {
	return Share(c.PaidAmount, c.TotalAmount)
}

func (c Contract) State() ContractState {
	if c.PaidAmount.Cents >= c.TotalAmount.Cents {
		return ContractSettled
	}
	return ContractOpen
}

// InstallmentBased reports whether payments are counted as installments.
func (c Contract) InstallmentBased() bool {
	return c.Type == ContractFinancing || c.InstallmentCount > 1
}

// PaymentCategory is the ledger category of entries paying this contract.
func (c Contract) PaymentCategory() string {
	if c.Type == ContractFinancing {
		return FinancingPaymentCategory
	}
	return DebtPaymentCategory
}

// paymentDescription is cut to MaxDescriptionLength on a rune boundary so
// contracts stored before the length check still produce a valid entry.
func (c Contract) paymentDescription() string {
	desc := "Payment: " + c.Description
	if c.Type == ContractFinancing {
		desc = "Installment: " + c.Description
	}
	if len(desc) <= MaxDescriptionLength {
		return desc
	}
	cut := MaxDescriptionLength
	for cut > 0 && !utf8.RuneStart(desc[cut]) {
		cut--
	}
	return desc[:cut]
}

// ApplyPayment returns the contract after paying amount at the given instant,
// and the companion expense entry to record in the ledger. It does not mutate c.
//
// Paid installments advance by one, capped at InstallmentCount; reaching the
// total forces the count to InstallmentCount regardless of prior partial counts.
func (c Contract) ApplyPayment(amount Money, at time.Time) (Contract, Transaction, error) {
	if err := amount.Validate(); err != nil {
		return c, Transaction{}, err
	}

	next := c
	next.PaidAmount = c.PaidAmount.Add(amount)
	switch {
	case next.PaidAmount.Cents >= next.TotalAmount.Cents:
		next.InstallmentsPaid = next.InstallmentCount
	case next.InstallmentBased():
		next.InstallmentsPaid = min(c.InstallmentsPaid+1, next.InstallmentCount)
	}

	entry := Transaction{
		OwnerKey:    c.OwnerKey,
		Kind:        KindExpense,
		Amount:      amount,
		Category:    c.PaymentCategory(),
		Description: c.paymentDescription(),
		OccurredAt:  at.UTC(),
		Status:      StatusPaid,
		ContractID:  c.ID,
	}
	return next, entry, nil
}

// SummarizeContracts totals owed, paid and remaining amounts across contracts.
func SummarizeContracts(contracts []Contract) ContractsSummary {
	var s ContractsSummary
	for _, c := range contracts {
		s.TotalOwed = s.TotalOwed.Add(c.TotalAmount)
		s.TotalPaid = s.TotalPaid.Add(c.PaidAmount)
		if c.State() == ContractSettled {
			s.SettledCount++
		} else {
			s.OpenCount++
		}
	}
	s.Remaining = s.TotalOwed.Sub(s.TotalPaid)
	s.ContractCount = len(contracts)
	return s
}

// GroupFinancings buckets financing contracts by category; debts are skipped.
func GroupFinancings(contracts []Contract) map[FinancingCategory][]Contract {
	groups := map[FinancingCategory][]Contract{
		FinancingHouse:      nil,
		FinancingCar:        nil,
		FinancingMotorcycle: nil,
		FinancingOther:      nil,
	}
	for _, c := range contracts {
		if c.Type != ContractFinancing {
			continue
		}
		cat := ParseFinancingCategory(string(c.Category))
		groups[cat] = append(groups[cat], c)
	}
	return groups
}
