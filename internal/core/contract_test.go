package core

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var payAt = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func financing(total, paid int64, count, done int) Contract {
	return Contract{
		ID:                  "c1",
		OwnerKey:            "s1",
		Type:                ContractFinancing,
		Description:         "Car loan",
		Category:            FinancingCar,
		TotalAmount:         Cents(total),
		PaidAmount:          Cents(paid),
		InstallmentCount:    count,
		InstallmentsPaid:    done,
		MonthlyInterestRate: decimal.RequireFromString("1.5"),
	}
}

func TestApplyPaymentPartial(t *testing.T) {
	c := financing(120000, 0, 12, 0)
	next, entry, err := c.ApplyPayment(Cents(10000), payAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.PaidAmount.Cents != 10000 || next.InstallmentsPaid != 1 {
		t.Fatalf("next = paid %d, installments %d", next.PaidAmount.Cents, next.InstallmentsPaid)
	}
	if next.State() != ContractOpen {
		t.Fatalf("state = %s, want open", next.State())
	}
	if c.PaidAmount.Cents != 0 {
		t.Fatalf("ApplyPayment mutated the receiver")
	}

	if entry.Kind != KindExpense || entry.Amount.Cents != 10000 || entry.Status != StatusPaid {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Category != FinancingPaymentCategory || entry.Description != "Installment: Car loan" {
		t.Errorf("entry labels = %q / %q", entry.Category, entry.Description)
	}
	if entry.ContractID != "c1" || !entry.OccurredAt.Equal(payAt) || entry.OwnerKey != "s1" {
		t.Errorf("entry linkage = %+v", entry)
	}
}

func TestApplyPaymentExactRemainingSettles(t *testing.T) {
	c := financing(120000, 30000, 12, 3)
	next, _, err := c.ApplyPayment(c.Remaining(), payAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.State() != ContractSettled {
		t.Fatalf("state = %s, want settled", next.State())
	}
	if next.InstallmentsPaid != 12 {
		t.Fatalf("InstallmentsPaid = %d, want 12", next.InstallmentsPaid)
	}
	if !next.Remaining().IsZero() || next.ProgressPercent() != 100 {
		t.Fatalf("remaining = %d, progress = %v", next.Remaining().Cents, next.ProgressPercent())
	}
}

func TestApplyPaymentCapsInstallments(t *testing.T) {
	c := financing(120000, 10000, 2, 2)
	next, _, err := c.ApplyPayment(Cents(1000), payAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.InstallmentsPaid != 2 {
		t.Fatalf("InstallmentsPaid = %d, want capped at 2", next.InstallmentsPaid)
	}
}

func TestApplyPaymentOverpaymentIsAccepted(t *testing.T) {
	c := financing(10000, 9000, 10, 9)
	next, _, err := c.ApplyPayment(Cents(5000), payAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.PaidAmount.Cents != 14000 || next.Remaining().Cents != -4000 {
		t.Fatalf("paid %d remaining %d", next.PaidAmount.Cents, next.Remaining().Cents)
	}
	if next.ProgressPercent() <= 100 {
		t.Fatalf("progress = %v, want > 100", next.ProgressPercent())
	}
}

func TestApplyPaymentRejectsNonPositive(t *testing.T) {
	c := financing(10000, 0, 10, 0)
	for _, amt := range []int64{0, -100} {
		next, _, err := c.ApplyPayment(Cents(amt), payAt)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: err = %v, want ErrInvalidAmount", amt, err)
		}
		if next.PaidAmount != c.PaidAmount {
			t.Fatalf("amount %d changed state", amt)
		}
	}
}

func TestDebtIsBulletObligation(t *testing.T) {
	d := Contract{
		ID: "d1", OwnerKey: "s1", Type: ContractDebt, Description: "Loan from Ana",
		TotalAmount: Cents(50000), InstallmentCount: 24, MonthlyInterestRate: decimal.NewFromInt(3),
	}.Normalize()
	if d.InstallmentCount != 1 || !d.MonthlyInterestRate.IsZero() {
		t.Fatalf("normalized debt = %+v", d)
	}

	partial, entry, err := d.ApplyPayment(Cents(20000), payAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if partial.InstallmentsPaid != 0 {
		t.Fatalf("partial debt payment counted an installment")
	}
	if entry.Category != DebtPaymentCategory || entry.Description != "Payment: Loan from Ana" {
		t.Fatalf("entry labels = %q / %q", entry.Category, entry.Description)
	}

	settled, _, _ := partial.ApplyPayment(Cents(30000), payAt)
	if settled.State() != ContractSettled || settled.InstallmentsPaid != 1 {
		t.Fatalf("settled debt = %+v", settled)
	}
}

func TestProgressWithZeroTotal(t *testing.T) {
	c := Contract{Type: ContractDebt}
	if got := c.ProgressPercent(); got != 0 {
		t.Fatalf("ProgressPercent = %v, want 0", got)
	}
}

func TestSummarizeAndGroup(t *testing.T) {
	contracts := []Contract{
		financing(100000, 100000, 10, 10),
		financing(50000, 10000, 5, 1),
		{Type: ContractDebt, TotalAmount: Cents(2000)},
		{Type: ContractFinancing, Category: "", TotalAmount: Cents(1000)},
	}
	s := SummarizeContracts(contracts)
	if s.TotalOwed.Cents != 153000 || s.TotalPaid.Cents != 110000 || s.Remaining.Cents != 43000 {
		t.Fatalf("summary = %+v", s)
	}
	if s.OpenCount != 3 || s.SettledCount != 1 || s.ContractCount != 4 {
		t.Fatalf("counts = %+v", s)
	}

	groups := GroupFinancings(contracts)
	if len(groups[FinancingCar]) != 2 || len(groups[FinancingOther]) != 1 || len(groups[FinancingHouse]) != 0 {
		t.Fatalf("groups = %+v", groups)
	}
}

func TestReconcile(t *testing.T) {
	c := financing(100000, 30000, 10, 3)
	ledger := []Transaction{
		{Kind: KindExpense, Amount: Cents(10000), ContractID: "c1"},
		{Kind: KindExpense, Amount: Cents(10000), ContractID: "c1"},
		{Kind: KindExpense, Amount: Cents(10000), ContractID: "other"},
		{Kind: KindIncome, Amount: Cents(10000), ContractID: "c1"},
	}
	r := Reconcile(c, ledger)
	if r.Entries != 2 || r.LedgerPaid.Cents != 20000 || r.Gap.Cents != 10000 || r.Consistent() {
		t.Fatalf("reconciliation = %+v", r)
	}
}

func TestPaymentEntryDescriptionFitsLimit(t *testing.T) {
	tests := []struct {
		name string
		typ  ContractType
		desc string
	}{
		{"financing ascii", ContractFinancing, strings.Repeat("a", MaxDescriptionLength)},
		{"financing multibyte", ContractFinancing, strings.Repeat("è", MaxDescriptionLength/2)},
		{"debt ascii", ContractDebt, strings.Repeat("a", MaxDescriptionLength-5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := financing(120000, 0, 12, 0)
			c.Type = tt.typ
			c.Description = tt.desc
			if err := c.Validate(); err != nil {
				t.Fatalf("validate: %v", err)
			}
			_, entry, err := c.ApplyPayment(Cents(1000), payAt)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if err := entry.Validate(); err != nil {
				t.Fatalf("entry invalid: %v", err)
			}
			if !utf8.ValidString(entry.Description) {
				t.Fatalf("entry description cut mid-rune: %q", entry.Description)
			}
		})
	}

	c := financing(120000, 0, 12, 0)
	c.Description = strings.Repeat("a", MaxDescriptionLength+1)
	if err := c.Validate(); !errors.Is(err, ErrDescriptionTooLong) {
		t.Fatalf("err = %v, want ErrDescriptionTooLong", err)
	}
}
