package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

func seedLedger(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	rows := []core.Transaction{
		{Kind: core.KindIncome, Amount: core.Cents(300000), Category: "Salary", Status: core.StatusReceived, OccurredAt: time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)},
		{Kind: core.KindExpense, Amount: core.Cents(90000), Category: "Home", Status: core.StatusPaid, OccurredAt: time.Date(2025, 3, 6, 9, 0, 0, 0, time.UTC)},
		{Kind: core.KindExpense, Amount: core.Cents(10000), Category: "Food", OccurredAt: time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)},
		{Kind: core.KindIncome, Amount: core.Cents(50000), Category: "Freelance", OccurredAt: time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)},
	}
	for _, r := range rows {
		r.OwnerKey = "s1"
		if _, err := store.CreateTransaction(ctx, r); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestPeriodReport(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedLedger(t, store)
	svc := NewReportService(store, store, store, nil)

	r, err := svc.PeriodReport(ctx, "s1", 2025, 3)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if r.Rollup.TotalIncome.Cents != 300000 || r.Rollup.TotalExpense.Cents != 100000 || r.Rollup.PeriodResult.Cents != 200000 {
		t.Fatalf("rollup = %+v", r.Rollup)
	}
	if len(r.Realized) != 2 || len(r.Projected) != 3 {
		t.Fatalf("series lengths = %d/%d", len(r.Realized), len(r.Projected))
	}
	if last := r.Projected[len(r.Projected)-1]; last.Balance != r.Rollup.PeriodResult {
		t.Fatalf("final balance %v != period result %v", last.Balance, r.Rollup.PeriodResult)
	}

	if _, err := svc.PeriodReport(ctx, "s1", 2025, 13); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("err = %v, want ErrInvalidMonth", err)
	}
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedLedger(t, store)
	at := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if _, err := store.CreateReminder(ctx, core.Reminder{OwnerKey: "s1", Description: "Rent", At: &at}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateReminder(ctx, core.Reminder{OwnerKey: "s1", Description: "Someday"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateContract(ctx, carLoan()); err != nil {
		t.Fatal(err)
	}

	d, err := NewReportService(store, store, store, nil).Dashboard(ctx, "s1", 2025, 3)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Report.Rollup.TotalIncome.Cents != 300000 || d.Contracts.ContractCount != 1 ||
		len(d.Reminders) != 1 || len(d.UndatedReminders) != 1 {
		t.Fatalf("dashboard = %+v", d)
	}
}

func TestYearNetIncome(t *testing.T) {
	store := memory.New()
	seedLedger(t, store)

	months, err := NewReportService(store, store, store, nil).YearNetIncome(context.Background(), "s1", 2025)
	if err != nil {
		t.Fatalf("year: %v", err)
	}
	if len(months) != 12 || months[2].Net.Cents != 200000 || months[3].Net.Cents != 50000 || !months[0].Net.IsZero() {
		t.Fatalf("months = %+v", months)
	}
}

func TestExportPeriod(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedLedger(t, store)

	if err := NewReportService(store, store, store, nil).ExportPeriod(ctx, "s1", 2025, 3); !errors.Is(err, ErrExportUnavailable) {
		t.Fatalf("err = %v, want ErrExportUnavailable", err)
	}

	exp := &recordingExporter{}
	if err := NewReportService(store, store, store, exp).ExportPeriod(ctx, "s1", 2025, 3); err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(exp.reports) != 1 || exp.reports[0].Period.Key() != "2025-03" {
		t.Fatalf("reports = %+v", exp.reports)
	}
}
