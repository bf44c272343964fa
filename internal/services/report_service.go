package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"

	"golang.org/x/sync/errgroup"
)

// ReportService builds the read-side views over an owner's ledger.
type ReportService struct {
	transactions ports.TransactionStore
	contracts    ports.ContractStore
	reminders    ports.ReminderStore
	exporter     ports.PeriodExporter
	series       core.SeriesBuilder
}

func NewReportService(transactions ports.TransactionStore, contracts ports.ContractStore, reminders ports.ReminderStore, exporter ports.PeriodExporter) *ReportService {
	return &ReportService{
		transactions: transactions,
		contracts:    contracts,
		reminders:    reminders,
		exporter:     exporter,
		series:       core.NewSeriesBuilder(),
	}
}

// WithSeriesLocation buckets balance series days in loc instead of UTC.
func (s *ReportService) WithSeriesLocation(loc *time.Location) *ReportService {
	s.series.Location = loc
	return s
}

// Dashboard is everything the overview screen shows for one month.
type Dashboard struct {
	Report           core.PeriodReport
	Contracts        core.ContractsSummary
	Reminders        []core.Reminder
	UndatedReminders []core.Reminder
}

func (s *ReportService) PeriodReport(ctx context.Context, owner string, year, month int) (core.PeriodReport, error) {
	p, err := resolve(year, month)
	if err != nil {
		return core.PeriodReport{}, err
	}
	txs, err := s.transactions.ListTransactions(ctx, owner, p.Start, p.End)
	if err != nil {
		return core.PeriodReport{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.BuildPeriodReport(p, txs, s.series), nil
}

// Dashboard fetches the ledger, contracts and reminders concurrently.
func (s *ReportService) Dashboard(ctx context.Context, owner string, year, month int) (Dashboard, error) {
	p, err := resolve(year, month)
	if err != nil {
		return Dashboard{}, err
	}

	var (
		txs       []core.Transaction
		contracts []core.Contract
		dated     []core.Reminder
		undated   []core.Reminder
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if txs, err = s.transactions.ListTransactions(gctx, owner, p.Start, p.End); err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if contracts, err = s.contracts.ListContracts(gctx, owner); err != nil {
			return fmt.Errorf("list contracts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if dated, err = s.reminders.ListDatedReminders(gctx, owner, p.Start, p.End); err != nil {
			return fmt.Errorf("list reminders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if undated, err = s.reminders.ListUndatedReminders(gctx, owner); err != nil {
			return fmt.Errorf("list undated reminders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Report:           core.BuildPeriodReport(p, txs, s.series),
		Contracts:        core.SummarizeContracts(contracts),
		Reminders:        dated,
		UndatedReminders: undated,
	}, nil
}

// YearNetIncome returns the net result of each month of year.
func (s *ReportService) YearNetIncome(ctx context.Context, owner string, year int) ([]core.MonthNet, error) {
	start := core.ResolvePeriod(year, 1).Start
	end := core.ResolvePeriod(year, 12).End
	txs, err := s.transactions.ListTransactions(ctx, owner, start, end)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.YearNetIncome(year, txs), nil
}

// ExportPeriod sends the month's report to the configured exporter.
func (s *ReportService) ExportPeriod(ctx context.Context, owner string, year, month int) error {
	if s.exporter == nil {
		return ErrExportUnavailable
	}
	report, err := s.PeriodReport(ctx, owner, year, month)
	if err != nil {
		return err
	}
	if err := s.exporter.ExportPeriod(ctx, owner, report); err != nil {
		return fmt.Errorf("export period: %w", err)
	}

	slog.InfoContext(ctx, "Period exported",
		log.NewFields().
			WithComponent(log.ComponentReport).
			WithOperation(log.OpExport).
			WithOwner(owner).
			WithPeriod(year, month).
			ToSlice()...)
	return nil
}

func resolve(year, month int) (core.Period, error) {
	if err := core.ValidateMonth(month); err != nil {
		return core.Period{}, err
	}
	return core.ResolvePeriod(year, month), nil
}
