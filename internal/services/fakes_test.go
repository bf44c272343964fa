package services

import (
	"context"
	"errors"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

type periodEvent struct {
	owner       string
	year, month int
}

type recordingPublisher struct {
	mu       sync.Mutex
	periods  []periodEvent
	payments []core.Transaction
	err      error
}

func (p *recordingPublisher) PublishPaymentRegistered(_ context.Context, _ string, _ core.Contract, entry core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payments = append(p.payments, entry)
	return p.err
}

func (p *recordingPublisher) PublishPeriodChanged(_ context.Context, owner string, year, month int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.periods = append(p.periods, periodEvent{owner, year, month})
	return p.err
}

// failingLedger rejects every ledger write.
type failingLedger struct {
	*memory.Store
}

var errDiskFull = errors.New("disk full")

func (failingLedger) CreateTransaction(context.Context, core.Transaction) (core.Transaction, error) {
	return core.Transaction{}, errDiskFull
}

type recordingExporter struct {
	reports []core.PeriodReport
}

func (e *recordingExporter) ExportPeriod(_ context.Context, _ string, r core.PeriodReport) error {
	e.reports = append(e.reports, r)
	return nil
}
