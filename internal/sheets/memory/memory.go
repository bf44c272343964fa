package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

// Exporter keeps exported rows in memory, keyed by period.
type Exporter struct {
	mu   sync.Mutex
	rows map[string][][]any
}

func New() *Exporter {
	return &Exporter{rows: map[string][][]any{}}
}

// ExportPeriod replaces any earlier export of the same owner and period.
func (e *Exporter) ExportPeriod(_ context.Context, owner string, r core.PeriodReport) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows[owner+"/"+r.Period.Key()] = sheets.PeriodRows(owner, r)
	return nil
}

// Rows returns a copy of the rows exported for owner and period key.
func (e *Exporter) Rows(owner, periodKey string) [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]any(nil), e.rows[owner+"/"+periodKey]...)
}
