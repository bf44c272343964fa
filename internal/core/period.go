package core

import (
	"fmt"
	"time"
)

// Period is an inclusive UTC instant range covering one calendar month.
type Period struct {
	Year  int
	Month int // 1-12
	Start time.Time
	End   time.Time
}

// ResolvePeriod returns the range from the first instant of day 1 through
// 23:59:59.999 of the last day of the month, in UTC regardless of the
// caller's location. The month is not validated; see ValidateMonth.
func ResolvePeriod(year, month int) Period {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.Month(month)+1, 0, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	return Period{Year: year, Month: month, Start: start, End: end}
}

// ValidateMonth rejects month values outside 1..12.
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Contains reports whether t falls inside the period bounds.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Key identifies the period, e.g. "2025-03".
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// FilterPeriod returns the transactions whose date falls inside p.
func FilterPeriod(txs []Transaction, p Period) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if p.Contains(tx.OccurredAt) {
			out = append(out, tx)
		}
	}
	return out
}

// PeriodOf returns the period containing t, judged in UTC.
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return ResolvePeriod(t.Year(), int(t.Month()))
}
