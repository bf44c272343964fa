package core

import (
	"sort"
	"time"
)

// DefaultDayLabel renders bucket labels such as "05 Jan".
const DefaultDayLabel = "02 Jan"

// BalancePoint is one day of the running-balance series.
type BalancePoint struct {
	Day     time.Time // midnight of the bucket day in the builder's location
	Label   string
	Income  Money
	Expense Money // negated: money out is plotted below zero
	Net     Money
	Balance Money
}

// SeriesBuilder buckets transactions by calendar day.
type SeriesBuilder struct {
	Location    *time.Location
	LabelLayout string
}

// NewSeriesBuilder returns a builder bucketing by UTC day with DefaultDayLabel.
func NewSeriesBuilder() SeriesBuilder {
	return SeriesBuilder{Location: time.UTC, LabelLayout: DefaultDayLabel}
}

type dayBucket struct {
	day     time.Time
	income  Money
	expense Money
}

// Build runs the running-balance algorithm over the transactions kept by
// include. Both settled and pending amounts count unless include drops them.
// The series is sparse: only days with at least one transaction appear.
func (b SeriesBuilder) Build(txs []Transaction, include TransactionFilter) []BalancePoint {
	loc := b.Location
	if loc == nil {
		loc = time.UTC
	}
	layout := b.LabelLayout
	if layout == "" {
		layout = DefaultDayLabel
	}
	if include == nil {
		include = AllTransactions
	}

	buckets := make(map[time.Time]*dayBucket)
	for _, tx := range txs {
		if !include(tx) {
			continue
		}
		local := tx.OccurredAt.In(loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		bk, ok := buckets[day]
		if !ok {
			bk = &dayBucket{day: day}
			buckets[day] = bk
		}
		if Classify(tx).Direction == KindIncome {
			bk.income = bk.income.Add(tx.Amount)
		} else {
			bk.expense = bk.expense.Add(tx.Amount)
		}
	}

	ordered := make([]*dayBucket, 0, len(buckets))
	for _, bk := range buckets {
		ordered = append(ordered, bk)
	}
	// Labels like "05 Jan" do not sort as strings; order by the day itself.
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].day.Before(ordered[j].day) })

	series := make([]BalancePoint, 0, len(ordered))
	var running Money
	for _, bk := range ordered {
		net := bk.income.Sub(bk.expense)
		running = running.Add(net)
		series = append(series, BalancePoint{
			Day:     bk.day,
			Label:   bk.day.Format(layout),
			Income:  bk.income,
			Expense: bk.expense.Neg(),
			Net:     net,
			Balance: running,
		})
	}
	return series
}

// Realized builds the series from settled transactions only.
func (b SeriesBuilder) Realized(txs []Transaction) []BalancePoint {
	return b.Build(txs, SettledOnly)
}

// Projected builds the series from every transaction, pending included.
func (b SeriesBuilder) Projected(txs []Transaction) []BalancePoint {
	return b.Build(txs, AllTransactions)
}
