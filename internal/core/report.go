package core

// PeriodReport bundles every aggregate computed for one month.
type PeriodReport struct {
	Period    Period
	Rollup    MonthlyRollup
	Breakdown CategoryBreakdown
	Realized  []BalancePoint
	Projected []BalancePoint
}

// BuildPeriodReport runs all aggregators over the same snapshot. Transactions
// outside p are ignored.
func BuildPeriodReport(p Period, txs []Transaction, series SeriesBuilder) PeriodReport {
	inPeriod := FilterPeriod(txs, p)
	return PeriodReport{
		Period:    p,
		Rollup:    Rollup(inPeriod),
		Breakdown: BreakdownByCategory(inPeriod),
		Realized:  series.Realized(inPeriod),
		Projected: series.Projected(inPeriod),
	}
}

// MonthNet is the period result of one month of a year.
type MonthNet struct {
	Month   int
	Income  Money
	Expense Money
	Net     Money
}

// YearNetIncome computes per-month income, expense and net for year from txs.
func YearNetIncome(year int, txs []Transaction) []MonthNet {
	out := make([]MonthNet, 0, 12)
	for m := 1; m <= 12; m++ {
		r := Rollup(FilterPeriod(txs, ResolvePeriod(year, m)))
		out = append(out, MonthNet{Month: m, Income: r.TotalIncome, Expense: r.TotalExpense, Net: r.PeriodResult})
	}
	return out
}
