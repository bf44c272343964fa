package core

// MonthlyRollup holds the period totals shown on the summary cards.
type MonthlyRollup struct {
	IncomeSettled  Money
	IncomePending  Money
	ExpenseSettled Money
	ExpensePending Money
	TotalIncome    Money
	TotalExpense   Money
	// PeriodResult includes pending amounts on both sides; it is a
	// forward-looking figure, not realized cash.
	PeriodResult Money
}

// Rollup partitions txs into settled/pending income and expense and derives the totals.
func Rollup(txs []Transaction) MonthlyRollup {
	var r MonthlyRollup
	for _, tx := range txs {
		c := Classify(tx)
		switch {
		case c.Direction == KindIncome && c.Settled:
			r.IncomeSettled = r.IncomeSettled.Add(tx.Amount)
		case c.Direction == KindIncome:
			r.IncomePending = r.IncomePending.Add(tx.Amount)
		case c.Settled:
			r.ExpenseSettled = r.ExpenseSettled.Add(tx.Amount)
		default:
			r.ExpensePending = r.ExpensePending.Add(tx.Amount)
		}
	}
	r.TotalIncome = r.IncomeSettled.Add(r.IncomePending)
	r.TotalExpense = r.ExpenseSettled.Add(r.ExpensePending)
	r.PeriodResult = r.TotalIncome.Sub(r.TotalExpense)
	return r
}
