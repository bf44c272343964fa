// Package sheets formats period reports as spreadsheet rows. Sinks live in
// the google and memory subpackages.
package sheets

import (
	"fintrack/internal/core"
)

// Header is the first row of every exported block.
var Header = []any{"Period", "Owner", "Category", "Income", "Expense", "Net"}

const TotalLabel = "Total"

// PeriodRows renders one row per category in breakdown order followed by a
// totals row taken from the rollup. Amounts are plain decimal numbers.
func PeriodRows(owner string, r core.PeriodReport) [][]any {
	key := r.Period.Key()
	rows := make([][]any, 0, len(r.Breakdown.Categories)+1)
	for _, c := range r.Breakdown.Categories {
		rows = append(rows, []any{
			key, owner, c.Category,
			c.Income.Float(), c.Expense.Float(), c.Income.Sub(c.Expense).Float(),
		})
	}
	rows = append(rows, []any{
		key, owner, TotalLabel,
		r.Rollup.TotalIncome.Float(), r.Rollup.TotalExpense.Float(), r.Rollup.PeriodResult.Float(),
	})
	return rows
}
