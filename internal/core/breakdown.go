package core

// CategoryTotal is one group of the category breakdown.
type CategoryTotal struct {
	Category string
	Expense  Money
	Income   Money
}

// CategoryBreakdown lists groups in order of first appearance in the input.
type CategoryBreakdown struct {
	Categories []CategoryTotal
}

// CategoryShare is a category's percentage of the total for one direction.
type CategoryShare struct {
	Category string
	Amount   Money
	Percent  float64
}

// BreakdownByCategory groups txs by normalized category label, summing
// expense and income separately under a shared key.
func BreakdownByCategory(txs []Transaction) CategoryBreakdown {
	index := make(map[string]int)
	var b CategoryBreakdown
	for _, tx := range txs {
		label := NormalizeCategory(tx.Category)
		i, ok := index[label]
		if !ok {
			i = len(b.Categories)
			index[label] = i
			b.Categories = append(b.Categories, CategoryTotal{Category: label})
		}
		if Classify(tx).Direction == KindIncome {
			b.Categories[i].Income = b.Categories[i].Income.Add(tx.Amount)
		} else {
			b.Categories[i].Expense = b.Categories[i].Expense.Add(tx.Amount)
		}
	}
	return b
}

// TotalExpense sums expense across all groups.
func (b CategoryBreakdown) TotalExpense() Money {
	var total Money
	for _, c := range b.Categories {
		total = total.Add(c.Expense)
	}
	return total
}

// TotalIncome sums income across all groups.
func (b CategoryBreakdown) TotalIncome() Money {
	var total Money
	for _, c := range b.Categories {
		total = total.Add(c.Income)
	}
	return total
}

// ExpenseShares returns the groups with expense activity and their share of total expense.
func (b CategoryBreakdown) ExpenseShares() []CategoryShare {
	return b.shares(func(c CategoryTotal) Money { return c.Expense }, b.TotalExpense())
}

// IncomeShares returns the groups with income activity and their share of total income.
func (b CategoryBreakdown) IncomeShares() []CategoryShare {
	return b.shares(func(c CategoryTotal) Money { return c.Income }, b.TotalIncome())
}

func (b CategoryBreakdown) shares(value func(CategoryTotal) Money, total Money) []CategoryShare {
	out := make([]CategoryShare, 0, len(b.Categories))
	for _, c := range b.Categories {
		v := value(c)
		if v.IsZero() {
			continue
		}
		out = append(out, CategoryShare{Category: c.Category, Amount: v, Percent: Share(v, total)})
	}
	return out
}

// Share returns part as a percentage of total, or 0 when total is zero.
func Share(part, total Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	return float64(part.Cents) / float64(total.Cents) * 100
}
