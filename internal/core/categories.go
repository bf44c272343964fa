package core

var defaultCategories = map[Kind][]string{
	KindExpense: {"Food", "Transport", "Home", "Health", "Education", "Leisure", "Utilities", "Other"},
	KindIncome:  {"Salary", "Freelance", "Investments", "Refunds", "Other"},
}

// DefaultCategoryNames returns the seed set for kind. The slice is a copy.
func DefaultCategoryNames(k Kind) []string {
	return append([]string(nil), defaultCategories[k]...)
}

// HasDefaults reports whether cats already contains a seeded category.
func HasDefaults(cats []Category) bool {
	for _, c := range cats {
		if c.IsDefault {
			return true
		}
	}
	return false
}
