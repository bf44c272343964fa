package core

// Classification is the derived direction and settlement of a transaction.
type Classification struct {
	Direction Kind
	Settled   bool
}

// Classify tags a transaction. Income is settled only when Received and
// expense only when Paid; every other combination is pending.
func Classify(tx Transaction) Classification {
	dir := KindExpense
	if tx.Kind == KindIncome {
		dir = KindIncome
	}
	var settled bool
	switch {
	case dir == KindIncome && tx.Status == StatusReceived:
		settled = true
	case dir == KindExpense && tx.Status == StatusPaid:
		settled = true
	}
	return Classification{Direction: dir, Settled: settled}
}

// TransactionFilter selects transactions before aggregation.
type TransactionFilter func(Transaction) bool

// AllTransactions keeps everything.
func AllTransactions(Transaction) bool { return true }

// SettledOnly keeps transactions whose money has moved.
func SettledOnly(tx Transaction) bool { return Classify(tx).Settled }

// PendingOnly keeps transactions still expected.
func PendingOnly(tx Transaction) bool { return !Classify(tx).Settled }

// Filter applies keep to txs, returning a new slice. A nil filter keeps all.
func Filter(txs []Transaction, keep TransactionFilter) []Transaction {
	if keep == nil {
		keep = AllTransactions
	}
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}
