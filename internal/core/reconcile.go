package core

// Reconciliation compares a contract's paid amount with the ledger entries
// emitted for it.
type Reconciliation struct {
	ContractID   string
	ContractPaid Money
	LedgerPaid   Money
	Entries      int
	// Gap is ContractPaid - LedgerPaid. Positive means payments are missing
	// from the ledger.
	Gap Money
}

func (r Reconciliation) Consistent() bool {
	return r.Gap.IsZero()
}

// Reconcile sums expense entries linked to c and reports the difference.
func Reconcile(c Contract, ledger []Transaction) Reconciliation {
	r := Reconciliation{ContractID: c.ID, ContractPaid: c.PaidAmount}
	for _, tx := range ledger {
		if tx.ContractID != c.ID || tx.Kind != KindExpense {
			continue
		}
		r.LedgerPaid = r.LedgerPaid.Add(tx.Amount)
		r.Entries++
	}
	r.Gap = r.ContractPaid.Sub(r.LedgerPaid)
	return r
}
