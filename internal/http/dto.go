package http

import (
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// Request bodies. Amounts travel as decimal strings ("12.50" or "12,50") and
// dates as RFC 3339 timestamps or YYYY-MM-DD.
type (
	createTransactionRequest struct {
		Kind        string `json:"kind"`
		Amount      string `json:"amount"`
		Category    string `json:"category"`
		Description string `json:"description"`
		OccurredAt  string `json:"occurred_at"`
		Status      string `json:"status"`
		IsRecurring bool   `json:"is_recurring"`
	}

	patchTransactionRequest struct {
		Kind        *string `json:"kind"`
		Amount      *string `json:"amount"`
		Category    *string `json:"category"`
		Description *string `json:"description"`
		OccurredAt  *string `json:"occurred_at"`
		Status      *string `json:"status"`
		IsRecurring *bool   `json:"is_recurring"`
	}

	createCategoryRequest struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
	}

	createContractRequest struct {
		Type                string `json:"type"`
		Description         string `json:"description"`
		Category            string `json:"category"`
		TotalAmount         string `json:"total_amount"`
		PaidAmount          string `json:"paid_amount"`
		StartDate           string `json:"start_date"`
		DueDate             string `json:"due_date"`
		InstallmentCount    int    `json:"installment_count"`
		InstallmentsPaid    int    `json:"installments_paid"`
		MonthlyInterestRate string `json:"monthly_interest_rate"`
	}

	patchContractRequest struct {
		Description         *string `json:"description"`
		Category            *string `json:"category"`
		TotalAmount         *string `json:"total_amount"`
		StartDate           *string `json:"start_date"`
		DueDate             *string `json:"due_date"`
		InstallmentCount    *int    `json:"installment_count"`
		MonthlyInterestRate *string `json:"monthly_interest_rate"`
	}

	paymentRequest struct {
		Amount string `json:"amount"`
	}

	createReminderRequest struct {
		Description string `json:"description"`
		At          string `json:"at"`
		LeadTime    string `json:"lead_time"`
	}

	updateReminderRequest struct {
		Description string `json:"description"`
	}

	exportRequest struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}
)

// amountDTO renders money both as a fixed two-decimal string and in cents.
type amountDTO struct {
	Value string `json:"value"`
	Cents int64  `json:"cents"`
}

func newAmount(m core.Money) amountDTO {
	return amountDTO{Value: m.String(), Cents: m.Cents}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

type transactionDTO struct {
	ID          string    `json:"id"`
	Kind        core.Kind `json:"kind"`
	Amount      amountDTO `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	OccurredAt  string    `json:"occurred_at"`
	Status      string    `json:"status"`
	Settled     bool      `json:"settled"`
	IsRecurring bool      `json:"is_recurring"`
	ContractID  string    `json:"contract_id,omitempty"`
	CreatedAt   string    `json:"created_at,omitempty"`
}

func newTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		Kind:        t.Kind,
		Amount:      newAmount(t.Amount),
		Category:    t.Category,
		Description: t.Description,
		OccurredAt:  formatTime(t.OccurredAt),
		Status:      string(t.Status),
		Settled:     core.Classify(t).Settled,
		IsRecurring: t.IsRecurring,
		ContractID:  t.ContractID,
		CreatedAt:   formatTime(t.CreatedAt),
	}
}

func newTransactionList(txs []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionDTO(t))
	}
	return out
}

type categoryDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      core.Kind `json:"kind"`
	IsDefault bool      `json:"is_default"`
}

func newCategoryList(cats []core.Category) []categoryDTO {
	out := make([]categoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryDTO{ID: c.ID, Name: c.Name, Kind: c.Kind, IsDefault: c.IsDefault})
	}
	return out
}

type contractDTO struct {
	ID                  string    `json:"id"`
	Type                string    `json:"type"`
	Description         string    `json:"description"`
	Category            string    `json:"category,omitempty"`
	TotalAmount         amountDTO `json:"total_amount"`
	PaidAmount          amountDTO `json:"paid_amount"`
	Remaining           amountDTO `json:"remaining"`
	ProgressPercent     float64   `json:"progress_percent"`
	State               string    `json:"state"`
	StartDate           string    `json:"start_date,omitempty"`
	DueDate             string    `json:"due_date,omitempty"`
	InstallmentCount    int       `json:"installment_count"`
	InstallmentsPaid    int       `json:"installments_paid"`
	MonthlyInterestRate string    `json:"monthly_interest_rate"`
	Version             int64     `json:"version"`
	CreatedAt           string    `json:"created_at,omitempty"`
}

func newContractDTO(c core.Contract) contractDTO {
	return contractDTO{
		ID:                  c.ID,
		Type:                string(c.Type),
		Description:         c.Description,
		Category:            string(c.Category),
		TotalAmount:         newAmount(c.TotalAmount),
		PaidAmount:          newAmount(c.PaidAmount),
		Remaining:           newAmount(c.Remaining()),
		ProgressPercent:     c.ProgressPercent(),
		State:               string(c.State()),
		StartDate:           formatTime(c.StartDate),
		DueDate:             formatTime(c.DueDate),
		InstallmentCount:    c.InstallmentCount,
		InstallmentsPaid:    c.InstallmentsPaid,
		MonthlyInterestRate: c.MonthlyInterestRate.String(),
		Version:             c.Version,
		CreatedAt:           formatTime(c.CreatedAt),
	}
}

func newContractList(contracts []core.Contract) []contractDTO {
	out := make([]contractDTO, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, newContractDTO(c))
	}
	return out
}

type summaryDTO struct {
	TotalOwed     amountDTO `json:"total_owed"`
	TotalPaid     amountDTO `json:"total_paid"`
	Remaining     amountDTO `json:"remaining"`
	OpenCount     int       `json:"open_count"`
	SettledCount  int       `json:"settled_count"`
	ContractCount int       `json:"contract_count"`
}

func newSummaryDTO(s core.ContractsSummary) summaryDTO {
	return summaryDTO{
		TotalOwed:     newAmount(s.TotalOwed),
		TotalPaid:     newAmount(s.TotalPaid),
		Remaining:     newAmount(s.Remaining),
		OpenCount:     s.OpenCount,
		SettledCount:  s.SettledCount,
		ContractCount: s.ContractCount,
	}
}

type paymentDTO struct {
	Contract contractDTO    `json:"contract"`
	Entry    transactionDTO `json:"entry"`
}

// partialPaymentDTO reports a contract that was updated while its ledger
// entry was lost; the client should trigger a reconciliation.
type partialPaymentDTO struct {
	Error                  string      `json:"error"`
	ReconciliationRequired bool        `json:"reconciliation_required"`
	Contract               contractDTO `json:"contract"`
}

type reconciliationDTO struct {
	ContractID   string    `json:"contract_id"`
	ContractPaid amountDTO `json:"contract_paid"`
	LedgerPaid   amountDTO `json:"ledger_paid"`
	Entries      int       `json:"entries"`
	Gap          amountDTO `json:"gap"`
	Consistent   bool      `json:"consistent"`
}

func newReconciliationDTO(r core.Reconciliation) reconciliationDTO {
	return reconciliationDTO{
		ContractID:   r.ContractID,
		ContractPaid: newAmount(r.ContractPaid),
		LedgerPaid:   newAmount(r.LedgerPaid),
		Entries:      r.Entries,
		Gap:          newAmount(r.Gap),
		Consistent:   r.Consistent(),
	}
}

type simulationDTO struct {
	Computable    bool       `json:"computable"`
	Installment   *amountDTO `json:"installment,omitempty"`
	TotalPaid     *amountDTO `json:"total_paid,omitempty"`
	TotalInterest *amountDTO `json:"total_interest,omitempty"`
}

func newSimulationDTO(s core.Simulation, ok bool) simulationDTO {
	if !ok {
		return simulationDTO{}
	}
	installment := newAmount(s.Installment)
	total := newAmount(s.TotalPaid)
	interest := newAmount(s.TotalInterest)
	return simulationDTO{
		Computable:    true,
		Installment:   &installment,
		TotalPaid:     &total,
		TotalInterest: &interest,
	}
}

type reminderDTO struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	At          string `json:"at,omitempty"`
	LeadTime    string `json:"lead_time,omitempty"`
	Dated       bool   `json:"dated"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func newReminderDTO(r core.Reminder) reminderDTO {
	dto := reminderDTO{
		ID:          r.ID,
		Description: r.Description,
		LeadTime:    r.LeadTime,
		Dated:       r.IsDated(),
		CreatedAt:   formatTime(r.CreatedAt),
	}
	if r.IsDated() {
		dto.At = formatTime(*r.At)
	}
	return dto
}

func newReminderList(rs []core.Reminder) []reminderDTO {
	out := make([]reminderDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, newReminderDTO(r))
	}
	return out
}

type rollupDTO struct {
	IncomeSettled  amountDTO `json:"income_settled"`
	IncomePending  amountDTO `json:"income_pending"`
	ExpenseSettled amountDTO `json:"expense_settled"`
	ExpensePending amountDTO `json:"expense_pending"`
	TotalIncome    amountDTO `json:"total_income"`
	TotalExpense   amountDTO `json:"total_expense"`
	PeriodResult   amountDTO `json:"period_result"`
}

type categoryTotalDTO struct {
	Category string    `json:"category"`
	Income   amountDTO `json:"income"`
	Expense  amountDTO `json:"expense"`
}

type shareDTO struct {
	Category string    `json:"category"`
	Amount   amountDTO `json:"amount"`
	Percent  float64   `json:"percent"`
}

type balancePointDTO struct {
	Day     string    `json:"day"`
	Label   string    `json:"label"`
	Income  amountDTO `json:"income"`
	Expense amountDTO `json:"expense"`
	Net     amountDTO `json:"net"`
	Balance amountDTO `json:"balance"`
}

type periodReportDTO struct {
	Period        string             `json:"period"`
	Year          int                `json:"year"`
	Month         int                `json:"month"`
	Start         string             `json:"start"`
	End           string             `json:"end"`
	Rollup        rollupDTO          `json:"rollup"`
	Categories    []categoryTotalDTO `json:"categories"`
	ExpenseShares []shareDTO         `json:"expense_shares"`
	IncomeShares  []shareDTO         `json:"income_shares"`
	Realized      []balancePointDTO  `json:"realized"`
	Projected     []balancePointDTO  `json:"projected"`
}

func newPeriodReportDTO(r core.PeriodReport) periodReportDTO {
	dto := periodReportDTO{
		Period: r.Period.Key(),
		Year:   r.Period.Year,
		Month:  r.Period.Month,
		Start:  r.Period.Start.Format(time.RFC3339Nano),
		End:    r.Period.End.Format(time.RFC3339Nano),
		Rollup: rollupDTO{
			IncomeSettled:  newAmount(r.Rollup.IncomeSettled),
			IncomePending:  newAmount(r.Rollup.IncomePending),
			ExpenseSettled: newAmount(r.Rollup.ExpenseSettled),
			ExpensePending: newAmount(r.Rollup.ExpensePending),
			TotalIncome:    newAmount(r.Rollup.TotalIncome),
			TotalExpense:   newAmount(r.Rollup.TotalExpense),
			PeriodResult:   newAmount(r.Rollup.PeriodResult),
		},
		Categories:    make([]categoryTotalDTO, 0, len(r.Breakdown.Categories)),
		ExpenseShares: newShares(r.Breakdown.ExpenseShares()),
		IncomeShares:  newShares(r.Breakdown.IncomeShares()),
		Realized:      newSeries(r.Realized),
		Projected:     newSeries(r.Projected),
	}
	for _, c := range r.Breakdown.Categories {
		dto.Categories = append(dto.Categories, categoryTotalDTO{
			Category: c.Category,
			Income:   newAmount(c.Income),
			Expense:  newAmount(c.Expense),
		})
	}
	return dto
}

func newShares(shares []core.CategoryShare) []shareDTO {
	out := make([]shareDTO, 0, len(shares))
	for _, s := range shares {
		out = append(out, shareDTO{Category: s.Category, Amount: newAmount(s.Amount), Percent: s.Percent})
	}
	return out
}

func newSeries(points []core.BalancePoint) []balancePointDTO {
	out := make([]balancePointDTO, 0, len(points))
	for _, p := range points {
		out = append(out, balancePointDTO{
			Day:     p.Day.Format(time.DateOnly),
			Label:   p.Label,
			Income:  newAmount(p.Income),
			Expense: newAmount(p.Expense),
			Net:     newAmount(p.Net),
			Balance: newAmount(p.Balance),
		})
	}
	return out
}

type dashboardDTO struct {
	Report           periodReportDTO `json:"report"`
	Contracts        summaryDTO      `json:"contracts"`
	Reminders        []reminderDTO   `json:"reminders"`
	UndatedReminders []reminderDTO   `json:"undated_reminders"`
}

func newDashboardDTO(d services.Dashboard) dashboardDTO {
	return dashboardDTO{
		Report:           newPeriodReportDTO(d.Report),
		Contracts:        newSummaryDTO(d.Contracts),
		Reminders:        newReminderList(d.Reminders),
		UndatedReminders: newReminderList(d.UndatedReminders),
	}
}

type monthNetDTO struct {
	Month   int       `json:"month"`
	Income  amountDTO `json:"income"`
	Expense amountDTO `json:"expense"`
	Net     amountDTO `json:"net"`
}

type yearDTO struct {
	Year   int           `json:"year"`
	Months []monthNetDTO `json:"months"`
}

func newYearDTO(year int, months []core.MonthNet) yearDTO {
	dto := yearDTO{Year: year, Months: make([]monthNetDTO, 0, len(months))}
	for _, m := range months {
		dto.Months = append(dto.Months, monthNetDTO{
			Month:   m.Month,
			Income:  newAmount(m.Income),
			Expense: newAmount(m.Expense),
			Net:     newAmount(m.Net),
		})
	}
	return dto
}
