package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MaxSimulatedInstallments caps the schedule length; (1+i)^n is computed
// exactly, so its cost grows with n.
const MaxSimulatedInstallments = 1200

// Simulation is the fixed-installment (Price) schedule summary of a loan.
type Simulation struct {
	Installment   Money
	TotalPaid     Money
	TotalInterest Money
}

// Simulate computes the fixed installment for principal repaid over
// installments months at monthlyRatePercent. With a zero rate the principal
// is split evenly. ok is false when the inputs are not yet computable:
// non-positive principal, an installment count outside 1..MaxSimulatedInstallments,
// or a negative rate.
//
// Totals derive from the unrounded installment; every output is rounded to cents.
func Simulate(principal decimal.Decimal, monthlyRatePercent decimal.Decimal, installments int) (Simulation, bool) {
	if !principal.IsPositive() || installments <= 0 || installments > MaxSimulatedInstallments || monthlyRatePercent.IsNegative() {
		return Simulation{}, false
	}
	n := decimal.NewFromInt(int64(installments))

	var installment decimal.Decimal
	if monthlyRatePercent.IsZero() {
		installment = principal.Div(n)
	} else {
		i := monthlyRatePercent.Div(hundred)
		growth := decimal.NewFromInt(1).Add(i).Pow(n)
		installment = principal.Mul(i.Mul(growth)).Div(growth.Sub(decimal.NewFromInt(1)))
	}

	totalPaid := installment.Mul(n)
	return Simulation{
		Installment:   MoneyFromDecimal(installment),
		TotalPaid:     MoneyFromDecimal(totalPaid),
		TotalInterest: MoneyFromDecimal(totalPaid.Sub(principal)),
	}, true
}

// SimulateInput parses raw form values and runs Simulate. Values that do not
// parse as numbers yield ok == false, the same as any other incomplete input.
func SimulateInput(principal, monthlyRatePercent, installments string) (Simulation, bool) {
	p, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(principal), ",", "."))
	if err != nil {
		return Simulation{}, false
	}
	rateText := strings.ReplaceAll(strings.TrimSpace(monthlyRatePercent), ",", ".")
	if rateText == "" {
		rateText = "0"
	}
	r, err := decimal.NewFromString(rateText)
	if err != nil {
		return Simulation{}, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(installments))
	if err != nil {
		return Simulation{}, false
	}
	return Simulate(p, r, n)
}
