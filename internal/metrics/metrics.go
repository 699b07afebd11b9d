// Package metrics computes derived dashboard figures from a materialized
// transaction list and the two per-user profile documents.
//
// Every function here is a pure transform of its arguments: no I/O, no
// retained state, and the reference time is an explicit parameter. Callers
// provide a consistent snapshot; recomputing from identical inputs yields
// identical output.
package metrics

import (
	"math"
	"time"

	"finpulse/internal/core"
)

// DefaultAnnualRatePct is the projection rate used when no portfolio
// profile has been set.
const DefaultAnnualRatePct = 5.0

// ProjectionYears is the fixed projection horizon. Not configurable.
const ProjectionYears = 10

// DerivedMetrics is the computed dashboard record. It is never persisted.
// Monthly sums are exact cents; ratios carry exactly one decimal place;
// averages and the future value keep full float precision, rounding being
// a display concern.
type DerivedMetrics struct {
	TotalIncome  core.Money `json:"total_income"`
	TotalExpense core.Money `json:"total_expense"`
	NetFlow      core.Money `json:"net_flow"`

	SavingsRatio        float64 `json:"savings_ratio"`
	DebtToIncomeRatio   float64 `json:"debt_to_income_ratio"`
	EmergencyFundMonths float64 `json:"emergency_fund_months"`

	// AvgMonthlyExpense is the all-time expense total divided by the number
	// of distinct year-month buckets seen across all transactions, in
	// currency units.
	AvgMonthlyExpense float64 `json:"avg_monthly_expense"`

	// FutureValue projects the investment capital over ten years at the
	// lower bound of the chosen risk tier's expected return, in currency
	// units.
	FutureValue float64 `json:"future_value"`
}

// Compute derives the dashboard metrics from a transaction snapshot and the
// optional profile documents. A nil health or portfolio profile falls back
// to zeros and the default projection rate; the function cannot fail.
//
// Monthly figures consider only transactions whose date falls in the same
// calendar month as now. The debt-to-income ratio annualizes the current
// month's income (income x 12) as a proxy for annual income.
func Compute(txs []core.Transaction, health *core.HealthProfile, portfolio *core.PortfolioProfile, now time.Time) DerivedMetrics {
	var m DerivedMetrics

	for _, tx := range txs {
		if !tx.Date.SameMonth(now) {
			continue
		}
		switch tx.Type {
		case core.Income:
			m.TotalIncome.Cents += tx.Amount.Cents
		case core.Expense:
			m.TotalExpense.Cents += tx.Amount.Cents
		}
	}
	m.NetFlow.Cents = m.TotalIncome.Cents - m.TotalExpense.Cents

	if m.TotalIncome.Cents > 0 {
		ratio := m.NetFlow.Units() / m.TotalIncome.Units() * 100
		m.SavingsRatio = round1(math.Max(0, ratio))
	}

	m.AvgMonthlyExpense = averageMonthlyExpense(txs)

	if health != nil {
		if health.TotalDebt.Cents > 0 && m.TotalIncome.Cents > 0 {
			annualIncome := m.TotalIncome.Units() * 12
			m.DebtToIncomeRatio = round1(health.TotalDebt.Units() / annualIncome * 100)
		}
		if m.AvgMonthlyExpense > 0 {
			m.EmergencyFundMonths = round1(health.EmergencyFund.Units() / m.AvgMonthlyExpense)
		}
		rate := AnnualRateFor(portfolio)
		m.FutureValue = health.InvestmentCapital.Units() * math.Pow(1+rate/100, ProjectionYears)
	}

	return m
}

// averageMonthlyExpense divides the all-time expense total by the number of
// distinct year-month buckets present across all transactions of either
// type. An empty history counts as a single bucket to avoid division by
// zero.
func averageMonthlyExpense(txs []core.Transaction) float64 {
	var expenseCents int64
	buckets := make(map[monthKey]struct{})

	for _, tx := range txs {
		buckets[monthKey{tx.Date.Year(), tx.Date.Month()}] = struct{}{}
		if tx.Type == core.Expense {
			expenseCents += tx.Amount.Cents
		}
	}

	n := len(buckets)
	if n == 0 {
		n = 1
	}
	return core.Money{Cents: expenseCents}.Units() / float64(n)
}

type monthKey struct {
	year  int
	month int
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
