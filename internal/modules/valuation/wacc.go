// Package valuation computes the weighted average cost of capital and the discounted
// cash-flow view of a project.
package valuation

import (
	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/debt"
)

// WACC is the cost of capital and the weights behind it.
type WACC struct {
	Rate         float64
	CostOfEquity float64
	CostOfDebt   float64
	EquityWeight float64
	DebtWeight   float64
}

// CalculateWACC blends the cost of equity with the after-tax cost of the acquisition debt.
// Formula: wacc = E/(D+E) × Ke + D/(D+E) × Kd × (1 − tax)
//
// Debt is the principal drawn in year 0; equity is the initial investment less that debt.
// Without acquisition debt the cost of equity, which defaults to the discount rate, is returned unchanged.
func CalculateWACC(project domain.ProjectConfig, tranches []domain.DebtTranche, initialInvestment float64) WACC {
	costOfEquity := project.DiscountRate
	if project.CostOfEquity != nil {
		costOfEquity = *project.CostOfEquity
	}

	debtAmount, costOfDebt := debt.AcquisitionDebt(tranches)
	equityAmount := initialInvestment - debtAmount
	if equityAmount < 0 {
		equityAmount = 0
	}

	if debtAmount <= 0 || debtAmount+equityAmount <= 0 {
		return WACC{
			Rate:         costOfEquity,
			CostOfEquity: costOfEquity,
			EquityWeight: 1,
		}
	}

	equityWeight := equityAmount / (equityAmount + debtAmount)
	debtWeight := 1 - equityWeight

	return WACC{
		Rate:         equityWeight*costOfEquity + debtWeight*costOfDebt*(1-project.TaxRate),
		CostOfEquity: costOfEquity,
		CostOfDebt:   costOfDebt,
		EquityWeight: equityWeight,
		DebtWeight:   debtWeight,
	}
}
