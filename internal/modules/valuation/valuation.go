package valuation

import (
	"fmt"

	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/pkg/formulas"
)

// Value discounts the unlevered series at the WACC and derives the return metrics of both
// the unlevered and the levered series.
//
// The terminal value uses the Gordon growth model on the last year's unlevered cash flow and
// is left undefined, with a warning, when the WACC does not exceed the growth rate.
func Value(project domain.ProjectConfig, unlevered, levered []float64, wacc WACC) (domain.ValuationResult, []domain.Warning) {
	var warnings []domain.Warning

	result := domain.ValuationResult{
		WACC:          wacc.Rate,
		CostOfEquity:  wacc.CostOfEquity,
		CostOfDebt:    wacc.CostOfDebt,
		EquityWeight:  wacc.EquityWeight,
		DebtWeight:    wacc.DebtWeight,
		NPVExTerminal: formulas.NPV(wacc.Rate, unlevered),
	}
	result.NPV = result.NPVExTerminal
	if len(unlevered) > 1 {
		result.EnterpriseValue = formulas.NPV(wacc.Rate, unlevered) - unlevered[0]
	}

	if n := len(unlevered) - 1; n >= 0 {
		tv := formulas.TerminalValue(unlevered[n], wacc.Rate, project.TerminalGrowthRate)
		if tv == nil {
			warnings = append(warnings, domain.Warning{
				Code: domain.WarnTerminalValue,
				Message: fmt.Sprintf("discount rate %.4f does not exceed terminal growth %.4f",
					wacc.Rate, project.TerminalGrowthRate),
				YearIndex: domain.Int(n),
			})
		} else {
			pv := formulas.PresentValue(*tv, wacc.Rate, n)
			result.TerminalValue = tv
			result.PVTerminalValue = &pv
			result.NPV += pv
			result.EnterpriseValue += pv
		}
	}

	result.UnleveredIRR = formulas.IRR(unlevered)
	result.LeveredIRR = formulas.IRR(levered)
	result.EquityMultiple = formulas.EquityMultiple(levered)
	result.PaybackPeriod = formulas.PaybackPeriod(unlevered)
	result.LeveredPayback = formulas.PaybackPeriod(levered)

	return result, warnings
}
