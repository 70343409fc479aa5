package covenants

import (
	"github.com/aristath/capstack/internal/domain"
)

// MonthlyKPIs spreads the annual debt schedule over months 1..12N.
//
// Debt service is one twelfth of the year's service and the balance moves linearly from the
// previous year-end to this year-end. NOI comes from the monthly series when it covers the
// month, otherwise from the annual figure. Cash is the opening cash plus cumulative NOI less
// debt service.
func MonthlyKPIs(inputs domain.ProjectInputs, openingCash float64, schedule []domain.DebtScheduleEntry, initialInvestment float64) []domain.MonthlyDebtKPI {
	if len(schedule) < 2 {
		return nil
	}

	months := make([]domain.MonthlyDebtKPI, 0, 12*(len(schedule)-1))
	cash := openingCash
	for y := 1; y < len(schedule); y++ {
		prevBalance := schedule[y-1].EndingBalance
		endBalance := schedule[y].EndingBalance
		debtService := schedule[y].DebtService() / 12

		for j := 1; j <= 12; j++ {
			m := (y-1)*12 + j
			noi := inputs.NOIAt(y) / 12
			if m <= len(inputs.MonthlyNOI) {
				noi = inputs.MonthlyNOI[m-1]
			}

			kpi := domain.MonthlyDebtKPI{
				Month:         m,
				YearIndex:     y,
				NOI:           noi,
				DebtService:   debtService,
				EndingBalance: prevBalance + (endBalance-prevBalance)*float64(j)/12,
			}
			if debtService > 0 {
				kpi.DSCR = domain.Float(noi / debtService)
			}
			if initialInvestment > 0 {
				kpi.LTV = domain.Float(kpi.EndingBalance / initialInvestment)
			}
			cash += noi - debtService
			kpi.CashPosition = cash

			months = append(months, kpi)
		}
	}
	return months
}
