package debt

import (
	"github.com/aristath/capstack/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// InitialInvestment is the configured purchase price, or the year-0 outflow of the
// unlevered series when none is configured.
func InitialInvestment(project domain.ProjectConfig, inputs domain.ProjectInputs) float64 {
	if project.InitialInvestment != nil {
		return *project.InitialInvestment
	}
	if len(inputs.UnleveredFcf) > 0 && inputs.UnleveredFcf[0] < 0 {
		return -inputs.UnleveredFcf[0]
	}
	return 0
}

// AcquisitionDebt returns the principal drawn in year 0 and its principal-weighted rate.
func AcquisitionDebt(tranches []domain.DebtTranche) (principal, rate float64) {
	weighted := 0.0
	for _, t := range tranches {
		if t.EffectiveStartYear() != 0 {
			continue
		}
		principal += t.Principal
		weighted += t.Principal * t.Rate
	}
	if principal > 0 {
		rate = weighted / principal
	}
	return principal, rate
}

// KPIs summarises a built schedule.
func KPIs(project domain.ProjectConfig, inputs domain.ProjectInputs, capital domain.CapitalStructureConfig, result *Result) domain.DebtKPIs {
	kpis := domain.DebtKPIs{
		InitialInvestment: InitialInvestment(project, inputs),
	}

	weighted := 0.0
	for _, t := range capital.Tranches {
		kpis.TotalDebt += t.Principal
		weighted += t.Principal * t.Rate
	}
	if kpis.TotalDebt > 0 {
		kpis.WeightedAverageRate = weighted / kpis.TotalDebt
	}

	acquisitionDebt, _ := AcquisitionDebt(capital.Tranches)
	if kpis.InitialInvestment > 0 {
		kpis.InitialLTV = domain.Float(acquisitionDebt / kpis.InitialInvestment)
	}
	if len(result.LeveredFcf) > 0 && result.LeveredFcf[0].LeveredFreeCashFlow < 0 {
		kpis.EquityRequired = -result.LeveredFcf[0].LeveredFreeCashFlow
	}

	kpis.DSCRByYear = make([]*float64, len(result.Schedule))
	var dscrs []float64
	for y, e := range result.Schedule {
		kpis.TotalInterest += e.Interest
		kpis.TotalFees += e.Fees
		if y == 0 {
			continue
		}
		ds := e.DebtService()
		if ds <= 0 {
			continue
		}
		v := inputs.NOIAt(y) / ds
		kpis.DSCRByYear[y] = domain.Float(v)
		dscrs = append(dscrs, v)
	}
	if len(dscrs) > 0 {
		kpis.MinDSCR = domain.Float(floats.Min(dscrs))
		kpis.AverageDSCR = domain.Float(floats.Sum(dscrs) / float64(len(dscrs)))
	}

	if acquisitionDebt > 0 && len(inputs.UnleveredFcf) > 1 {
		kpis.DebtYield = domain.Float(inputs.NOIAt(1) / acquisitionDebt)
	}

	return kpis
}
