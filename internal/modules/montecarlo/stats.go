package montecarlo

import (
	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/pkg/formulas"
)

// Aggregate summarises each KPI across iterations. Undefined values (nil IRR or MOIC)
// are left out, so counts may differ between KPIs.
func Aggregate(iterations []domain.IterationResult) map[string]domain.KPIStatistics {
	series := map[string][]float64{}
	add := func(name string, v *float64) {
		if v != nil {
			series[name] = append(series[name], *v)
		}
	}

	for _, it := range iterations {
		k := it.KPIs
		npv, wacc := k.NPV, k.WACC
		add(KPINPV, &npv)
		add(KPIWACC, &wacc)
		add(KPIUnleveredIRR, k.UnleveredIRR)
		add(KPILeveredIRR, k.LeveredIRR)
		add(KPIMOIC, k.MOIC)
		add(KPIEquityMultiple, k.EquityMultiple)
	}

	out := make(map[string]domain.KPIStatistics, len(series))
	for name, values := range series {
		d := formulas.Describe(values)
		out[name] = domain.KPIStatistics{
			Count:    d.Count,
			Mean:     d.Mean,
			StdDev:   d.StdDev,
			Min:      d.Min,
			Max:      d.Max,
			P10:      d.P10,
			P50:      d.P50,
			P90:      d.P90,
			TailMean: d.TailMean,
		}
	}
	return out
}
