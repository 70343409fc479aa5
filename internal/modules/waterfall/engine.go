// Package waterfall allocates the owner's levered cash flow among equity partners through
// ordered return-of-capital, preferred-return and promote tiers, with optional catch-up
// and clawback.
package waterfall

import (
	"fmt"
	"math"

	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/pkg/formulas"
	"github.com/rs/zerolog"
)

// Engine runs equity waterfalls.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a new waterfall engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		log: log.With().Str("component", "waterfall").Logger(),
	}
}

// Run allocates ownerCashFlows (year 0..N, negative = capital call) among the partners.
//
// The configuration is validated first; all issues are returned together as a
// validation_failed error and nothing is computed.
func (e *Engine) Run(cfg domain.WaterfallConfig, ownerCashFlows []float64) (*domain.WaterfallResult, error) {
	p, issues := newPlan(cfg)
	if len(ownerCashFlows) == 0 {
		issues.Add("capital.ownerLeveredCashFlows", "at least one year of cash flow is required")
	}
	if err := issues.Err(); err != nil {
		return nil, err
	}

	base := allocate(p, ownerCashFlows)
	adj := clawback(p, ownerCashFlows, base)

	result := &domain.WaterfallResult{
		Rows:     make([]domain.AnnualWaterfallRow, len(ownerCashFlows)),
		Warnings: base.warnings,
	}

	n := len(p.partners)
	flows := make([][]float64, n)
	for i := range flows {
		flows[i] = make([]float64, len(ownerCashFlows))
	}

	for t, cf := range ownerCashFlows {
		alloc := base.rows[t]
		row := domain.AnnualWaterfallRow{
			YearIndex:            t,
			OwnerCashFlow:        cf,
			PartnerDistributions: make(map[string]float64, n),
		}
		if len(alloc.byTier) > 0 {
			row.TierDistributions = make(map[string]map[string]float64, len(alloc.byTier))
			for tierID, cash := range alloc.byTier {
				row.TierDistributions[tierID] = p.byPartner(cash)
			}
		}

		sum := 0.0
		clawed := false
		for i, id := range p.partners {
			row.PartnerDistributions[id] = alloc.distributions[i]
			flows[i][t] = alloc.distributions[i] + adj[t][i]
			sum += flows[i][t]
			if adj[t][i] != 0 {
				clawed = true
			}
		}
		if clawed {
			row.ClawbackAdjustments = p.byPartner(adj[t])
		}

		if drift := math.Abs(cf - sum); drift > reportThreshold {
			result.Warnings = append(result.Warnings, domain.Warning{
				Code:      domain.WarnReconciliation,
				Message:   fmt.Sprintf("partner flows differ from owner cash flow by %.4f", drift),
				YearIndex: domain.Int(t),
			})
		}
		result.Rows[t] = row
	}

	totalContributed := 0.0
	for i, id := range p.partners {
		series := domain.PartnerDistributionSeries{
			PartnerID:  id,
			CashFlows:  flows[i],
			Cumulative: formulas.Cumulative(flows[i]),
		}
		series.Distributed, series.Contributed = formulas.SplitFlows(flows[i])
		for t := range adj {
			series.Clawback += adj[t][i]
		}
		series.IRR = formulas.IRR(flows[i])
		series.MOIC = formulas.EquityMultiple(flows[i])
		totalContributed += series.Contributed
		result.Partners = append(result.Partners, series)
	}

	if totalContributed == 0 {
		result.Warnings = append(result.Warnings, domain.Warning{
			Code:    domain.WarnNoContributions,
			Message: "owner cash flow has no capital calls; return metrics are undefined",
		})
	}

	e.log.Debug().
		Int("partners", n).
		Int("years", len(ownerCashFlows)).
		Bool("clawback", p.clawback >= 0).
		Int("warnings", len(result.Warnings)).
		Msg("Waterfall allocated")

	return result, nil
}

func (p *plan) byPartner(values []float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	for i, id := range p.partners {
		out[id] = values[i]
	}
	return out
}
