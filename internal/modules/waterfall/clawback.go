package waterfall

import (
	"math"

	"github.com/aristath/capstack/internal/domain"
)

// clawback computes per-year, per-partner adjustments that move excess promote from the
// receiver back to the other partners. Every row of adjustments sums to zero.
func clawback(p *plan, ownerCashFlows []float64, base *ledger) [][]float64 {
	n := len(p.partners)
	years := len(ownerCashFlows)
	adj := make([][]float64, years)
	for t := range adj {
		adj[t] = make([]float64, n)
	}
	if p.clawback < 0 || years == 0 {
		return adj
	}

	tier := p.tiers[p.clawback]
	receiver := tier.receiver
	if receiver < 0 {
		return adj
	}

	evaluate := func(t int) {
		if tier.ClawbackMethod != domain.ClawbackLookback {
			trueUpToLiquidation(p, ownerCashFlows, base, adj, receiver, t)
			return
		}
		excess, need := lookback(p, tier, base, adj, receiver, t)
		if excess <= reportThreshold {
			return
		}
		adj[t][receiver] -= excess
		share := make([]float64, n)
		copy(share, need)
		share[receiver] = 0
		p.shareAmongOthers(adj[t], receiver, excess, share)
	}

	switch tier.ClawbackTrigger {
	case domain.ClawbackAnnual:
		for t := 1; t < years; t++ {
			evaluate(t)
		}
	default:
		evaluate(years - 1)
	}
	return adj
}

// adjustedCumulative returns each partner's net flows through year t, adjustments included.
func adjustedCumulative(base *ledger, adj [][]float64, t int) []float64 {
	out := make([]float64, len(base.plan.partners))
	for k := 0; k <= t; k++ {
		for i := range out {
			out[i] += base.rows[k].distributions[i] + adj[k][i]
		}
	}
	return out
}

// liquidationTarget reruns the waterfall as if every positive cash flow through year t
// had been received as one lump at t. Capital calls stay in their own years.
func liquidationTarget(p *plan, ownerCashFlows []float64, t int) []float64 {
	series := make([]float64, t+1)
	lump := 0.0
	for k := 0; k <= t; k++ {
		if ownerCashFlows[k] < 0 {
			series[k] = ownerCashFlows[k]
		} else {
			lump += ownerCashFlows[k]
		}
	}
	series[t] += lump

	hypo := allocate(p, series)
	target := make([]float64, len(p.partners))
	for _, row := range hypo.rows {
		for i, d := range row.distributions {
			target[i] += d
		}
	}
	return target
}

// trueUpToLiquidation moves every partner towards its liquidation target at year t.
// A receiver ahead of its target is brought fully back to it. A receiver behind its target
// gets back at most what was clawed from it in earlier years. Targets and actuals share the
// same total, so the row of adjustments sums to zero.
func trueUpToLiquidation(p *plan, ownerCashFlows []float64, base *ledger, adj [][]float64, receiver, t int) {
	target := liquidationTarget(p, ownerCashFlows, t)
	actual := adjustedCumulative(base, adj, t)

	gap := actual[receiver] - target[receiver]
	fraction := 0.0
	switch {
	case gap > reportThreshold:
		fraction = 1
	case gap < -reportThreshold:
		clawed := 0.0
		for k := 0; k < t; k++ {
			clawed -= adj[k][receiver]
		}
		if clawed > reportThreshold {
			fraction = math.Min(1, clawed/-gap)
		}
	}
	if fraction == 0 {
		return
	}
	for i := range actual {
		adj[t][i] += fraction * (target[i] - actual[i])
	}
}

// lookback measures how far the other partners are below the hurdle through year t and caps
// the clawback at the promote the receiver has collected and not yet returned.
func lookback(p *plan, tier tierPlan, base *ledger, adj [][]float64, receiver, t int) (float64, []float64) {
	hurdle := p.clawbackHurdle()
	need := make([]float64, len(p.partners))
	totalNeed := 0.0
	for i := range p.partners {
		if i == receiver {
			continue
		}
		balance := 0.0
		for k := 0; k <= t; k++ {
			flow := base.rows[k].distributions[i] + adj[k][i]
			balance -= flow * math.Pow(1+hurdle, float64(t-k))
		}
		need[i] = math.Max(0, balance)
		totalNeed += need[i]
	}

	promoteReceived, alreadyClawed := 0.0, 0.0
	for k := 0; k <= t; k++ {
		if cash, ok := base.rows[k].byTier[tier.ID]; ok {
			total := 0.0
			for _, c := range cash {
				total += c
			}
			promoteReceived += cash[receiver] - p.weights[receiver]*total
		}
		alreadyClawed -= adj[k][receiver]
	}

	available := math.Max(0, promoteReceived-alreadyClawed)
	return math.Min(totalNeed, available), need
}
