package waterfall

import (
	"fmt"

	"github.com/aristath/capstack/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// residualKey labels cash left after every tier in the per-tier breakdown.
const residualKey = "residual"

// reportThreshold is the amount below which leftovers and drift are not reported.
const reportThreshold = 0.01

// yearAllocation is the waterfall outcome of one year before clawback.
type yearAllocation struct {
	distributions []float64            // per partner, capital calls negative
	byTier        map[string][]float64 // tier id -> per partner cash
}

// ledger carries the per-partner balances from year to year.
type ledger struct {
	plan        *plan
	contributed []float64
	distributed []float64
	unreturned  []float64
	accrued     [][]float64 // simple and compound preferred return, per tier
	hurdle      [][]float64 // hurdle balance, per tier
	rows        []yearAllocation
	warnings    []domain.Warning
}

func newLedger(p *plan) *ledger {
	n := len(p.partners)
	l := &ledger{
		plan:        p,
		contributed: make([]float64, n),
		distributed: make([]float64, n),
		unreturned:  make([]float64, n),
		accrued:     make([][]float64, len(p.tiers)),
		hurdle:      make([][]float64, len(p.tiers)),
	}
	for i := range p.tiers {
		l.accrued[i] = make([]float64, n)
		l.hurdle[i] = make([]float64, n)
	}
	return l
}

// allocate runs the tiers over the owner cash-flow series without clawback.
func allocate(p *plan, ownerCashFlows []float64) *ledger {
	l := newLedger(p)
	for t, cf := range ownerCashFlows {
		l.rows = append(l.rows, l.year(t, cf))
	}
	return l
}

func (l *ledger) year(t int, cf float64) yearAllocation {
	n := len(l.plan.partners)
	row := yearAllocation{
		distributions: make([]float64, n),
		byTier:        make(map[string][]float64),
	}

	if t > 0 {
		l.accrue()
	}

	if cf < 0 {
		for i, w := range l.plan.weights {
			call := -cf * w
			row.distributions[i] = -call
			l.contributed[i] += call
			l.unreturned[i] += call
			for ti := range l.plan.tiers {
				l.hurdle[ti][i] += call
			}
		}
		return row
	}
	if cf == 0 {
		return row
	}

	cash := cf
	paid := make([]float64, n)
	for ti := range l.plan.tiers {
		if cash <= 0 {
			break
		}
		var out []float64
		switch tier := &l.plan.tiers[ti]; tier.Type {
		case domain.TierReturnOfCapital:
			out = l.returnCapital(cash)
		case domain.TierPreferredReturn:
			out = l.payPreferred(ti, cash, paid)
		case domain.TierPromote:
			out = l.payPromote(tier, cash, paid)
		}
		amount := floats.Sum(out)
		if amount <= 0 {
			continue
		}
		row.byTier[l.plan.tiers[ti].ID] = out
		floats.Add(paid, out)
		cash -= amount
	}

	if cash > 0 {
		out := make([]float64, n)
		floats.AddScaled(out, cash, l.plan.weights)
		row.byTier[residualKey] = out
		floats.Add(paid, out)
		if cash > reportThreshold {
			l.warnings = append(l.warnings, domain.Warning{
				Code:      domain.WarnUndistributedCash,
				Message:   fmt.Sprintf("%.2f left after all tiers was split by contribution share", cash),
				YearIndex: domain.Int(t),
			})
		}
	}

	copy(row.distributions, paid)
	floats.Add(l.distributed, paid)
	for ti := range l.plan.tiers {
		floats.Sub(l.hurdle[ti], paid)
	}
	return row
}

// accrue rolls the preferred-return balances forward one year.
func (l *ledger) accrue() {
	for ti, tier := range l.plan.tiers {
		if tier.Type != domain.TierPreferredReturn {
			continue
		}
		switch {
		case tier.hurdle != nil:
			floats.Scale(1+*tier.hurdle, l.hurdle[ti])
		case tier.CompoundPref:
			for i := range l.accrued[ti] {
				l.accrued[ti][i] += (l.unreturned[i] + l.accrued[ti][i]) * *tier.PrefRate
			}
		default:
			for i := range l.accrued[ti] {
				l.accrued[ti][i] += l.unreturned[i] * *tier.PrefRate
			}
		}
	}
}

func (l *ledger) returnCapital(cash float64) []float64 {
	out := make([]float64, len(l.unreturned))
	total := floats.Sum(l.unreturned)
	if total <= 0 {
		return out
	}
	pay := min(cash, total)
	for i, u := range l.unreturned {
		out[i] = pay * u / total
		l.unreturned[i] -= out[i]
	}
	return out
}

func (l *ledger) payPreferred(ti int, cash float64, paid []float64) []float64 {
	tier := l.plan.tiers[ti]
	due := make([]float64, len(l.plan.partners))
	if tier.hurdle != nil {
		for i := range due {
			due[i] = max(0, l.hurdle[ti][i]-paid[i])
		}
	} else {
		copy(due, l.accrued[ti])
	}

	out := make([]float64, len(due))
	total := floats.Sum(due)
	if total <= 0 {
		return out
	}
	pay := min(cash, total)
	for i, d := range due {
		out[i] = pay * d / total
	}
	if tier.hurdle == nil {
		floats.Sub(l.accrued[ti], out)
	}
	return out
}

func (l *ledger) payPromote(tier *tierPlan, cash float64, paid []float64) []float64 {
	n := len(l.plan.partners)
	out := make([]float64, n)

	if tier.EnableCatchUp && tier.receiver >= 0 {
		r := tier.receiver
		profit := func(i int) float64 {
			return l.distributed[i] + paid[i] - l.contributed[i]
		}
		receiverProfit := profit(r)
		totalProfit := 0.0
		for i := 0; i < n; i++ {
			totalProfit += profit(i)
		}

		y := (tier.catchUpTo*totalProfit - receiverProfit) / (tier.catchUpRate - tier.catchUpTo)
		y = max(0, min(y, cash))
		if y > 0 {
			out[r] += tier.catchUpRate * y
			l.plan.shareAmongOthers(out, r, (1-tier.catchUpRate)*y, tier.splits)
			cash -= y
		}
	}

	floats.AddScaled(out, cash, tier.splits)
	return out
}

// shareAmongOthers adds amount to every partner except skip, by the given weights,
// falling back to contribution shares and finally to the skipped partner.
func (p *plan) shareAmongOthers(out []float64, skip int, amount float64, weights []float64) {
	if amount <= 0 {
		return
	}
	for _, ws := range [][]float64{weights, p.weights} {
		total := 0.0
		for i, w := range ws {
			if i != skip {
				total += w
			}
		}
		if total <= 0 {
			continue
		}
		for i, w := range ws {
			if i != skip {
				out[i] += amount * w / total
			}
		}
		return
	}
	out[skip] += amount
}
