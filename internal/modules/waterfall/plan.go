package waterfall

import (
	"fmt"
	"math"

	"github.com/aristath/capstack/internal/domain"
)

// splitTolerance bounds how far contribution percentages and tier splits may drift from 1.
const splitTolerance = 0.001

// receiverTieTolerance treats two partners' promote excess as equal.
const receiverTieTolerance = 1e-9

// plan is a validated waterfall configuration with partners resolved to indices.
type plan struct {
	partners []string
	weights  []float64
	index    map[string]int
	tiers    []tierPlan
	clawback int // index into tiers, -1 when disabled
}

type tierPlan struct {
	domain.WaterfallTier
	splits      []float64
	receiver    int // promote receiver, -1 for non-promote tiers
	hurdle      *float64
	catchUpRate float64
	catchUpTo   float64
}

// Validate checks a waterfall configuration and returns every problem found.
func Validate(cfg domain.WaterfallConfig) domain.Issues {
	_, issues := newPlan(cfg)
	return issues
}

func newPlan(cfg domain.WaterfallConfig) (*plan, domain.Issues) {
	var issues domain.Issues

	p := &plan{
		index:    make(map[string]int, len(cfg.EquityClasses)),
		clawback: -1,
	}

	if len(cfg.EquityClasses) == 0 {
		issues.Add("waterfall.equityClasses", "at least one equity class is required")
	}
	total := 0.0
	for i, ec := range cfg.EquityClasses {
		path := fmt.Sprintf("waterfall.equityClasses[%d]", i)
		if ec.ID == "" {
			issues.Add(path+".id", "is required")
			continue
		}
		if _, dup := p.index[ec.ID]; dup {
			issues.Add(path+".id", "duplicate equity class %q", ec.ID)
			continue
		}
		if ec.ContributionPct < 0 || ec.ContributionPct > 1 {
			issues.Add(path+".contributionPct", "must be between 0 and 1")
		}
		p.index[ec.ID] = len(p.partners)
		p.partners = append(p.partners, ec.ID)
		p.weights = append(p.weights, ec.ContributionPct)
		total += ec.ContributionPct
	}
	if len(p.partners) > 0 {
		if math.Abs(total-1) > splitTolerance {
			issues.Add("waterfall.equityClasses", "contribution percentages sum to %.4f, expected 1", total)
		} else {
			for i := range p.weights {
				p.weights[i] /= total
			}
		}
	}

	if len(cfg.Tiers) == 0 {
		issues.Add("waterfall.tiers", "at least one tier is required")
	}
	seen := make(map[string]bool, len(cfg.Tiers))
	for i, tier := range cfg.Tiers {
		path := fmt.Sprintf("waterfall.tiers[%d]", i)
		if tier.ID == "" {
			issues.Add(path+".id", "is required")
		} else if seen[tier.ID] {
			issues.Add(path+".id", "duplicate tier id %q", tier.ID)
		}
		seen[tier.ID] = true

		tp := tierPlan{WaterfallTier: tier, receiver: -1}
		switch tier.Type {
		case domain.TierReturnOfCapital:
		case domain.TierPreferredReturn:
			switch {
			case tier.HurdleIRR != nil:
				if *tier.HurdleIRR <= -1 {
					issues.Add(path+".hurdleIrr", "must be greater than -1")
				}
				tp.hurdle = tier.HurdleIRR
			case tier.PrefRate != nil:
				if *tier.PrefRate < 0 {
					issues.Add(path+".prefRate", "must not be negative")
				}
			default:
				issues.Add(path, "preferred return needs hurdleIrr or prefRate")
			}
		case domain.TierPromote:
			p.planPromote(&tp, path, &issues)
		default:
			issues.Add(path+".type", "unknown tier type %q", tier.Type)
		}

		if tier.EnableClawback {
			switch {
			case p.clawback >= 0:
				issues.Add(path+".enableClawback", "only one tier may enable clawback")
			case tier.Type != domain.TierPromote:
				issues.Add(path+".enableClawback", "clawback is only supported on promote tiers")
			default:
				p.clawback = i
			}
			switch tier.ClawbackTrigger {
			case "", domain.ClawbackFinalPeriod, domain.ClawbackAnnual:
			default:
				issues.Add(path+".clawbackTrigger", "unknown clawback trigger %q", tier.ClawbackTrigger)
			}
			switch tier.ClawbackMethod {
			case "", domain.ClawbackHypotheticalLiquidation, domain.ClawbackLookback:
			default:
				issues.Add(path+".clawbackMethod", "unknown clawback method %q", tier.ClawbackMethod)
			}
		}

		p.tiers = append(p.tiers, tp)
	}

	return p, issues
}

func (p *plan) planPromote(tp *tierPlan, path string, issues *domain.Issues) {
	tp.splits = make([]float64, len(p.partners))
	if len(tp.DistributionSplits) == 0 {
		issues.Add(path+".distributionSplits", "promote tier needs distribution splits")
		return
	}

	total := 0.0
	for id, share := range tp.DistributionSplits {
		idx, ok := p.index[id]
		if !ok {
			issues.Add(path+".distributionSplits", "unknown partner %q", id)
			continue
		}
		if share < 0 || share > 1 {
			issues.Add(path+".distributionSplits."+id, "must be between 0 and 1")
		}
		tp.splits[idx] = share
		total += share
	}
	if math.Abs(total-1) > splitTolerance {
		issues.Add(path+".distributionSplits", "splits sum to %.4f, expected 1", total)
	} else {
		for i := range tp.splits {
			tp.splits[i] /= total
		}
	}

	tp.receiver = p.promoteReceiver(tp.splits)
	if tp.CatchUpPartnerID != "" {
		idx, ok := p.index[tp.CatchUpPartnerID]
		if !ok {
			issues.Add(path+".catchUpPartnerId", "unknown partner %q", tp.CatchUpPartnerID)
		} else {
			tp.receiver = idx
		}
	}

	if !tp.EnableCatchUp {
		return
	}
	tp.catchUpRate = 1
	if tp.CatchUpRate != nil {
		tp.catchUpRate = *tp.CatchUpRate
		if tp.catchUpRate <= 0 || tp.catchUpRate > 1 {
			issues.Add(path+".catchUpRate", "must be in (0, 1]")
		}
	}
	if tp.CatchUpTargetSplit == nil {
		issues.Add(path+".catchUpTargetSplit", "is required when catch-up is enabled")
		return
	}
	tp.catchUpTo = *tp.CatchUpTargetSplit
	if tp.catchUpTo <= 0 || tp.catchUpTo >= 1 {
		issues.Add(path+".catchUpTargetSplit", "must be in (0, 1)")
	}
	if tp.catchUpRate <= tp.catchUpTo {
		issues.Add(path+".catchUpRate", "must exceed catchUpTargetSplit (%.4f)", tp.catchUpTo)
	}
}

// promoteReceiver picks the partner whose split most exceeds its contribution share.
// Ties go to the partner with the smaller contribution share.
func (p *plan) promoteReceiver(splits []float64) int {
	best, bestExcess := -1, math.Inf(-1)
	for i := range p.partners {
		excess := splits[i] - p.weights[i]
		switch {
		case excess > bestExcess+receiverTieTolerance:
		case excess >= bestExcess-receiverTieTolerance && p.weights[i] < p.weights[best]:
		default:
			continue
		}
		best, bestExcess = i, excess
	}
	return best
}

// clawbackHurdle resolves the hurdle used by the lookback method.
func (p *plan) clawbackHurdle() float64 {
	if p.clawback >= 0 && p.tiers[p.clawback].HurdleIRR != nil {
		return *p.tiers[p.clawback].HurdleIRR
	}
	for _, t := range p.tiers {
		if t.Type != domain.TierPreferredReturn {
			continue
		}
		if t.HurdleIRR != nil {
			return *t.HurdleIRR
		}
		if t.PrefRate != nil {
			return *t.PrefRate
		}
	}
	return 0
}
