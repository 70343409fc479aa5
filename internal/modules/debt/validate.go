package debt

import (
	"fmt"

	"github.com/aristath/capstack/internal/domain"
)

// Validate checks the capital structure against the project horizon and returns every
// problem found. An empty result means the structure can be scheduled.
func Validate(cfg domain.CapitalStructureConfig, horizon int) domain.Issues {
	var issues domain.Issues

	if horizon < 0 {
		issues.Add("inputs.unleveredFcf", "at least one year of cash flow is required")
	}

	seen := make(map[string]bool, len(cfg.Tranches))
	for i, t := range cfg.Tranches {
		path := fmt.Sprintf("capital.tranches[%d]", i)

		if t.ID == "" {
			issues.Add(path+".id", "is required")
		} else if seen[t.ID] {
			issues.Add(path+".id", "duplicate tranche id %q", t.ID)
		}
		seen[t.ID] = true

		if t.Principal < 0 {
			issues.Add(path+".principal", "must not be negative")
		}
		if t.Rate < 0 {
			issues.Add(path+".rate", "must not be negative")
		}
		if t.TermYears < 1 {
			issues.Add(path+".termYears", "must be at least 1")
		}

		switch t.Amortization {
		case domain.AmortizationInterestOnly, domain.AmortizationMortgage, domain.AmortizationBullet:
		default:
			issues.Add(path+".amortization", "unknown amortization style %q", t.Amortization)
		}

		if t.IOYears != nil {
			if *t.IOYears < 0 {
				issues.Add(path+".ioYears", "must not be negative")
			} else if *t.IOYears > t.TermYears {
				issues.Add(path+".ioYears", "must not exceed termYears (%d)", t.TermYears)
			}
		}
		if t.AmortizationYears != nil && *t.AmortizationYears < t.TermYears {
			issues.Add(path+".amortizationYears", "must be at least termYears (%d)", t.TermYears)
		}

		start := t.EffectiveStartYear()
		if start < 0 {
			issues.Add(path+".startYear", "must not be negative")
		} else if horizon >= 0 && start > horizon {
			issues.Add(path+".startYear", "is beyond the last project year (%d)", horizon)
		}

		if t.RefinanceAtYear != nil {
			r := *t.RefinanceAtYear
			if r <= start || r >= start+t.TermYears {
				issues.Add(path+".refinanceAtYear", "must fall strictly inside the loan term (years %d..%d)", start+1, start+t.TermYears-1)
			}
		}
		if t.RefinanceAmountPct != nil && (*t.RefinanceAmountPct < 0 || *t.RefinanceAmountPct > 1) {
			issues.Add(path+".refinanceAmountPct", "must be between 0 and 1")
		}
		if t.RefinancePrincipal != nil && *t.RefinancePrincipal < 0 {
			issues.Add(path+".refinancePrincipal", "must not be negative")
		}
		if t.OriginationFeePct < 0 || t.OriginationFeePct > 1 {
			issues.Add(path+".originationFeePct", "must be between 0 and 1")
		}
		if t.ExitFeePct < 0 || t.ExitFeePct > 1 {
			issues.Add(path+".exitFeePct", "must be between 0 and 1")
		}
	}

	return issues
}
