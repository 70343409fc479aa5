package montecarlo

import (
	"fmt"

	"github.com/aristath/capstack/internal/domain"
)

// Validate checks the simulation settings and variable definitions.
// The correlation matrix is checked when the sampler is built.
func Validate(cfg domain.MonteCarloConfig) domain.Issues {
	var issues domain.Issues

	if cfg.Iterations < 0 {
		issues.Add("monteCarlo.iterations", "must not be negative")
	}
	if cfg.Workers < 0 {
		issues.Add("monteCarlo.workers", "must not be negative")
	}

	seen := make(map[string]bool, len(cfg.Variables))
	for i, v := range cfg.Variables {
		path := fmt.Sprintf("monteCarlo.variables[%d]", i)
		if v.Name == "" {
			issues.Add(path+".name", "is required")
		} else if seen[v.Name] {
			issues.Add(path+".name", "duplicate variable %q", v.Name)
		}
		seen[v.Name] = true

		switch v.Target {
		case domain.TargetOccupancy, domain.TargetADR, domain.TargetNOI:
			if v.Base == 0 {
				issues.Add(path+".base", "must not be zero for a scaling target")
			}
		case domain.TargetInterestRate, domain.TargetDiscountRate, domain.TargetTerminalGrowth:
		default:
			issues.Add(path+".target", "unknown target %q", v.Target)
		}

		switch v.Distribution {
		case domain.DistributionNormal:
			if v.StdDev < 0 {
				issues.Add(path+".stdDev", "must not be negative")
			}
		case domain.DistributionLognormal:
			if v.Mean <= 0 {
				issues.Add(path+".mean", "must be positive for a lognormal variable")
			}
			if v.StdDev < 0 {
				issues.Add(path+".stdDev", "must not be negative")
			}
		case domain.DistributionPERT:
			if v.Min >= v.Max {
				issues.Add(path+".max", "must be greater than min")
			} else if v.Mode < v.Min || v.Mode > v.Max {
				issues.Add(path+".mode", "must lie between min and max")
			}
		default:
			issues.Add(path+".distribution", "unknown distribution %q", v.Distribution)
		}
	}

	return issues
}
