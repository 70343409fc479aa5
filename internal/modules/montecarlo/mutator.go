package montecarlo

import (
	"fmt"

	"github.com/aristath/capstack/internal/domain"
)

// Mutator applies one sampled value to a scenario copy owned by the iteration.
type Mutator interface {
	Apply(s *domain.Scenario, v domain.StochasticVariable, value float64) error
}

// MutatorFunc adapts a function to the Mutator interface.
type MutatorFunc func(s *domain.Scenario, v domain.StochasticVariable, value float64) error

// Apply calls f.
func (f MutatorFunc) Apply(s *domain.Scenario, v domain.StochasticVariable, value float64) error {
	return f(s, v, value)
}

// DefaultMutator maps each variable target onto the scenario.
//
// Occupancy, ADR and NOI scale the operating years (1..N) of the cash-flow and NOI series by
// value/base. Interest rate shifts every tranche by value−base, floored at zero. Discount rate
// and terminal growth replace the project values.
type DefaultMutator struct{}

// Apply implements Mutator.
func (DefaultMutator) Apply(s *domain.Scenario, v domain.StochasticVariable, value float64) error {
	switch v.Target {
	case domain.TargetOccupancy, domain.TargetADR, domain.TargetNOI:
		if v.Base == 0 {
			return fmt.Errorf("variable %s: base must not be zero", v.Name)
		}
		factor := value / v.Base
		scaleOperating(s.Inputs.UnleveredFcf, factor)
		scaleOperating(s.Inputs.NOI, factor)
		for i := range s.Inputs.MonthlyNOI {
			s.Inputs.MonthlyNOI[i] *= factor
		}
	case domain.TargetInterestRate:
		shift := value - v.Base
		for i := range s.Capital.Tranches {
			s.Capital.Tranches[i].Rate = max(0, s.Capital.Tranches[i].Rate+shift)
		}
	case domain.TargetDiscountRate:
		s.Project.DiscountRate = value
	case domain.TargetTerminalGrowth:
		s.Project.TerminalGrowthRate = value
	default:
		return fmt.Errorf("variable %s: unknown target %q", v.Name, v.Target)
	}
	return nil
}

func scaleOperating(series []float64, factor float64) {
	for t := 1; t < len(series); t++ {
		series[t] *= factor
	}
}
