// Package pipeline chains the capital engine for one scenario: debt schedule, cost of
// capital, valuation, equity waterfall and covenant monitoring.
package pipeline

import (
	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/covenants"
	"github.com/aristath/capstack/internal/modules/debt"
	"github.com/aristath/capstack/internal/modules/valuation"
	"github.com/aristath/capstack/internal/modules/waterfall"
	"github.com/aristath/capstack/pkg/formulas"
	"github.com/rs/zerolog"
)

// Runner runs scenarios through the capital engine.
type Runner struct {
	debt      *debt.Builder
	waterfall *waterfall.Engine
	covenants *covenants.Monitor
	log       zerolog.Logger
}

// NewRunner creates a new pipeline runner.
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{
		debt:      debt.NewBuilder(log),
		waterfall: waterfall.NewEngine(log),
		covenants: covenants.NewMonitor(log),
		log:       log.With().Str("component", "pipeline").Logger(),
	}
}

// Run runs a scenario with a silent logger.
func Run(s domain.Scenario) (*domain.PipelineResult, error) {
	return NewRunner(zerolog.Nop()).Run(s)
}

// Run validates the scenario and computes every result. The scenario is not modified.
func (r *Runner) Run(s domain.Scenario) (*domain.PipelineResult, error) {
	if err := Validate(s).Err(); err != nil {
		return nil, err
	}

	built, err := r.debt.Build(s.Capital, s.Inputs)
	if err != nil {
		return nil, err
	}
	owner := built.OwnerCashFlows()

	investment := debt.InitialInvestment(s.Project, s.Inputs)
	wacc := valuation.CalculateWACC(s.Project, s.Capital.Tranches, investment)
	value, valueWarnings := valuation.Value(s.Project, s.Inputs.UnleveredFcf, owner, wacc)

	result := &domain.PipelineResult{
		ScenarioName: s.Name,
		Capital: domain.CapitalEngineResult{
			Schedule:              built.Schedule,
			Tranches:              built.Tranches,
			LeveredFcf:            built.LeveredFcf,
			OwnerLeveredCashFlows: owner,
			DebtKPIs:              debt.KPIs(s.Project, s.Inputs, s.Capital, built),
		},
		Valuation: value,
	}
	result.Warnings = append(result.Warnings, built.Warnings...)
	result.Warnings = append(result.Warnings, valueWarnings...)

	result.Capital.MonthlyDebtKPIs = covenants.MonthlyKPIs(s.Inputs, s.Capital.OpeningCash, built.Schedule, investment)
	if len(s.Covenants) > 0 {
		statuses, summaries, err := r.covenants.Evaluate(s.Covenants, result.Capital.MonthlyDebtKPIs)
		if err != nil {
			return nil, err
		}
		result.Capital.CovenantStatuses = statuses
		result.Capital.CovenantSummaries = summaries
	}

	if s.Waterfall != nil {
		wf, err := r.waterfall.Run(*s.Waterfall, owner)
		if err != nil {
			return nil, err
		}
		result.Waterfall = wf
		result.Warnings = append(result.Warnings, wf.Warnings...)
	}

	result.KPIs = Snapshot(result)

	r.log.Debug().
		Str("scenario", s.Name).
		Float64("npv", result.KPIs.NPV).
		Float64("wacc", result.KPIs.WACC).
		Int("warnings", len(result.Warnings)).
		Msg("Pipeline run complete")

	return result, nil
}

// Snapshot condenses a pipeline result into its headline KPIs.
//
// MOIC is aggregate partner distributions over aggregate contributions when a waterfall ran,
// otherwise the levered equity multiple.
func Snapshot(result *domain.PipelineResult) domain.KPISnapshot {
	kpis := domain.KPISnapshot{
		NPV:            result.Valuation.NPV,
		UnleveredIRR:   result.Valuation.UnleveredIRR,
		LeveredIRR:     result.Valuation.LeveredIRR,
		EquityMultiple: result.Valuation.EquityMultiple,
		WACC:           result.Valuation.WACC,
		MOIC:           result.Valuation.EquityMultiple,
	}

	if result.Waterfall != nil {
		distributed, contributed := 0.0, 0.0
		for _, p := range result.Waterfall.Partners {
			in, out := formulas.SplitFlows(p.CashFlows)
			distributed += in
			contributed += out
		}
		kpis.MOIC = nil
		if contributed > 0 {
			kpis.MOIC = domain.Float(distributed / contributed)
		}
	}
	return kpis
}
