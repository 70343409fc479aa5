// Package montecarlo runs the capital pipeline many times over sampled inputs and
// aggregates the resulting KPI distributions.
package montecarlo

import (
	"context"
	"fmt"
	"runtime"

	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/pipeline"
	"github.com/rs/zerolog"
)

// KPI names used as keys of MonteCarloResult.Statistics.
const (
	KPINPV            = "npv"
	KPIUnleveredIRR   = "unleveredIrr"
	KPILeveredIRR     = "leveredIrr"
	KPIMOIC           = "moic"
	KPIEquityMultiple = "equityMultiple"
	KPIWACC           = "wacc"
)

// ProgressUpdate reports simulation progress.
type ProgressUpdate struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// ProgressCallback is a function type for receiving progress updates.
type ProgressCallback func(update ProgressUpdate)

// Simulator runs Monte Carlo batches.
type Simulator struct {
	runner  *pipeline.Runner
	mutator Mutator
	workers int
	log     zerolog.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithMutator replaces the default scenario mutator.
func WithMutator(m Mutator) Option {
	return func(s *Simulator) { s.mutator = m }
}

// WithWorkers sets the default worker count used when the config does not set one.
func WithWorkers(n int) Option {
	return func(s *Simulator) { s.workers = n }
}

// NewSimulator creates a new simulator.
func NewSimulator(runner *pipeline.Runner, log zerolog.Logger, opts ...Option) *Simulator {
	s := &Simulator{
		runner:  runner,
		mutator: DefaultMutator{},
		workers: runtime.NumCPU(),
		log:     log.With().Str("component", "montecarlo").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run simulates cfg.Iterations variations of the scenario.
//
// The base scenario is run once, unmodified, to provide the base case. Every iteration works
// on its own deep copy. Failed iterations become warnings and are left out of the statistics.
// When ctx is cancelled the completed iterations are returned with Cancelled set.
func (s *Simulator) Run(ctx context.Context, scenario domain.Scenario, cfg domain.MonteCarloConfig, progress ProgressCallback) (*domain.MonteCarloResult, error) {
	issues := Validate(cfg)
	smp, warnings, corrIssues := newSampler(cfg)
	issues.Merge(corrIssues)
	issues.Merge(pipeline.Validate(scenario))
	if err := issues.Err(); err != nil {
		return nil, err
	}

	base, err := s.runner.Run(scenario)
	if err != nil {
		return nil, fmt.Errorf("base case: %w", err)
	}

	result := &domain.MonteCarloResult{
		RequestedIterations: cfg.Iterations,
		BaseCase:            base.KPIs,
		Iterations:          []domain.IterationResult{},
		Statistics:          map[string]domain.KPIStatistics{},
		Warnings:            warnings,
	}
	if cfg.Iterations == 0 {
		return result, nil
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = s.workers
	}

	update := ProgressUpdate{Total: cfg.Iterations}
	items := NewWorkerPool(workers).RunBatch(ctx, cfg.Iterations,
		func(index int) resultItem {
			return s.iterate(scenario, smp, index)
		},
		func(item resultItem) {
			if item.skipped {
				return
			}
			update.Completed++
			if item.err != nil {
				update.Failed++
			}
			if progress != nil {
				progress(update)
			}
		},
	)

	for _, item := range items {
		switch {
		case item.skipped:
			result.Cancelled = true
		case item.err != nil:
			result.Failed++
			result.Warnings = append(result.Warnings, domain.Warning{
				Code:    domain.WarnIterationFailed,
				Message: fmt.Sprintf("iteration %d: %v", item.index, item.err),
			})
		default:
			result.Completed++
			result.Iterations = append(result.Iterations, domain.IterationResult{
				Index: item.index,
				Draws: item.draws,
				KPIs:  item.kpis,
			})
		}
	}
	if ctx.Err() != nil {
		result.Cancelled = true
	}

	result.Statistics = Aggregate(result.Iterations)

	s.log.Info().
		Int("requested", cfg.Iterations).
		Int("completed", result.Completed).
		Int("failed", result.Failed).
		Bool("cancelled", result.Cancelled).
		Msg("Monte Carlo simulation finished")

	return result, nil
}

func (s *Simulator) iterate(scenario domain.Scenario, smp *sampler, index int) resultItem {
	values := smp.draw(index)
	draws := make(map[string]float64, len(values))

	trial := scenario.Clone()
	for i, v := range smp.vars {
		draws[v.Name] = values[i]
		if err := s.mutator.Apply(&trial, v, values[i]); err != nil {
			return resultItem{draws: draws, err: err}
		}
	}

	out, err := s.runner.Run(trial)
	if err != nil {
		return resultItem{draws: draws, err: err}
	}
	return resultItem{draws: draws, kpis: out.KPIs}
}
