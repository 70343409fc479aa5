package scenarios

import (
	"context"
	"fmt"

	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/montecarlo"
	"github.com/aristath/capstack/internal/modules/pipeline"
	"github.com/aristath/capstack/internal/modules/snapshots"
	"github.com/rs/zerolog"
)

// Archiver uploads encoded snapshots and returns the object key.
type Archiver interface {
	Put(ctx context.Context, runID string, data []byte, contentType string) (string, error)
}

var errArchiveDisabled = domain.NewError(domain.CodeInvalidInput, "snapshot archive is not configured")

// RunOptions selects what a run computes and where its snapshot goes.
type RunOptions struct {
	MonteCarlo bool
	Iterations *int // overrides monteCarlo.iterations when set
	Archive    bool
	Progress   montecarlo.ProgressCallback
}

// RunOutcome is a finished run with its stored record.
type RunOutcome struct {
	Record   *RunRecord          `json:"run"`
	Snapshot *snapshots.Snapshot `json:"snapshot"`
}

// Service runs scenarios and keeps their snapshots.
type Service struct {
	repo      *Repository
	runner    *pipeline.Runner
	simulator *montecarlo.Simulator
	archive   Archiver
	log       zerolog.Logger
}

// NewService creates a new scenario service. archive may be nil.
func NewService(repo *Repository, runner *pipeline.Runner, simulator *montecarlo.Simulator, archive Archiver, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		runner:    runner,
		simulator: simulator,
		archive:   archive,
		log:       log.With().Str("service", "scenarios").Logger(),
	}
}

// Repository exposes the underlying store.
func (s *Service) Repository() *Repository {
	return s.repo
}

// RunStored loads a stored scenario and runs it.
func (s *Service) RunStored(ctx context.Context, id string, opts RunOptions) (*RunOutcome, error) {
	stored, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, stored.ID, stored.Scenario, opts)
}

// Run computes a scenario and stores the snapshot. scenarioID is empty for ad-hoc runs.
func (s *Service) Run(ctx context.Context, scenarioID string, scenario domain.Scenario, opts RunOptions) (*RunOutcome, error) {
	if opts.Archive && s.archive == nil {
		return nil, errArchiveDisabled
	}

	snap, err := s.compute(ctx, scenario, opts)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.SaveRun(scenarioID, snap)
	if err != nil {
		return nil, err
	}

	if opts.Archive {
		key, err := s.archiveSnapshot(ctx, snap)
		if err != nil {
			return nil, err
		}
		if err := s.repo.SetArchiveKey(rec.ID, key); err != nil {
			return nil, err
		}
		rec.ArchiveKey = key
	}

	s.log.Info().
		Str("run_id", rec.ID).
		Str("scenario_id", scenarioID).
		Str("kind", string(rec.Kind)).
		Int("warnings", rec.Warnings).
		Msg("Run stored")

	return &RunOutcome{Record: rec, Snapshot: snap}, nil
}

// ArchiveRun uploads an already stored run.
func (s *Service) ArchiveRun(ctx context.Context, runID string) (string, error) {
	_, snap, err := s.repo.GetRun(runID)
	if err != nil {
		return "", err
	}
	key, err := s.archiveSnapshot(ctx, snap)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetArchiveKey(runID, key); err != nil {
		return "", err
	}
	return key, nil
}

// RevalueAll reruns the deterministic pipeline for every stored scenario.
// A failing scenario is logged and skipped; the count of stored runs is returned.
func (s *Service) RevalueAll(ctx context.Context, archive bool) (int, error) {
	list, err := s.repo.List()
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, summary := range list {
		if err := ctx.Err(); err != nil {
			return stored, domain.NewError(domain.CodeCancelled, "revaluation cancelled after %d runs", stored)
		}
		if _, err := s.RunStored(ctx, summary.ID, RunOptions{Archive: archive}); err != nil {
			s.log.Warn().Err(err).Str("scenario_id", summary.ID).Msg("Revaluation failed")
			continue
		}
		stored++
	}
	return stored, nil
}

func (s *Service) compute(ctx context.Context, scenario domain.Scenario, opts RunOptions) (*snapshots.Snapshot, error) {
	if !opts.MonteCarlo {
		result, err := s.runner.Run(scenario)
		if err != nil {
			return nil, err
		}
		return snapshots.NewPipeline(scenario, result), nil
	}

	if scenario.MonteCarlo == nil {
		return nil, domain.NewValidationError([]domain.ValidationIssue{
			{Path: "monteCarlo", Message: "is required for a Monte Carlo run"},
		})
	}
	cfg := *scenario.MonteCarlo
	if opts.Iterations != nil {
		cfg.Iterations = *opts.Iterations
	}

	result, err := s.simulator.Run(ctx, scenario, cfg, opts.Progress)
	if err != nil {
		return nil, err
	}
	return snapshots.NewMonteCarlo(scenario, result), nil
}

func (s *Service) archiveSnapshot(ctx context.Context, snap *snapshots.Snapshot) (string, error) {
	if s.archive == nil {
		return "", errArchiveDisabled
	}
	data, err := snapshots.Encode(snap)
	if err != nil {
		return "", err
	}
	key, err := s.archive.Put(ctx, snap.ID, data, snapshots.ContentType)
	if err != nil {
		return "", fmt.Errorf("archiving run %s: %w", snap.ID, err)
	}
	return key, nil
}
