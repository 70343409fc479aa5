package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Revaluer reruns every stored scenario.
type Revaluer interface {
	RevalueAll(ctx context.Context, archive bool) (int, error)
}

// RevaluationJob reruns the deterministic pipeline for all stored scenarios
type RevaluationJob struct {
	service Revaluer
	archive bool
	timeout time.Duration
	log     zerolog.Logger
}

// NewRevaluationJob creates a new RevaluationJob. When archive is set every new run is
// uploaded to the snapshot archive.
func NewRevaluationJob(service Revaluer, archive bool, timeout time.Duration, log zerolog.Logger) *RevaluationJob {
	return &RevaluationJob{
		service: service,
		archive: archive,
		timeout: timeout,
		log:     log.With().Str("job", "revaluation").Logger(),
	}
}

// Name returns the job name
func (j *RevaluationJob) Name() string {
	return "revaluation"
}

// Run executes the revaluation job
func (j *RevaluationJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	count, err := j.service.RevalueAll(ctx, j.archive)
	if err != nil {
		return err
	}

	j.log.Info().
		Int("runs", count).
		Bool("archived", j.archive).
		Dur("elapsed", time.Since(start)).
		Msg("Revaluation completed")
	return nil
}
