package di

import (
	"fmt"
	"time"

	"github.com/aristath/capstack/internal/config"
	"github.com/aristath/capstack/internal/scheduler"
	"github.com/rs/zerolog"
)

const (
	// walCheckpointSchedule runs the WAL maintenance job.
	walCheckpointSchedule = "@hourly"
	// revaluationTimeout bounds one scheduled revaluation pass.
	revaluationTimeout = 30 * time.Minute
)

// RegisterJobs creates the scheduler and registers its jobs. The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	sched := scheduler.New(log)

	if err := sched.AddJob(walCheckpointSchedule, scheduler.NewCheckWALCheckpointsJob(container.DB, log)); err != nil {
		return fmt.Errorf("failed to register WAL checkpoint job: %w", err)
	}

	if cfg.RevaluationSchedule != "" {
		job := scheduler.NewRevaluationJob(container.ScenarioService, container.Archive != nil, revaluationTimeout, log)
		if err := sched.AddJob(cfg.RevaluationSchedule, job); err != nil {
			return fmt.Errorf("failed to register revaluation job: %w", err)
		}
	}

	container.Scheduler = sched
	return nil
}
