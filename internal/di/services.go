package di

import (
	"context"
	"fmt"

	"github.com/aristath/capstack/internal/clients/objectstore"
	"github.com/aristath/capstack/internal/config"
	"github.com/aristath/capstack/internal/modules/montecarlo"
	"github.com/aristath/capstack/internal/modules/pipeline"
	"github.com/aristath/capstack/internal/modules/report"
	"github.com/aristath/capstack/internal/modules/scenarios"
	"github.com/rs/zerolog"
)

// InitializeServices builds the engine, the optional archive and the scenario service
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.ScenarioRepo = scenarios.NewRepository(container.DB.Conn(), log)

	container.Runner = pipeline.NewRunner(log)
	container.Simulator = montecarlo.NewSimulator(container.Runner, log,
		montecarlo.WithWorkers(cfg.MonteCarlo.Workers))
	container.Loader = scenarios.NewLoader(log,
		scenarios.WithMonteCarloDefaults(cfg.MonteCarlo.Iterations, cfg.MonteCarlo.Seed))
	container.Report = report.NewWriter(report.DefaultOptions())

	// A nil *Archive must not reach the service as a non-nil interface.
	var archiver scenarios.Archiver
	if cfg.Archive.Enabled() {
		archive, err := objectstore.New(ctx, objectstore.Config{
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			Endpoint:  cfg.Archive.Endpoint,
			Prefix:    cfg.Archive.Prefix,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize snapshot archive: %w", err)
		}
		container.Archive = archive
		archiver = archive
		log.Info().Str("bucket", cfg.Archive.Bucket).Msg("Snapshot archive enabled")
	}

	container.ScenarioService = scenarios.NewService(
		container.ScenarioRepo,
		container.Runner,
		container.Simulator,
		archiver,
		log,
	)
	return nil
}
