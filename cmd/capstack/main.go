// Command capstack runs one scenario file through the pipeline or the
// Monte Carlo simulator, prints the report and stores the run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristath/capstack/internal/config"
	"github.com/aristath/capstack/internal/di"
	"github.com/aristath/capstack/internal/modules/montecarlo"
	"github.com/aristath/capstack/internal/modules/scenarios"
	"github.com/aristath/capstack/internal/modules/snapshots"
	"github.com/aristath/capstack/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	// Parse command-line flags
	scenarioPath := flag.String("scenario", "", "Path to a scenario file (.yaml, .yml or .json)")
	monteCarlo := flag.Bool("montecarlo", false, "Run the Monte Carlo simulation instead of the base pipeline")
	iterations := flag.Int("iterations", -1, "Override monteCarlo.iterations (negative keeps the file value)")
	out := flag.String("out", "", "Write the run snapshot (msgpack) to this path")
	archive := flag.Bool("archive", false, "Upload the snapshot to the configured archive bucket")
	flag.Parse()

	if *scenarioPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "capstack: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, options{
		scenarioPath: *scenarioPath,
		monteCarlo:   *monteCarlo,
		iterations:   *iterations,
		out:          *out,
		archive:      *archive,
	}); err != nil {
		log.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}
}

type options struct {
	scenarioPath string
	monteCarlo   bool
	iterations   int
	out          string
	archive      bool
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts options) error {
	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer container.Close()

	scenario, err := container.Loader.LoadFile(opts.scenarioPath)
	if err != nil {
		return err
	}

	runOpts := scenarios.RunOptions{
		MonteCarlo: opts.monteCarlo,
		Archive:    opts.archive,
	}
	if opts.iterations >= 0 {
		runOpts.Iterations = &opts.iterations
	}
	if opts.monteCarlo {
		runOpts.Progress = progressLogger(log)
	}

	outcome, err := container.ScenarioService.Run(ctx, "", scenario, runOpts)
	if err != nil {
		return err
	}

	snap := outcome.Snapshot
	switch snap.Kind {
	case snapshots.KindMonteCarlo:
		err = container.Report.MonteCarlo(os.Stdout, snap.MonteCarlo)
	default:
		err = container.Report.Pipeline(os.Stdout, snap.Pipeline)
	}
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if opts.out != "" {
		if err := snapshots.WriteFile(opts.out, snap); err != nil {
			return err
		}
		log.Info().Str("path", opts.out).Msg("Snapshot written")
	}

	log.Info().
		Str("run_id", outcome.Record.ID).
		Str("archive_key", outcome.Record.ArchiveKey).
		Msg("Run stored")
	return nil
}

// progressLogger logs every tenth of the run.
func progressLogger(log zerolog.Logger) montecarlo.ProgressCallback {
	lastDecile := -1
	return func(update montecarlo.ProgressUpdate) {
		if update.Total == 0 {
			return
		}
		decile := update.Completed * 10 / update.Total
		if decile == lastDecile {
			return
		}
		lastDecile = decile
		log.Info().
			Int("completed", update.Completed).
			Int("total", update.Total).
			Msg("Monte Carlo progress")
	}
}
