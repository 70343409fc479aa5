/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is built by Wire() and shared by the HTTP service and the CLI.
 */
package di

import (
	"github.com/aristath/capstack/internal/clients/objectstore"
	"github.com/aristath/capstack/internal/database"
	"github.com/aristath/capstack/internal/modules/montecarlo"
	"github.com/aristath/capstack/internal/modules/pipeline"
	"github.com/aristath/capstack/internal/modules/report"
	"github.com/aristath/capstack/internal/modules/scenarios"
	"github.com/aristath/capstack/internal/scheduler"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Database: one SQLite store for scenarios and run snapshots
 * - Clients: optional S3-compatible snapshot archive
 * - Engine: pipeline runner and Monte Carlo simulator
 * - Services: scenario service (run, store, archive)
 * - Scheduler: cron jobs (revaluation, WAL maintenance)
 */
type Container struct {
	// Database
	DB *database.DB

	// Clients (Archive is nil when no bucket is configured)
	Archive *objectstore.Archive

	// Repositories
	ScenarioRepo *scenarios.Repository

	// Engine
	Runner    *pipeline.Runner
	Simulator *montecarlo.Simulator
	Loader    *scenarios.Loader
	Report    *report.Writer

	// Services
	ScenarioService *scenarios.Service

	// Scheduler
	Scheduler *scheduler.Scheduler
}

// Close releases the container's resources.
func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
