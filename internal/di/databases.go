// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/capstack/internal/config"
	"github.com/aristath/capstack/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the scenario store and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "capstack",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize capstack database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate capstack database: %w", err)
	}
	container.DB = db

	log.Info().Str("path", db.Path()).Msg("Database initialized")
	return container, nil
}
