// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v3/cpu"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for the scenario store (always absolute)
	LogLevel  string
	LogPretty bool
	Port      int
	DevMode   bool

	MonteCarlo MonteCarloDefaults

	// RevaluationSchedule is a cron spec for re-running stored scenarios. Empty disables it.
	RevaluationSchedule string

	Archive ArchiveConfig
}

// MonteCarloDefaults apply when a request leaves the values unset.
type MonteCarloDefaults struct {
	Workers    int
	Iterations int
	Seed       uint64
}

// ArchiveConfig holds the snapshot bucket settings.
type ArchiveConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	Prefix    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether snapshots should be archived.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// DatabasePath returns the location of the scenario store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "capstack.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("CAPSTACK_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:   absDataDir,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
		Port:      getEnvAsInt("PORT", 8080),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		MonteCarlo: MonteCarloDefaults{
			Workers:    getEnvAsInt("MC_WORKERS", defaultWorkers()),
			Iterations: getEnvAsInt("MC_DEFAULT_ITERATIONS", 1000),
			Seed:       getEnvAsUint64("MC_DEFAULT_SEED", 42),
		},
		RevaluationSchedule: getEnv("REVALUATION_SCHEDULE", ""),
		Archive: ArchiveConfig{
			Bucket:    getEnv("ARCHIVE_BUCKET", ""),
			Region:    getEnv("ARCHIVE_REGION", "us-east-1"),
			Endpoint:  getEnv("ARCHIVE_ENDPOINT", ""),
			Prefix:    getEnv("ARCHIVE_PREFIX", "runs"),
			AccessKey: getEnv("ARCHIVE_ACCESS_KEY", ""),
			SecretKey: getEnv("ARCHIVE_SECRET_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges and the revaluation cron spec
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.MonteCarlo.Workers < 1 {
		return fmt.Errorf("MC_WORKERS must be at least 1, got %d", c.MonteCarlo.Workers)
	}
	if c.MonteCarlo.Iterations < 0 {
		return fmt.Errorf("MC_DEFAULT_ITERATIONS must not be negative, got %d", c.MonteCarlo.Iterations)
	}
	if c.RevaluationSchedule != "" {
		if _, err := cron.ParseStandard(c.RevaluationSchedule); err != nil {
			return fmt.Errorf("invalid REVALUATION_SCHEDULE %q: %w", c.RevaluationSchedule, err)
		}
	}
	if (c.Archive.AccessKey == "") != (c.Archive.SecretKey == "") {
		return fmt.Errorf("ARCHIVE_ACCESS_KEY and ARCHIVE_SECRET_KEY must be set together")
	}
	return nil
}

// defaultWorkers uses the logical CPU count, falling back to 4 when it cannot be read.
func defaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return 4
	}
	return n
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
