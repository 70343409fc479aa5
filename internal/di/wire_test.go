package di

import (
	"context"
	"testing"

	"github.com/aristath/capstack/internal/config"
	"github.com/aristath/capstack/internal/modules/scenarios"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir: t.TempDir(),
		Port:    8080,
		MonteCarlo: config.MonteCarloDefaults{
			Workers:    2,
			Iterations: 25,
			Seed:       5,
		},
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)
	cfg.RevaluationSchedule = "0 3 * * *"

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.NotNil(t, container.DB)
	assert.NotNil(t, container.ScenarioRepo)
	assert.NotNil(t, container.Runner)
	assert.NotNil(t, container.Simulator)
	assert.NotNil(t, container.Loader)
	assert.NotNil(t, container.Report)
	assert.NotNil(t, container.ScenarioService)
	assert.NotNil(t, container.Scheduler)
	assert.Nil(t, container.Archive)

	list, err := container.ScenarioRepo.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWire_LoaderDefaults(t *testing.T) {
	container, err := Wire(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	doc := `
inputs: {unleveredFcf: [-100, 110]}
monte_carlo:
  variables:
    - {name: dr, target: discount_rate, distribution: normal, base: 0.1, mean: 0.1, std_dev: 0.01}
`
	s, err := container.Loader.Decode([]byte(doc), scenarios.FormatYAML)
	require.NoError(t, err)
	require.NotNil(t, s.MonteCarlo)
	assert.Equal(t, 25, s.MonteCarlo.Iterations)
	assert.Equal(t, uint64(5), s.MonteCarlo.Seed)
}

func TestWire_BadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.RevaluationSchedule = "whenever"

	_, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revaluation")
}

func TestContainer_CloseNil(t *testing.T) {
	var c *Container
	assert.NoError(t, c.Close())
}
