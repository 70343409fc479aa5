package montecarlo

import (
	"testing"

	"github.com/aristath/capstack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func drawColumns(t *testing.T, cfg domain.MonteCarloConfig, n int) [][]float64 {
	t.Helper()
	smp, _, issues := newSampler(cfg)
	require.Empty(t, issues)

	cols := make([][]float64, len(cfg.Variables))
	for it := 0; it < n; it++ {
		for i, v := range smp.draw(it) {
			cols[i] = append(cols[i], v)
		}
	}
	return cols
}

func TestSampler_Marginals(t *testing.T) {
	cfg := domain.MonteCarloConfig{
		Seed: 11,
		Variables: []domain.StochasticVariable{
			{Name: "n", Distribution: domain.DistributionNormal, Mean: 0.05, StdDev: 0.01},
			{Name: "ln", Distribution: domain.DistributionLognormal, Mean: 100, StdDev: 20},
			{Name: "pert", Distribution: domain.DistributionPERT, Min: 0.5, Mode: 0.7, Max: 0.8},
		},
	}
	cols := drawColumns(t, cfg, 5000)

	assert.InDelta(t, 0.05, stat.Mean(cols[0], nil), 0.001)
	assert.InDelta(t, 0.01, stat.StdDev(cols[0], nil), 0.001)

	assert.InDelta(t, 100, stat.Mean(cols[1], nil), 2)
	assert.InDelta(t, 20, stat.StdDev(cols[1], nil), 2)
	for _, v := range cols[1] {
		assert.Greater(t, v, 0.0)
	}

	// PERT mean is (min + 4*mode + max) / 6.
	assert.InDelta(t, (0.5+4*0.7+0.8)/6, stat.Mean(cols[2], nil), 0.005)
	for _, v := range cols[2] {
		require.GreaterOrEqual(t, v, 0.5)
		require.LessOrEqual(t, v, 0.8)
	}
}

func TestSampler_Correlation(t *testing.T) {
	vars := []domain.StochasticVariable{
		{Name: "a", Distribution: domain.DistributionNormal, Mean: 0, StdDev: 1},
		{Name: "b", Distribution: domain.DistributionNormal, Mean: 0, StdDev: 1},
	}

	tests := []struct {
		name string
		rho  float64
	}{
		{"positive", 0.8},
		{"negative", -0.6},
		{"independent", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.MonteCarloConfig{
				Seed:        5,
				Variables:   vars,
				Correlation: [][]float64{{1, tt.rho}, {tt.rho, 1}},
			}
			cols := drawColumns(t, cfg, 4000)
			assert.InDelta(t, tt.rho, stat.Correlation(cols[0], cols[1], nil), 0.05)
		})
	}
}

func TestSampler_DrawIsReproducible(t *testing.T) {
	cfg := mcConfig(0, 99)
	smp, _, issues := newSampler(cfg)
	require.Empty(t, issues)

	assert.Equal(t, smp.draw(17), smp.draw(17))
	assert.NotEqual(t, smp.draw(17), smp.draw(18))
}

func TestFactorCorrelation_Regularizes(t *testing.T) {
	chol, warnings, issues := factorCorrelation([][]float64{{1, 1}, {1, 1}}, 2)
	require.Empty(t, issues)
	require.NotNil(t, chol)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarnCorrelationRegularize, warnings[0].Code)
}

func TestFactorCorrelation_Rejects(t *testing.T) {
	_, _, issues := factorCorrelation([][]float64{{1, 0.9, -0.9}, {0.9, 1, 0.9}, {-0.9, 0.9, 1}}, 3)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "positive semi-definite")

	_, _, issues = factorCorrelation([][]float64{{1, 0.5}, {0.4, 1}}, 2)
	require.Len(t, issues, 1)
	assert.Equal(t, "monteCarlo.correlation[0][1]", issues[0].Path)
}
