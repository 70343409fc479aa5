package snapshots

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/montecarlo"
	"github.com/aristath/capstack/internal/modules/pipeline"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenario() domain.Scenario {
	return domain.Scenario{
		Name:    "snap",
		Project: domain.ProjectConfig{DiscountRate: 0.08, TerminalGrowthRate: 0.02},
		Inputs:  domain.ProjectInputs{UnleveredFcf: []float64{-500, 40, 42, 44, 560}},
		Capital: domain.CapitalStructureConfig{
			RepayAtExit: true,
			Tranches: []domain.DebtTranche{{
				ID: "senior", Principal: 300, Rate: 0.05,
				Amortization: domain.AmortizationInterestOnly, TermYears: 5,
			}},
		},
		Waterfall: &domain.WaterfallConfig{
			EquityClasses: []domain.EquityClass{{ID: "lp", ContributionPct: 0.9}, {ID: "gp", ContributionPct: 0.1}},
			Tiers: []domain.WaterfallTier{
				{ID: "roc", Type: domain.TierReturnOfCapital},
				{ID: "promote", Type: domain.TierPromote, DistributionSplits: map[string]float64{"lp": 0.7, "gp": 0.3}},
			},
		},
	}
}

func TestPipelineSnapshotRoundTrip(t *testing.T) {
	s := scenario()
	result, err := pipeline.Run(s)
	require.NoError(t, err)

	snap := NewPipeline(s, result)
	data, err := Encode(snap)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, snap.ID, decoded.ID)
	assert.Equal(t, KindPipeline, decoded.Kind)
	assert.True(t, snap.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, s, decoded.Scenario)
	require.NotNil(t, decoded.Pipeline)
	assert.Equal(t, result.KPIs, decoded.Pipeline.KPIs)
	assert.Equal(t, result.Capital.LeveredFcf, decoded.Pipeline.Capital.LeveredFcf)
	require.NotNil(t, decoded.Pipeline.Waterfall)
	assert.Equal(t, result.Waterfall.Partners, decoded.Pipeline.Waterfall.Partners)
	assert.Equal(t, result.KPIs, decoded.KPIs())
	assert.Nil(t, decoded.MonteCarlo)
}

func TestMonteCarloSnapshotRoundTrip(t *testing.T) {
	s := scenario()
	cfg := domain.MonteCarloConfig{
		Iterations: 8,
		Seed:       3,
		Variables: []domain.StochasticVariable{
			{Name: "noi", Target: domain.TargetNOI, Distribution: domain.DistributionNormal, Base: 1, Mean: 1, StdDev: 0.05},
		},
	}
	sim := montecarlo.NewSimulator(pipeline.NewRunner(zerolog.Nop()), zerolog.Nop())
	result, err := sim.Run(context.Background(), s, cfg, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "mc.msgpack")
	require.NoError(t, WriteFile(path, NewMonteCarlo(s, result)))

	decoded, err := ReadFile(path)
	require.NoError(t, err)
	require.NotNil(t, decoded.MonteCarlo)
	assert.Equal(t, KindMonteCarlo, decoded.Kind)
	assert.Equal(t, result.Statistics, decoded.MonteCarlo.Statistics)
	assert.Equal(t, result.Iterations, decoded.MonteCarlo.Iterations)
	assert.Equal(t, result.BaseCase, decoded.KPIs())
	assert.Equal(t, len(result.Warnings), decoded.WarningCount())
}

func TestDecode_Rejects(t *testing.T) {
	_, err := Decode([]byte{0xc1})
	assert.True(t, domain.IsCode(err, domain.CodeInvalidInput))

	data, err := Encode(&Snapshot{Version: Version + 1, Kind: KindPipeline})
	require.NoError(t, err)
	_, err = Decode(data)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidInput))
	assert.ErrorContains(t, err, "unsupported snapshot version")
}
