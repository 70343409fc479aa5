package waterfall

import (
	"testing"

	"github.com/aristath/capstack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuePaths(issues domain.Issues) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Path)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *domain.WaterfallConfig)
		path   string
	}{
		{
			name:   "contributions do not sum to one",
			mutate: func(cfg *domain.WaterfallConfig) { cfg.EquityClasses[1].ContributionPct = 0.2 },
			path:   "waterfall.equityClasses",
		},
		{
			name:   "duplicate partner",
			mutate: func(cfg *domain.WaterfallConfig) { cfg.EquityClasses[1].ID = "lp" },
			path:   "waterfall.equityClasses[1].id",
		},
		{
			name:   "no tiers",
			mutate: func(cfg *domain.WaterfallConfig) { cfg.Tiers = nil },
			path:   "waterfall.tiers",
		},
		{
			name:   "unknown tier type",
			mutate: func(cfg *domain.WaterfallConfig) { cfg.Tiers[0].Type = "bonus" },
			path:   "waterfall.tiers[0].type",
		},
		{
			name:   "preferred return without a rate",
			mutate: func(cfg *domain.WaterfallConfig) { cfg.Tiers[1].PrefRate = nil },
			path:   "waterfall.tiers[1]",
		},
		{
			name:   "splits do not sum to one",
			mutate: func(cfg *domain.WaterfallConfig) { cfg.Tiers[2].DistributionSplits["gp"] = 0.3 },
			path:   "waterfall.tiers[2].distributionSplits",
		},
		{
			name:   "split for unknown partner",
			mutate: func(cfg *domain.WaterfallConfig) { cfg.Tiers[2].DistributionSplits["xx"] = 0 },
			path:   "waterfall.tiers[2].distributionSplits",
		},
		{
			name: "catch-up rate not above target",
			mutate: func(cfg *domain.WaterfallConfig) {
				cfg.Tiers[2].EnableCatchUp = true
				cfg.Tiers[2].CatchUpTargetSplit = domain.Float(0.2)
				cfg.Tiers[2].CatchUpRate = domain.Float(0.2)
			},
			path: "waterfall.tiers[2].catchUpRate",
		},
		{
			name:   "catch-up without target",
			mutate: func(cfg *domain.WaterfallConfig) { cfg.Tiers[2].EnableCatchUp = true },
			path:   "waterfall.tiers[2].catchUpTargetSplit",
		},
		{
			name:   "unknown catch-up partner",
			mutate: func(cfg *domain.WaterfallConfig) { cfg.Tiers[2].CatchUpPartnerID = "nobody" },
			path:   "waterfall.tiers[2].catchUpPartnerId",
		},
		{
			name:   "clawback on non-promote tier",
			mutate: func(cfg *domain.WaterfallConfig) { cfg.Tiers[1].EnableClawback = true },
			path:   "waterfall.tiers[1].enableClawback",
		},
		{
			name: "two clawback tiers",
			mutate: func(cfg *domain.WaterfallConfig) {
				second := promote(0.8, 0.2)
				second.ID = "promote2"
				second.EnableClawback = true
				cfg.Tiers[2].EnableClawback = true
				cfg.Tiers = append(cfg.Tiers, second)
			},
			path: "waterfall.tiers[3].enableClawback",
		},
		{
			name: "unknown clawback method",
			mutate: func(cfg *domain.WaterfallConfig) {
				cfg.Tiers[2].EnableClawback = true
				cfg.Tiers[2].ClawbackMethod = "guess"
			},
			path: "waterfall.tiers[2].clawbackMethod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := lpgp(roc(), pref(0.08), promote(0.8, 0.2))
			tt.mutate(&cfg)
			assert.Contains(t, issuePaths(Validate(cfg)), tt.path)
		})
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.Empty(t, Validate(lpgp(roc(), pref(0.08), promote(0.8, 0.2))))
}

func TestNewPlan_NormalizesWithinTolerance(t *testing.T) {
	cfg := lpgp(roc(), promote(0.8, 0.2))
	cfg.EquityClasses[0].ContributionPct = 0.8995

	p, issues := newPlan(cfg)
	require.Empty(t, issues)
	assert.InDelta(t, 1, p.weights[0]+p.weights[1], 1e-12)
}

func TestNewPlan_PromoteReceiver(t *testing.T) {
	p, issues := newPlan(lpgp(roc(), promote(0.8, 0.2)))
	require.Empty(t, issues)
	assert.Equal(t, "gp", p.partners[p.tiers[1].receiver])
	assert.Equal(t, -1, p.tiers[0].receiver)
}
