package pipeline

import (
	"testing"

	"github.com/aristath/capstack/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hotelScenario() domain.Scenario {
	return domain.Scenario{
		Name: "harbour-hotel",
		Project: domain.ProjectConfig{
			DiscountRate:       0.10,
			TerminalGrowthRate: 0.02,
			TaxRate:            0.25,
			CostOfEquity:       domain.Float(0.14),
		},
		Inputs: domain.ProjectInputs{
			UnleveredFcf: []float64{-10_000_000, 700_000, 750_000, 800_000, 850_000, 12_500_000},
			NOI:          []float64{0, 900_000, 950_000, 1_000_000, 1_050_000, 1_100_000},
		},
		Capital: domain.CapitalStructureConfig{
			RepayAtExit: true,
			OpeningCash: 250_000,
			Tranches: []domain.DebtTranche{
				{
					ID: "senior", Seniority: 1, Principal: 5_500_000, Rate: 0.055,
					Amortization: domain.AmortizationInterestOnly, TermYears: 7,
					IOYears: domain.Int(2), AmortizationYears: domain.Int(25),
					OriginationFeePct: 0.01, ExitFeePct: 0.005,
				},
				{
					ID: "mezz", Seniority: 2, Principal: 1_000_000, Rate: 0.10,
					Amortization: domain.AmortizationBullet, TermYears: 5,
				},
			},
		},
		Waterfall: &domain.WaterfallConfig{
			EquityClasses: []domain.EquityClass{
				{ID: "lp", ContributionPct: 0.9},
				{ID: "gp", ContributionPct: 0.1},
			},
			Tiers: []domain.WaterfallTier{
				{ID: "roc", Type: domain.TierReturnOfCapital},
				{ID: "pref", Type: domain.TierPreferredReturn, PrefRate: domain.Float(0.08)},
				{
					ID: "promote", Type: domain.TierPromote,
					DistributionSplits: map[string]float64{"lp": 0.8, "gp": 0.2},
					EnableCatchUp:      true, CatchUpTargetSplit: domain.Float(0.2),
					EnableClawback: true, ClawbackTrigger: domain.ClawbackFinalPeriod,
				},
			},
		},
		Covenants: []domain.Covenant{
			{ID: "dscr", Type: domain.CovenantMinDSCR, Threshold: 1.2, GracePeriodMonths: 2},
			{ID: "ltv", Type: domain.CovenantMaxLTV, Threshold: 0.7},
		},
	}
}

func TestRun_FullScenario(t *testing.T) {
	s := hotelScenario()
	before := s.Clone()

	result, err := NewRunner(zerolog.Nop()).Run(s)
	require.NoError(t, err)

	assert.Equal(t, before, s, "scenario must not be mutated")
	assert.Equal(t, "harbour-hotel", result.ScenarioName)

	require.Len(t, result.Capital.LeveredFcf, 6)
	assert.InDelta(t, -10_000_000+6_500_000-55_000, result.Capital.OwnerLeveredCashFlows[0], 1e-6)
	assert.InDelta(t, 0, result.Capital.Schedule[5].EndingBalance, 1e-6)
	assert.Len(t, result.Capital.MonthlyDebtKPIs, 60)
	assert.Len(t, result.Capital.CovenantStatuses, 120)
	assert.Len(t, result.Capital.CovenantSummaries, 2)

	require.NotNil(t, result.Waterfall)
	for _, row := range result.Waterfall.Rows {
		sum := 0.0
		for id, d := range row.PartnerDistributions {
			sum += d + row.ClawbackAdjustments[id]
		}
		assert.InDelta(t, row.OwnerCashFlow, sum, 0.01)
	}

	assert.Less(t, result.Valuation.WACC, 0.14)
	require.NotNil(t, result.KPIs.LeveredIRR)
	require.NotNil(t, result.KPIs.MOIC)
	require.NotNil(t, result.KPIs.EquityMultiple)
	assert.InDelta(t, *result.KPIs.EquityMultiple, *result.KPIs.MOIC, 1e-6)
	assert.InDelta(t, result.Valuation.NPV, result.KPIs.NPV, 1e-9)
}

func TestRun_ZeroDebtUsesCostOfEquity(t *testing.T) {
	s := hotelScenario()
	s.Capital.Tranches = nil
	s.Waterfall = nil
	s.Covenants = nil

	result, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, *s.Project.CostOfEquity, result.Valuation.WACC)
	assert.Equal(t, s.Inputs.UnleveredFcf, result.Capital.OwnerLeveredCashFlows)
	assert.Nil(t, result.Waterfall)
	assert.Equal(t, result.KPIs.EquityMultiple, result.KPIs.MOIC)
	require.NotNil(t, result.KPIs.UnleveredIRR)
	assert.InDelta(t, *result.KPIs.UnleveredIRR, *result.KPIs.LeveredIRR, 1e-12)

	s.Project.CostOfEquity = nil
	result, err = Run(s)
	require.NoError(t, err)
	assert.Equal(t, s.Project.DiscountRate, result.Valuation.WACC)
}

func TestRun_ValidationAcrossModules(t *testing.T) {
	s := hotelScenario()
	s.Project.TaxRate = 1.5
	s.Capital.Tranches[0].AmortizationYears = domain.Int(3)
	s.Waterfall.Tiers[2].DistributionSplits["gp"] = 0.5
	s.Covenants[1].Type = "max_debt"

	_, err := Run(s)
	require.Error(t, err)

	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeValidationFailed, derr.Code)

	paths := make([]string, 0, len(derr.Issues))
	for _, issue := range derr.Issues {
		paths = append(paths, issue.Path)
	}
	assert.Contains(t, paths, "project.taxRate")
	assert.Contains(t, paths, "capital.tranches[0].amortizationYears")
	assert.Contains(t, paths, "waterfall.tiers[2].distributionSplits")
	assert.Contains(t, paths, "covenants[1].type")
}

func TestRun_TerminalValueWarning(t *testing.T) {
	s := hotelScenario()
	s.Project.TerminalGrowthRate = 0.5

	result, err := Run(s)
	require.NoError(t, err)

	assert.Nil(t, result.Valuation.TerminalValue)
	codes := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, domain.WarnTerminalValue)
}

func TestSnapshot_MOICFromPartners(t *testing.T) {
	result := &domain.PipelineResult{
		Valuation: domain.ValuationResult{NPV: 10, WACC: 0.09, EquityMultiple: domain.Float(1.4)},
		Waterfall: &domain.WaterfallResult{Partners: []domain.PartnerDistributionSeries{
			{PartnerID: "lp", CashFlows: []float64{-90, 40, 110}},
			{PartnerID: "gp", CashFlows: []float64{-10, 5, 25}},
		}},
	}

	kpis := Snapshot(result)
	require.NotNil(t, kpis.MOIC)
	assert.InDelta(t, 1.8, *kpis.MOIC, 1e-12)
	assert.InDelta(t, 1.4, *kpis.EquityMultiple, 1e-12)
	assert.InDelta(t, 0.09, kpis.WACC, 1e-12)
}
