package valuation

import (
	"testing"

	"github.com/aristath/capstack/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCalculateWACC(t *testing.T) {
	tests := []struct {
		name       string
		project    domain.ProjectConfig
		tranches   []domain.DebtTranche
		investment float64
		expected   float64
		debtWeight float64
	}{
		{
			name:       "no debt passes discount rate through",
			project:    domain.ProjectConfig{DiscountRate: 0.0875, TaxRate: 0.25},
			investment: 100e6,
			expected:   0.0875,
		},
		{
			name:       "no debt passes cost of equity override through",
			project:    domain.ProjectConfig{DiscountRate: 0.0875, CostOfEquity: domain.Float(0.15), TaxRate: 0.25},
			investment: 100e6,
			expected:   0.15,
		},
		{
			name:    "sixty percent debt",
			project: domain.ProjectConfig{DiscountRate: 0.10, CostOfEquity: domain.Float(0.12)},
			tranches: []domain.DebtTranche{
				{ID: "senior", Principal: 60e6, Rate: 0.08, Amortization: domain.AmortizationMortgage, TermYears: 10},
			},
			investment: 100e6,
			expected:   0.096,
			debtWeight: 0.6,
		},
		{
			name:    "tax shield",
			project: domain.ProjectConfig{DiscountRate: 0.12, TaxRate: 0.25},
			tranches: []domain.DebtTranche{
				{ID: "senior", Principal: 50, Rate: 0.08, Amortization: domain.AmortizationBullet, TermYears: 5},
			},
			investment: 100,
			expected:   0.5*0.12 + 0.5*0.08*0.75,
			debtWeight: 0.5,
		},
		{
			name:    "weighted cost of debt ignores delayed draws",
			project: domain.ProjectConfig{DiscountRate: 0.12},
			tranches: []domain.DebtTranche{
				{ID: "a", Principal: 30, Rate: 0.06, Amortization: domain.AmortizationBullet, TermYears: 5},
				{ID: "b", Principal: 10, Rate: 0.10, Amortization: domain.AmortizationBullet, TermYears: 5},
				{ID: "c", Principal: 50, Rate: 0.20, Amortization: domain.AmortizationBullet, TermYears: 2, StartYear: domain.Int(1)},
			},
			investment: 100,
			expected:   0.6*0.12 + 0.4*0.07,
			debtWeight: 0.4,
		},
		{
			name:    "debt above investment is all debt",
			project: domain.ProjectConfig{DiscountRate: 0.12},
			tranches: []domain.DebtTranche{
				{ID: "a", Principal: 120, Rate: 0.07, Amortization: domain.AmortizationBullet, TermYears: 5},
			},
			investment: 100,
			expected:   0.07,
			debtWeight: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := CalculateWACC(tt.project, tt.tranches, tt.investment)
			assert.InDelta(t, tt.expected, w.Rate, 1e-12)
			assert.InDelta(t, tt.debtWeight, w.DebtWeight, 1e-12)
			assert.InDelta(t, 1, w.DebtWeight+w.EquityWeight, 1e-12)
		})
	}
}

func TestCalculateWACC_ZeroDebtIsExact(t *testing.T) {
	project := domain.ProjectConfig{DiscountRate: 0.1234567}
	w := CalculateWACC(project, nil, 1000)
	assert.Equal(t, project.DiscountRate, w.Rate)

	project.CostOfEquity = domain.Float(0.1411)
	w = CalculateWACC(project, nil, 1000)
	assert.Equal(t, 0.1411, w.Rate)
	assert.Equal(t, 1.0, w.EquityWeight)
}

func TestCalculateWACC_LeverageLowersCost(t *testing.T) {
	project := domain.ProjectConfig{DiscountRate: 0.12, CostOfEquity: domain.Float(0.12)}
	tranches := []domain.DebtTranche{{ID: "a", Principal: 60, Rate: 0.08, Amortization: domain.AmortizationBullet, TermYears: 5}}
	assert.Less(t, CalculateWACC(project, tranches, 100).Rate, 0.12)
}
