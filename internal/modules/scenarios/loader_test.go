package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/pipeline"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("a/b.JSON"))
	assert.Equal(t, FormatYAML, FormatFromPath("a/b.yaml"))
	assert.Equal(t, FormatYAML, FormatFromPath("a/b.yml"))
	assert.Equal(t, FormatYAML, FormatFromPath("scenario"))
}

func TestFormatFromContentType(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromContentType("application/x-yaml"))
	assert.Equal(t, FormatYAML, FormatFromContentType("text/YAML; charset=utf-8"))
	assert.Equal(t, FormatJSON, FormatFromContentType("application/json"))
	assert.Equal(t, FormatJSON, FormatFromContentType(""))
}

func TestLoadFile_Canonical(t *testing.T) {
	s, err := NewLoader(zerolog.Nop()).LoadFile(filepath.Join("testdata", "hotel.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "harbour-hotel", s.Name)
	assert.Equal(t, 0.09, s.Project.DiscountRate)
	require.NotNil(t, s.Project.CostOfEquity)
	assert.Equal(t, 0.14, *s.Project.CostOfEquity)
	assert.Len(t, s.Inputs.UnleveredFcf, 6)

	require.Len(t, s.Capital.Tranches, 2)
	senior := s.Capital.Tranches[0]
	assert.Equal(t, domain.AmortizationMortgage, senior.Amortization)
	require.NotNil(t, senior.AmortizationYears)
	assert.Equal(t, 25, *senior.AmortizationYears)

	require.NotNil(t, s.Waterfall)
	assert.Equal(t, map[string]float64{"lp": 0.8, "gp": 0.2}, s.Waterfall.Tiers[2].DistributionSplits)
	assert.Len(t, s.Covenants, 2)
	require.NotNil(t, s.MonteCarlo)
	assert.Equal(t, uint64(7), s.MonteCarlo.Seed)
	assert.Equal(t, domain.DistributionPERT, s.MonteCarlo.Variables[0].Distribution)

	_, err = pipeline.Run(s)
	assert.NoError(t, err)
}

func TestLoadFile_Legacy(t *testing.T) {
	s, err := NewLoader(zerolog.Nop()).LoadFile(filepath.Join("testdata", "legacy.json"))
	require.NoError(t, err)

	assert.Equal(t, 0.085, s.Project.DiscountRate)
	assert.Equal(t, 0.015, s.Project.TerminalGrowthRate)
	assert.Len(t, s.Inputs.UnleveredFcf, 5)

	require.Len(t, s.Capital.Tranches, 1)
	tr := s.Capital.Tranches[0]
	assert.Equal(t, "tranche-1", tr.ID)
	assert.Equal(t, 3000000.0, tr.Principal)
	assert.Equal(t, 0.06, tr.Rate)
	assert.Equal(t, domain.AmortizationInterestOnly, tr.Amortization)
	assert.Equal(t, 7, tr.TermYears)

	require.NotNil(t, s.Waterfall)
	assert.Equal(t, "gp_sponsor", s.Waterfall.EquityClasses[1].ID)
	assert.Equal(t, 0.05, s.Waterfall.EquityClasses[1].ContributionPct)
	assert.Equal(t, map[string]float64{"lp_main": 0.8, "gp_sponsor": 0.2}, s.Waterfall.Tiers[1].DistributionSplits)

	result, err := pipeline.Run(s)
	require.NoError(t, err)
	require.NotNil(t, result.Waterfall)
}

func TestLoadFile_NameFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.yml")
	require.NoError(t, os.WriteFile(path, []byte("inputs:\n  unleveredFcf: [-100, 110]\n"), 0644))

	s, err := NewLoader(zerolog.Nop()).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bare", s.Name)
}

func TestDecode_Errors(t *testing.T) {
	loader := NewLoader(zerolog.Nop())

	tests := []struct {
		name   string
		data   string
		format Format
		code   domain.ErrorCode
		path   string
	}{
		{name: "malformed json", data: "{", format: FormatJSON, code: domain.CodeInvalidInput},
		{name: "malformed yaml", data: "a: [1, 2", format: FormatYAML, code: domain.CodeInvalidInput},
		{name: "empty", data: "", format: FormatYAML, code: domain.CodeInvalidInput},
		{name: "unknown format", data: "{}", format: "toml", code: domain.CodeInvalidInput},
		{name: "wrong type", data: `{"inputs": {"unleveredFcf": "x"}}`, format: FormatJSON, code: domain.CodeInvalidInput},
		{
			name:   "missing cash flows",
			data:   `{"inputs": {"unleveredFcf": []}}`,
			format: FormatJSON,
			code:   domain.CodeValidationFailed,
			path:   "inputs.unleveredFcf",
		},
		{
			name:   "bad amortization",
			data:   "inputs: {unleveredFcf: [-1, 2]}\nloan: {amount: 1, rate: 0.05, amortization: weekly, termYears: 2}\n",
			format: FormatYAML,
			code:   domain.CodeValidationFailed,
			path:   "capital.tranches[0].amortization",
		},
		{
			name:   "negative principal",
			data:   "inputs: {unleveredFcf: [-1, 2]}\ncapital: {tranches: [{id: a, principal: -5, rate: 0.05, amortization: bullet, termYears: 2}]}\n",
			format: FormatYAML,
			code:   domain.CodeValidationFailed,
			path:   "capital.tranches[0].principal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Decode([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.True(t, domain.IsCode(err, tt.code), "got %v", err)
			if tt.path == "" {
				return
			}
			var derr *domain.Error
			require.ErrorAs(t, err, &derr)
			paths := make([]string, 0, len(derr.Issues))
			for _, issue := range derr.Issues {
				paths = append(paths, issue.Path)
			}
			assert.Contains(t, paths, tt.path)
		})
	}
}

func TestDecode_MonteCarloDefaults(t *testing.T) {
	loader := NewLoader(zerolog.Nop(), WithMonteCarloDefaults(500, 99))

	doc := `
inputs: {unleveredFcf: [-100, 110]}
monte_carlo:
  variables:
    - {name: dr, target: discount_rate, distribution: normal, base: 0.1, mean: 0.1, std_dev: 0.01}
`
	s, err := loader.Decode([]byte(doc), FormatYAML)
	require.NoError(t, err)
	require.NotNil(t, s.MonteCarlo)
	assert.Equal(t, 500, s.MonteCarlo.Iterations)
	assert.Equal(t, uint64(99), s.MonteCarlo.Seed)
	assert.InDelta(t, 0.01, s.MonteCarlo.Variables[0].StdDev, 1e-12)

	explicit := doc + "  iterations: 0\n  seed: 1\n"
	s, err = loader.Decode([]byte(explicit), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 0, s.MonteCarlo.Iterations)
	assert.Equal(t, uint64(1), s.MonteCarlo.Seed)

	s, err = loader.Decode([]byte("inputs: {unleveredFcf: [-100, 110]}\n"), FormatYAML)
	require.NoError(t, err)
	assert.Nil(t, s.MonteCarlo)
}
