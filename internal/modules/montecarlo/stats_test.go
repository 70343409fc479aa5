package montecarlo

import (
	"testing"

	"github.com/aristath/capstack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	var iterations []domain.IterationResult
	for i := 1; i <= 10; i++ {
		k := domain.KPISnapshot{NPV: float64(i * 10), WACC: 0.08}
		if i%2 == 0 {
			k.LeveredIRR = domain.Float(float64(i) / 100)
		}
		iterations = append(iterations, domain.IterationResult{Index: i - 1, KPIs: k})
	}

	stats := Aggregate(iterations)

	npv := stats[KPINPV]
	assert.Equal(t, 10, npv.Count)
	assert.InDelta(t, 55, npv.Mean, 1e-9)
	assert.Equal(t, 10.0, npv.Min)
	assert.Equal(t, 100.0, npv.Max)
	assert.Equal(t, 10.0, npv.P10)
	assert.Equal(t, 50.0, npv.P50)
	assert.Equal(t, 90.0, npv.P90)
	assert.Equal(t, 10.0, npv.TailMean)

	irr, ok := stats[KPILeveredIRR]
	require.True(t, ok)
	assert.Equal(t, 5, irr.Count)
	assert.InDelta(t, 0.06, irr.Mean, 1e-12)

	assert.Zero(t, stats[KPIWACC].StdDev)
	assert.NotContains(t, stats, KPIMOIC)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}
