package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	values := []float64{10, 3, 7, 1, 9, 5, 2, 8, 6, 4}

	d := Describe(values)

	assert.Equal(t, 10, d.Count)
	assert.InDelta(t, 5.5, d.Mean, 1e-12)
	assert.InDelta(t, 1, d.Min, 1e-12)
	assert.InDelta(t, 10, d.Max, 1e-12)
	assert.InDelta(t, 1, d.P10, 1e-12)
	assert.InDelta(t, 5, d.P50, 1e-12)
	assert.InDelta(t, 9, d.P90, 1e-12)
	assert.InDelta(t, 1, d.TailMean, 1e-12)
	assert.InDelta(t, 3.0276503540974917, d.StdDev, 1e-9)

	// Input is left untouched.
	assert.Equal(t, 10.0, values[0])
}

func TestDescribe_Edges(t *testing.T) {
	assert.Equal(t, Distribution{}, Describe(nil))

	one := Describe([]float64{42})
	assert.Equal(t, 1, one.Count)
	assert.InDelta(t, 42, one.P50, 1e-12)
	assert.InDelta(t, 0, one.StdDev, 1e-12)

	withNaN := Describe([]float64{1, math.NaN(), 3, math.Inf(1)})
	assert.Equal(t, 2, withNaN.Count)
	assert.InDelta(t, 2, withNaN.Mean, 1e-12)
}

func TestTailMean(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i + 1)
	}
	assert.InDelta(t, 1.5, TailMean(values, 0.10), 1e-12)
	assert.InDelta(t, 0, TailMean(nil, 0.10), 1e-12)
}
