package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Percentile returns the p-quantile (0..1) of an ascending sorted slice with linear interpolation.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// TailMean is the mean of the worst (lowest) share of outcomes, the CVaR of the distribution.
func TailMean(values []float64, share float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	tailCount := int(math.Ceil(float64(len(sorted)) * share))
	if tailCount == 0 {
		tailCount = 1
	}
	if tailCount > len(sorted) {
		tailCount = len(sorted)
	}
	return Mean(sorted[:tailCount])
}

// Distribution summarises a sample.
type Distribution struct {
	Count    int
	Mean     float64
	StdDev   float64
	Min      float64
	Max      float64
	P10      float64
	P50      float64
	P90      float64
	TailMean float64
}

// Describe sorts a copy of values and computes its summary statistics.
// NaN and infinite values are ignored.
func Describe(values []float64) Distribution {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		clean = append(clean, v)
	}
	if len(clean) == 0 {
		return Distribution{}
	}
	sort.Float64s(clean)

	return Distribution{
		Count:    len(clean),
		Mean:     Mean(clean),
		StdDev:   StdDev(clean),
		Min:      floats.Min(clean),
		Max:      floats.Max(clean),
		P10:      Percentile(clean, 0.10),
		P50:      Percentile(clean, 0.50),
		P90:      Percentile(clean, 0.90),
		TailMean: TailMean(clean, 0.10),
	}
}
