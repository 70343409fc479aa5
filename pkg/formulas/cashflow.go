// Package formulas holds the pure cash-flow and statistics functions used by the valuation,
// waterfall and simulation modules.
//
// Series are indexed by year: index 0 is the acquisition year and is not discounted.
// Functions that have no meaningful answer for a given series return nil rather than an error.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// IRR search parameters
const (
	IRRLowerBound    = -0.99
	IRRUpperBound    = 10.0
	IRRTolerance     = 1e-7
	IRRMaxIterations = 100
)

// PresentValue discounts a single amount received at year t.
func PresentValue(amount, rate float64, t int) float64 {
	return amount / math.Pow(1+rate, float64(t))
}

// NPV calculates the net present value of a yearly series.
// Formula: Σ cf_t / (1+r)^t for t = 0..N
func NPV(rate float64, cashFlows []float64) float64 {
	npv := 0.0
	factor := 1.0
	for _, cf := range cashFlows {
		npv += cf / factor
		factor *= 1 + rate
	}
	return npv
}

// TerminalValue calculates a Gordon growth terminal value from the last year's cash flow.
// Formula: cf_N × (1+g) / (r−g)
//
// Returns nil when r ≤ g, where the perpetuity does not converge.
func TerminalValue(lastCashFlow, rate, growth float64) *float64 {
	if rate <= growth {
		return nil
	}
	tv := lastCashFlow * (1 + growth) / (rate - growth)
	return &tv
}

// HasSignChange reports whether the series contains both a negative and a positive flow.
func HasSignChange(cashFlows []float64) bool {
	neg, pos := false, false
	for _, cf := range cashFlows {
		if cf < 0 {
			neg = true
		} else if cf > 0 {
			pos = true
		}
		if neg && pos {
			return true
		}
	}
	return false
}

// IRR finds the rate where NPV is zero by bisection over [IRRLowerBound, IRRUpperBound].
//
// Returns nil when the series has no sign change or when NPV has the same sign at both
// ends of the bracket.
func IRR(cashFlows []float64) *float64 {
	if !HasSignChange(cashFlows) {
		return nil
	}

	lo, hi := IRRLowerBound, IRRUpperBound
	fLo, fHi := NPV(lo, cashFlows), NPV(hi, cashFlows)
	if math.IsNaN(fLo) || math.IsNaN(fHi) {
		return nil
	}
	if fLo == 0 {
		return &lo
	}
	if fHi == 0 {
		return &hi
	}
	if math.Signbit(fLo) == math.Signbit(fHi) {
		return nil
	}

	mid := (lo + hi) / 2
	for i := 0; i < IRRMaxIterations; i++ {
		mid = (lo + hi) / 2
		fMid := NPV(mid, cashFlows)
		if fMid == 0 || (hi-lo)/2 < IRRTolerance {
			break
		}
		if math.Signbit(fMid) == math.Signbit(fLo) {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}
	return &mid
}

// EquityMultiple is total inflow over total outflow.
// Formula: Σ positive / |Σ negative|
//
// Returns nil when there are no negative flows.
func EquityMultiple(cashFlows []float64) *float64 {
	in, out := SplitFlows(cashFlows)
	if out == 0 {
		return nil
	}
	m := in / out
	return &m
}

// SplitFlows returns the sum of positive flows and the absolute sum of negative flows.
func SplitFlows(cashFlows []float64) (inflow, outflow float64) {
	for _, cf := range cashFlows {
		if cf > 0 {
			inflow += cf
		} else {
			outflow -= cf
		}
	}
	return inflow, outflow
}

// PaybackPeriod returns the first (fractional) year at which cumulative cash reaches zero,
// interpolating linearly inside the crossing year.
//
// Returns nil if the series never pays back.
func PaybackPeriod(cashFlows []float64) *float64 {
	if len(cashFlows) == 0 {
		return nil
	}
	cum := 0.0
	for t, cf := range cashFlows {
		prev := cum
		cum += cf
		if cum < 0 {
			continue
		}
		if t == 0 || prev >= 0 {
			p := float64(t)
			return &p
		}
		p := float64(t-1) + (-prev)/cf
		return &p
	}
	return nil
}

// Cumulative returns the running total of the series.
func Cumulative(cashFlows []float64) []float64 {
	out := make([]float64, len(cashFlows))
	if len(cashFlows) == 0 {
		return out
	}
	floats.CumSum(out, cashFlows)
	return out
}

// Sum adds up the series.
func Sum(values []float64) float64 {
	return floats.Sum(values)
}

// AnnuityPayment is the level payment that retires principal over n periods at rate.
func AnnuityPayment(principal, rate float64, n int) float64 {
	if n <= 0 {
		return principal
	}
	if rate == 0 {
		return principal / float64(n)
	}
	return principal * rate / (1 - math.Pow(1+rate, -float64(n)))
}
