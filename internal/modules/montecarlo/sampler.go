package montecarlo

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/aristath/capstack/internal/domain"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// symmetryTolerance bounds |c_ij − c_ji| and |c_ii − 1|.
	symmetryTolerance = 1e-9
	// eigenTolerance is how far below zero an eigenvalue may sit before the matrix is rejected.
	eigenTolerance = -1e-10
	// probabilityClamp keeps inverse CDFs away from 0 and 1.
	probabilityClamp = 1e-12
)

// jitters are tried in order when a valid correlation matrix is too singular to factor.
var jitters = []float64{1e-10, 1e-8, 1e-6, 1e-4, 1e-2}

// sampler draws correlated values for the stochastic variables through a Gaussian copula.
type sampler struct {
	vars  []domain.StochasticVariable
	chol  *mat.TriDense // lower factor, nil when the variables are independent
	seed  uint64
	beta  []distuv.Beta // PERT shapes by variable index
	lnorm []distuv.LogNormal
}

// newSampler validates the correlation matrix and prepares its Cholesky factor.
func newSampler(cfg domain.MonteCarloConfig) (*sampler, []domain.Warning, domain.Issues) {
	s := &sampler{
		vars:  cfg.Variables,
		seed:  cfg.Seed,
		beta:  make([]distuv.Beta, len(cfg.Variables)),
		lnorm: make([]distuv.LogNormal, len(cfg.Variables)),
	}
	for i, v := range cfg.Variables {
		switch v.Distribution {
		case domain.DistributionPERT:
			if span := v.Max - v.Min; span > 0 {
				s.beta[i] = distuv.Beta{
					Alpha: 1 + 4*(v.Mode-v.Min)/span,
					Beta:  1 + 4*(v.Max-v.Mode)/span,
				}
			}
		case domain.DistributionLognormal:
			if v.Mean > 0 {
				sigma2 := math.Log(1 + (v.StdDev*v.StdDev)/(v.Mean*v.Mean))
				s.lnorm[i] = distuv.LogNormal{
					Mu:    math.Log(v.Mean) - sigma2/2,
					Sigma: math.Sqrt(sigma2),
				}
			}
		}
	}

	if len(cfg.Correlation) == 0 {
		return s, nil, nil
	}

	chol, warnings, issues := factorCorrelation(cfg.Correlation, len(cfg.Variables))
	s.chol = chol
	return s, warnings, issues
}

func factorCorrelation(corr [][]float64, n int) (*mat.TriDense, []domain.Warning, domain.Issues) {
	var issues domain.Issues

	if len(corr) != n {
		issues.Add("monteCarlo.correlation", "must be %dx%d to match the variables", n, n)
		return nil, nil, issues
	}
	for i, row := range corr {
		if len(row) != n {
			issues.Add(fmt.Sprintf("monteCarlo.correlation[%d]", i), "must have %d entries", n)
		}
	}
	if len(issues) > 0 {
		return nil, nil, issues
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if math.Abs(corr[i][i]-1) > symmetryTolerance {
			issues.Add(fmt.Sprintf("monteCarlo.correlation[%d][%d]", i, i), "diagonal entries must be 1")
		}
		for j := 0; j < n; j++ {
			c := corr[i][j]
			if c < -1 || c > 1 || math.IsNaN(c) {
				issues.Add(fmt.Sprintf("monteCarlo.correlation[%d][%d]", i, j), "must be between -1 and 1")
			}
			if j > i && math.Abs(c-corr[j][i]) > symmetryTolerance {
				issues.Add(fmt.Sprintf("monteCarlo.correlation[%d][%d]", i, j), "matrix must be symmetric")
			}
		}
		for j := i; j < n; j++ {
			sym.SetSym(i, j, corr[i][j])
		}
	}
	if len(issues) > 0 {
		return nil, nil, issues
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		issues.Add("monteCarlo.correlation", "eigen decomposition failed")
		return nil, nil, issues
	}
	for _, v := range eig.Values(nil) {
		if v < eigenTolerance {
			issues.Add("monteCarlo.correlation", "matrix is not positive semi-definite (eigenvalue %.6g)", v)
			return nil, nil, issues
		}
	}

	var chol mat.Cholesky
	if chol.Factorize(sym) {
		var l mat.TriDense
		chol.LTo(&l)
		return &l, nil, nil
	}

	for _, eps := range jitters {
		jittered := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := sym.At(i, j)
				if i == j {
					v += eps
				}
				jittered.SetSym(i, j, v/(1+eps))
			}
		}
		if chol.Factorize(jittered) {
			var l mat.TriDense
			chol.LTo(&l)
			warning := domain.Warning{
				Code:    domain.WarnCorrelationRegularize,
				Message: fmt.Sprintf("singular correlation matrix regularized with jitter %.0e", eps),
			}
			return &l, []domain.Warning{warning}, nil
		}
	}

	issues.Add("monteCarlo.correlation", "matrix could not be factored")
	return nil, nil, issues
}

// draw returns one value per variable for the given iteration. The stream depends only on
// the seed and the iteration index, so results do not depend on scheduling.
func (s *sampler) draw(iteration int) []float64 {
	n := len(s.vars)
	rng := rand.New(rand.NewPCG(s.seed, uint64(iteration)))

	eps := make([]float64, n)
	for i := range eps {
		eps[i] = rng.NormFloat64()
	}

	z := eps
	if s.chol != nil {
		correlated := mat.NewVecDense(n, nil)
		correlated.MulVec(s.chol, mat.NewVecDense(n, eps))
		z = correlated.RawVector().Data
	}

	out := make([]float64, n)
	for i, v := range s.vars {
		out[i] = s.marginal(i, v, z[i])
	}
	return out
}

// marginal maps a standard normal draw onto the variable's distribution.
func (s *sampler) marginal(i int, v domain.StochasticVariable, z float64) float64 {
	switch v.Distribution {
	case domain.DistributionNormal:
		return distuv.Normal{Mu: v.Mean, Sigma: v.StdDev}.Quantile(uniform(z))
	case domain.DistributionLognormal:
		return s.lnorm[i].Quantile(uniform(z))
	case domain.DistributionPERT:
		if v.Max <= v.Min {
			return v.Mode
		}
		return v.Min + (v.Max-v.Min)*s.beta[i].Quantile(uniform(z))
	}
	return v.Base
}

func uniform(z float64) float64 {
	u := distuv.UnitNormal.CDF(z)
	return math.Min(math.Max(u, probabilityClamp), 1-probabilityClamp)
}
