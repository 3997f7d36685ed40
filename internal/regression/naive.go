package regression

import (
	"gonum.org/v1/gonum/mat"

	"regsim/domain/simulation"
	"regsim/ports"
)

// NaiveEstimator is the correctness oracle. Every trial rebuilds the
// design matrix, simulates the response, runs a fresh factorization and
// computes residuals explicitly. It allocates on each call and caches
// nothing, which is what makes it untainted as a reference for the
// buffer-reusing fast path.
type NaiveEstimator struct {
	params simulation.Parameters
}

// NewNaiveEstimator validates the design up front so a degenerate
// parameter set fails at construction, matching the fast path.
func NewNaiveEstimator(params simulation.Parameters) (*NaiveEstimator, error) {
	if _, err := NewDesignFactorization(params.Predictors); err != nil {
		return nil, err
	}
	return &NaiveEstimator{params: params}, nil
}

// N returns the number of observations consumed per trial.
func (e *NaiveEstimator) N() int {
	return e.params.N()
}

// RunTrial simulates one response and fits it from scratch.
func (e *NaiveEstimator) RunTrial(src ports.NoiseSource) simulation.TrialResult {
	n := e.params.N()

	x := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i, xi := range e.params.Predictors {
		x.Set(i, 0, 1)
		x.Set(i, 1, xi)
		y.SetVec(i, e.params.InterceptTrue+e.params.SlopeTrue*xi+e.params.Sigma*src.Norm())
	}

	var qr mat.QR
	qr.Factorize(x)

	beta := mat.NewVecDense(2, nil)
	// The design was validated at construction; a Condition error here
	// is advisory and the solution is still computed.
	_ = qr.SolveVecTo(beta, false, y)

	fitted := mat.NewVecDense(n, nil)
	fitted.MulVec(x, beta)

	resid := mat.NewVecDense(n, nil)
	resid.SubVec(y, fitted)
	rss := mat.Dot(resid, resid)

	return simulation.TrialResult{
		Slope:            beta.AtVec(1),
		Intercept:        beta.AtVec(0),
		ResidualVariance: rss / float64(n-2),
	}
}
