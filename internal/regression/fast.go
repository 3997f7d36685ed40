package regression

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"regsim/domain/simulation"
	"regsim/ports"
)

// FastEstimator amortizes everything that does not change across
// trials: the design factorization, the noiseless mean response, and
// two resident working vectors. A trial overwrites the draw buffer,
// applies the stored orthogonal transform into the work buffer and
// then back-substitutes the 2×2 system. Nothing is allocated per trial and
// no factorization is repeated.
//
// A FastEstimator is single-goroutine because of its buffers; Fork
// hands out siblings that share the immutable factorization and mean
// but own fresh buffers.
type FastEstimator struct {
	params simulation.Parameters
	fact   *DesignFactorization
	mean   []float64 // noiseless responses, read-only after construction
	draw   *mat.VecDense
	work   *mat.VecDense
}

// NewFastEstimator factors the design once and pre-computes the mean
// response. Degenerate designs fail here, before any trial runs.
func NewFastEstimator(params simulation.Parameters) (*FastEstimator, error) {
	fact, err := NewDesignFactorization(params.Predictors)
	if err != nil {
		return nil, err
	}
	n := fact.N()
	return &FastEstimator{
		params: params,
		fact:   fact,
		mean:   params.MeanResponse(),
		draw:   mat.NewVecDense(n, nil),
		work:   mat.NewVecDense(n, nil),
	}, nil
}

// N returns the number of observations consumed per trial.
func (e *FastEstimator) N() int {
	return e.fact.N()
}

// Factorization exposes the shared immutable factorization.
func (e *FastEstimator) Factorization() *DesignFactorization {
	return e.fact
}

// RunTrial draws exactly n deviates in index order, reusing the
// resident buffers, and returns the estimates by value so the result
// cannot alias trial state.
func (e *FastEstimator) RunTrial(src ports.NoiseSource) simulation.TrialResult {
	data := e.draw.RawVector().Data
	src.FillNorm(data)
	sigma := e.params.Sigma
	for i, m := range e.mean {
		data[i] = m + sigma*data[i]
	}

	e.fact.TransformTo(e.work, e.draw)

	w := e.work.RawVector().Data
	slope, intercept := e.fact.BackSolve(w[0], w[1])

	// The projection leaves the residual norm in the trailing n-2
	// transformed entries.
	rss := floats.Dot(w[2:], w[2:])

	return simulation.TrialResult{
		Slope:            slope,
		Intercept:        intercept,
		ResidualVariance: rss / float64(e.fact.N()-2),
	}
}

// Fork returns an estimator for another goroutine: shared
// factorization and mean, private buffers.
func (e *FastEstimator) Fork() ports.TrialEstimator {
	n := e.fact.N()
	return &FastEstimator{
		params: e.params,
		fact:   e.fact,
		mean:   e.mean,
		draw:   mat.NewVecDense(n, nil),
		work:   mat.NewVecDense(n, nil),
	}
}
