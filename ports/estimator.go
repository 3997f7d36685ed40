package ports

import (
	"regsim/domain/simulation"
)

// TrialEstimator runs one simulated regression trial: draw a response
// from the given noise source and fit it, yielding the three estimates.
// Construction surfaces all failure modes; RunTrial itself cannot fail.
type TrialEstimator interface {
	// N returns the number of observations consumed per trial
	N() int

	// RunTrial draws exactly N deviates from src in index order and
	// returns the fitted slope, intercept and residual variance
	RunTrial(src NoiseSource) simulation.TrialResult
}

// ForkableEstimator hands out per-worker estimators that share the
// immutable factorization but own private working buffers.
type ForkableEstimator interface {
	TrialEstimator

	// Fork returns an estimator safe to drive from another goroutine
	Fork() TrialEstimator
}
