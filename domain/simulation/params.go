package simulation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"regsim/domain/core"
)

// Parameters defines the data-generating model for a simulation:
// response = intercept + slope*predictor + N(0, sigma^2) noise.
// The predictor vector is shared by every trial and never mutated.
type Parameters struct {
	SlopeTrue     float64   `json:"slope_true"`
	InterceptTrue float64   `json:"intercept_true"`
	Sigma         float64   `json:"sigma"`
	Predictors    []float64 `json:"predictors"`
}

// NewParameters validates the model inputs and copies the predictor
// vector so callers cannot mutate it after construction.
func NewParameters(slopeTrue, interceptTrue, sigma float64, predictors []float64) (Parameters, error) {
	if !isFinite(slopeTrue) {
		return Parameters{}, fmt.Errorf("%w: slope_true", core.ErrNonFiniteParameter)
	}
	if !isFinite(interceptTrue) {
		return Parameters{}, fmt.Errorf("%w: intercept_true", core.ErrNonFiniteParameter)
	}
	if !isFinite(sigma) {
		return Parameters{}, fmt.Errorf("%w: sigma", core.ErrNonFiniteParameter)
	}
	if sigma <= 0 {
		return Parameters{}, fmt.Errorf("%w: got %v", core.ErrNonPositiveSigma, sigma)
	}
	if len(predictors) == 0 {
		return Parameters{}, core.ErrEmptyPredictors
	}
	for i, x := range predictors {
		if !isFinite(x) {
			return Parameters{}, fmt.Errorf("%w: predictor at index %d", core.ErrNonFiniteParameter, i)
		}
	}

	owned := make([]float64, len(predictors))
	copy(owned, predictors)

	return Parameters{
		SlopeTrue:     slopeTrue,
		InterceptTrue: interceptTrue,
		Sigma:         sigma,
		Predictors:    owned,
	}, nil
}

// SequencePredictors builds the common 0..n-1 predictor grid.
func SequencePredictors(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

// N returns the number of observations per trial.
func (p Parameters) N() int {
	return len(p.Predictors)
}

// MeanResponse returns the noiseless response vector
// intercept + slope*x for each predictor, in predictor order.
func (p Parameters) MeanResponse() []float64 {
	mean := make([]float64, len(p.Predictors))
	for i, x := range p.Predictors {
		mean[i] = p.InterceptTrue + p.SlopeTrue*x
	}
	return mean
}

// Variance returns sigma squared, the residual variance the
// estimator is expected to recover on average.
func (p Parameters) Variance() float64 {
	return p.Sigma * p.Sigma
}

// Hash fingerprints the parameter tuple for bookkeeping.
func (p Parameters) Hash() core.ParamsHash {
	fields := map[string]float64{
		"slope_true":     p.SlopeTrue,
		"intercept_true": p.InterceptTrue,
		"sigma":          p.Sigma,
		"n":              float64(len(p.Predictors)),
	}
	for i, x := range p.Predictors {
		fields["x"+strconv.Itoa(i)] = x
	}
	return core.ComputeParamsHash(fields)
}

// OutputName derives a deterministic file stem from the parameter tuple,
// e.g. "trials_slope=12.25_intercept=240.16_sigma=8.55_n=10".
// Writers append their own extension.
func (p Parameters) OutputName() string {
	var b strings.Builder
	b.WriteString("trials")
	b.WriteString("_slope=")
	b.WriteString(formatParam(p.SlopeTrue))
	b.WriteString("_intercept=")
	b.WriteString(formatParam(p.InterceptTrue))
	b.WriteString("_sigma=")
	b.WriteString(formatParam(p.Sigma))
	b.WriteString("_n=")
	b.WriteString(strconv.Itoa(len(p.Predictors)))
	return b.String()
}

func formatParam(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
