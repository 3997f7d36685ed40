package regression

import (
	"fmt"
	"math"

	"regsim/domain/core"
	"regsim/ports"
)

// DefaultTolerance is the relative divergence allowed between the
// naive and fast estimates of the same seeded trial.
const DefaultTolerance = 1e-9

// relativeFloor keeps the relative comparison meaningful when both
// values sit at zero.
const relativeFloor = 1e-12

// EquivalenceReport records how far the two estimator paths drifted
// apart over a sequence of identically seeded trials.
type EquivalenceReport struct {
	Trials           int     `json:"trials"`
	Tolerance        float64 `json:"tolerance"`
	MaxSlopeDiff     float64 `json:"max_slope_diff"`
	MaxInterceptDiff float64 `json:"max_intercept_diff"`
	MaxVarianceDiff  float64 `json:"max_variance_diff"`
	WorstTrial       int     `json:"worst_trial"`
	Passed           bool    `json:"passed"`
}

// MaxDiff returns the largest relative divergence across all fields.
func (r EquivalenceReport) MaxDiff() float64 {
	return math.Max(r.MaxSlopeDiff, math.Max(r.MaxInterceptDiff, r.MaxVarianceDiff))
}

// CompareEstimators runs both estimators over their own sources, which
// the caller must seed identically, and reports the worst per-field
// relative divergence. The report passes when every trial agrees within
// the tolerance.
func CompareEstimators(reference, candidate ports.TrialEstimator, refSrc, candSrc ports.NoiseSource, trials int, tolerance float64) (EquivalenceReport, error) {
	if trials < 0 {
		return EquivalenceReport{}, fmt.Errorf("%w: got %d", core.ErrNegativeTrialCount, trials)
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	report := EquivalenceReport{
		Trials:     trials,
		Tolerance:  tolerance,
		WorstTrial: -1,
	}

	worst := 0.0
	for i := 0; i < trials; i++ {
		ref := reference.RunTrial(refSrc)
		cand := candidate.RunTrial(candSrc)

		slopeDiff := relativeDiff(ref.Slope, cand.Slope)
		interceptDiff := relativeDiff(ref.Intercept, cand.Intercept)
		varianceDiff := relativeDiff(ref.ResidualVariance, cand.ResidualVariance)

		report.MaxSlopeDiff = math.Max(report.MaxSlopeDiff, slopeDiff)
		report.MaxInterceptDiff = math.Max(report.MaxInterceptDiff, interceptDiff)
		report.MaxVarianceDiff = math.Max(report.MaxVarianceDiff, varianceDiff)

		trialWorst := math.Max(slopeDiff, math.Max(interceptDiff, varianceDiff))
		if trialWorst > worst {
			worst = trialWorst
			report.WorstTrial = i
		}
	}

	report.Passed = worst <= tolerance
	return report, nil
}

// relativeDiff measures |a-b| against the larger magnitude, with an
// absolute floor so agreement at zero still counts as agreement.
func relativeDiff(a, b float64) float64 {
	diff := math.Abs(a - b)
	scale := math.Max(math.Max(math.Abs(a), math.Abs(b)), relativeFloor)
	return diff / scale
}
