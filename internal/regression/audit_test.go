package regression

import (
	"errors"
	"testing"

	"regsim/adapters/rng"
	"regsim/domain/core"
	"regsim/domain/simulation"
	"regsim/ports"
)

// skewedEstimator wraps another estimator and nudges its slope, giving
// the audit something real to catch.
type skewedEstimator struct {
	inner ports.TrialEstimator
	nudge float64
}

func (s *skewedEstimator) N() int { return s.inner.N() }

func (s *skewedEstimator) RunTrial(src ports.NoiseSource) simulation.TrialResult {
	r := s.inner.RunTrial(src)
	r.Slope += s.nudge
	return r
}

func TestCompareEstimators_AgreeingPathsPass(t *testing.T) {
	params := scenarioParams(t)
	naive, err := NewNaiveEstimator(params)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	fast, err := NewFastEstimator(params)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	report, err := CompareEstimators(naive, fast,
		rng.NewGaussianSource(scenarioSeed), rng.NewGaussianSource(scenarioSeed),
		100, DefaultTolerance)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !report.Passed {
		t.Errorf("Equivalence audit failed, max diff %g at trial %d", report.MaxDiff(), report.WorstTrial)
	}
	if report.Trials != 100 {
		t.Errorf("Expected 100 trials in report, got %d", report.Trials)
	}
	if report.MaxDiff() > DefaultTolerance {
		t.Errorf("Max divergence %g above tolerance", report.MaxDiff())
	}
}

func TestCompareEstimators_CatchesDivergence(t *testing.T) {
	params := scenarioParams(t)
	naive, _ := NewNaiveEstimator(params)
	fast, _ := NewFastEstimator(params)
	skewed := &skewedEstimator{inner: fast, nudge: 1e-6}

	report, err := CompareEstimators(naive, skewed,
		rng.NewGaussianSource(scenarioSeed), rng.NewGaussianSource(scenarioSeed),
		50, DefaultTolerance)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if report.Passed {
		t.Error("Audit passed despite a skewed slope")
	}
	if report.WorstTrial < 0 {
		t.Error("Worst trial not recorded")
	}
	if report.MaxSlopeDiff <= DefaultTolerance {
		t.Errorf("Slope divergence %g should exceed tolerance", report.MaxSlopeDiff)
	}
}

func TestCompareEstimators_ZeroTrials(t *testing.T) {
	params := scenarioParams(t)
	naive, _ := NewNaiveEstimator(params)
	fast, _ := NewFastEstimator(params)

	report, err := CompareEstimators(naive, fast,
		rng.NewGaussianSource(1), rng.NewGaussianSource(1), 0, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !report.Passed {
		t.Error("Zero trials should trivially pass")
	}
	if report.Tolerance != DefaultTolerance {
		t.Errorf("Expected default tolerance fill-in, got %g", report.Tolerance)
	}
}

func TestCompareEstimators_NegativeTrials(t *testing.T) {
	params := scenarioParams(t)
	naive, _ := NewNaiveEstimator(params)
	fast, _ := NewFastEstimator(params)

	_, err := CompareEstimators(naive, fast,
		rng.NewGaussianSource(1), rng.NewGaussianSource(1), -1, 0)
	if !errors.Is(err, core.ErrNegativeTrialCount) {
		t.Errorf("Expected ErrNegativeTrialCount, got %v", err)
	}
}
