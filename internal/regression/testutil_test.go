package regression

import (
	"testing"

	"regsim/domain/simulation"
	"regsim/ports"
)

// scenarioSeed is the fixed seed used by the reference scenario tests.
const scenarioSeed = int64(20240817)

// scenarioParams is the reference model: slope 12.25, intercept 240.16,
// sigma 8.55, predictors 0..9.
func scenarioParams(t *testing.T) simulation.Parameters {
	t.Helper()
	params, err := simulation.NewParameters(12.25, 240.16, 8.55, simulation.SequencePredictors(10))
	if err != nil {
		t.Fatalf("Scenario parameters rejected: %v", err)
	}
	return params
}

// zeroSource returns 0 for every deviate, making each simulated
// response exactly the noiseless mean.
type zeroSource struct{}

func (zeroSource) Norm() float64 { return 0 }

func (zeroSource) FillNorm(dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
}

// replaySource replays a fixed deviate sequence.
type replaySource struct {
	vals []float64
	next int
}

func (s *replaySource) Norm() float64 {
	v := s.vals[s.next]
	s.next++
	return v
}

func (s *replaySource) FillNorm(dst []float64) {
	for i := range dst {
		dst[i] = s.Norm()
	}
}

// constSource always returns the same deviate. Used to watch how
// parallel batches land in the output.
type constSource struct{ v float64 }

func (s *constSource) Norm() float64 { return s.v }

func (s *constSource) FillNorm(dst []float64) {
	for i := range dst {
		dst[i] = s.v
	}
}

// probeEstimator reports the first deviate it sees as the slope,
// exposing which source served which trial.
type probeEstimator struct{}

func (probeEstimator) N() int { return 1 }

func (probeEstimator) RunTrial(src ports.NoiseSource) simulation.TrialResult {
	return simulation.TrialResult{Slope: src.Norm()}
}

func (probeEstimator) Fork() ports.TrialEstimator { return probeEstimator{} }
