package simulation

import (
	"math"

	"regsim/domain/core"
)

// ResultSet wraps the ordered trial results of one run and exposes
// the columnar views the writers and summary code consume.
type ResultSet struct {
	trials []TrialResult
}

// NewResultSet takes ownership of the given slice. The caller must
// not modify it afterwards.
func NewResultSet(trials []TrialResult) ResultSet {
	return ResultSet{trials: trials}
}

// Len returns the number of trials.
func (rs ResultSet) Len() int {
	return len(rs.trials)
}

// At returns the result of trial i in run order.
func (rs ResultSet) At(i int) TrialResult {
	return rs.trials[i]
}

// Trials returns a copy of the ordered results.
func (rs ResultSet) Trials() []TrialResult {
	out := make([]TrialResult, len(rs.trials))
	copy(out, rs.trials)
	return out
}

// Slopes returns the slope column in trial order.
func (rs ResultSet) Slopes() []float64 {
	out := make([]float64, len(rs.trials))
	for i, t := range rs.trials {
		out[i] = t.Slope
	}
	return out
}

// Intercepts returns the intercept column in trial order.
func (rs ResultSet) Intercepts() []float64 {
	out := make([]float64, len(rs.trials))
	for i, t := range rs.trials {
		out[i] = t.Intercept
	}
	return out
}

// ResidualVariances returns the residual variance column in trial order.
func (rs ResultSet) ResidualVariances() []float64 {
	out := make([]float64, len(rs.trials))
	for i, t := range rs.trials {
		out[i] = t.ResidualVariance
	}
	return out
}

// Column returns the named column, following ResultColumns order.
func (rs ResultSet) Column(name string) ([]float64, bool) {
	switch name {
	case "slope":
		return rs.Slopes(), true
	case "intercept":
		return rs.Intercepts(), true
	case "residual_variance":
		return rs.ResidualVariances(), true
	}
	return nil, false
}

// Fingerprint hashes the exact bit patterns of every result in trial
// order. Two runs agree on this hash iff they are bit-identical, which
// is what determinism audits compare.
func (rs ResultSet) Fingerprint() core.ResultHash {
	bits := make([]uint64, 0, 3*len(rs.trials))
	for _, t := range rs.trials {
		bits = append(bits,
			math.Float64bits(t.Slope),
			math.Float64bits(t.Intercept),
			math.Float64bits(t.ResidualVariance))
	}
	return core.ComputeBitsHash(bits)
}
