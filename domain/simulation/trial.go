package simulation

// TrialResult holds the three estimates produced by one simulated trial.
// It is a plain value: estimators hand back copies, never views into
// their working buffers, so results survive buffer reuse unchanged.
type TrialResult struct {
	Slope            float64 `json:"slope"`
	Intercept        float64 `json:"intercept"`
	ResidualVariance float64 `json:"residual_variance"`
}

// ResultColumns is the stable field order used by columnar writers
// and the results API.
var ResultColumns = [3]string{"slope", "intercept", "residual_variance"}

// Column returns the named field of the result, following ResultColumns.
func (r TrialResult) Column(name string) (float64, bool) {
	switch name {
	case "slope":
		return r.Slope, true
	case "intercept":
		return r.Intercept, true
	case "residual_variance":
		return r.ResidualVariance, true
	}
	return 0, false
}
