package summary

import (
	"regsim/domain/core"
	"regsim/domain/simulation"
)

// FieldSummary contains descriptive statistics for one result column
// across all trials of a run.
type FieldSummary struct {
	Field      string  `json:"field"`
	SampleSize int     `json:"sample_size"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Median     float64 `json:"median"`
	Q25        float64 `json:"q25"`
	Q75        float64 `json:"q75"`
	StdError   float64 `json:"std_error"`
	CILower    float64 `json:"ci_lower"`
	CIUpper    float64 `json:"ci_upper"`
}

// ResultSummary aggregates the per-field summaries of one experiment.
type ResultSummary struct {
	ExperimentID core.ExperimentID `json:"experiment_id,omitempty"`
	TrialCount   int               `json:"trial_count"`
	Confidence   float64           `json:"confidence"`
	Slope        FieldSummary      `json:"slope"`
	Intercept    FieldSummary      `json:"intercept"`
	ResidualVar  FieldSummary      `json:"residual_variance"`
	ComputedAt   core.Timestamp    `json:"computed_at"`
}

// Field returns the summary for the named result column.
func (rs ResultSummary) Field(name string) (FieldSummary, bool) {
	switch name {
	case "slope":
		return rs.Slope, true
	case "intercept":
		return rs.Intercept, true
	case "residual_variance":
		return rs.ResidualVar, true
	}
	return FieldSummary{}, false
}

// Fields returns the three field summaries in column order.
func (rs ResultSummary) Fields() []FieldSummary {
	return []FieldSummary{rs.Slope, rs.Intercept, rs.ResidualVar}
}

// FieldCalibration compares one estimate's sampling behavior against
// the value the data-generating model says it should recover.
type FieldCalibration struct {
	Field    string  `json:"field"`
	Expected float64 `json:"expected"`
	Observed float64 `json:"observed"`
	ZScore   float64 `json:"z_score"`
	InRange  bool    `json:"in_range"`
}

// CalibrationReport checks a summary against the true parameters:
// the mean slope and intercept should land within sampling error of
// the truth, and the mean residual variance near sigma squared.
type CalibrationReport struct {
	Params     simulation.Parameters `json:"params"`
	TrialCount int                   `json:"trial_count"`
	ZLimit     float64               `json:"z_limit"`
	Slope      FieldCalibration      `json:"slope"`
	Intercept  FieldCalibration      `json:"intercept"`
	Variance   FieldCalibration      `json:"residual_variance"`
	Calibrated bool                  `json:"calibrated"`
}

// Checks returns the three calibration entries in column order.
func (cr CalibrationReport) Checks() []FieldCalibration {
	return []FieldCalibration{cr.Slope, cr.Intercept, cr.Variance}
}
