package summary

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"regsim/domain/core"
	"regsim/domain/simulation"
	"regsim/domain/summary"
)

// DefaultConfidence is the confidence level for the interval around
// each field mean.
const DefaultConfidence = 0.95

// DefaultZLimit is how many standard errors the recovered means may
// sit from the true parameters before calibration fails.
const DefaultZLimit = 4.0

// Computer derives per-field summaries and calibration reports from
// completed result sets.
type Computer struct {
	confidence float64
	zLimit     float64
}

// NewComputer creates a summary computer with default thresholds
func NewComputer() *Computer {
	return &Computer{confidence: DefaultConfidence, zLimit: DefaultZLimit}
}

// NewComputerWith creates a summary computer with explicit thresholds
func NewComputerWith(confidence, zLimit float64) *Computer {
	if confidence <= 0 || confidence >= 1 {
		confidence = DefaultConfidence
	}
	if zLimit <= 0 {
		zLimit = DefaultZLimit
	}
	return &Computer{confidence: confidence, zLimit: zLimit}
}

// Summarize computes descriptive statistics for the three result
// columns of a run.
func (c *Computer) Summarize(rs simulation.ResultSet) (*summary.ResultSummary, error) {
	if rs.Len() == 0 {
		return nil, NewComputationError("empty result set", nil)
	}

	result := &summary.ResultSummary{
		TrialCount:  rs.Len(),
		Confidence:  c.confidence,
		Slope:       c.computeField("slope", rs.Slopes()),
		Intercept:   c.computeField("intercept", rs.Intercepts()),
		ResidualVar: c.computeField("residual_variance", rs.ResidualVariances()),
		ComputedAt:  core.Now(),
	}
	return result, nil
}

// Calibrate checks the summary against the data-generating model: the
// mean slope and intercept should land within sampling error of the
// truth, and the mean residual variance near sigma squared.
func (c *Computer) Calibrate(params simulation.Parameters, rs simulation.ResultSet) (*summary.CalibrationReport, error) {
	rsSummary, err := c.Summarize(rs)
	if err != nil {
		return nil, err
	}

	report := &summary.CalibrationReport{
		Params:     params,
		TrialCount: rs.Len(),
		ZLimit:     c.zLimit,
		Slope:      c.calibrateField(rsSummary.Slope, params.SlopeTrue),
		Intercept:  c.calibrateField(rsSummary.Intercept, params.InterceptTrue),
		Variance:   c.calibrateField(rsSummary.ResidualVar, params.Variance()),
	}
	report.Calibrated = report.Slope.InRange && report.Intercept.InRange && report.Variance.InRange
	return report, nil
}

// computeField derives the summary scalars for one column
func (c *Computer) computeField(field string, data []float64) summary.FieldSummary {
	mean, _ := stats.Mean(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	median, _ := stats.Median(data)
	q25, _ := stats.Percentile(data, 25)
	q75, _ := stats.Percentile(data, 75)

	// Sample deviation needs two observations; a single-trial run has
	// no spread to report.
	var stdDev float64
	if len(data) >= 2 {
		stdDev, _ = stats.StandardDeviationSample(data)
	}
	stdErr := stdDev / math.Sqrt(float64(len(data)))

	z := distuv.UnitNormal.Quantile(0.5 + c.confidence/2)

	return summary.FieldSummary{
		Field:      field,
		SampleSize: len(data),
		Mean:       mean,
		StdDev:     stdDev,
		Min:        min,
		Max:        max,
		Median:     median,
		Q25:        q25,
		Q75:        q75,
		StdError:   stdErr,
		CILower:    mean - z*stdErr,
		CIUpper:    mean + z*stdErr,
	}
}

// calibrateField scores one recovered mean against its true value
func (c *Computer) calibrateField(fs summary.FieldSummary, expected float64) summary.FieldCalibration {
	diff := fs.Mean - expected

	var z float64
	switch {
	case fs.StdError > 0:
		z = diff / fs.StdError
	case diff == 0:
		z = 0
	default:
		z = math.Inf(1)
		if diff < 0 {
			z = math.Inf(-1)
		}
	}

	return summary.FieldCalibration{
		Field:    fs.Field,
		Expected: expected,
		Observed: fs.Mean,
		ZScore:   z,
		InRange:  math.Abs(z) <= c.zLimit,
	}
}

// ComputationError represents summary computation errors
type ComputationError struct {
	Message string
	Cause   error
}

func (e ComputationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func NewComputationError(message string, cause error) ComputationError {
	return ComputationError{Message: message, Cause: cause}
}
