package simulation

import (
	"regsim/domain/core"
)

// ExperimentStatus tracks an experiment through its lifecycle
type ExperimentStatus string

const (
	StatusPending   ExperimentStatus = "pending"
	StatusRunning   ExperimentStatus = "running"
	StatusCompleted ExperimentStatus = "completed"
	StatusFailed    ExperimentStatus = "failed"
)

// Experiment is the bookkeeping record for one simulation run: the
// parameter tuple, the seed, how many trials, and what came out.
type Experiment struct {
	ID          core.ExperimentID `json:"id"`
	Params      Parameters        `json:"params"`
	Seed        int64             `json:"seed"`
	TrialCount  int               `json:"trial_count"`
	Workers     int               `json:"workers"`
	Status      ExperimentStatus  `json:"status"`
	Fingerprint core.ResultHash   `json:"fingerprint,omitempty"`
	OutputPath  string            `json:"output_path,omitempty"`
	RuntimeMs   int64             `json:"runtime_ms"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   core.Timestamp    `json:"created_at"`
	CompletedAt core.Timestamp    `json:"completed_at,omitempty"`
}

// NewExperiment creates a pending experiment record with a fresh ID.
func NewExperiment(params Parameters, seed int64, trialCount, workers int) (*Experiment, error) {
	if trialCount < 0 {
		return nil, core.ErrNegativeTrialCount
	}
	if workers < 1 {
		return nil, core.ErrInvalidWorkerCount
	}
	return &Experiment{
		ID:         core.NewExperimentID(),
		Params:     params,
		Seed:       seed,
		TrialCount: trialCount,
		Workers:    workers,
		Status:     StatusPending,
		CreatedAt:  core.Now(),
	}, nil
}

// Start marks the experiment as running.
func (e *Experiment) Start() {
	e.Status = StatusRunning
}

// Complete records the outcome of a successful run.
func (e *Experiment) Complete(fingerprint core.ResultHash, outputPath string, runtimeMs int64) {
	e.Status = StatusCompleted
	e.Fingerprint = fingerprint
	e.OutputPath = outputPath
	e.RuntimeMs = runtimeMs
	e.CompletedAt = core.Now()
}

// Fail records a terminal failure.
func (e *Experiment) Fail(err error) {
	e.Status = StatusFailed
	if err != nil {
		e.Error = err.Error()
	}
	e.CompletedAt = core.Now()
}

// IsTerminal reports whether the experiment has finished, either way.
func (e *Experiment) IsTerminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusFailed
}
