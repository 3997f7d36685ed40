package simulation

import (
	"errors"
	"testing"

	"regsim/domain/core"
)

func TestNewExperiment_Validation(t *testing.T) {
	params, err := NewParameters(12.25, 240.16, 8.55, SequencePredictors(10))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := NewExperiment(params, 42, -1, 1); !errors.Is(err, core.ErrNegativeTrialCount) {
		t.Errorf("Expected negative trial count rejection, got %v", err)
	}
	if _, err := NewExperiment(params, 42, 10, 0); !errors.Is(err, core.ErrInvalidWorkerCount) {
		t.Errorf("Expected worker count rejection, got %v", err)
	}

	exp, err := NewExperiment(params, 42, 0, 1)
	if err != nil {
		t.Fatalf("Zero trials should be accepted: %v", err)
	}
	if exp.Status != StatusPending {
		t.Errorf("Expected pending status, got %s", exp.Status)
	}
	if exp.ID.String() == "" {
		t.Error("Expected a generated experiment ID")
	}
}

func TestExperiment_Lifecycle(t *testing.T) {
	params, _ := NewParameters(12.25, 240.16, 8.55, SequencePredictors(10))
	exp, err := NewExperiment(params, 42, 100, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	exp.Start()
	if exp.Status != StatusRunning {
		t.Errorf("Expected running status, got %s", exp.Status)
	}
	if exp.IsTerminal() {
		t.Error("Running experiment should not be terminal")
	}

	fingerprint := core.ResultHash("abc123")
	exp.Complete(fingerprint, "/tmp/out.xlsx", 17)
	if exp.Status != StatusCompleted {
		t.Errorf("Expected completed status, got %s", exp.Status)
	}
	if exp.Fingerprint != fingerprint {
		t.Error("Fingerprint not recorded")
	}
	if exp.OutputPath != "/tmp/out.xlsx" {
		t.Error("Output path not recorded")
	}
	if exp.RuntimeMs != 17 {
		t.Error("Runtime not recorded")
	}
	if !exp.IsTerminal() {
		t.Error("Completed experiment should be terminal")
	}
	if exp.CompletedAt.IsZero() {
		t.Error("Completion timestamp not set")
	}
}

func TestExperiment_Fail(t *testing.T) {
	params, _ := NewParameters(1, 1, 1, SequencePredictors(5))
	exp, _ := NewExperiment(params, 7, 10, 1)

	exp.Start()
	exp.Fail(core.ErrDegenerateDesign)
	if exp.Status != StatusFailed {
		t.Errorf("Expected failed status, got %s", exp.Status)
	}
	if exp.Error == "" {
		t.Error("Expected failure reason to be recorded")
	}
	if !exp.IsTerminal() {
		t.Error("Failed experiment should be terminal")
	}
}
