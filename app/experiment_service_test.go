package app_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"regsim/app"
	"regsim/domain/core"
	"regsim/domain/simulation"
	"regsim/internal/testkit"
)

func scenarioRequest() app.RunRequest {
	return app.RunRequest{
		SlopeTrue:     12.25,
		InterceptTrue: 240.16,
		Sigma:         8.55,
		Predictors:    simulation.SequencePredictors(10),
		Seed:          20240817,
		Trials:        100,
		Workers:       1,
		Export:        true,
	}
}

func TestExperimentService_Run_CompletesAndPersists(t *testing.T) {
	ctx := context.Background()
	kit := testkit.NewTestKit()
	service := kit.ExperimentService()

	result, err := service.Run(ctx, scenarioRequest())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Experiment.Status != simulation.StatusCompleted {
		t.Errorf("Expected completed status, got %s", result.Experiment.Status)
	}
	if result.Results.Len() != 100 {
		t.Errorf("Expected 100 trials, got %d", result.Results.Len())
	}
	if result.Fingerprint == "" {
		t.Error("Expected a fingerprint")
	}
	if result.RuntimeMs < 0 {
		t.Errorf("Negative runtime: %d", result.RuntimeMs)
	}

	stored, err := kit.ExperimentRepository().GetByID(ctx, result.Experiment.ID)
	if err != nil {
		t.Fatalf("Stored experiment not found: %v", err)
	}
	if stored.Status != simulation.StatusCompleted {
		t.Errorf("Stored status %s, want completed", stored.Status)
	}
	if stored.Fingerprint != result.Fingerprint {
		t.Error("Stored fingerprint does not match returned fingerprint")
	}

	persisted, err := service.GetResults(ctx, result.Experiment.ID)
	if err != nil {
		t.Fatalf("GetResults failed: %v", err)
	}
	if persisted.Fingerprint() != result.Fingerprint {
		t.Error("Persisted results do not reproduce the fingerprint")
	}

	if kit.ResultWriter().LastPath() == "" {
		t.Error("Expected an export to be recorded")
	}
	if result.OutputPath != kit.ResultWriter().LastPath() {
		t.Errorf("Output path %s does not match recorded %s", result.OutputPath, kit.ResultWriter().LastPath())
	}
}

func TestExperimentService_Run_DeterministicAcrossRuns(t *testing.T) {
	ctx := context.Background()
	service := testkit.NewTestKit().ExperimentService()

	first, err := service.Run(ctx, scenarioRequest())
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	second, err := service.Run(ctx, scenarioRequest())
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if first.Fingerprint != second.Fingerprint {
		t.Errorf("Same seed produced different fingerprints: %s vs %s", first.Fingerprint, second.Fingerprint)
	}
}

func TestExperimentService_Run_ParallelDeterministicAcrossRuns(t *testing.T) {
	ctx := context.Background()
	service := testkit.NewTestKit().ExperimentService()

	req := scenarioRequest()
	req.Workers = 4
	req.Trials = 500

	first, err := service.Run(ctx, req)
	if err != nil {
		t.Fatalf("First parallel run failed: %v", err)
	}
	second, err := service.Run(ctx, req)
	if err != nil {
		t.Fatalf("Second parallel run failed: %v", err)
	}

	if first.Fingerprint != second.Fingerprint {
		t.Errorf("Parallel runs diverged: %s vs %s", first.Fingerprint, second.Fingerprint)
	}
}

func TestExperimentService_Run_DegenerateDesignRecordsFailure(t *testing.T) {
	ctx := context.Background()
	kit := testkit.NewTestKit()
	service := kit.ExperimentService()

	req := scenarioRequest()
	req.Predictors = []float64{5, 5, 5}

	_, err := service.Run(ctx, req)
	if !core.IsDegenerateDesignError(err) {
		t.Fatalf("Expected degenerate design error, got %v", err)
	}

	failed, err := kit.ExperimentRepository().ListByStatus(ctx, simulation.StatusFailed)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("Expected one failed record, got %d", len(failed))
	}
	if failed[0].Error == "" {
		t.Error("Failed record is missing its error message")
	}
}

func TestExperimentService_Run_ZeroTrials(t *testing.T) {
	ctx := context.Background()
	service := testkit.NewTestKit().ExperimentService()

	req := scenarioRequest()
	req.Trials = 0

	result, err := service.Run(ctx, req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Results.Len() != 0 {
		t.Errorf("Expected empty results, got %d trials", result.Results.Len())
	}
	if result.Experiment.Status != simulation.StatusCompleted {
		t.Errorf("Expected completed status, got %s", result.Experiment.Status)
	}
	if want := simulation.NewResultSet(nil).Fingerprint(); result.Fingerprint != want {
		t.Errorf("Empty-run fingerprint %s, want %s", result.Fingerprint, want)
	}
}

func TestExperimentService_Run_ExportFailureDoesNotFailRun(t *testing.T) {
	ctx := context.Background()
	kit := testkit.NewTestKit()
	writer := &testkit.FailingResultWriter{Err: errors.New("disk full")}
	service := app.NewExperimentService(kit.ExperimentRepository(), kit.AuditRepository(), kit.NoiseAdapter(), writer, 1)

	result, err := service.Run(ctx, scenarioRequest())
	if err != nil {
		t.Fatalf("Run failed on export error: %v", err)
	}
	if result.Experiment.Status != simulation.StatusCompleted {
		t.Errorf("Expected completed status, got %s", result.Experiment.Status)
	}
	if result.OutputPath != "" {
		t.Errorf("Expected empty output path, got %s", result.OutputPath)
	}
}

func TestExperimentService_Audit_PathsAgree(t *testing.T) {
	ctx := context.Background()
	kit := testkit.NewTestKit()
	service := kit.ExperimentService()

	result, err := service.Audit(ctx, app.AuditRequest{
		SlopeTrue:     12.25,
		InterceptTrue: 240.16,
		Sigma:         8.55,
		Predictors:    simulation.SequencePredictors(10),
		Seed:          20240817,
		Trials:        50,
	})
	if err != nil {
		t.Fatalf("Audit failed: %v", err)
	}

	if result.AuditID == "" {
		t.Error("Expected an audit ID")
	}
	if !result.Report.Passed {
		t.Errorf("Expected paths to agree, max diff %g", result.Report.MaxDiff())
	}
	if result.Report.Trials != 50 {
		t.Errorf("Expected 50 audited trials, got %d", result.Report.Trials)
	}

	stored, err := service.ListAudits(ctx, 10)
	if err != nil {
		t.Fatalf("ListAudits failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("Expected one stored audit, got %d", len(stored))
	}
	if stored[0].ID != result.AuditID || !stored[0].Passed {
		t.Errorf("Stored audit does not match: %+v", stored[0])
	}
}

func TestExperimentService_Summarize(t *testing.T) {
	ctx := context.Background()
	service := testkit.NewTestKit().ExperimentService()

	req := scenarioRequest()
	req.Trials = 5000
	run, err := service.Run(ctx, req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	summary, err := service.Summarize(ctx, run.Experiment.ID)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if summary.ExperimentID != run.Experiment.ID {
		t.Errorf("Summary carries wrong experiment ID: %s", summary.ExperimentID)
	}
	if summary.TrialCount != 5000 {
		t.Errorf("Expected 5000 trials, got %d", summary.TrialCount)
	}
	if math.Abs(summary.Slope.Mean-12.25) > 0.5 {
		t.Errorf("Mean slope %g too far from 12.25", summary.Slope.Mean)
	}
	if math.Abs(summary.ResidualVar.Mean-73.1025) > 8 {
		t.Errorf("Mean residual variance %g too far from 73.1025", summary.ResidualVar.Mean)
	}
}

func TestExperimentService_Calibrate(t *testing.T) {
	ctx := context.Background()
	service := testkit.NewTestKit().ExperimentService()

	req := scenarioRequest()
	req.Trials = 5000
	run, err := service.Run(ctx, req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	report, err := service.Calibrate(ctx, run.Experiment.ID)
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	if report.TrialCount != 5000 {
		t.Errorf("Expected 5000 trials, got %d", report.TrialCount)
	}
	checks := report.Checks()
	if len(checks) != 3 {
		t.Fatalf("Expected 3 calibration checks, got %d", len(checks))
	}
	for _, check := range checks {
		if math.Abs(check.ZScore) > 6 {
			t.Errorf("Field %s drifted: z=%g (expected %g, observed %g)",
				check.Field, check.ZScore, check.Expected, check.Observed)
		}
	}
}

func TestExperimentService_Replay(t *testing.T) {
	ctx := context.Background()
	service := testkit.NewTestKit().ExperimentService()

	run, err := service.Run(ctx, scenarioRequest())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	replay, err := service.Replay(ctx, run.Experiment.ID)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if !replay.Match {
		t.Errorf("Replay did not reproduce fingerprint: stored %s, replayed %s", replay.Expected, replay.Actual)
	}

	if _, err := service.Replay(ctx, core.NewExperimentID()); !core.IsNotFoundError(err) {
		t.Errorf("Expected not found for unknown experiment, got %v", err)
	}
}

func TestExperimentService_ListExperiments(t *testing.T) {
	ctx := context.Background()
	service := testkit.NewTestKit().ExperimentService()

	for i := 0; i < 3; i++ {
		if _, err := service.Run(ctx, scenarioRequest()); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}

	listed, err := service.ListExperiments(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListExperiments failed: %v", err)
	}
	if len(listed) != 3 {
		t.Errorf("Expected 3 experiments, got %d", len(listed))
	}
}

func TestExperimentService_InvalidParameters(t *testing.T) {
	ctx := context.Background()
	service := testkit.NewTestKit().ExperimentService()

	cases := []struct {
		name   string
		mutate func(*app.RunRequest)
	}{
		{"zero sigma", func(r *app.RunRequest) { r.Sigma = 0 }},
		{"negative trials", func(r *app.RunRequest) { r.Trials = -1 }},
		{"empty predictors", func(r *app.RunRequest) { r.Predictors = nil }},
		{"nan slope", func(r *app.RunRequest) { r.SlopeTrue = math.NaN() }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := scenarioRequest()
			tc.mutate(&req)
			if _, err := service.Run(ctx, req); !core.IsValidationError(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}
