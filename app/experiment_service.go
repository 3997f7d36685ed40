package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"regsim/domain/core"
	"regsim/domain/simulation"
	"regsim/domain/summary"
	"regsim/internal"
	analysis "regsim/internal/analysis/summary"
	"regsim/internal/regression"
	"regsim/ports"
)

// ExperimentService orchestrates simulation runs: validate, persist,
// estimate, fingerprint, export. A weighted semaphore bounds how many
// experiments execute at once.
type ExperimentService struct {
	repo     ports.ExperimentRepository
	audits   ports.AuditRepository
	noise    ports.NoisePort
	writer   ports.ResultWriter
	computer *analysis.Computer
	sem      *semaphore.Weighted
	logger   *internal.Logger
}

// RunRequest defines the inputs for one simulation run
type RunRequest struct {
	SlopeTrue     float64   `json:"slope_true"`
	InterceptTrue float64   `json:"intercept_true"`
	Sigma         float64   `json:"sigma"`
	Predictors    []float64 `json:"predictors"`
	Seed          int64     `json:"seed"`
	Trials        int       `json:"trials"`
	Workers       int       `json:"workers"`
	Export        bool      `json:"export"`
}

// RunResult contains the complete output of a simulation run
type RunResult struct {
	Experiment  *simulation.Experiment `json:"experiment"`
	Results     simulation.ResultSet   `json:"-"`
	Fingerprint core.ResultHash        `json:"fingerprint"`
	OutputPath  string                 `json:"output_path,omitempty"`
	RuntimeMs   int64                  `json:"runtime_ms"`
}

// AuditRequest defines an equivalence audit between the two estimator paths
type AuditRequest struct {
	SlopeTrue     float64   `json:"slope_true"`
	InterceptTrue float64   `json:"intercept_true"`
	Sigma         float64   `json:"sigma"`
	Predictors    []float64 `json:"predictors"`
	Seed          int64     `json:"seed"`
	Trials        int       `json:"trials"`
	Tolerance     float64   `json:"tolerance"`
}

// AuditResult wraps the equivalence report with audit bookkeeping
type AuditResult struct {
	AuditID   core.AuditID                 `json:"audit_id"`
	Report    regression.EquivalenceReport `json:"report"`
	RuntimeMs int64                        `json:"runtime_ms"`
}

// ReplayResult reports whether re-running an experiment from its
// recorded seed reproduced the stored fingerprint.
type ReplayResult struct {
	ExperimentID core.ExperimentID `json:"experiment_id"`
	Expected     core.ResultHash   `json:"expected"`
	Actual       core.ResultHash   `json:"actual"`
	Match        bool              `json:"match"`
}

// NewExperimentService creates an experiment service. The audit
// repository and writer may be nil when those targets are not
// configured.
func NewExperimentService(repo ports.ExperimentRepository, audits ports.AuditRepository, noise ports.NoisePort, writer ports.ResultWriter, maxConcurrent int64) *ExperimentService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ExperimentService{
		repo:     repo,
		audits:   audits,
		noise:    noise,
		writer:   writer,
		computer: analysis.NewComputer(),
		sem:      semaphore.NewWeighted(maxConcurrent),
		logger:   internal.DefaultLogger.With("ExperimentService"),
	}
}

// Run executes one experiment end to end. Degenerate designs fail
// before any trial runs and leave a failed record behind.
func (s *ExperimentService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire run slot: %w", err)
	}
	defer s.sem.Release(1)

	startTime := time.Now()

	params, err := simulation.NewParameters(req.SlopeTrue, req.InterceptTrue, req.Sigma, req.Predictors)
	if err != nil {
		return nil, err
	}

	workers := req.Workers
	if workers == 0 {
		workers = 1
	}
	exp, err := simulation.NewExperiment(params, req.Seed, req.Trials, workers)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, exp); err != nil {
		return nil, fmt.Errorf("failed to create experiment record: %w", err)
	}

	estimator, err := regression.NewFastEstimator(params)
	if err != nil {
		// Degenerate design: record the rejection and surface it
		exp.Fail(err)
		if updateErr := s.repo.Update(ctx, exp); updateErr != nil {
			s.logger.Warn("could not record failed experiment %s: %v", exp.ID, updateErr)
		}
		return nil, err
	}

	exp.Start()
	if err := s.repo.Update(ctx, exp); err != nil {
		return nil, fmt.Errorf("failed to mark experiment running: %w", err)
	}

	results, err := s.runTrials(ctx, exp, estimator)
	if err != nil {
		exp.Fail(err)
		if updateErr := s.repo.Update(ctx, exp); updateErr != nil {
			s.logger.Warn("could not record failed experiment %s: %v", exp.ID, updateErr)
		}
		return nil, err
	}

	fingerprint := results.Fingerprint()

	if err := s.repo.SaveResults(ctx, exp.ID, results); err != nil {
		exp.Fail(err)
		if updateErr := s.repo.Update(ctx, exp); updateErr != nil {
			s.logger.Warn("could not record failed experiment %s: %v", exp.ID, updateErr)
		}
		return nil, fmt.Errorf("failed to save trial results: %w", err)
	}

	// Export is a side product: a writer failure degrades the run to
	// unexported instead of failing it.
	var outputPath string
	if req.Export && s.writer != nil {
		outputPath, err = s.writer.Write(ctx, exp, results)
		if err != nil {
			s.logger.Warn("export failed for experiment %s: %v", exp.ID, err)
			outputPath = ""
		}
	}

	runtimeMs := time.Since(startTime).Milliseconds()
	exp.Complete(fingerprint, outputPath, runtimeMs)
	if err := s.repo.Update(ctx, exp); err != nil {
		return nil, fmt.Errorf("failed to complete experiment record: %w", err)
	}

	s.logger.Info("experiment %s completed: %d trials in %dms", exp.ID, results.Len(), runtimeMs)

	return &RunResult{
		Experiment:  exp,
		Results:     results,
		Fingerprint: fingerprint,
		OutputPath:  outputPath,
		RuntimeMs:   runtimeMs,
	}, nil
}

// runTrials drives the estimator sequentially or in seeded batches
func (s *ExperimentService) runTrials(ctx context.Context, exp *simulation.Experiment, estimator *regression.FastEstimator) (simulation.ResultSet, error) {
	if exp.Workers > 1 {
		// Batch streams key on a stable name, not the experiment ID, so
		// a replay with the same seed reproduces the fingerprint.
		newSource := func(batch int) (ports.NoiseSource, error) {
			return s.noise.Stream(ctx, "trial_noise", batch, exp.Seed)
		}
		return regression.RunParallel(ctx, estimator, newSource, exp.TrialCount, exp.Workers)
	}

	src, err := s.noise.SeededSource(ctx, "trial_noise", exp.Seed)
	if err != nil {
		return simulation.ResultSet{}, fmt.Errorf("failed to seed noise source: %w", err)
	}
	return regression.RunTrials(estimator, src, exp.TrialCount)
}

// Audit runs the naive and fast paths over identically seeded sources
// and reports their divergence.
func (s *ExperimentService) Audit(ctx context.Context, req AuditRequest) (*AuditResult, error) {
	startTime := time.Now()

	params, err := simulation.NewParameters(req.SlopeTrue, req.InterceptTrue, req.Sigma, req.Predictors)
	if err != nil {
		return nil, err
	}

	naive, err := regression.NewNaiveEstimator(params)
	if err != nil {
		return nil, err
	}
	fast, err := regression.NewFastEstimator(params)
	if err != nil {
		return nil, err
	}

	naiveSrc, err := s.noise.SeededSource(ctx, "audit_reference", req.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to seed reference source: %w", err)
	}
	fastSrc, err := s.noise.SeededSource(ctx, "audit_candidate", req.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to seed candidate source: %w", err)
	}

	report, err := regression.CompareEstimators(naive, fast, naiveSrc, fastSrc, req.Trials, req.Tolerance)
	if err != nil {
		return nil, err
	}

	runtimeMs := time.Since(startTime).Milliseconds()
	if !report.Passed {
		s.logger.Warn("equivalence audit failed: max divergence %g at trial %d", report.MaxDiff(), report.WorstTrial)
	}

	record := simulation.NewAuditRecord(req.Seed, report.Trials, report.Tolerance)
	record.MaxSlopeDiff = report.MaxSlopeDiff
	record.MaxInterceptDiff = report.MaxInterceptDiff
	record.MaxVarianceDiff = report.MaxVarianceDiff
	record.WorstTrial = report.WorstTrial
	record.Passed = report.Passed
	if s.audits != nil {
		if err := s.audits.Save(ctx, record); err != nil {
			s.logger.Warn("could not persist audit %s: %v", record.ID, err)
		}
	}

	return &AuditResult{
		AuditID:   record.ID,
		Report:    report,
		RuntimeMs: runtimeMs,
	}, nil
}

// Summarize loads a stored result set and computes its field summaries.
func (s *ExperimentService) Summarize(ctx context.Context, id core.ExperimentID) (*summary.ResultSummary, error) {
	_, results, err := s.loadRun(ctx, id)
	if err != nil {
		return nil, err
	}

	rsSummary, err := s.computer.Summarize(results)
	if err != nil {
		return nil, err
	}
	rsSummary.ExperimentID = id
	return rsSummary, nil
}

// Calibrate checks a stored run against its data-generating model.
func (s *ExperimentService) Calibrate(ctx context.Context, id core.ExperimentID) (*summary.CalibrationReport, error) {
	exp, results, err := s.loadRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.computer.Calibrate(exp.Params, results)
}

// Replay re-runs a completed experiment from its recorded seed and
// compares fingerprints. A mismatch means the run is not reproducible.
func (s *ExperimentService) Replay(ctx context.Context, id core.ExperimentID) (*ReplayResult, error) {
	exp, _, err := s.loadRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if exp.Status != simulation.StatusCompleted {
		return nil, fmt.Errorf("%w: experiment %s is %s, not completed", core.ErrInvalidParameters, id, exp.Status)
	}

	estimator, err := regression.NewFastEstimator(exp.Params)
	if err != nil {
		return nil, err
	}
	results, err := s.runTrials(ctx, exp, estimator)
	if err != nil {
		return nil, err
	}

	actual := results.Fingerprint()
	match := actual == exp.Fingerprint
	if !match {
		s.logger.Error("replay mismatch for %s: stored %s, replayed %s", id, exp.Fingerprint, actual)
		return &ReplayResult{
			ExperimentID: id,
			Expected:     exp.Fingerprint,
			Actual:       actual,
			Match:        false,
		}, fmt.Errorf("%w: experiment %s", core.ErrNonDeterministic, id)
	}

	return &ReplayResult{
		ExperimentID: id,
		Expected:     exp.Fingerprint,
		Actual:       actual,
		Match:        true,
	}, nil
}

// ListAudits returns stored equivalence audits, newest-first.
func (s *ExperimentService) ListAudits(ctx context.Context, limit int) ([]*simulation.AuditRecord, error) {
	if s.audits == nil {
		return nil, nil
	}
	return s.audits.List(ctx, limit)
}

// GetExperiment loads one experiment record.
func (s *ExperimentService) GetExperiment(ctx context.Context, id core.ExperimentID) (*simulation.Experiment, error) {
	exp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return exp, nil
}

// ListExperiments pages through experiment records.
func (s *ExperimentService) ListExperiments(ctx context.Context, limit, offset int) ([]*simulation.Experiment, error) {
	return s.repo.List(ctx, limit, offset)
}

// GetResults loads the ordered trial results of an experiment.
func (s *ExperimentService) GetResults(ctx context.Context, id core.ExperimentID) (simulation.ResultSet, error) {
	_, results, err := s.loadRun(ctx, id)
	return results, err
}

func (s *ExperimentService) loadRun(ctx context.Context, id core.ExperimentID) (*simulation.Experiment, simulation.ResultSet, error) {
	exp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, simulation.ResultSet{}, err
	}
	results, err := s.repo.GetResults(ctx, id)
	if err != nil {
		return nil, simulation.ResultSet{}, err
	}
	return exp, results, nil
}
