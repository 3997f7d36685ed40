package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"regsim/adapters/export"
	"regsim/app"
	"regsim/domain/simulation"
	"regsim/internal/testkit"
	"regsim/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "regsim-cli",
		Short: "regsim CLI for running simulations and equivalence audits",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newAuditCmd(),
		newSummaryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// modelFlags are the data-generating parameters shared by every command.
type modelFlags struct {
	slope        float64
	intercept    float64
	sigma        float64
	observations int
	seed         int64
	trials       int
}

func addModelFlags(cmd *cobra.Command, f *modelFlags) {
	cmd.Flags().Float64Var(&f.slope, "slope", 12.25, "True slope of the data-generating model")
	cmd.Flags().Float64Var(&f.intercept, "intercept", 240.16, "True intercept of the data-generating model")
	cmd.Flags().Float64Var(&f.sigma, "sigma", 8.55, "Noise standard deviation")
	cmd.Flags().IntVar(&f.observations, "observations", 10, "Observations per trial (predictors run 0..n-1)")
	cmd.Flags().Int64Var(&f.seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().IntVar(&f.trials, "trials", 1000, "Number of trials to run")
}

func newRunCmd() *cobra.Command {
	var flags modelFlags
	var workers int
	var exportFormat string
	var exportDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a repeated-trial regression experiment",
		Long: `Run N independent regression trials over a fixed design and print the
outcome. The design is factored once and reused for every trial.

Example: regsim-cli run --trials 50000 --seed 42 --workers 4 --export-format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(cmd.Context(), flags, workers, exportFormat, exportDir)
		},
	}

	addModelFlags(cmd, &flags)
	cmd.Flags().IntVar(&workers, "workers", 1, "Parallel workers (deterministic batch seeding)")
	cmd.Flags().StringVar(&exportFormat, "export-format", "none", "Result export format: xlsx|csv|none")
	cmd.Flags().StringVar(&exportDir, "export-dir", "./results", "Directory for exported result files")

	return cmd
}

func newAuditCmd() *cobra.Command {
	var flags modelFlags
	var tolerance float64

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit naive/fast estimator equivalence",
		Long: `Run identically seeded trials through the from-scratch reference
estimator and the amortized estimator, then compare every result field.

Example: regsim-cli audit --trials 500 --seed 42 --tolerance 1e-9`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.Context(), flags, tolerance)
		},
	}

	addModelFlags(cmd, &flags)
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Relative tolerance (0 uses the default 1e-9)")

	return cmd
}

func newSummaryCmd() *cobra.Command {
	var flags modelFlags
	var workers int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Run an experiment and print its statistical summary",
		Long: `Run N trials and print per-field descriptive statistics plus a
calibration check of the recovered means against the true parameters.

Example: regsim-cli summary --trials 50000 --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd.Context(), flags, workers)
		},
	}

	addModelFlags(cmd, &flags)
	cmd.Flags().IntVar(&workers, "workers", 1, "Parallel workers (deterministic batch seeding)")

	return cmd
}

// newService wires the experiment service over the in-memory testkit,
// optionally swapping in a real file writer.
func newService(writer ports.ResultWriter) *app.ExperimentService {
	kit := testkit.NewTestKit()
	if writer == nil {
		return kit.ExperimentService()
	}
	return app.NewExperimentService(
		kit.ExperimentRepository(),
		kit.AuditRepository(),
		kit.NoiseAdapter(),
		writer,
		4,
	)
}

func runExperiment(ctx context.Context, flags modelFlags, workers int, exportFormat, exportDir string) error {
	writer, err := export.ForFormat(exportFormat, exportDir)
	if err != nil {
		return err
	}

	service := newService(writer)

	result, err := service.Run(ctx, app.RunRequest{
		SlopeTrue:     flags.slope,
		InterceptTrue: flags.intercept,
		Sigma:         flags.sigma,
		Predictors:    simulation.SequencePredictors(flags.observations),
		Seed:          flags.seed,
		Trials:        flags.trials,
		Workers:       workers,
		Export:        writer != nil,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Printf("\n=== RUN RESULTS ===\n")
	fmt.Printf("Experiment ID: %s\n", result.Experiment.ID)
	fmt.Printf("Status: %s\n", result.Experiment.Status)
	fmt.Printf("Trials: %d\n", result.Results.Len())
	fmt.Printf("Fingerprint: %s\n", result.Fingerprint)
	fmt.Printf("Runtime: %d ms\n", result.RuntimeMs)
	if result.OutputPath != "" {
		fmt.Printf("Output: %s\n", result.OutputPath)
	}

	if result.Results.Len() > 0 {
		sum, err := service.Summarize(ctx, result.Experiment.ID)
		if err != nil {
			return fmt.Errorf("summary failed: %w", err)
		}
		fmt.Printf("\n=== FIELD MEANS ===\n")
		for _, fs := range sum.Fields() {
			fmt.Printf("%-18s mean=%.6f sd=%.6f\n", fs.Field, fs.Mean, fs.StdDev)
		}
	}

	fmt.Printf("\n✅ RUN COMPLETED\n")
	fmt.Printf("Replaying with the same seed reproduces fingerprint %s exactly.\n", result.Fingerprint)

	return nil
}

func runAudit(ctx context.Context, flags modelFlags, tolerance float64) error {
	service := newService(nil)

	result, err := service.Audit(ctx, app.AuditRequest{
		SlopeTrue:     flags.slope,
		InterceptTrue: flags.intercept,
		Sigma:         flags.sigma,
		Predictors:    simulation.SequencePredictors(flags.observations),
		Seed:          flags.seed,
		Trials:        flags.trials,
		Tolerance:     tolerance,
	})
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	report := result.Report
	fmt.Printf("\n=== EQUIVALENCE AUDIT ===\n")
	fmt.Printf("Audit ID: %s\n", result.AuditID)
	fmt.Printf("Trials: %d\n", report.Trials)
	fmt.Printf("Tolerance: %.3e\n", report.Tolerance)
	fmt.Printf("Max slope diff: %.3e\n", report.MaxSlopeDiff)
	fmt.Printf("Max intercept diff: %.3e\n", report.MaxInterceptDiff)
	fmt.Printf("Max variance diff: %.3e\n", report.MaxVarianceDiff)
	fmt.Printf("Worst trial: %d\n", report.WorstTrial)
	fmt.Printf("Runtime: %d ms\n", result.RuntimeMs)

	if !report.Passed {
		fmt.Printf("\n❌ AUDIT FAILED\n")
		return fmt.Errorf("estimators diverged beyond tolerance at trial %d", report.WorstTrial)
	}

	fmt.Printf("\n✅ AUDIT PASSED\n")
	fmt.Printf("The amortized estimator matches the reference on every trial.\n")

	return nil
}

func runSummary(ctx context.Context, flags modelFlags, workers int) error {
	service := newService(nil)

	result, err := service.Run(ctx, app.RunRequest{
		SlopeTrue:     flags.slope,
		InterceptTrue: flags.intercept,
		Sigma:         flags.sigma,
		Predictors:    simulation.SequencePredictors(flags.observations),
		Seed:          flags.seed,
		Trials:        flags.trials,
		Workers:       workers,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	sum, err := service.Summarize(ctx, result.Experiment.ID)
	if err != nil {
		return fmt.Errorf("summary failed: %w", err)
	}

	fmt.Printf("\n=== TRIAL SUMMARY (%d trials, seed %d) ===\n", sum.TrialCount, flags.seed)
	fmt.Printf("%-18s %12s %12s %12s %12s %12s %26s\n",
		"field", "mean", "sd", "min", "median", "max", "confidence interval")
	for _, fs := range sum.Fields() {
		fmt.Printf("%-18s %12.6f %12.6f %12.6f %12.6f %12.6f    [%.6f, %.6f]\n",
			fs.Field, fs.Mean, fs.StdDev, fs.Min, fs.Median, fs.Max, fs.CILower, fs.CIUpper)
	}

	cal, err := service.Calibrate(ctx, result.Experiment.ID)
	if err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}

	fmt.Printf("\n=== CALIBRATION (|z| limit %.1f) ===\n", cal.ZLimit)
	for _, fc := range cal.Checks() {
		verdict := "ok"
		if !fc.InRange {
			verdict = "OUT OF RANGE"
		}
		fmt.Printf("%-18s expected=%.4f observed=%.4f z=%+.2f %s\n",
			fc.Field, fc.Expected, fc.Observed, fc.ZScore, verdict)
	}

	if cal.Calibrated {
		fmt.Printf("\n✅ ESTIMATOR CALIBRATED\n")
	} else {
		fmt.Printf("\n❌ CALIBRATION DRIFT DETECTED\n")
		return fmt.Errorf("recovered means drifted beyond %.1f standard errors", cal.ZLimit)
	}

	return nil
}
