package migration

import (
	"context"
	"fmt"

	"regsim/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createExperimentsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create experiments table")
	}

	if err := r.createTrialResultsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create trial_results table")
	}

	if err := r.createAuditsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create equivalence_audits table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createExperimentsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS experiments (
			id VARCHAR(50) PRIMARY KEY,
			slope_true DOUBLE PRECISION NOT NULL,
			intercept_true DOUBLE PRECISION NOT NULL,
			sigma DOUBLE PRECISION NOT NULL,
			predictors JSONB NOT NULL,
			seed BIGINT NOT NULL,
			trial_count INTEGER NOT NULL,
			workers INTEGER NOT NULL DEFAULT 1,
			status VARCHAR(50) NOT NULL DEFAULT 'pending',
			fingerprint VARCHAR(64),
			output_path TEXT,
			runtime_ms BIGINT,
			error_message TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			completed_at TIMESTAMP WITH TIME ZONE
		)
	`)
	return err
}

func (r *MigrationRunner) createTrialResultsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trial_results (
			experiment_id VARCHAR(50) NOT NULL REFERENCES experiments(id) ON DELETE CASCADE,
			trial_index INTEGER NOT NULL,
			slope DOUBLE PRECISION NOT NULL,
			intercept DOUBLE PRECISION NOT NULL,
			residual_variance DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (experiment_id, trial_index)
		)
	`)
	return err
}

func (r *MigrationRunner) createAuditsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS equivalence_audits (
			id VARCHAR(50) PRIMARY KEY,
			seed BIGINT NOT NULL,
			trials INTEGER NOT NULL,
			tolerance DOUBLE PRECISION NOT NULL,
			max_slope_diff DOUBLE PRECISION NOT NULL,
			max_intercept_diff DOUBLE PRECISION NOT NULL,
			max_variance_diff DOUBLE PRECISION NOT NULL,
			worst_trial INTEGER NOT NULL,
			passed BOOLEAN NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_experiments_status ON experiments(status)",
		"CREATE INDEX IF NOT EXISTS idx_experiments_created_at ON experiments(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_experiments_seed ON experiments(seed)",
		"CREATE INDEX IF NOT EXISTS idx_trial_results_experiment ON trial_results(experiment_id)",
		"CREATE INDEX IF NOT EXISTS idx_audits_passed ON equivalence_audits(passed)",
		"CREATE INDEX IF NOT EXISTS idx_audits_created_at ON equivalence_audits(created_at DESC)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			fmt.Printf("Warning: failed to create index: %v\n", err)
		}
	}

	return nil
}
