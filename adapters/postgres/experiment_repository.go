package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"regsim/domain/core"
	"regsim/domain/simulation"
	"regsim/ports"
)

// experimentRepository implements the ExperimentRepository interface
type experimentRepository struct {
	db *sqlx.DB
}

// NewExperimentRepository creates a new experiment repository
func NewExperimentRepository(db *sqlx.DB) ports.ExperimentRepository {
	return &experimentRepository{db: db}
}

// Create inserts a new experiment into the database
func (r *experimentRepository) Create(ctx context.Context, exp *simulation.Experiment) error {
	predictorsJSON, err := json.Marshal(exp.Params.Predictors)
	if err != nil {
		return fmt.Errorf("failed to marshal predictors: %w", err)
	}

	query := `INSERT INTO experiments (
		id, slope_true, intercept_true, sigma, predictors, seed,
		trial_count, workers, status, fingerprint, output_path,
		runtime_ms, error_message, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
	)`

	_, err = r.db.ExecContext(ctx, query,
		exp.ID, exp.Params.SlopeTrue, exp.Params.InterceptTrue, exp.Params.Sigma, predictorsJSON, exp.Seed,
		exp.TrialCount, exp.Workers, exp.Status, string(exp.Fingerprint), exp.OutputPath,
		exp.RuntimeMs, exp.Error, exp.CreatedAt.Time(),
	)

	if err != nil {
		return fmt.Errorf("failed to create experiment: %w", err)
	}

	return nil
}

// GetByID retrieves an experiment by its ID
func (r *experimentRepository) GetByID(ctx context.Context, id core.ExperimentID) (*simulation.Experiment, error) {
	query := `SELECT
		id, slope_true, intercept_true, sigma, predictors, seed,
		trial_count, workers, status, COALESCE(fingerprint, '') as fingerprint,
		COALESCE(output_path, '') as output_path, COALESCE(runtime_ms, 0) as runtime_ms,
		COALESCE(error_message, '') as error_message, created_at, completed_at
	FROM experiments WHERE id = $1`

	exp, err := r.scanExperiment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("experiment", id.String())
		}
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}

	return exp, nil
}

// List retrieves experiments newest-first with pagination.
// A limit of zero means no limit.
func (r *experimentRepository) List(ctx context.Context, limit, offset int) ([]*simulation.Experiment, error) {
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT
		id, slope_true, intercept_true, sigma, predictors, seed,
		trial_count, workers, status, COALESCE(fingerprint, '') as fingerprint,
		COALESCE(output_path, '') as output_path, COALESCE(runtime_ms, 0) as runtime_ms,
		COALESCE(error_message, '') as error_message, created_at, completed_at
	FROM experiments
	ORDER BY created_at DESC
	LIMIT NULLIF($1, 0) OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query experiments: %w", err)
	}
	defer rows.Close()

	return r.scanExperiments(rows)
}

// Update modifies the mutable fields of an experiment record
func (r *experimentRepository) Update(ctx context.Context, exp *simulation.Experiment) error {
	query := `UPDATE experiments SET
		status = $2, fingerprint = $3, output_path = $4,
		runtime_ms = $5, error_message = $6, completed_at = $7
	WHERE id = $1`

	var completedAt interface{}
	if !exp.CompletedAt.IsZero() {
		completedAt = exp.CompletedAt.Time()
	}

	result, err := r.db.ExecContext(ctx, query,
		exp.ID, exp.Status, string(exp.Fingerprint), exp.OutputPath,
		exp.RuntimeMs, exp.Error, completedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update experiment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return core.NewNotFoundError("experiment", exp.ID.String())
	}

	return nil
}

// Delete removes an experiment; trial results cascade
func (r *experimentRepository) Delete(ctx context.Context, id core.ExperimentID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM experiments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete experiment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return core.NewNotFoundError("experiment", id.String())
	}

	return nil
}

// SaveResults replaces the stored trial results of an experiment.
// Rows are bulk-loaded with COPY inside one transaction.
func (r *experimentRepository) SaveResults(ctx context.Context, id core.ExperimentID, results simulation.ResultSet) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM experiments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check experiment: %w", err)
	}
	if !exists {
		return core.NewNotFoundError("experiment", id.String())
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trial_results WHERE experiment_id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear previous results: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("trial_results",
		"experiment_id", "trial_index", "slope", "intercept", "residual_variance"))
	if err != nil {
		return fmt.Errorf("failed to prepare bulk insert: %w", err)
	}

	for i := 0; i < results.Len(); i++ {
		tr := results.At(i)
		if _, err := stmt.ExecContext(ctx, id, i, tr.Slope, tr.Intercept, tr.ResidualVariance); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to buffer trial %d: %w", i, err)
		}
	}

	// Final Exec flushes the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush trial results: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close bulk insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trial results: %w", err)
	}

	return nil
}

// GetResults retrieves stored trial results ordered by trial index
func (r *experimentRepository) GetResults(ctx context.Context, id core.ExperimentID) (simulation.ResultSet, error) {
	exp, err := r.GetByID(ctx, id)
	if err != nil {
		return simulation.ResultSet{}, err
	}

	query := `SELECT slope, intercept, residual_variance
	FROM trial_results
	WHERE experiment_id = $1
	ORDER BY trial_index ASC`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return simulation.ResultSet{}, fmt.Errorf("failed to query trial results: %w", err)
	}
	defer rows.Close()

	var trials []simulation.TrialResult
	for rows.Next() {
		var tr simulation.TrialResult
		if err := rows.Scan(&tr.Slope, &tr.Intercept, &tr.ResidualVariance); err != nil {
			return simulation.ResultSet{}, fmt.Errorf("failed to scan trial result: %w", err)
		}
		trials = append(trials, tr)
	}
	if err := rows.Err(); err != nil {
		return simulation.ResultSet{}, fmt.Errorf("failed to read trial results: %w", err)
	}

	// An empty set is only legitimate for a completed zero-trial run
	if len(trials) == 0 && !(exp.TrialCount == 0 && exp.Status == simulation.StatusCompleted) {
		return simulation.ResultSet{}, core.NewNotFoundError("trial results", id.String())
	}

	return simulation.NewResultSet(trials), nil
}

// ListByStatus retrieves experiments by lifecycle status
func (r *experimentRepository) ListByStatus(ctx context.Context, status simulation.ExperimentStatus) ([]*simulation.Experiment, error) {
	query := `SELECT
		id, slope_true, intercept_true, sigma, predictors, seed,
		trial_count, workers, status, COALESCE(fingerprint, '') as fingerprint,
		COALESCE(output_path, '') as output_path, COALESCE(runtime_ms, 0) as runtime_ms,
		COALESCE(error_message, '') as error_message, created_at, completed_at
	FROM experiments WHERE status = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query experiments by status: %w", err)
	}
	defer rows.Close()

	return r.scanExperiments(rows)
}

// rowScanner abstracts QueryRow and Rows for shared scanning
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *experimentRepository) scanExperiment(row rowScanner) (*simulation.Experiment, error) {
	var exp simulation.Experiment
	var predictorsJSON []byte
	var fingerprint string
	var createdAt time.Time
	var completedAt sql.NullTime

	err := row.Scan(
		&exp.ID, &exp.Params.SlopeTrue, &exp.Params.InterceptTrue, &exp.Params.Sigma, &predictorsJSON, &exp.Seed,
		&exp.TrialCount, &exp.Workers, &exp.Status, &fingerprint,
		&exp.OutputPath, &exp.RuntimeMs, &exp.Error, &createdAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(predictorsJSON, &exp.Params.Predictors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal predictors: %w", err)
	}

	exp.Fingerprint = core.ResultHash(fingerprint)
	exp.CreatedAt = core.NewTimestamp(createdAt)
	if completedAt.Valid {
		exp.CompletedAt = core.NewTimestamp(completedAt.Time)
	}

	return &exp, nil
}

// scanExperiments is a helper function to scan multiple experiment rows
func (r *experimentRepository) scanExperiments(rows *sql.Rows) ([]*simulation.Experiment, error) {
	var experiments []*simulation.Experiment
	for rows.Next() {
		exp, err := r.scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		experiments = append(experiments, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read experiments: %w", err)
	}

	return experiments, nil
}
