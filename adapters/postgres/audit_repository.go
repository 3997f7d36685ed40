package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"regsim/domain/core"
	"regsim/domain/simulation"
	"regsim/ports"
)

// auditRepository implements the AuditRepository interface
type auditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sqlx.DB) ports.AuditRepository {
	return &auditRepository{db: db}
}

// Save inserts an equivalence audit outcome
func (r *auditRepository) Save(ctx context.Context, record *simulation.AuditRecord) error {
	query := `INSERT INTO equivalence_audits (
		id, seed, trials, tolerance, max_slope_diff, max_intercept_diff,
		max_variance_diff, worst_trial, passed, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
	)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.Seed, record.Trials, record.Tolerance, record.MaxSlopeDiff, record.MaxInterceptDiff,
		record.MaxVarianceDiff, record.WorstTrial, record.Passed, record.CreatedAt.Time(),
	)

	if err != nil {
		return fmt.Errorf("failed to save audit: %w", err)
	}

	return nil
}

// List retrieves audits newest-first. A limit of zero means no limit.
func (r *auditRepository) List(ctx context.Context, limit int) ([]*simulation.AuditRecord, error) {
	if limit < 0 {
		limit = 0
	}

	query := `SELECT
		id, seed, trials, tolerance, max_slope_diff, max_intercept_diff,
		max_variance_diff, worst_trial, passed, created_at
	FROM equivalence_audits
	ORDER BY created_at DESC
	LIMIT NULLIF($1, 0)`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	return r.scanAudits(rows)
}

// scanAudits is a helper function to scan multiple audit rows
func (r *auditRepository) scanAudits(rows *sql.Rows) ([]*simulation.AuditRecord, error) {
	var records []*simulation.AuditRecord
	for rows.Next() {
		var record simulation.AuditRecord
		var createdAt time.Time

		err := rows.Scan(
			&record.ID, &record.Seed, &record.Trials, &record.Tolerance, &record.MaxSlopeDiff, &record.MaxInterceptDiff,
			&record.MaxVarianceDiff, &record.WorstTrial, &record.Passed, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}

		record.CreatedAt = core.NewTimestamp(createdAt)
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audits: %w", err)
	}

	return records, nil
}
