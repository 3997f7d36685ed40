package simulation

import (
	"regsim/domain/core"
)

// AuditRecord is the stored outcome of one equivalence audit between
// the reference and optimized estimation paths.
type AuditRecord struct {
	ID               core.AuditID   `json:"id" db:"id"`
	Seed             int64          `json:"seed" db:"seed"`
	Trials           int            `json:"trials" db:"trials"`
	Tolerance        float64        `json:"tolerance" db:"tolerance"`
	MaxSlopeDiff     float64        `json:"max_slope_diff" db:"max_slope_diff"`
	MaxInterceptDiff float64        `json:"max_intercept_diff" db:"max_intercept_diff"`
	MaxVarianceDiff  float64        `json:"max_variance_diff" db:"max_variance_diff"`
	WorstTrial       int            `json:"worst_trial" db:"worst_trial"`
	Passed           bool           `json:"passed" db:"passed"`
	CreatedAt        core.Timestamp `json:"created_at" db:"created_at"`
}

// NewAuditRecord creates an audit record with a fresh ID
func NewAuditRecord(seed int64, trials int, tolerance float64) *AuditRecord {
	return &AuditRecord{
		ID:        core.NewAuditID(),
		Seed:      seed,
		Trials:    trials,
		Tolerance: tolerance,
		CreatedAt: core.Now(),
	}
}

// MaxDiff returns the largest divergence across the three fields
func (a *AuditRecord) MaxDiff() float64 {
	max := a.MaxSlopeDiff
	if a.MaxInterceptDiff > max {
		max = a.MaxInterceptDiff
	}
	if a.MaxVarianceDiff > max {
		max = a.MaxVarianceDiff
	}
	return max
}
