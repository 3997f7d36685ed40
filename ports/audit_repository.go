package ports

import (
	"context"

	"regsim/domain/simulation"
)

// AuditRepository stores equivalence audit outcomes
type AuditRepository interface {
	Save(ctx context.Context, record *simulation.AuditRecord) error
	List(ctx context.Context, limit int) ([]*simulation.AuditRecord, error)
}
