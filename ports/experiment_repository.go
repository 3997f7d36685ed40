package ports

import (
	"context"

	"regsim/domain/core"
	"regsim/domain/simulation"
)

// ExperimentRepository defines the interface for experiment bookkeeping
type ExperimentRepository interface {
	// Core CRUD operations
	Create(ctx context.Context, exp *simulation.Experiment) error
	GetByID(ctx context.Context, id core.ExperimentID) (*simulation.Experiment, error)
	List(ctx context.Context, limit, offset int) ([]*simulation.Experiment, error)
	Update(ctx context.Context, exp *simulation.Experiment) error
	Delete(ctx context.Context, id core.ExperimentID) error

	// Result storage, ordered by trial index
	SaveResults(ctx context.Context, id core.ExperimentID, results simulation.ResultSet) error
	GetResults(ctx context.Context, id core.ExperimentID) (simulation.ResultSet, error)

	// Special queries
	ListByStatus(ctx context.Context, status simulation.ExperimentStatus) ([]*simulation.Experiment, error)
}
