package ports

import (
	"context"

	"regsim/domain/simulation"
)

// ResultWriter serializes a completed run to columnar storage.
// The filename derives from the experiment's parameter tuple; Write
// returns the full path it produced.
type ResultWriter interface {
	Write(ctx context.Context, exp *simulation.Experiment, results simulation.ResultSet) (string, error)
}
