package regression

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"regsim/domain/core"
	"regsim/domain/simulation"
	"regsim/ports"
)

// SourceFactory returns the seeded noise source for one batch of a
// parallel run. Implementations derive batch seeds deterministically
// from a base seed so output never depends on scheduling.
type SourceFactory func(batch int) (ports.NoiseSource, error)

// RunTrials drives the estimator over count ordered trials on a single
// source: trial i consumes its draws strictly before trial i+1.
// count 0 yields an empty, well-formed result set.
func RunTrials(est ports.TrialEstimator, src ports.NoiseSource, count int) (simulation.ResultSet, error) {
	if count < 0 {
		return simulation.ResultSet{}, fmt.Errorf("%w: got %d", core.ErrNegativeTrialCount, count)
	}

	trials := make([]simulation.TrialResult, count)
	for i := range trials {
		trials[i] = est.RunTrial(src)
	}
	return simulation.NewResultSet(trials), nil
}

// RunParallel splits count trials into one contiguous batch per worker.
// Each worker forks the estimator and owns the source for its batch, so
// the only shared state is the immutable factorization. Results land in
// batch order regardless of which worker finishes first.
func RunParallel(ctx context.Context, est ports.ForkableEstimator, newSource SourceFactory, count, workers int) (simulation.ResultSet, error) {
	if count < 0 {
		return simulation.ResultSet{}, fmt.Errorf("%w: got %d", core.ErrNegativeTrialCount, count)
	}
	if workers < 1 {
		return simulation.ResultSet{}, fmt.Errorf("%w: got %d", core.ErrInvalidWorkerCount, workers)
	}
	if workers == 1 || count <= 1 {
		src, err := newSource(0)
		if err != nil {
			return simulation.ResultSet{}, err
		}
		return RunTrials(est, src, count)
	}

	trials := make([]simulation.TrialResult, count)
	g, ctx := errgroup.WithContext(ctx)

	base := count / workers
	rem := count % workers
	start := 0
	for b := 0; b < workers; b++ {
		size := base
		if b < rem {
			size++
		}
		if size == 0 {
			continue
		}

		src, err := newSource(b)
		if err != nil {
			return simulation.ResultSet{}, fmt.Errorf("batch %d source: %w", b, err)
		}

		batchStart := start
		batchEnd := start + size
		start += size
		worker := est.Fork()

		g.Go(func() error {
			for i := batchStart; i < batchEnd; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				trials[i] = worker.RunTrial(src)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return simulation.ResultSet{}, err
	}
	return simulation.NewResultSet(trials), nil
}
