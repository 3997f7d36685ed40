package ports

import (
	"context"
)

// NoiseSource is a seeded stream of independent standard-normal deviates.
// A source is single-goroutine: parallel runners give each worker its own.
type NoiseSource interface {
	// Norm returns the next N(0,1) deviate in the stream
	Norm() float64

	// FillNorm overwrites dst with the next len(dst) deviates in stream order
	FillNorm(dst []float64)
}

// NoisePort provides seeded noise sources for deterministic simulations
type NoisePort interface {
	// SeededSource creates a deterministic noise source for a named operation
	SeededSource(ctx context.Context, name string, seed int64) (NoiseSource, error)

	// Stream creates a deterministic source for one batch of a named
	// operation. Batch seeds derive from the name and base seed alone,
	// so identically seeded runs reproduce regardless of scheduling.
	Stream(ctx context.Context, name string, batch int, baseSeed int64) (NoiseSource, error)

	// ValidateSeed ensures the seed produces expected deterministic results
	ValidateSeed(ctx context.Context, name string, seed int64, expected []float64) error
}
