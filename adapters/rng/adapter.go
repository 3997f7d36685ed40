package rng

import (
	"context"
	"fmt"

	"regsim/domain/core"
	"regsim/ports"
)

// Adapter implements the NoisePort with PCG-seeded gaussian streams
type Adapter struct{}

// NewAdapter creates a noise adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// SeededSource creates a deterministic noise source for a named operation.
// The seed is used as given so callers can reproduce a run from its record.
func (a *Adapter) SeededSource(ctx context.Context, name string, seed int64) (ports.NoiseSource, error) {
	return NewGaussianSource(seed), nil
}

// Stream creates a deterministic source for one batch of a named
// operation. The batch seed derives from the base seed plus hashed
// name and batch labels, never from run identity, so identically
// seeded runs reproduce regardless of scheduling.
func (a *Adapter) Stream(ctx context.Context, name string, batch int, baseSeed int64) (ports.NoiseSource, error) {
	seed := baseSeed
	if name != "" {
		seed += int64(hashString(name))
	}
	seed += int64(hashString(fmt.Sprintf("batch_%d", batch)))
	return NewGaussianSource(seed), nil
}

// ValidateSeed replays the head of a seeded stream and compares it
// against the expected deviates, bit for bit.
func (a *Adapter) ValidateSeed(ctx context.Context, name string, seed int64, expected []float64) error {
	src := NewGaussianSource(seed)
	for i, want := range expected {
		got := src.Norm()
		if got != want {
			return fmt.Errorf("%w: deviate %d is %v, expected %v",
				core.NewSeedMismatchError(name, seed), i, got, want)
		}
	}
	return nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
