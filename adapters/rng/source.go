package rng

import (
	"math/rand/v2"
)

// GaussianSource is a seeded stream of standard-normal deviates backed
// by a PCG generator. The same seed always reproduces the same stream,
// and FillNorm draws from the identical sequence as repeated Norm calls.
// A source is single-goroutine; parallel runs hand each worker its own.
type GaussianSource struct {
	rng *rand.Rand
}

// NewGaussianSource seeds a fresh stream. Both PCG words are set from
// the seed so a source is fully determined by it.
func NewGaussianSource(seed int64) *GaussianSource {
	s := uint64(seed)
	return &GaussianSource{rng: rand.New(rand.NewPCG(s, s))}
}

// Norm returns the next N(0,1) deviate.
func (g *GaussianSource) Norm() float64 {
	return g.rng.NormFloat64()
}

// FillNorm overwrites dst with the next len(dst) deviates in order.
func (g *GaussianSource) FillNorm(dst []float64) {
	for i := range dst {
		dst[i] = g.rng.NormFloat64()
	}
}
