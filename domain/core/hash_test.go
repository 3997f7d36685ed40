package core

import (
	"math"
	"testing"
)

// TestComputeBitsHashDeterminism tests that identical bit sequences hash identically
func TestComputeBitsHashDeterminism(t *testing.T) {
	values := []float64{12.25, 240.16, 73.1025}
	bits := make([]uint64, len(values))
	for i, v := range values {
		bits[i] = math.Float64bits(v)
	}

	h1 := ComputeBitsHash(bits)
	h2 := ComputeBitsHash(bits)
	if !Hash(h1).Equals(Hash(h2)) {
		t.Errorf("Expected identical hashes, got %s and %s", h1, h2)
	}
	if Hash(h1).IsEmpty() {
		t.Error("Expected non-empty hash")
	}
}

// TestComputeBitsHashOrderSensitivity tests that reordering changes the hash
func TestComputeBitsHashOrderSensitivity(t *testing.T) {
	a := ComputeBitsHash([]uint64{1, 2, 3})
	b := ComputeBitsHash([]uint64{3, 2, 1})
	if Hash(a).Equals(Hash(b)) {
		t.Error("Expected different hashes for reordered input")
	}
}

// TestComputeBitsHashEmpty tests the zero-trial fingerprint
func TestComputeBitsHashEmpty(t *testing.T) {
	h := ComputeBitsHash(nil)
	if Hash(h).IsEmpty() {
		t.Error("Expected a defined hash for empty input")
	}
	if h != ComputeBitsHash([]uint64{}) {
		t.Error("Expected nil and empty slices to hash identically")
	}
}

// TestComputeParamsHashKeyOrder tests that map iteration order does not leak
func TestComputeParamsHashKeyOrder(t *testing.T) {
	h1 := ComputeParamsHash(map[string]float64{"slope": 12.25, "sigma": 8.55})
	h2 := ComputeParamsHash(map[string]float64{"sigma": 8.55, "slope": 12.25})
	if h1 != h2 {
		t.Errorf("Expected key-order independence, got %s and %s", h1, h2)
	}

	h3 := ComputeParamsHash(map[string]float64{"slope": 12.25, "sigma": 8.56})
	if h1 == h3 {
		t.Error("Expected different hashes for different parameter values")
	}
}
