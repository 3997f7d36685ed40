package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	ResultHash Hash
	ParamsHash Hash
)

// Constructors
func NewResultHash(data []byte) ResultHash { return ResultHash(NewHash(data)) }
func NewParamsHash(data []byte) ParamsHash { return ParamsHash(NewHash(data)) }

// String conversions
func (h ResultHash) String() string { return Hash(h).String() }
func (h ParamsHash) String() string { return Hash(h).String() }

// ComputeBitsHash hashes a sequence of IEEE-754 bit patterns in order.
// Trial results are fingerprinted this way so that bit-identical runs
// produce identical hashes regardless of formatting.
func ComputeBitsHash(bits []uint64) ResultHash {
	buf := make([]byte, 8*len(bits))
	for i, b := range bits {
		binary.BigEndian.PutUint64(buf[i*8:], b)
	}
	return NewResultHash(buf)
}

// ComputeParamsHash hashes a named scalar set with sorted keys so that
// the same parameter tuple always yields the same hash.
func ComputeParamsHash(fields map[string]float64) ParamsHash {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString(fmt.Sprintf("=%x;", fields[key]))
	}

	return NewParamsHash([]byte(data.String()))
}
