package types

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// ErrBitLengthMismatch is returned when two fingerprints have different declared lengths
var ErrBitLengthMismatch = errors.New("fingerprint bit lengths differ")

// Fingerprint is a fixed-length bit vector. Bit i lives in Words[i/64] at
// position 63-(i%64), so the hex form reads left to right.
type Fingerprint struct {
	Bits  int      `json:"bits"`
	Words []uint64 `json:"words"`
}

// NewFingerprint allocates a zeroed fingerprint of n bits
func NewFingerprint(n int) Fingerprint {
	return Fingerprint{Bits: n, Words: make([]uint64, (n+63)/64)}
}

// Set turns on bit i
func (f Fingerprint) Set(i int) {
	f.Words[i/64] |= 1 << (63 - uint(i%64))
}

// IsSet reports whether bit i is on
func (f Fingerprint) IsSet(i int) bool {
	return f.Words[i/64]&(1<<(63-uint(i%64))) != 0
}

// Empty reports whether the fingerprint carries no bits
func (f Fingerprint) Empty() bool {
	return f.Bits == 0 || len(f.Words) == 0
}

// Distance returns the Hamming distance to other
func (f Fingerprint) Distance(other Fingerprint) (int, error) {
	if f.Bits != other.Bits || len(f.Words) != len(other.Words) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrBitLengthMismatch, f.Bits, other.Bits)
	}
	dist := 0
	for i := range f.Words {
		dist += bits.OnesCount64(f.Words[i] ^ other.Words[i])
	}
	return dist, nil
}

// Similarity returns 1 - distance/bits, or an error when the lengths differ
func (f Fingerprint) Similarity(other Fingerprint) (float64, error) {
	if f.Empty() || other.Empty() {
		return 0, errors.New("empty fingerprint")
	}
	dist, err := f.Distance(other)
	if err != nil {
		return 0, err
	}
	return 1 - float64(dist)/float64(f.Bits), nil
}

// String renders the fingerprint as hex
func (f Fingerprint) String() string {
	var sb strings.Builder
	for _, w := range f.Words {
		sb.WriteString(fmt.Sprintf("%016x", w))
	}
	return sb.String()
}
