package collections

import "hash"

// FNV-1a constants for 32-bit hash.
const (
	fnvBasis32 uint32 = 0x811c9dc5
	fnvPrime32 uint32 = 0x01000193
)

// Fnv1aHasher computes the 32-bit FNV-1a hash of the bytes written to it. The 32-bit state is
// reported widened to 64 bits by Sum64, which is the value HashMap stores.
type Fnv1aHasher struct {
	state uint32
}

var _ hash.Hash64 = &Fnv1aHasher{}

// NewFnv1aHasher creates a hasher in its initial state
func NewFnv1aHasher() *Fnv1aHasher {
	return &Fnv1aHasher{state: fnvBasis32}
}

// Write folds p into the hash state. It never returns an error.
func (h *Fnv1aHasher) Write(p []byte) (int, error) {
	state := h.state
	for _, b := range p {
		state ^= uint32(b)
		state *= fnvPrime32
	}
	h.state = state
	return len(p), nil
}

// WriteString folds the bytes of s into the hash state without copying them
func (h *Fnv1aHasher) WriteString(s string) (int, error) {
	state := h.state
	for i := 0; i < len(s); i++ {
		state ^= uint32(s[i])
		state *= fnvPrime32
	}
	h.state = state
	return len(s), nil
}

func (h *Fnv1aHasher) Reset()         { h.state = fnvBasis32 }
func (h *Fnv1aHasher) Size() int      { return 4 }
func (h *Fnv1aHasher) BlockSize() int { return 1 }
func (h *Fnv1aHasher) Sum32() uint32  { return h.state }
func (h *Fnv1aHasher) Sum64() uint64  { return uint64(h.state) }

// Sum appends the big-endian 32-bit state to b
func (h *Fnv1aHasher) Sum(b []byte) []byte {
	s := h.state
	return append(b, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}

// HashString returns the widened FNV-1a hash of s
func HashString(s string) uint64 {
	h := NewFnv1aHasher()
	_, _ = h.WriteString(s)
	return h.Sum64()
}
