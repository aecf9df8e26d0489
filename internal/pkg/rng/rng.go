// Package rng provides the injectable randomness source used by the
// simulator. All generator and real-time logic draws through Source so tests
// can substitute a deterministic sequence.
package rng

import (
	"math/rand"
	"sync"
)

// Source yields pseudo-random floats in [0,1).
type Source interface {
	Float64() float64
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a seeded Source safe for concurrent use.
func New(seed int64) Source {
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// IntN draws a uniform int in [0,n). n must be positive.
func IntN(src Source, n int) int {
	v := int(src.Float64() * float64(n))
	if v >= n { // guard against Float64 edge rounding
		v = n - 1
	}
	return v
}

// Between draws a uniform int in [lo,hi] inclusive.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + IntN(src, hi-lo+1)
}

// Chance reports a single Bernoulli draw with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Pick returns a uniformly chosen element of items.
func Pick[T any](src Source, items []T) T {
	return items[IntN(src, len(items))]
}

// Seq is a scripted Source for tests: it replays the given values in order
// and wraps around when exhausted.
type Seq struct {
	mu     sync.Mutex
	values []float64
	i      int
}

// NewSeq creates a scripted source. At least one value is required.
func NewSeq(values ...float64) *Seq {
	if len(values) == 0 {
		values = []float64{0.5}
	}
	return &Seq{values: values}
}

func (s *Seq) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}
