// Package random supplies the randomness used to fuzz review intervals.
package random

import (
	"math/rand"
	"sync"
	"time"
)

// Source draws signed integers uniformly from a closed range.
type Source interface {
	// NextSignedIntInRange returns a value in [low, high], both ends inclusive.
	// If high < low it returns low.
	NextSignedIntInRange(low, high int) int
}

// Rand is a Source backed by math/rand. It is safe for concurrent use.
type Rand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Source seeded from the current time.
func New() *Rand {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Source with a fixed seed. Two sources with the same
// seed produce the same sequence.
func NewSeeded(seed int64) *Rand {
	return &Rand{rng: rand.New(rand.NewSource(seed))}
}

// NextSignedIntInRange implements Source.
func (r *Rand) NextSignedIntInRange(low, high int) int {
	if high <= low {
		return low
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return low + r.rng.Intn(high-low+1)
}

// Fixed is a Source that always returns the same value clamped into the
// requested range. Fixed(0) removes fuzz from intervals in tests.
type Fixed int

// NextSignedIntInRange implements Source.
func (f Fixed) NextSignedIntInRange(low, high int) int {
	v := int(f)
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
