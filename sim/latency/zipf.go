package latency

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var _ Model = (*Zipf)(nil)

// Zipf represents a Zipf latency distribution with a configurable max latency,
// giving a heavy tail of slow attempts.
type Zipf struct {
	s, v float64
	max  time.Duration
}

// NewZipf instantiates a new latency model of ZipF latency distribution with the
// given max.
func NewZipf(s, v float64, max time.Duration) (*Zipf, error) {
	if max < 0 {
		return nil, errors.New("max duration cannot be negative")
	}
	// rand.NewZipf returns nil for out of band parameters; check once up front.
	if rand.NewZipf(rand.New(rand.NewSource(0)), s, v, uint64(max)) == nil {
		return nil, fmt.Errorf("zipf parameters are out of band: s=%f, v=%f", s, v)
	}
	return &Zipf{s: s, v: v, max: max}, nil
}

// Sample returns latency samples that correspond to this ZipF numerical
// distribution.
func (l *Zipf) Sample(rng *rand.Rand) time.Duration {
	return time.Duration(rand.NewZipf(rng, l.s, l.v, uint64(l.max)).Uint64())
}
