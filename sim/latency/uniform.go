package latency

import (
	"errors"
	"math/rand"
	"time"
)

var _ Model = (*Uniform)(nil)

// Uniform samples durations uniformly from [Min, Max).
type Uniform struct {
	min, max time.Duration
}

// NewUniform instantiates a uniform latency model over [min, max).
func NewUniform(min, max time.Duration) (*Uniform, error) {
	switch {
	case min < 0:
		return nil, errors.New("min duration cannot be negative")
	case max < min:
		return nil, errors.New("max duration cannot be less than min")
	}
	return &Uniform{min: min, max: max}, nil
}

func (u *Uniform) Sample(rng *rand.Rand) time.Duration {
	if u.max == u.min {
		return u.min
	}
	return u.min + time.Duration(rng.Int63n(int64(u.max-u.min)))
}
