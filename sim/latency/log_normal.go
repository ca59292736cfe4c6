package latency

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

var _ Model = (*LogNormal)(nil)

// LogNormal represents a log normal latency distribution with a configurable
// mean latency. This latency model does not specialise based on the entity
// making the attempt.
type LogNormal struct {
	mean time.Duration
}

// NewLogNormal instantiates a new latency model of log normal latency
// distribution with the given mean.
func NewLogNormal(mean time.Duration) (*LogNormal, error) {
	if mean < 0 {
		return nil, errors.New("mean duration cannot be negative")
	}
	return &LogNormal{mean: mean}, nil
}

// Sample returns latency samples that correspond to the log normal
// distribution with the configured mean, i.e. mean * exp(N(-1/2, 1)).
func (l *LogNormal) Sample(rng *rand.Rand) time.Duration {
	lognorm := math.Exp(rng.NormFloat64() - 0.5)
	return time.Duration(lognorm * float64(l.mean))
}
