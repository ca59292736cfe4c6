// Package latency provides models for how long a simulated attempt takes.
package latency

import (
	"math/rand"
	"time"
)

// Model samples the duration of one attempt. Randomness comes from the rng
// passed in, never from state held by the model, so that a model can be
// shared across concurrently running attempts and still yield reproducible
// samples.
type Model interface {
	Sample(rng *rand.Rand) time.Duration
}
