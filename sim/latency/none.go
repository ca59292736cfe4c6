package latency

import (
	"math/rand"
	"time"
)

var (
	_ Model = (*none)(nil)

	// None represents zero no-op latency model.
	None = none{}
)

type none struct{}

func (l none) Sample(*rand.Rand) time.Duration { return 0 }
