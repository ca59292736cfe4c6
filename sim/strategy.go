package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/filecoin-project/go-powersim/lottery"
)

// HashModel determines how many hashes an entity computes in an attempt that
// took the given time.
type HashModel func(e lottery.Entity, elapsed time.Duration, rng *rand.Rand) uint64

// UniformHashes draws hash counts uniformly from [min, max), regardless of the
// entity or the time spent.
func UniformHashes(min, max uint64) HashModel {
	return func(_ lottery.Entity, _ time.Duration, rng *rand.Rand) uint64 {
		if max <= min {
			return min
		}
		span := max - min
		if span <= math.MaxInt64 {
			return min + uint64(rng.Int63n(int64(span)))
		}
		// Spans past int63 cover more than half of uint64, so rejection
		// takes fewer than two draws on average.
		for {
			if v := rng.Uint64(); v < span {
				return min + v
			}
		}
	}
}

// WeightScaledHashes treats the entity weight as a hash rate in units of
// perUnit hashes per second.
func WeightScaledHashes(perUnit float64) HashModel {
	return func(e lottery.Entity, elapsed time.Duration, _ *rand.Rand) uint64 {
		h := e.Weight * perUnit * elapsed.Seconds()
		if h <= 0 {
			return 0
		}
		if h >= math.MaxUint64 {
			return math.MaxUint64
		}
		return uint64(h)
	}
}

// FoundStrategy returns the probability in [0, 1] that an attempt which took
// the given time succeeds.
type FoundStrategy func(e lottery.Entity, elapsed time.Duration) float64

// FixedProbability succeeds with constant probability p, clamped to [0, 1].
func FixedProbability(p float64) FoundStrategy {
	p = min(max(p, 0), 1)
	return func(lottery.Entity, time.Duration) float64 { return p }
}

// TargetInterval models awards as a Poisson process with the given mean
// interval: an attempt lasting t succeeds with probability 1 - exp(-t/target).
func TargetInterval(target time.Duration) FoundStrategy {
	return func(_ lottery.Entity, elapsed time.Duration) float64 {
		if target <= 0 {
			return 1
		}
		return 1 - math.Exp(-float64(elapsed)/float64(target))
	}
}
