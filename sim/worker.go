package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/filecoin-project/go-powersim/internal/clock"
	"github.com/filecoin-project/go-powersim/lottery"
	"github.com/filecoin-project/go-powersim/merkle"
	"go.opentelemetry.io/otel/metric"
)

// Worker simulates the attempts of entities. A Worker holds no mutable state
// and may be used from multiple goroutines at once.
type Worker struct {
	opts *options
}

// NewWorker instantiates a worker with the given options.
func NewWorker(o ...Option) (*Worker, error) {
	opts, err := newOptions(o...)
	if err != nil {
		return nil, err
	}
	return &Worker{opts: opts}, nil
}

// Attempt simulates a single attempt of the given entity. The attempt draws
// its duration, hash count and success from randomness derived from the round
// context alone, so the outcome does not depend on when or where it runs.
//
// With a non-zero time scale the attempt waits for its scaled duration. If ctx
// is done before then, or already done on entry, the attempt is abandoned and
// reported as OutcomeTimedOut with no hashes contributed.
//
// Attempt never produces an award; see Materialize.
func (w *Worker) Attempt(ctx context.Context, e lottery.Entity, rc RoundContext) RoundResult {
	rng := rand.New(rand.NewSource(lottery.DeriveSeed(rc.RunSeed, rc.Round, rc.Index, lottery.StreamAttempt)))
	elapsed := w.opts.latencyModel.Sample(rng)
	hashes := w.opts.hashModel(e, elapsed, rng)
	hit := rng.Float64() < w.opts.foundStrategy(e, elapsed)

	result := RoundResult{
		Round:   rc.Round,
		Entity:  e,
		Outcome: OutcomeMiss,
		Elapsed: elapsed,
	}
	if !w.wait(ctx, elapsed) {
		result.Outcome = OutcomeTimedOut
		return result
	}
	result.Hashes = hashes
	result.Hit = hit
	return result
}

// wait blocks for the scaled simulated duration and reports whether it ran to
// completion before ctx was done.
func (w *Worker) wait(ctx context.Context, elapsed time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if w.opts.timeScale == 0 {
		return true
	}
	timer := clock.GetClock(ctx).Timer(time.Duration(float64(elapsed) * w.opts.timeScale))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Materialize constructs the award won by the given entity in the round
// described by rc, after an attempt that took elapsed. The award carries an
// inclusion proof for one of its items, drawn at random.
func (w *Worker) Materialize(e lottery.Entity, rc RoundContext, elapsed time.Duration) *AwardRecord {
	seed := lottery.DeriveSeed(rc.RunSeed, rc.Round, rc.Index, lottery.StreamAward)
	rng := rand.New(rand.NewSource(seed))
	ids := NewIdentifierGenerator(uint64(seed))

	itemCount := defaultItemCountMin + rng.Intn(defaultItemCountSpread)
	items := make([][]byte, itemCount)
	for i := range items {
		items[i] = []byte(ids.Sample(IdentifierLength))
	}
	root, proofs := merkle.RootWithProofs(items)

	award := &AwardRecord{
		Sequence:        rc.Sequence,
		Round:           rc.Round,
		Winner:          e.ID,
		Payout:          w.opts.payout.Draw(rc.AwardsSoFar, rng),
		ProducedAt:      rc.StartedAt + max(1, int64(elapsed/time.Second)),
		Difficulty:      rc.Difficulty,
		IdentifierHash:  ids.SampleWithMarker(rc.Difficulty),
		PriorLinkHash:   rc.PriorLinkHash,
		IntegrityDigest: merkle.Hex(root),
		ItemCount:       itemCount,
		SizeBytes:       defaultSizeMin + rng.Intn(defaultSizeSpread),
		Nonce:           rng.Int63n(defaultMaxNonce),
	}
	sampled := rng.Intn(itemCount)
	award.Sample = ItemProof{Index: sampled, Item: items[sampled], Path: proofs[sampled]}
	return award
}

func recordAttempt(ctx context.Context, r RoundResult) {
	metrics.attempts.Add(ctx, 1, metric.WithAttributes(attrOutcome[r.Outcome]))
	if r.Outcome != OutcomeTimedOut {
		metrics.attemptElapsed.Record(ctx, r.Elapsed.Seconds())
	}
}
