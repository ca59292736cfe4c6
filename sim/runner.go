package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/filecoin-project/go-powersim/lottery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// Runner runs rounds of attempts over a population and elects at most one
// winner per round.
type Runner struct {
	opts   *options
	worker *Worker
}

// NewRunner instantiates a runner with the given options.
func NewRunner(o ...Option) (*Runner, error) {
	opts, err := newOptions(o...)
	if err != nil {
		return nil, err
	}
	return &Runner{opts: opts, worker: &Worker{opts: opts}}, nil
}

// chainState links consecutive awards of a run.
type chainState struct {
	sequence uint64
	awards   uint64
	link     string
	now      int64

	difficulty int
	// windowStart is the logical time at which the current retarget window
	// opened.
	windowStart int64
}

func (c *chainState) advance(award *AwardRecord) {
	c.sequence++
	c.awards++
	c.link = award.IdentifierHash
	c.now = award.ProducedAt
}

func (c *chainState) idle(d time.Duration) {
	c.now += max(1, int64(d/time.Second))
}

// retarget closes the current retarget window if the schedule is due and
// returns the difficulty in effect before it.
func (c *chainState) retarget(schedule DifficultySchedule) int {
	previous := c.difficulty
	if schedule.due(c.awards) {
		span := time.Duration(c.now-c.windowStart) * time.Second
		c.difficulty = schedule.Retarget(c.difficulty, span)
		c.windowStart = c.now
	}
	return previous
}

// RunRounds runs numRounds rounds over the given population and returns one
// result per entity per round, ordered by round and then by position of the
// entity in the population. The order does not depend on the concurrency mode
// nor on the order in which attempts complete.
//
// Every attempt and every winner draw uses randomness derived from the run
// seed and its own (round, entity) coordinates, so that for a given seed the
// results are identical in Parallel and Sequential mode.
//
// When ctx is done, attempts in flight and all attempts of later rounds are
// reported as OutcomeTimedOut; this is not an error. RunRounds fails if the
// population cannot be sampled from, see lottery.ErrInvalidWeight, in which
// case no round is run, or if an attempt panics.
func (r *Runner) RunRounds(ctx context.Context, entities []lottery.Entity, numRounds uint64) ([]RoundResult, error) {
	table, err := lottery.NewWeightTable(entities)
	if err != nil {
		return nil, xerrors.Errorf("validating population: %w", err)
	}
	chain := &chainState{
		sequence:    r.opts.startSequence,
		link:        r.opts.genesisLink,
		now:         r.opts.genesisTimestamp,
		difficulty:  r.opts.difficulty.Initial,
		windowStart: r.opts.genesisTimestamp,
	}
	log.Infow("Starting rounds", "rounds", numRounds, "entities", table.Len(), "mode", r.opts.mode, "seed", r.opts.seed)

	results := make([]RoundResult, 0, min(numRounds*uint64(table.Len()), 1<<20))
	for round := uint64(1); round <= numRounds; round++ {
		roundResults, err := r.runRound(ctx, table, chain, round)
		if err != nil {
			return nil, xerrors.Errorf("running round %d: %w", round, err)
		}
		results = append(results, roundResults...)
	}
	log.Infow("Finished rounds", "rounds", numRounds, "awards", chain.awards, "difficulty", chain.difficulty, "timedOut", ctx.Err() != nil)
	return results, nil
}

func (r *Runner) runRound(ctx context.Context, table *lottery.WeightTable, chain *chainState, round uint64) ([]RoundResult, error) {
	base := RoundContext{
		RunSeed:       r.opts.seed,
		Round:         round,
		Sequence:      chain.sequence,
		AwardsSoFar:   chain.awards,
		PriorLinkHash: chain.link,
		StartedAt:     chain.now,
		Difficulty:    chain.difficulty,
	}
	out := make([]RoundResult, table.Len())

	attempt := func(i int) (_err error) {
		defer func() {
			if p := recover(); p != nil {
				_err = xerrors.Errorf("attempt of entity %s: %w", table.Entity(i).ID, newPanicError(p))
			}
		}()
		rc := base
		rc.Index = i
		out[i] = r.worker.Attempt(ctx, table.Entity(i), rc)
		return nil
	}

	switch {
	case ctx.Err() != nil:
		// Past the deadline; do not bother sampling.
		for i := range out {
			out[i] = RoundResult{Round: round, Entity: table.Entity(i), Outcome: OutcomeTimedOut}
		}
	case r.opts.mode == Sequential:
		for i := range out {
			if err := attempt(i); err != nil {
				return nil, err
			}
		}
	default:
		var eg errgroup.Group
		eg.SetLimit(r.opts.maxParallelism)
		for i := range out {
			eg.Go(func() error { return attempt(i) })
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	// All attempts have joined; from here on the round is single threaded.
	var hits int
	var longest time.Duration
	for i := range out {
		if out[i].Hit {
			hits++
		}
		longest = max(longest, out[i].Elapsed)
	}
	if winner := r.elect(table, out, round); winner >= 0 {
		rc := base
		rc.Index = winner
		award := r.worker.Materialize(table.Entity(winner), rc, out[winner].Elapsed)
		out[winner].Outcome = OutcomeFound
		out[winner].Award = award
		chain.advance(award)
		if previous := chain.retarget(r.opts.difficulty); previous != chain.difficulty {
			metrics.retargets.Add(ctx, 1)
			log.Infow("Retargeted difficulty", "round", round, "awards", chain.awards, "from", previous, "to", chain.difficulty)
		}
		metrics.awards.Add(ctx, 1)
		log.Debugw("Round won", "round", round, "winner", award.Winner, "sequence", award.Sequence, "payout", award.Payout, "hits", hits)
	} else {
		chain.idle(longest)
		log.Debugw("Round produced no award", "round", round, "hits", hits)
	}

	for i := range out {
		recordAttempt(ctx, out[i])
	}
	metrics.rounds.Add(ctx, 1)
	metrics.hitsPerRound.Record(ctx, int64(hits))
	return out, nil
}

// elect returns the index of the round winner among the attempts that hit, or
// -1 if there is none.
func (r *Runner) elect(table *lottery.WeightTable, out []RoundResult, round uint64) int {
	switch r.opts.election {
	case TicketElection:
		tickets := make([][]byte, len(out))
		weights := make([]float64, len(out))
		for i := range out {
			tickets[i] = lottery.Ticket(r.opts.seed, round, i)
			if out[i].Hit {
				weights[i] = table.Entity(i).Weight
			}
		}
		return lottery.ElectByTicket(tickets, weights)
	default:
		candidates := make([]lottery.Entity, 0, len(out))
		for i := range out {
			if out[i].Hit {
				candidates = append(candidates, table.Entity(i))
			}
		}
		if len(candidates) == 0 {
			return -1
		}
		rng := rand.New(rand.NewSource(lottery.DeriveSeed(r.opts.seed, round, 0, lottery.StreamDraw)))
		var winner lottery.Entity
		if len(candidates) == table.Len() {
			winner = table.Select(rng)
		} else {
			var err error
			if winner, err = lottery.Select(candidates, rng); err != nil {
				// Only entities without weight hit; none of them can win.
				return -1
			}
		}
		i, _ := table.IndexOf(winner.ID)
		return i
	}
}
