// Package aggregate folds round results into running per-entity and global
// statistics.
package aggregate

import (
	"errors"
	"slices"
	"sort"

	"github.com/filecoin-project/go-powersim/big"
	"github.com/filecoin-project/go-powersim/lottery"
	"github.com/filecoin-project/go-powersim/sim"
	"golang.org/x/xerrors"
)

// ErrInvariantViolated signals that global totals disagree with the sum of
// per-entity counters. It indicates a bug and is never recoverable.
var ErrInvariantViolated = errors.New("aggregate invariant violated")

// EntityStats are the counters accumulated for one entity.
type EntityStats struct {
	ID                lottery.EntityID
	Kind              lottery.Kind
	Attempts          uint64
	AwardsWon         uint64
	PayoutEarned      lottery.Amount
	HashesContributed *big.Int
	TimedOut          uint64
	Rejected          uint64
}

func (s *EntityStats) copy() EntityStats {
	c := *s
	c.HashesContributed = s.HashesContributed.Copy()
	return c
}

// KindStats are the counters of all entities of one kind.
type KindStats struct {
	Kind              lottery.Kind
	Entities          int
	AwardsWon         uint64
	PayoutEarned      lottery.Amount
	HashesContributed *big.Int
}

// GlobalStats are the running totals of a run.
type GlobalStats struct {
	TotalRounds   uint64
	TotalAttempts uint64
	TotalAwards   uint64
	TotalHashes   *big.Int
	TotalPayout   lottery.Amount
	TimedOut      uint64
	Rejected      uint64
	// Entities maps every known entity to its counters.
	Entities map[lottery.EntityID]EntityStats
	// Order lists the entities registered via New in registration order,
	// followed by entities first seen in results, sorted by ID.
	Order []lottery.EntityID
	// Kinds maps every known kind to the counters of its entities.
	Kinds map[lottery.Kind]KindStats
}

// Aggregator accumulates statistics from round results.
//
// Apply is commutative and associative: applying any permutation of the same
// multiset of results yields the same statistics. Payouts are integer amounts
// and hash counts arbitrary precision integers, so no rounding depends on
// order.
//
// Aggregator is not safe for concurrent use; it expects a single writer.
type Aggregator struct {
	rounds   map[uint64]struct{}
	entities map[lottery.EntityID]*EntityStats
	order    []lottery.EntityID
	// late holds entities first seen in results rather than registered via
	// New. They are ordered by ID so that apply order does not leak into
	// snapshots or rankings.
	late map[lottery.EntityID]struct{}

	attempts uint64
	awards   uint64
	hashes   *big.Int
	payout   lottery.Amount
	timedOut uint64
	rejected uint64
}

// New instantiates an aggregator with the given entities registered in order.
// The registration order breaks ranking ties, see TopEntities.
func New(entities []lottery.Entity) *Aggregator {
	a := &Aggregator{
		rounds:   make(map[uint64]struct{}),
		entities: make(map[lottery.EntityID]*EntityStats, len(entities)),
		late:     make(map[lottery.EntityID]struct{}),
		hashes:   big.Zero(),
	}
	for _, e := range entities {
		if _, found := a.entities[e.ID]; found {
			continue
		}
		a.entities[e.ID] = newEntityStats(e.ID, e.Kind)
		a.order = append(a.order, e.ID)
	}
	return a
}

func newEntityStats(id lottery.EntityID, kind lottery.Kind) *EntityStats {
	return &EntityStats{ID: id, Kind: kind, HashesContributed: big.Zero()}
}

// register returns the counters of id, creating them on first sight.
func (a *Aggregator) register(id lottery.EntityID, kind lottery.Kind) *EntityStats {
	if s, found := a.entities[id]; found {
		return s
	}
	s := newEntityStats(id, kind)
	a.entities[id] = s
	a.late[id] = struct{}{}
	return s
}

// ordered lists registered entities in New order followed by late entities
// sorted by ID.
func (a *Aggregator) ordered() []lottery.EntityID {
	late := make([]lottery.EntityID, 0, len(a.late))
	for id := range a.late {
		late = append(late, id)
	}
	slices.Sort(late)
	return append(slices.Clip(a.order), late...)
}

// Apply folds one round result into the statistics. Results of entities not
// registered via New are registered on first sight.
func (a *Aggregator) Apply(r sim.RoundResult) {
	s := a.register(r.Entity.ID, r.Entity.Kind)
	a.rounds[r.Round] = struct{}{}

	a.attempts++
	s.Attempts++
	a.hashes.AddUint64(r.Hashes)
	s.HashesContributed.AddUint64(r.Hashes)

	switch r.Outcome {
	case sim.OutcomeFound:
		if r.Award == nil {
			break
		}
		a.awards++
		s.AwardsWon++
		a.payout += r.Award.Payout
		s.PayoutEarned += r.Award.Payout
	case sim.OutcomeTimedOut:
		a.timedOut++
		s.TimedOut++
	case sim.OutcomeRejected:
		a.rejected++
		s.Rejected++
	}
}

// Merge folds the statistics of other into a. Entities unknown to a are
// registered as if first seen in results.
func (a *Aggregator) Merge(other *Aggregator) {
	for round := range other.rounds {
		a.rounds[round] = struct{}{}
	}
	for _, id := range other.ordered() {
		o := other.entities[id]
		s := a.register(id, o.Kind)
		s.Attempts += o.Attempts
		s.AwardsWon += o.AwardsWon
		s.PayoutEarned += o.PayoutEarned
		s.HashesContributed.AddAssign(o.HashesContributed)
		s.TimedOut += o.TimedOut
		s.Rejected += o.Rejected
	}
	a.attempts += other.attempts
	a.awards += other.awards
	a.hashes.AddAssign(other.hashes)
	a.payout += other.payout
	a.timedOut += other.timedOut
	a.rejected += other.rejected
}

// Snapshot returns a deep copy of the current statistics.
func (a *Aggregator) Snapshot() GlobalStats {
	gs := GlobalStats{
		TotalRounds:   uint64(len(a.rounds)),
		TotalAttempts: a.attempts,
		TotalAwards:   a.awards,
		TotalHashes:   a.hashes.Copy(),
		TotalPayout:   a.payout,
		TimedOut:      a.timedOut,
		Rejected:      a.rejected,
		Entities:      make(map[lottery.EntityID]EntityStats, len(a.entities)),
		Order:         a.ordered(),
		Kinds:         make(map[lottery.Kind]KindStats),
	}
	for _, id := range gs.Order {
		s := a.entities[id]
		gs.Entities[id] = s.copy()

		ks, found := gs.Kinds[s.Kind]
		if !found {
			ks = KindStats{Kind: s.Kind, HashesContributed: big.Zero()}
		}
		ks.Entities++
		ks.AwardsWon += s.AwardsWon
		ks.PayoutEarned += s.PayoutEarned
		ks.HashesContributed.AddAssign(s.HashesContributed)
		gs.Kinds[s.Kind] = ks
	}
	return gs
}

// TopEntities returns the k entities with the most awards, ties broken by
// highest payout and then by the position in GlobalStats.Order. Fewer than k
// entities are returned if fewer are known.
func (a *Aggregator) TopEntities(k int) []EntityStats {
	if k <= 0 {
		return nil
	}
	order := a.ordered()
	ranked := make([]EntityStats, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, a.entities[id].copy())
	}
	// Stable sort keeps Order among exact ties.
	sort.SliceStable(ranked, func(i, j int) bool {
		one, other := ranked[i], ranked[j]
		if one.AwardsWon != other.AwardsWon {
			return one.AwardsWon > other.AwardsWon
		}
		return one.PayoutEarned > other.PayoutEarned
	})
	return ranked[:min(k, len(ranked))]
}

// CheckInvariants verifies that global totals equal the sums of per-entity
// counters. A violation is reported as ErrInvariantViolated.
func (a *Aggregator) CheckInvariants() error {
	var awards, attempts uint64
	var payout lottery.Amount
	hashes := big.Zero()
	for _, s := range a.entities {
		awards += s.AwardsWon
		attempts += s.Attempts
		payout += s.PayoutEarned
		hashes.AddAssign(s.HashesContributed)
	}
	switch {
	case awards != a.awards:
		return xerrors.Errorf("total awards %d != sum of entity awards %d: %w", a.awards, awards, ErrInvariantViolated)
	case payout != a.payout:
		return xerrors.Errorf("total payout %s != sum of entity payouts %s: %w", a.payout, payout, ErrInvariantViolated)
	case attempts != a.attempts:
		return xerrors.Errorf("total attempts %d != sum of entity attempts %d: %w", a.attempts, attempts, ErrInvariantViolated)
	case !hashes.Equals(a.hashes):
		return xerrors.Errorf("total hashes %s != sum of entity hashes %s: %w", a.hashes, hashes, ErrInvariantViolated)
	}
	return nil
}
