// Package powersim runs weighted lottery simulations: a population of entities
// attempts to win an award every round with a chance proportional to its
// weight, awards are validated, and payouts are credited to a ledger while
// statistics are aggregated.
package powersim

import (
	"context"
	"slices"

	"github.com/filecoin-project/go-powersim/aggregate"
	"github.com/filecoin-project/go-powersim/internal/measurements"
	"github.com/filecoin-project/go-powersim/ledger"
	"github.com/filecoin-project/go-powersim/lottery"
	"github.com/filecoin-project/go-powersim/sim"
	"github.com/filecoin-project/go-powersim/validation"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/xerrors"
)

// ValidatedAward pairs an award with the outcome of its validation.
type ValidatedAward struct {
	Award      *sim.AwardRecord
	Validation validation.Report
	// Accepted is whether the award was aggregated and credited, which
	// depends on the validation outcome and policy.
	Accepted bool
	// SampleVerified is whether the item inclusion proof carried by the award
	// checks out against its integrity digest.
	SampleVerified bool
}

// Report is the outcome of a run.
type Report struct {
	Stats aggregate.GlobalStats
	// Awards lists every award produced, in the order they were produced.
	Awards   []ValidatedAward
	Balances map[lottery.EntityID]lottery.Amount
	// Top lists the highest ranked entities, see aggregate.Aggregator.TopEntities.
	Top []aggregate.EntityStats
	// Results lists the result of every attempt ordered by round and then by
	// position of the entity in the population. Rejected awards are reported
	// as sim.OutcomeRejected.
	Results []sim.RoundResult
	// Journal lists every ledger credit in the order it was made.
	Journal []ledger.Entry
}

// Simulation runs rounds over a fixed population.
type Simulation struct {
	opts      *options
	entities  []lottery.Entity
	runner    *sim.Runner
	validator *validation.Pipeline
}

// NewSimulation instantiates a simulation over the given entities. It fails
// with lottery.ErrInvalidWeight or lottery.ErrDuplicateEntity if the
// population cannot be sampled from.
func NewSimulation(entities []lottery.Entity, o ...Option) (*Simulation, error) {
	opts, err := newOptions(o...)
	if err != nil {
		return nil, err
	}
	if _, err := lottery.NewWeightTable(entities); err != nil {
		return nil, xerrors.Errorf("validating population: %w", err)
	}
	runner, err := sim.NewRunner(opts.simOptions...)
	if err != nil {
		return nil, xerrors.Errorf("instantiating runner: %w", err)
	}
	validator, err := validation.New(opts.validationOptions...)
	if err != nil {
		return nil, xerrors.Errorf("instantiating validation: %w", err)
	}
	// Every run gets its own ledger; fail early on invalid ledger options.
	if _, err := ledger.New(opts.ledgerOptions...); err != nil {
		return nil, xerrors.Errorf("instantiating ledger: %w", err)
	}
	return &Simulation{
		opts:      opts,
		entities:  slices.Clone(entities),
		runner:    runner,
		validator: validator,
	}, nil
}

// Run runs the given number of rounds and reports the outcome. Each call starts
// from empty statistics and an empty ledger.
//
// When ctx is done before all rounds complete, the attempts that did not
// complete are reported as sim.OutcomeTimedOut and the run still succeeds with
// the awards produced so far. Run fails only on errors that indicate a bug, such
// as a ledger or aggregate invariant violation, or a panicking attempt.
func (s *Simulation) Run(ctx context.Context, rounds uint64) (_ *Report, _err error) {
	defer func() {
		metrics.runs.Add(ctx, 1, metric.WithAttributes(measurements.Status(ctx, _err)))
	}()

	results, err := s.runner.RunRounds(ctx, s.entities, rounds)
	if err != nil {
		return nil, xerrors.Errorf("running rounds: %w", err)
	}

	// Completed attempts are accounted for even past the deadline.
	applyCtx := context.WithoutCancel(ctx)

	book, err := ledger.New(s.opts.ledgerOptions...)
	if err != nil {
		return nil, xerrors.Errorf("instantiating ledger: %w", err)
	}
	stats := s.opts.newTally(s.entities)

	var awards []ValidatedAward
	for i := range results {
		result := &results[i]
		if result.Award != nil {
			report := s.validator.Validate(result.Award)
			accepted := s.validator.Accepts(report)
			recordValidation(applyCtx, report, accepted)
			if !accepted {
				result.Outcome = sim.OutcomeRejected
				log.Warnw("Rejected award", "round", result.Round, "entity", result.Entity.ID, "err", report.Err())
			} else if !report.AllPassed {
				log.Debugw("Admitted invalid award", "round", result.Round, "entity", result.Entity.ID, "err", report.Err())
			}
			verified := result.Award.VerifySample()
			if !verified {
				log.Warnw("Award item proof does not verify", "round", result.Round, "entity", result.Entity.ID, "item", result.Award.Sample.Index)
			}
			awards = append(awards, ValidatedAward{
				Award:          result.Award,
				Validation:     report,
				Accepted:       accepted,
				SampleVerified: verified,
			})
		}

		stats.Apply(*result)
		if result.Outcome != sim.OutcomeFound || result.Award == nil {
			continue
		}
		if err := book.Credit(applyCtx, result.Award.Winner, result.Award.Payout); err != nil {
			return nil, xerrors.Errorf("crediting award of round %d to %s: %w", result.Round, result.Entity.ID, err)
		}
	}

	snapshot, err := reconcile(stats, book)
	if err != nil {
		return nil, err
	}
	journal, err := book.Entries(applyCtx)
	if err != nil {
		return nil, xerrors.Errorf("reading ledger journal: %w", err)
	}

	log.Infow("Completed run", "rounds", snapshot.TotalRounds, "awards", snapshot.TotalAwards,
		"rejected", snapshot.Rejected, "timedOut", snapshot.TimedOut, "payout", snapshot.TotalPayout)
	return &Report{
		Stats:    snapshot,
		Awards:   awards,
		Balances: book.Balances(),
		Top:      stats.TopEntities(s.opts.topK),
		Results:  results,
		Journal:  journal,
	}, nil
}

// tally accumulates the statistics of a run.
type tally interface {
	Apply(sim.RoundResult)
	CheckInvariants() error
	Snapshot() aggregate.GlobalStats
	TopEntities(k int) []aggregate.EntityStats
}

func newAggregateTally(entities []lottery.Entity) tally { return aggregate.New(entities) }

// reconcile checks the statistics of a completed run against themselves and
// against the ledger, returning the final snapshot.
func reconcile(stats tally, book *ledger.Ledger) (aggregate.GlobalStats, error) {
	if err := stats.CheckInvariants(); err != nil {
		return aggregate.GlobalStats{}, xerrors.Errorf("checking statistics: %w", err)
	}
	snapshot := stats.Snapshot()
	if snapshot.TotalPayout != book.TotalCredited() {
		return aggregate.GlobalStats{}, xerrors.Errorf("aggregated payout %s != credited %s: %w",
			snapshot.TotalPayout, book.TotalCredited(), ledger.ErrInvariantViolated)
	}
	return snapshot, nil
}
