package sim

import (
	"github.com/filecoin-project/go-powersim/internal/measurements"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const attrKeyOutcome = "outcome"

var (
	meter = otel.Meter("powersim/sim")

	attrOutcome = map[Outcome]attribute.KeyValue{
		OutcomeMiss:     attribute.String(attrKeyOutcome, OutcomeMiss.String()),
		OutcomeFound:    attribute.String(attrKeyOutcome, OutcomeFound.String()),
		OutcomeTimedOut: attribute.String(attrKeyOutcome, OutcomeTimedOut.String()),
		OutcomeRejected: attribute.String(attrKeyOutcome, OutcomeRejected.String()),
	}

	metrics = struct {
		attempts       metric.Int64Counter
		rounds         metric.Int64Counter
		awards         metric.Int64Counter
		retargets      metric.Int64Counter
		attemptElapsed metric.Float64Histogram
		hitsPerRound   metric.Int64Histogram
	}{
		attempts: measurements.Must(meter.Int64Counter("powersim_attempts",
			metric.WithDescription("Number of attempts labelled by outcome."))),
		rounds: measurements.Must(meter.Int64Counter("powersim_rounds",
			metric.WithDescription("Number of rounds run."))),
		awards: measurements.Must(meter.Int64Counter("powersim_awards",
			metric.WithDescription("Number of awards materialized."))),
		retargets: measurements.Must(meter.Int64Counter("powersim_difficulty_retargets",
			metric.WithDescription("Number of times the difficulty changed."))),
		attemptElapsed: measurements.Must(meter.Float64Histogram("powersim_attempt_elapsed_seconds",
			metric.WithDescription("Simulated duration of attempts."),
			metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 15, 20, 30, 60, 120, 300, 600),
			metric.WithUnit("s"))),
		hitsPerRound: measurements.Must(meter.Int64Histogram("powersim_hits_per_round",
			metric.WithDescription("Number of attempts that hit per round."),
			metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 5, 10, 20, 50, 100, 1000))),
	}
)
