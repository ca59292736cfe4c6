package powersim

import (
	"context"

	"github.com/filecoin-project/go-powersim/internal/measurements"
	"github.com/filecoin-project/go-powersim/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrKeyCheck   = "check"
	attrKeyResult  = "result"
	attrKeyVerdict = "verdict"
)

var (
	meter = otel.Meter("powersim")

	attrPassed = attribute.String(attrKeyResult, "passed")
	attrFailed = attribute.String(attrKeyResult, "failed")

	attrVerdictValid    = attribute.String(attrKeyVerdict, "valid")
	attrVerdictAdmitted = attribute.String(attrKeyVerdict, "admitted")
	attrVerdictRejected = attribute.String(attrKeyVerdict, "rejected")

	metrics = struct {
		checks   metric.Int64Counter
		verdicts metric.Int64Counter
		runs     metric.Int64Counter
	}{
		checks: measurements.Must(meter.Int64Counter("powersim_validation_checks",
			metric.WithDescription("Number of validation checks run labelled by check and result."))),
		verdicts: measurements.Must(meter.Int64Counter("powersim_validation_verdicts",
			metric.WithDescription("Number of validated awards labelled by verdict."))),
		runs: measurements.Must(meter.Int64Counter("powersim_runs",
			metric.WithDescription("Number of simulation runs labelled by status."))),
	}
)

func recordValidation(ctx context.Context, report validation.Report, accepted bool) {
	for _, check := range report.Checks {
		result := attrPassed
		if !check.Passed {
			result = attrFailed
		}
		metrics.checks.Add(ctx, 1, metric.WithAttributes(attribute.String(attrKeyCheck, check.Name), result))
	}
	verdict := attrVerdictValid
	switch {
	case !accepted:
		verdict = attrVerdictRejected
	case !report.AllPassed:
		verdict = attrVerdictAdmitted
	}
	metrics.verdicts.Add(ctx, 1, metric.WithAttributes(verdict))
}
