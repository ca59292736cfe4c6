package ledger

import (
	"github.com/filecoin-project/go-powersim/internal/measurements"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("powersim/ledger")

	metrics = struct {
		credits  metric.Int64Counter
		credited metric.Int64Counter
	}{
		credits: measurements.Must(meter.Int64Counter("powersim_ledger_credits",
			metric.WithDescription("Number of credits labelled by status."))),
		credited: measurements.Must(meter.Int64Counter("powersim_ledger_credited_units",
			metric.WithDescription("Total amount credited in base units."),
			metric.WithUnit("{unit}"))),
	}
)
