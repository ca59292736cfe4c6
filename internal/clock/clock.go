// Package clock lets simulated attempts wait on either the wall clock or a
// mock clock carried in the context.
package clock

import (
	"context"

	"github.com/benbjohnson/clock"
)

type Clock = clock.Clock
type Mock = clock.Mock

type clockKeyType struct{}

var clockKey = clockKeyType{}

// WithMockClock embeds a mock clock in the context and returns it.
func WithMockClock(ctx context.Context) (context.Context, *Mock) {
	clk := clock.NewMock()
	return context.WithValue(ctx, clockKey, Clock(clk)), clk
}

var realClock = clock.New()

// GetClock either retrieves a clock from the context or returns a realtime clock.
func GetClock(ctx context.Context) Clock {
	clk := ctx.Value(clockKey)
	if clk == nil {
		return realClock
	}
	return clk.(Clock)
}
