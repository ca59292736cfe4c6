package sim

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var errNegativePayout = errors.New("payout schedule amounts cannot be negative")

// PanicError signals that an attempt panicked. It is fatal to the run.
type PanicError struct {
	Cause      any
	stackTrace string
}

func newPanicError(cause any) *PanicError {
	return &PanicError{
		Cause:      cause,
		stackTrace: string(debug.Stack()),
	}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("attempt panicked: %v\n%v", e.Cause, e.stackTrace)
}
