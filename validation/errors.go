package validation

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ErrCheckFailed is wrapped by the error of every failed check.
var ErrCheckFailed = errors.New("validation check failed")

var _ error = (*Failure)(nil)

// Failure reports the checks an award failed. It is never fatal: depending on
// Policy the award is either rejected or accepted regardless.
type Failure struct {
	Failed []string
	err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("award failed %d validation check(s): %s", len(f.Failed), strings.Join(f.Failed, ", "))
}

// Unwrap returns the errors of the individual failed checks.
func (f *Failure) Unwrap() []error {
	return multierr.Errors(f.err)
}
