package lottery

import "errors"

var (
	// ErrInvalidWeight signals that a population cannot be sampled from: it is
	// empty, contains a negative or non-finite weight, or has no positive weight.
	ErrInvalidWeight = errors.New("invalid weight")
	// ErrDuplicateEntity signals that an entity ID appears more than once in a
	// population.
	ErrDuplicateEntity = errors.New("duplicate entity")
)
