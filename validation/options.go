package validation

import (
	"errors"

	"github.com/filecoin-project/go-powersim/sim"
)

const (
	defaultProofMarkerLength = 5
	defaultSizeCeiling       = 4_000_000
)

// Policy determines what happens to awards that fail validation.
type Policy int

const (
	// Reject excludes failing awards from aggregation and the ledger.
	Reject Policy = iota
	// Accept admits failing awards; failures are still reported.
	Accept
)

func (p Policy) String() string {
	switch p {
	case Reject:
		return "reject"
	case Accept:
		return "accept"
	default:
		return "unknown"
	}
}

// ParsePolicy parses the string form of a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "reject":
		return Reject, nil
	case "accept":
		return Accept, nil
	default:
		return 0, errors.New("unknown validation policy: " + s)
	}
}

type Option func(*options) error

type options struct {
	policy            Policy
	proofMarkerLength int
	sizeCeiling       int
}

func newOptions(o ...Option) (*options, error) {
	opts := options{
		policy:            Reject,
		proofMarkerLength: defaultProofMarkerLength,
		sizeCeiling:       defaultSizeCeiling,
	}
	for _, apply := range o {
		if err := apply(&opts); err != nil {
			return nil, err
		}
	}
	return &opts, nil
}

func WithPolicy(p Policy) Option {
	return func(o *options) error {
		switch p {
		case Reject, Accept:
			o.policy = p
			return nil
		default:
			return errors.New("unknown validation policy")
		}
	}
}

// WithProofMarkerLength sets the number of leading zeros an identifier must
// carry. Defaults to 5.
func WithProofMarkerLength(n int) Option {
	return func(o *options) error {
		if n < 0 || n > sim.IdentifierLength {
			return errors.New("proof marker length out of range")
		}
		o.proofMarkerLength = n
		return nil
	}
}

// WithSizeCeiling sets the exclusive upper bound of award sizes in bytes.
// Defaults to 4,000,000.
func WithSizeCeiling(bytes int) Option {
	return func(o *options) error {
		if bytes <= 0 {
			return errors.New("size ceiling must be positive")
		}
		o.sizeCeiling = bytes
		return nil
	}
}
