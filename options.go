package powersim

import (
	"errors"

	"github.com/filecoin-project/go-powersim/ledger"
	"github.com/filecoin-project/go-powersim/lottery"
	"github.com/filecoin-project/go-powersim/sim"
	"github.com/filecoin-project/go-powersim/validation"
)

const defaultTopK = 5

type Option func(*options) error

type options struct {
	simOptions        []sim.Option
	validationOptions []validation.Option
	ledgerOptions     []ledger.Option
	topK              int
	newTally          func([]lottery.Entity) tally
}

func newOptions(o ...Option) (*options, error) {
	opts := &options{
		topK:     defaultTopK,
		newTally: newAggregateTally,
	}
	for _, apply := range o {
		if err := apply(opts); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

// WithSimOptions configures how rounds are run, e.g. the seed, the
// concurrency mode and the found strategy. See the sim package options.
func WithSimOptions(o ...sim.Option) Option {
	return func(opts *options) error {
		opts.simOptions = append(opts.simOptions, o...)
		return nil
	}
}

// WithValidationOptions configures how awards are validated, e.g. the policy
// applied to awards that fail validation.
func WithValidationOptions(o ...validation.Option) Option {
	return func(opts *options) error {
		opts.validationOptions = append(opts.validationOptions, o...)
		return nil
	}
}

// WithLedgerOptions configures the ledger every run credits awards to.
func WithLedgerOptions(o ...ledger.Option) Option {
	return func(opts *options) error {
		opts.ledgerOptions = append(opts.ledgerOptions, o...)
		return nil
	}
}

// WithTopK sets the number of entities ranked in Report.Top. Defaults to 5.
func WithTopK(k int) Option {
	return func(opts *options) error {
		if k < 0 {
			return errors.New("top k cannot be negative")
		}
		opts.topK = k
		return nil
	}
}
