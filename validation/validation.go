// Package validation checks the structural integrity of award records against
// a fixed battery of named checks.
package validation

import (
	"regexp"
	"strings"

	"github.com/filecoin-project/go-powersim/sim"
	"go.uber.org/multierr"
	"golang.org/x/xerrors"
)

// Names of the checks, in the order they are run and reported.
const (
	CheckIdentifierFormat      = "identifier_format"
	CheckProofMarker           = "proof_marker"
	CheckSequencePositive      = "sequence_positive"
	CheckTimestampPositive     = "timestamp_positive"
	CheckNonceRange            = "nonce_range"
	CheckPriorLinkLength       = "prior_link_length"
	CheckPayoutPositive        = "payout_positive"
	CheckIntegrityDigestLength = "integrity_digest_length"
	CheckItemCountPositive     = "item_count_positive"
	CheckSizeCeiling           = "size_ceiling"
)

const maxNonce = 1<<32 - 1

var identifierPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Name   string
	Passed bool
}

// Report is the outcome of validating one award.
type Report struct {
	Checks    []CheckResult
	AllPassed bool
}

// Failed returns the names of the checks that did not pass, in order.
func (r Report) Failed() []string {
	var failed []string
	for _, c := range r.Checks {
		if !c.Passed {
			failed = append(failed, c.Name)
		}
	}
	return failed
}

// Err returns a *Failure describing the failed checks, or nil if all passed.
func (r Report) Err() error {
	if r.AllPassed {
		return nil
	}
	var err error
	for _, name := range r.Failed() {
		err = multierr.Append(err, xerrors.Errorf("check %s: %w", name, ErrCheckFailed))
	}
	return &Failure{Failed: r.Failed(), err: err}
}

type check struct {
	name string
	pass func(*sim.AwardRecord) bool
}

// Pipeline runs the fixed battery of checks. A Pipeline is immutable and safe
// for concurrent use.
type Pipeline struct {
	opts   *options
	checks []check
}

// New instantiates a validation pipeline.
func New(o ...Option) (*Pipeline, error) {
	opts, err := newOptions(o...)
	if err != nil {
		return nil, err
	}
	marker := strings.Repeat("0", opts.proofMarkerLength)
	return &Pipeline{
		opts: opts,
		checks: []check{
			{CheckIdentifierFormat, func(a *sim.AwardRecord) bool { return identifierPattern.MatchString(a.IdentifierHash) }},
			{CheckProofMarker, func(a *sim.AwardRecord) bool { return strings.HasPrefix(a.IdentifierHash, marker) }},
			{CheckSequencePositive, func(a *sim.AwardRecord) bool { return a.Sequence > 0 }},
			{CheckTimestampPositive, func(a *sim.AwardRecord) bool { return a.ProducedAt > 0 }},
			{CheckNonceRange, func(a *sim.AwardRecord) bool { return a.Nonce >= 0 && a.Nonce <= maxNonce }},
			{CheckPriorLinkLength, func(a *sim.AwardRecord) bool { return len(a.PriorLinkHash) == sim.IdentifierLength }},
			{CheckPayoutPositive, func(a *sim.AwardRecord) bool { return a.Payout > 0 }},
			{CheckIntegrityDigestLength, func(a *sim.AwardRecord) bool { return len(a.IntegrityDigest) == sim.IdentifierLength }},
			{CheckItemCountPositive, func(a *sim.AwardRecord) bool { return a.ItemCount > 0 }},
			{CheckSizeCeiling, func(a *sim.AwardRecord) bool { return a.SizeBytes < opts.sizeCeiling }},
		},
	}, nil
}

// Policy returns the configured policy for awards that fail validation.
func (p *Pipeline) Policy() Policy {
	return p.opts.policy
}

// Validate runs every check against the given award. It has no side effects:
// validating the same award twice yields identical reports. A nil award fails
// every check.
func (p *Pipeline) Validate(award *sim.AwardRecord) Report {
	report := Report{
		Checks:    make([]CheckResult, len(p.checks)),
		AllPassed: true,
	}
	for i, c := range p.checks {
		passed := award != nil && c.pass(award)
		report.Checks[i] = CheckResult{Name: c.name, Passed: passed}
		report.AllPassed = report.AllPassed && passed
	}
	return report
}

// Accepts reports whether an award with the given report is admitted to
// aggregation under the configured policy.
func (p *Pipeline) Accepts(report Report) bool {
	return report.AllPassed || p.opts.policy == Accept
}
