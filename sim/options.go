package sim

import (
	"errors"
	"runtime"
	"time"

	"github.com/filecoin-project/go-powersim/sim/latency"
)

const (
	defaultDifficulty       = 5
	defaultStartSequence    = 1
	defaultGenesisTimestamp = 1_700_000_000
	defaultGenesisSeed      = 0x264803e715714f95 // Seed from Drand.
	defaultItemCountMin     = 100
	defaultItemCountSpread  = 50
	defaultSizeMin          = 500_000
	defaultSizeSpread       = 500_000
	defaultMaxNonce         = 4_000_000_000
)

var (
	defaultLatencyModel  latency.Model
	defaultHashModel     = WeightScaledHashes(1e9)
	defaultFoundStrategy = FixedProbability(1)
)

func init() {
	var err error
	defaultLatencyModel, err = latency.NewUniform(5*time.Second, 15*time.Second)
	if err != nil {
		panic("failed to instantiate default attempt latency model")
	}
}

// Mode determines how the attempts of one round are executed.
type Mode int

const (
	// Parallel runs the attempts of a round concurrently, bounded by the
	// configured max parallelism.
	Parallel Mode = iota
	// Sequential runs the attempts of a round one after another in population
	// order.
	Sequential
)

func (m Mode) String() string {
	switch m {
	case Parallel:
		return "parallel"
	case Sequential:
		return "sequential"
	default:
		return "unknown"
	}
}

// Election determines how the winner of a round is chosen among the attempts
// that hit.
type Election int

const (
	// WeightedElection draws the winner with lottery.Select over the entities
	// whose attempts hit.
	WeightedElection Election = iota
	// TicketElection elects the entity with the lowest weighted ticket rank
	// among those whose attempts hit.
	TicketElection
)

type Option func(*options) error

type options struct {
	seed           int64
	mode           Mode
	maxParallelism int
	election       Election

	latencyModel  latency.Model
	hashModel     HashModel
	foundStrategy FoundStrategy
	payout        PayoutSchedule
	// timeScale is the wall clock time waited per unit of simulated attempt
	// time. Zero means attempts complete instantly.
	timeScale float64

	difficulty       DifficultySchedule
	startSequence    uint64
	genesisTimestamp int64
	genesisLink      string
}

func newOptions(o ...Option) (*options, error) {
	opts := options{
		maxParallelism: runtime.GOMAXPROCS(0),
		payout:         DefaultPayoutSchedule,
		difficulty:     DefaultDifficultySchedule,
		startSequence:  defaultStartSequence,
	}
	for _, apply := range o {
		if err := apply(&opts); err != nil {
			return nil, err
		}
	}
	if opts.latencyModel == nil {
		opts.latencyModel = defaultLatencyModel
	}
	if opts.hashModel == nil {
		opts.hashModel = defaultHashModel
	}
	if opts.foundStrategy == nil {
		opts.foundStrategy = defaultFoundStrategy
	}
	if err := opts.difficulty.validate(); err != nil {
		return nil, err
	}
	if opts.genesisTimestamp == 0 {
		opts.genesisTimestamp = defaultGenesisTimestamp
	}
	if opts.genesisLink == "" {
		opts.genesisLink = NewIdentifierGenerator(defaultGenesisSeed).Sample(IdentifierLength)
	}
	return &opts, nil
}

// WithSeed sets the seed of the run. Every attempt and every winner draw
// derives its own randomness from it, see lottery.DeriveSeed.
func WithSeed(seed int64) Option {
	return func(o *options) error {
		o.seed = seed
		return nil
	}
}

func WithMode(m Mode) Option {
	return func(o *options) error {
		switch m {
		case Parallel, Sequential:
			o.mode = m
			return nil
		default:
			return errors.New("unknown concurrency mode")
		}
	}
}

// WithMaxParallelism bounds the number of attempts running at once in
// Parallel mode. Defaults to GOMAXPROCS.
func WithMaxParallelism(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return errors.New("max parallelism must be at least 1")
		}
		o.maxParallelism = n
		return nil
	}
}

func WithElection(e Election) Option {
	return func(o *options) error {
		switch e {
		case WeightedElection, TicketElection:
			o.election = e
			return nil
		default:
			return errors.New("unknown election")
		}
	}
}

// WithLatencyModel sets the model of how long attempts take. Defaults to
// uniform over [5s, 15s).
func WithLatencyModel(lm latency.Model) Option {
	return func(o *options) error {
		o.latencyModel = lm
		return nil
	}
}

// WithHashModel sets how many hashes an attempt computes. Defaults to
// WeightScaledHashes(1e9).
func WithHashModel(hm HashModel) Option {
	return func(o *options) error {
		o.hashModel = hm
		return nil
	}
}

// WithFoundStrategy sets the per-attempt success probability. Defaults to
// FixedProbability(1), i.e. every round produces an award and the winner is
// drawn purely by weight.
func WithFoundStrategy(fs FoundStrategy) Option {
	return func(o *options) error {
		o.foundStrategy = fs
		return nil
	}
}

func WithPayoutSchedule(p PayoutSchedule) Option {
	return func(o *options) error {
		if err := p.validate(); err != nil {
			return err
		}
		o.payout = p
		return nil
	}
}

// WithTimeScale sets the wall clock time waited per unit of simulated attempt
// time, e.g. 0.001 waits one millisecond per simulated second.
func WithTimeScale(scale float64) Option {
	return func(o *options) error {
		if scale < 0 {
			return errors.New("time scale cannot be negative")
		}
		o.timeScale = scale
		return nil
	}
}

// WithDifficulty sets the number of leading zeros of award identifiers at the
// start of a run. It must lie within the bounds of the difficulty schedule.
func WithDifficulty(zeros int) Option {
	return func(o *options) error {
		if zeros < 0 || zeros > IdentifierLength {
			return errors.New("difficulty out of range")
		}
		o.difficulty.Initial = zeros
		return nil
	}
}

// WithDifficultySchedule sets how the difficulty evolves over a run. Defaults
// to DefaultDifficultySchedule, which never retargets.
func WithDifficultySchedule(d DifficultySchedule) Option {
	return func(o *options) error {
		if err := d.validate(); err != nil {
			return err
		}
		o.difficulty = d
		return nil
	}
}

func WithStartSequence(seq uint64) Option {
	return func(o *options) error {
		o.startSequence = seq
		return nil
	}
}

// WithGenesisTimestamp sets the logical time, in unix seconds, at which the
// first round starts.
func WithGenesisTimestamp(ts int64) Option {
	return func(o *options) error {
		o.genesisTimestamp = ts
		return nil
	}
}

// WithGenesisLink sets the prior link hash of the first award.
func WithGenesisLink(link string) Option {
	return func(o *options) error {
		o.genesisLink = link
		return nil
	}
}
