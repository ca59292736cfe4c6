package sim

import (
	"encoding/hex"
	"time"

	"github.com/filecoin-project/go-powersim/lottery"
	"github.com/filecoin-project/go-powersim/merkle"
)

// Outcome classifies the result of one attempt.
type Outcome uint8

const (
	// OutcomeMiss means the attempt produced no award.
	OutcomeMiss Outcome = iota
	// OutcomeFound means the attempt won the round and carries an award.
	OutcomeFound
	// OutcomeTimedOut means the attempt was abandoned at the run deadline. It
	// is treated as a miss.
	OutcomeTimedOut
	// OutcomeRejected means the attempt won the round but its award was
	// excluded by validation policy.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMiss:
		return "miss"
	case OutcomeFound:
		return "found"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// AwardRecord is the award produced by the winner of a round. It is created
// once by Worker.Materialize and never modified afterwards.
type AwardRecord struct {
	// Sequence is the monotonically increasing position of this award among all
	// awards of a run, starting from the configured start sequence.
	Sequence uint64
	// Round is the round in which the award was produced.
	Round  uint64
	Winner lottery.EntityID
	Payout lottery.Amount
	// ProducedAt is the logical time of production in unix seconds.
	ProducedAt int64
	// Difficulty is the number of leading zeros of IdentifierHash.
	Difficulty int

	// Structural payload, only meaningful for validation.
	IdentifierHash  string
	PriorLinkHash   string
	IntegrityDigest string
	ItemCount       int
	SizeBytes       int
	Nonce           int64
	// Sample proves the inclusion of one item in IntegrityDigest.
	Sample ItemProof
}

// ItemProof is a merkle inclusion proof for one item of an award.
type ItemProof struct {
	// Index is the position of Item among the items of the award.
	Index int
	Item  []byte
	Path  []merkle.Step
}

// VerifySample reports whether the sampled item is included in the tree whose
// root is IntegrityDigest.
func (a *AwardRecord) VerifySample() bool {
	root, err := hex.DecodeString(a.IntegrityDigest)
	if err != nil || len(root) != merkle.DigestLength {
		return false
	}
	return merkle.Verify(merkle.Digest(root), a.Sample.Item, a.Sample.Path)
}

// RoundResult is the outcome of one entity's attempt in one round.
type RoundResult struct {
	Round   uint64
	Entity  lottery.Entity
	Outcome Outcome
	// Award is non-nil only if Outcome is OutcomeFound or OutcomeRejected.
	Award   *AwardRecord
	Hashes  uint64
	Elapsed time.Duration
	// Hit records whether the attempt itself succeeded. Several attempts may
	// hit in the same round; only the elected winner carries the award.
	Hit bool
}

// RoundContext carries what an attempt needs to know about the round it runs
// in. It is read-only for workers.
type RoundContext struct {
	RunSeed int64
	Round   uint64
	// Index is the position of the attempting entity in the population.
	Index int
	// Sequence is the sequence number the next award will carry.
	Sequence uint64
	// AwardsSoFar is the number of awards produced before this round.
	AwardsSoFar uint64
	// PriorLinkHash is the identifier of the previous award, or the genesis
	// link if no award has been produced yet.
	PriorLinkHash string
	// StartedAt is the logical time at which the round started, in unix
	// seconds.
	StartedAt int64
	// Difficulty is the number of leading zeros the identifier of an award
	// produced in this round carries.
	Difficulty int
}
