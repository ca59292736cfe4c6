package sim

import (
	"math/rand"

	"github.com/filecoin-project/go-powersim/lottery"
)

// PayoutSchedule determines the payout of an award: a base award, halved
// every HalvingInterval awards, plus a fee drawn uniformly from
// [FeeMin, FeeMax).
type PayoutSchedule struct {
	BaseAward lottery.Amount
	// HalvingInterval is the number of awards after which the base award
	// halves. Zero disables halving.
	HalvingInterval uint64
	FeeMin          lottery.Amount
	FeeMax          lottery.Amount
}

// DefaultPayoutSchedule pays 0.001 plus a fee in [0.0001, 0.0003).
var DefaultPayoutSchedule = PayoutSchedule{
	BaseAward: 100_000,
	FeeMin:    10_000,
	FeeMax:    30_000,
}

// BaseAt returns the base award after the given number of prior awards.
func (p PayoutSchedule) BaseAt(awardsSoFar uint64) lottery.Amount {
	if p.HalvingInterval == 0 {
		return p.BaseAward
	}
	halvings := awardsSoFar / p.HalvingInterval
	if halvings >= 63 {
		return 0
	}
	return p.BaseAward >> halvings
}

// Draw returns the total payout of the award following awardsSoFar awards.
func (p PayoutSchedule) Draw(awardsSoFar uint64, rng *rand.Rand) lottery.Amount {
	fee := p.FeeMin
	if p.FeeMax > p.FeeMin {
		fee += lottery.Amount(rng.Int63n(int64(p.FeeMax - p.FeeMin)))
	}
	return p.BaseAt(awardsSoFar) + fee
}

func (p PayoutSchedule) validate() error {
	switch {
	case p.BaseAward < 0:
		return errNegativePayout
	case p.FeeMin < 0, p.FeeMax < 0:
		return errNegativePayout
	}
	return nil
}
