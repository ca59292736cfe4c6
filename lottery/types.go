package lottery

import (
	"fmt"
)

// UnitsPerCoin is the number of base units in one whole coin.
const UnitsPerCoin = 100_000_000

// EntityID uniquely identifies an entity within a population.
type EntityID string

// Kind is a free-form category label, e.g. the device class of a worker.
type Kind string

// Entity is a participant in the lottery. Its chance of winning an award is
// proportional to its Weight relative to the total weight of the population.
type Entity struct {
	ID     EntityID
	Weight float64
	Kind   Kind
}

func (e Entity) String() string {
	return fmt.Sprintf("%s(%s, weight=%g)", e.ID, e.Kind, e.Weight)
}

// Amount is a quantity of payout expressed in base units. Integer units keep
// sums exact, so totals never depend on the order in which they were added.
type Amount int64

// AmountFromCoins converts a fractional coin value to base units, rounding to
// the nearest unit.
func AmountFromCoins(coins float64) Amount {
	if coins < 0 {
		return -AmountFromCoins(-coins)
	}
	return Amount(coins*UnitsPerCoin + 0.5)
}

// Coins returns the amount as a fractional coin value.
func (a Amount) Coins() float64 {
	return float64(a) / UnitsPerCoin
}

func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%08d", sign, v/UnitsPerCoin, v%UnitsPerCoin)
}
