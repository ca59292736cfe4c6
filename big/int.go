// Package big provides an arbitrary precision integer for counters that can
// outgrow 64 bits, such as the number of hashes computed over a long run.
package big

import (
	"fmt"
	"math/big"
)

// Int is an arbitrary precision integer. The zero value is 0 and ready to use.
type Int big.Int

func NewInt(i int64) *Int {
	return (*Int)(big.NewInt(i))
}

func Zero() *Int {
	return new(Int)
}

func (bi *Int) int() *big.Int {
	return (*big.Int)(bi)
}

func (bi *Int) Copy() *Int {
	return (*Int)(new(big.Int).Set(bi.int()))
}

// Sum returns a new Int holding the sum of values.
func Sum(values ...*Int) *Int {
	sum := Zero()
	for _, v := range values {
		sum.AddAssign(v)
	}
	return sum
}

// AddAssign adds o to bi in place.
func (bi *Int) AddAssign(o *Int) {
	bi.int().Add(bi.int(), o.int())
}

// AddUint64 adds u to bi in place and returns bi.
func (bi *Int) AddUint64(u uint64) *Int {
	var v big.Int
	bi.int().Add(bi.int(), v.SetUint64(u))
	return bi
}

func (bi *Int) Cmp(o *Int) int {
	return bi.int().Cmp(o.int())
}

// Equals returns true if bi == o
func (bi *Int) Equals(o *Int) bool {
	return bi.Cmp(o) == 0
}

func (bi *Int) Sign() int {
	return bi.int().Sign()
}

// Float64 returns the nearest float64 value of bi.
func (bi *Int) Float64() float64 {
	f, _ := new(big.Float).SetInt(bi.int()).Float64()
	return f
}

// Ratio returns part/whole as a float64, or zero if whole is zero.
func Ratio(part, whole *Int) float64 {
	if whole.Sign() == 0 {
		return 0
	}
	r, _ := new(big.Rat).SetFrac(part.int(), whole.int()).Float64()
	return r
}

func (bi *Int) String() string {
	return bi.int().String()
}

func (bi *Int) Format(f fmt.State, verb rune) {
	bi.int().Format(f, verb)
}
