// Package fixed holds the engine's fixed-point constants and overflow-safe
// integer helpers. All reward math is unsigned, truncates toward zero and
// never touches floating point; intermediate products are carried in 256-bit
// integers so two full 64-bit operands can never overflow.
package fixed

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// Precision is the fixed-point scale for multipliers. One era of halving
// shifts it right by one bit, so integer halving is exact at every era.
const Precision uint64 = 1e18

// SecondsPerDay converts time-in-pool seconds to whole days.
const SecondsPerDay uint64 = 86400

// MulDiv returns a*b/d with a 256-bit intermediate product.
// Returns ErrDivideByZero when d is zero and ErrOverflow when the quotient
// does not fit in 64 bits.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivideByZero
	}
	z := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	z.Div(z, uint256.NewInt(d))
	if !z.IsUint64() {
		return 0, ErrOverflow
	}
	return z.Uint64(), nil
}

// Mul returns a*b, failing with ErrOverflow if the product exceeds 64 bits.
func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

// Add returns a+b, failing with ErrOverflow on wraparound.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// FloorLog2 returns floor(log2(x)) for x >= 1, and 0 for x == 0.
func FloorLog2(x uint64) uint64 {
	if x == 0 {
		return 0
	}
	return uint64(bits.Len64(x) - 1)
}
