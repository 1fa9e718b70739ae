// Package fixedpoint implements allocation-free, integer-scaled decimal
// arithmetic for prices and quantities on the market-data hot path.
//
// Both Price and Quantity are ticks at a fixed scale of 1e8. They never
// allocate and never lose information beyond the truncation declared by
// FromDecimal.
package fixedpoint

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Scale is the number of ticks per unit (10^8).
const Scale int64 = 1e8

// Price is a signed, tick-scaled price.
type Price int64

// Quantity is a signed, tick-scaled quantity.
type Quantity int64

var decimalScale = decimal.New(Scale, 0)

// PriceFromDecimal truncates d toward zero at the tick scale.
func PriceFromDecimal(d decimal.Decimal) Price {
	return Price(truncateToTicks(d))
}

// QuantityFromDecimal truncates d toward zero at the tick scale.
func QuantityFromDecimal(d decimal.Decimal) Quantity {
	return Quantity(truncateToTicks(d))
}

func truncateToTicks(d decimal.Decimal) int64 {
	scaled := d.Mul(decimalScale)
	return scaled.Truncate(0).IntPart()
}

// ToDecimal returns the exact decimal equivalent of p.
func (p Price) ToDecimal() decimal.Decimal {
	return decimal.New(int64(p), 0).Div(decimalScale)
}

// ToDecimal returns the exact decimal equivalent of q.
func (q Quantity) ToDecimal() decimal.Decimal {
	return decimal.New(int64(q), 0).Div(decimalScale)
}

func (p Price) String() string { return p.ToDecimal().String() }
func (q Quantity) String() string { return q.ToDecimal().String() }

// Add, Sub, Neg — Price.
func (p Price) Add(o Price) Price { return addOverflowCheckedPrice(p, o) }
func (p Price) Sub(o Price) Price { return addOverflowCheckedPrice(p, -o) }
func (p Price) Neg() Price        { return -p }

// Add, Sub, Neg — Quantity.
func (q Quantity) Add(o Quantity) Quantity { return addOverflowCheckedQty(q, o) }
func (q Quantity) Sub(o Quantity) Quantity { return addOverflowCheckedQty(q, -o) }
func (q Quantity) Neg() Quantity           { return -q }

func addOverflowCheckedPrice(a, b Price) Price {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		panic(fmt.Sprintf("fixedpoint: Price overflow: %d + %d", a, b))
	}
	return r
}

func addOverflowCheckedQty(a, b Quantity) Quantity {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		panic(fmt.Sprintf("fixedpoint: Quantity overflow: %d + %d", a, b))
	}
	return r
}

// Cmp returns -1, 0, 1 comparing p to o.
func (p Price) Cmp(o Price) int {
	switch {
	case p < o:
		return -1
	case p > o:
		return 1
	default:
		return 0
	}
}

// Cmp returns -1, 0, 1 comparing q to o.
func (q Quantity) Cmp(o Quantity) int {
	switch {
	case q < o:
		return -1
	case q > o:
		return 1
	default:
		return 0
	}
}

func (p Price) IsZero() bool    { return p == 0 }
func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) Sign() int {
	switch {
	case q > 0:
		return 1
	case q < 0:
		return -1
	default:
		return 0
	}
}

func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// Mul multiplies a quantity by an integer scalar (no scale change).
func (q Quantity) Mul(n int64) Quantity {
	return Quantity(int64(q) * n)
}

// RoundDownToLot rounds q toward zero to the nearest multiple of lot.
// lot must be positive.
func (q Quantity) RoundDownToLot(lot Quantity) Quantity {
	if lot <= 0 {
		return q
	}
	units := int64(q) / int64(lot)
	return Quantity(units * int64(lot))
}

// RoundPriceUpToTick rounds p up (away from -inf, toward +inf) to a multiple
// of tick. Used for ask-side quote rounding.
func RoundPriceUpToTick(p Price, tick Price) Price {
	if tick <= 0 {
		return p
	}
	rem := int64(p) % int64(tick)
	if rem == 0 {
		return p
	}
	if rem > 0 {
		return Price(int64(p) - rem + int64(tick))
	}
	return Price(int64(p) - rem)
}

// RoundPriceDownToTick rounds p down (toward -inf) to a multiple of tick.
// Used for bid-side quote rounding.
func RoundPriceDownToTick(p Price, tick Price) Price {
	if tick <= 0 {
		return p
	}
	rem := int64(p) % int64(tick)
	if rem == 0 {
		return p
	}
	if rem > 0 {
		return Price(int64(p) - rem)
	}
	return Price(int64(p) - rem - int64(tick))
}

// MulQuantityByPriceRatio computes q * numerator / denominator using
// float64 intermediate math for the division (acceptable: this is used for
// bp-shift style adjustments, not for ledger PnL, which uses the exact
// 128-bit multiply/divide helpers in internal/ledger/bigmath.go).
func MulQuantityByPriceRatio(q Quantity, numerator, denominator int64) Quantity {
	if denominator == 0 {
		return 0
	}
	return Quantity(math.Round(float64(q) * float64(numerator) / float64(denominator)))
}
