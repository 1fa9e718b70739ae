package ledger

import (
	"math/bits"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
)

// mul64/div128by64 mirror the 128-bit-safe helpers duplicated across
// instrument/fx/hedging: priceFromValue divides two 1e8-scaled values and
// is exposed to the same overflow risk.
func mul64(a, b int64) (hi, lo int64) {
	negative := (a < 0) != (b < 0)
	ua, ub := absU64(a), absU64(b)
	h, l := bits.Mul64(ua, ub)
	if negative {
		l = ^l + 1
		h = ^h
		if l == 0 {
			h++
		}
	}
	return int64(h), int64(l)
}

func absU64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

func div128by64(hi, lo int64, d int64) int64 {
	if d == 0 {
		panic("ledger: division by zero")
	}
	negResult := (hi < 0) != (d < 0)
	uh, ul := toUnsigned128(hi, lo)
	ud := absU64(d)
	if uh >= ud {
		panic("ledger: avg price overflow")
	}
	q, _ := bits.Div64(uh, ul, ud)
	if negResult {
		return -int64(q)
	}
	return int64(q)
}

func toUnsigned128(hi, lo int64) (uh, ul uint64) {
	uh, ul = uint64(hi), uint64(lo)
	if hi < 0 {
		ul = ^ul + 1
		uh = ^uh
		if ul == 0 {
			uh++
		}
	}
	return uh, ul
}

func mulQtyByQty(a, b fixedpoint.Quantity) fixedpoint.Quantity {
	hi, lo := mul64(int64(a), int64(b))
	return fixedpoint.Quantity(div128by64(hi, lo, fixedpoint.Scale))
}

func divAmountByQty(a fixedpoint.Amount, q fixedpoint.Quantity) int64 {
	hi, lo := mul64(int64(a), fixedpoint.Scale)
	return div128by64(hi, lo, int64(q))
}

func divAmountByAmount(a, b fixedpoint.Amount) int64 {
	hi, lo := mul64(int64(a), fixedpoint.Scale)
	return div128by64(hi, lo, int64(b))
}
