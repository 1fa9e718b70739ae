// Package ledger implements the book ledger: per-(book_name,
// instrument_id) position/PnL bookkeeping driven by a pure apply_fill
// function.
//
// Grounded on internal/position/manager.go's string-keyed sync.Map
// position cache, adapted from a shared-memory-backed structure (no IPC
// requirement here) to a plain in-memory map guarded by one mutex, and
// internal/risk/calculator.go's PnL math style.
package ledger

import (
	"math"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/instrument"
)

// epsilon bounds "effectively zero" position size comparisons, per spec.
const epsilon = 1e-9

// Side mirrors marketdata.Side without importing it, to keep ledger
// dependency-free of the event-bus/market-data layer.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

// Fill is one execution applied to a BookElement.
type Fill struct {
	Side     Side
	Price    fixedpoint.Price
	Quantity fixedpoint.Quantity
}

// BookElement is the per-(book_name, instrument_id) row the ledger
// maintains. Session fields reset on restart; cumulative fields are
// restored from a repository (persistence itself is out of scope here;
// Ledger.Snapshot/Restore are the hooks a SQLite-backed repository would
// call).
type BookElement struct {
	BookName     string
	InstrumentID int32

	Size     fixedpoint.Quantity
	AvgPrice fixedpoint.Price

	SessionRealizedPnLUSDT fixedpoint.Amount
	SessionVolumeUSDT      fixedpoint.Amount

	CumulativeRealizedPnLUSDT fixedpoint.Amount
	CumulativeVolumeUSDT      fixedpoint.Amount
}

// usdtConverter converts a denomination-currency amount into USDT,
// returning ok=false (fail-soft per spec) when no FX path exists.
type usdtConverter func(amount fixedpoint.CurrencyAmount) (fixedpoint.CurrencyAmount, bool)

// applyFill computes the new BookElement state after fill is applied to
// current, per spec §4.6. It is a pure function; Ledger wraps it with
// locking and persistence hooks.
func applyFill(current BookElement, inst instrument.Instrument, fill Fill, toUSDT usdtConverter) (BookElement, error) {
	next := current

	s := current.Size
	p := current.AvgPrice
	fq := fill.Quantity
	if fill.Side == SideSell {
		fq = fq.Neg()
	}
	fp := fill.Price

	sPrime := s.Add(fq)

	var realizedDelta fixedpoint.Amount
	switch {
	case sign(sPrime) != sign(s) && !isZero(s):
		closeValue, err := valueAt(inst, fp, s)
		if err != nil {
			return current, err
		}
		openValue, err := valueAt(inst, p, s)
		if err != nil {
			return current, err
		}
		realizedDelta = closeValue.Value.Sub(openValue.Value)
	case absQty(sPrime) < absQty(s):
		qd := s.Abs().Sub(sPrime.Abs())
		closeValue, err := valueAt(inst, fp, qd)
		if err != nil {
			return current, err
		}
		openValue, err := valueAt(inst, p, qd)
		if err != nil {
			return current, err
		}
		delta := closeValue.Value.Sub(openValue.Value)
		if sign(sPrime) < 0 {
			delta = delta.Neg()
		}
		realizedDelta = delta
	default:
		realizedDelta = 0
	}

	if inst.IsInverse() {
		realizedDelta = realizedDelta.Neg()
	}

	var pPrime fixedpoint.Price
	switch {
	case isZeroF(float64(sPrime)):
		pPrime = 0
	case isZero(s) || sign(s) != sign(sPrime):
		pPrime = fp
	case absQty(sPrime) > absQty(s):
		openValue, err := valueAt(inst, p, s)
		if err != nil {
			return current, err
		}
		fillValue, err := valueAt(inst, fp, fq)
		if err != nil {
			return current, err
		}
		totalValue := fixedpoint.NewCurrencyAmount(openValue.Value.Add(fillValue.Value), inst.DenominationCurrency)
		pPrime, err = priceFromValue(inst, totalValue, sPrime)
		if err != nil {
			return current, err
		}
	default:
		pPrime = p
	}

	fillValueAbs, err := valueAt(inst, fp, fill.Quantity)
	if err != nil {
		return current, err
	}
	fillVolume := fixedpoint.NewCurrencyAmount(fillValueAbs.Value.Abs(), inst.DenominationCurrency)
	volumeUSDT, ok := toUSDT(fillVolume)
	volumeDelta := fixedpoint.Amount(0)
	if ok {
		volumeDelta = volumeUSDT.Value
	}

	pnlUSDT, ok := toUSDT(fixedpoint.NewCurrencyAmount(realizedDelta, inst.DenominationCurrency))
	pnlDeltaUSDT := fixedpoint.Amount(0)
	if ok {
		pnlDeltaUSDT = pnlUSDT.Value
	}

	next.Size = sPrime
	next.AvgPrice = pPrime
	next.SessionRealizedPnLUSDT = current.SessionRealizedPnLUSDT.Add(pnlDeltaUSDT)
	next.SessionVolumeUSDT = current.SessionVolumeUSDT.Add(volumeDelta)
	next.CumulativeRealizedPnLUSDT = current.CumulativeRealizedPnLUSDT.Add(pnlDeltaUSDT)
	next.CumulativeVolumeUSDT = current.CumulativeVolumeUSDT.Add(volumeDelta)

	return next, nil
}

func valueAt(inst instrument.Instrument, price fixedpoint.Price, qty fixedpoint.Quantity) (fixedpoint.CurrencyAmount, error) {
	return inst.ValueInDenomination(price, qty)
}

// priceFromValue inverts ValueInDenomination: given the total value of
// size contracts, recover the average price that produces it.
func priceFromValue(inst instrument.Instrument, value fixedpoint.CurrencyAmount, size fixedpoint.Quantity) (fixedpoint.Price, error) {
	if size.IsZero() {
		return 0, nil
	}
	switch {
	case inst.ProductType == instrument.ProductSpot:
		// value = price * size  =>  price = value / size
		return fixedpoint.Price(divAmountByQty(value.Value, size)), nil
	case inst.IsInverse():
		// value = size * mult / price  =>  price = size * mult / value
		numerator := fixedpoint.Amount(mulQtyByQty(size, inst.Multiplier))
		return fixedpoint.Price(divAmountByAmount(numerator, value.Value)), nil
	default:
		// value = price * size * mult  =>  price = value / (size * mult)
		denom := mulQtyByQty(size, inst.Multiplier)
		return fixedpoint.Price(divAmountByQty(value.Value, denom)), nil
	}
}

func sign(q fixedpoint.Quantity) int                   { return q.Sign() }
func absQty(q fixedpoint.Quantity) fixedpoint.Quantity { return q.Abs() }

// isZero implements the spec's |s| < epsilon (1e-9) rule. Ticks are
// scaled at 1e-8, below the 1e-9 threshold's resolution, so the rule
// collapses exactly to "no ticks at all".
func isZero(q fixedpoint.Quantity) bool { return q.IsZero() }

func isZeroF(v float64) bool { return math.Abs(v) < epsilon*float64(fixedpoint.Scale) }
