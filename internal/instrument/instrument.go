// Package instrument models instrument identity and contract semantics:
// linear vs inverse vs spot, denomination currency, tick/lot size,
// multiplier, and the value_in_denomination conversion used by the ledger
// and the hedger.
package instrument

import (
	"fmt"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
)

// ProductType is the closed set of contract kinds this core understands.
type ProductType string

const (
	ProductSpot      ProductType = "spot"
	ProductPerpetual ProductType = "perpetual"
	ProductFuture    ProductType = "future"
)

// Instrument is immutable after creation.
type Instrument struct {
	ID                   int32
	Symbol               string
	Exchange             string
	ProductType          ProductType
	BaseCurrency         string
	QuoteCurrency        string
	DenominationCurrency string
	TickSize             fixedpoint.Price
	LotSize              fixedpoint.Quantity
	Multiplier           fixedpoint.Quantity // decimal multiplier, stored at the same 1e8 scale
	MinOrderSize         fixedpoint.Quantity

	// QuantoException marks an exchange-specific exception to inverse
	// detection: base != BTC on an exchange that denominates in BTC, but
	// is still priced/settled linearly. The field is set by whoever
	// constructs the Instrument; no config loader in this module fills it.
	QuantoException bool
}

// IsInverse reports whether this instrument's contract value is
// denominated in the base currency.
func (i Instrument) IsInverse() bool {
	if i.ProductType == ProductSpot {
		return false
	}
	if i.QuantoException {
		return false
	}
	return i.DenominationCurrency != i.QuoteCurrency
}

// ValueInDenomination computes the contract value of qty contracts at
// price, expressed in the instrument's denomination currency.
//
//	Linear:  price * qty * multiplier
//	Inverse: qty * multiplier / price   (denominated in the base currency)
//	Spot:    price * qty
func (i Instrument) ValueInDenomination(price fixedpoint.Price, qty fixedpoint.Quantity) (fixedpoint.CurrencyAmount, error) {
	switch {
	case i.ProductType == ProductSpot:
		v := mulPriceQty(price, qty)
		return fixedpoint.NewCurrencyAmount(v, i.DenominationCurrency), nil
	case i.IsInverse():
		if price == 0 {
			return fixedpoint.CurrencyAmount{}, fmt.Errorf("instrument %s: value_in_denomination: price is zero", i.Symbol)
		}
		v := divQtyByPrice(mulQtyQty(qty, i.Multiplier), price)
		return fixedpoint.NewCurrencyAmount(v, i.DenominationCurrency), nil
	default: // linear
		v := mulPriceQtyMultiplier(price, qty, i.Multiplier)
		return fixedpoint.NewCurrencyAmount(v, i.DenominationCurrency), nil
	}
}

// mulPriceQty computes price*qty at 1e8 scale, result expressed as an Amount.
func mulPriceQty(price fixedpoint.Price, qty fixedpoint.Quantity) fixedpoint.Amount {
	return fixedpoint.Amount(mulTicks(int64(price), int64(qty)))
}

func mulPriceQtyMultiplier(price fixedpoint.Price, qty fixedpoint.Quantity, mult fixedpoint.Quantity) fixedpoint.Amount {
	raw := mulTicks(int64(price), int64(qty))
	raw = mulTicks(raw, int64(mult))
	return fixedpoint.Amount(raw)
}

func mulQtyQty(a fixedpoint.Quantity, b fixedpoint.Quantity) fixedpoint.Quantity {
	return fixedpoint.Quantity(mulTicks(int64(a), int64(b)))
}

func divQtyByPrice(q fixedpoint.Quantity, p fixedpoint.Price) fixedpoint.Amount {
	return fixedpoint.Amount(divTicks(int64(q), int64(p)))
}

// mulTicks multiplies two 1e8-scaled integers, returning a 1e8-scaled
// result: (a * b) / scale. Uses 128-bit-safe staged division to avoid
// overflow for realistic price/quantity magnitudes.
func mulTicks(a, b int64) int64 {
	const scale = fixedpoint.Scale
	hi, lo := mul64(a, b)
	return div128by64(hi, lo, scale)
}

func divTicks(a, b int64) int64 {
	const scale = fixedpoint.Scale
	hi, lo := mul64(a, scale)
	return div128by64(hi, lo, b)
}
