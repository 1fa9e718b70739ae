package fixedpoint

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPriceRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("50000.12345678")
	p := PriceFromDecimal(d)
	assert.True(t, d.Equal(p.ToDecimal()))
}

func TestPriceTruncatesBeyondScale(t *testing.T) {
	d := decimal.RequireFromString("50000.123456789")
	p := PriceFromDecimal(d)
	assert.Equal(t, "50000.12345678", p.ToDecimal().String())
}

func TestQuantityRoundTripNegative(t *testing.T) {
	d := decimal.RequireFromString("-1.5")
	q := QuantityFromDecimal(d)
	assert.True(t, d.Equal(q.ToDecimal()))
}

func TestAddSubNeg(t *testing.T) {
	a := PriceFromDecimal(decimal.RequireFromString("100"))
	b := PriceFromDecimal(decimal.RequireFromString("50"))
	assert.Equal(t, "150", a.Add(b).ToDecimal().String())
	assert.Equal(t, "50", a.Sub(b).ToDecimal().String())
	assert.Equal(t, "-100", a.Neg().ToDecimal().String())
}

func TestCmp(t *testing.T) {
	a := PriceFromDecimal(decimal.RequireFromString("100"))
	b := PriceFromDecimal(decimal.RequireFromString("50"))
	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, -1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(a))
}

func TestRoundToTick(t *testing.T) {
	tick := PriceFromDecimal(decimal.RequireFromString("0.01"))
	p := PriceFromDecimal(decimal.RequireFromString("50000.0037"))
	assert.Equal(t, "50000.01", RoundPriceUpToTick(p, tick).ToDecimal().String())
	assert.Equal(t, "50000", RoundPriceDownToTick(p, tick).ToDecimal().String())
}

func TestRoundDownToLot(t *testing.T) {
	lot := QuantityFromDecimal(decimal.RequireFromString("0.001"))
	q := QuantityFromDecimal(decimal.RequireFromString("1.0037"))
	assert.Equal(t, "1.003", q.RoundDownToLot(lot).ToDecimal().String())
}

func TestOverflowPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on overflow")
		}
	}()
	a := Price(9223372036854775807)
	a.Add(Price(1))
}

func TestCurrencyAmountMismatch(t *testing.T) {
	usd := NewCurrencyAmount(100, "USDT")
	btc := NewCurrencyAmount(1, "BTC")
	_, err := usd.Add(btc)
	assert.Error(t, err)
}
