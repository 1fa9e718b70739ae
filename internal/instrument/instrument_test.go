package instrument

import (
	"testing"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPrice(s string) fixedpoint.Price {
	return fixedpoint.PriceFromDecimal(decimal.RequireFromString(s))
}

func mustQty(s string) fixedpoint.Quantity {
	return fixedpoint.QuantityFromDecimal(decimal.RequireFromString(s))
}

func TestIsInverse(t *testing.T) {
	linear := Instrument{ProductType: ProductPerpetual, QuoteCurrency: "USDT", DenominationCurrency: "USDT"}
	assert.False(t, linear.IsInverse())

	inverse := Instrument{ProductType: ProductPerpetual, QuoteCurrency: "USD", DenominationCurrency: "BTC"}
	assert.True(t, inverse.IsInverse())

	quanto := Instrument{ProductType: ProductPerpetual, QuoteCurrency: "USD", DenominationCurrency: "BTC", QuantoException: true}
	assert.False(t, quanto.IsInverse())

	spot := Instrument{ProductType: ProductSpot, QuoteCurrency: "USD", DenominationCurrency: "BTC"}
	assert.False(t, spot.IsInverse())
}

func TestValueInDenominationLinear(t *testing.T) {
	btcusdt := Instrument{
		Symbol: "BTCUSDT", ProductType: ProductPerpetual,
		QuoteCurrency: "USDT", DenominationCurrency: "USDT",
		Multiplier: mustQty("1"),
	}
	v, err := btcusdt.ValueInDenomination(mustPrice("50000"), mustQty("2"))
	require.NoError(t, err)
	assert.Equal(t, "USDT", v.Currency)
	assert.Equal(t, "100000", v.Value.ToDecimal().String())
}

func TestValueInDenominationInverse(t *testing.T) {
	xbtusd := Instrument{
		Symbol: "XBTUSD", ProductType: ProductPerpetual,
		QuoteCurrency: "USD", DenominationCurrency: "BTC",
		Multiplier: mustQty("1"),
	}
	v, err := xbtusd.ValueInDenomination(mustPrice("100"), mustQty("10"))
	require.NoError(t, err)
	assert.Equal(t, "BTC", v.Currency)
	assert.Equal(t, "0.1", v.Value.ToDecimal().String())
}

func TestValueInDenominationSpot(t *testing.T) {
	btcusdt := Instrument{
		Symbol: "BTCUSDT", ProductType: ProductSpot,
		QuoteCurrency: "USDT", DenominationCurrency: "USDT",
	}
	v, err := btcusdt.ValueInDenomination(mustPrice("100"), mustQty("3"))
	require.NoError(t, err)
	assert.Equal(t, "300", v.Value.ToDecimal().String())
}

func TestValueInDenominationInverseZeroPrice(t *testing.T) {
	xbtusd := Instrument{ProductType: ProductPerpetual, QuoteCurrency: "USD", DenominationCurrency: "BTC", Multiplier: mustQty("1")}
	_, err := xbtusd.ValueInDenomination(0, mustQty("1"))
	assert.Error(t, err)
}

func TestRegistryDuplicateRejected(t *testing.T) {
	reg := NewRegistry()
	inst := Instrument{ID: 1, Symbol: "BTCUSDT", ProductType: ProductSpot}
	require.NoError(t, reg.Add(inst, "binance"))

	dup := Instrument{ID: 2, Symbol: "BTCUSDT", ProductType: ProductSpot}
	err := reg.Add(dup, "binance")
	assert.Error(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry()
	inst := Instrument{ID: 7, Symbol: "ETHUSDT", ProductType: ProductPerpetual}
	require.NoError(t, reg.Add(inst, "binance"))

	got, ok := reg.Get(7)
	require.True(t, ok)
	assert.Equal(t, "ETHUSDT", got.Symbol)
}
