package ledger

import (
	"testing"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/instrument"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pr(s string) fixedpoint.Price    { return fixedpoint.PriceFromDecimal(decimal.RequireFromString(s)) }
func qt(s string) fixedpoint.Quantity { return fixedpoint.QuantityFromDecimal(decimal.RequireFromString(s)) }
func am(s string) fixedpoint.Amount   { return fixedpoint.AmountFromDecimal(decimal.RequireFromString(s)) }

func identityUSDT(a fixedpoint.CurrencyAmount) (fixedpoint.CurrencyAmount, bool) {
	return fixedpoint.NewCurrencyAmount(a.Value, "USDT"), true
}

func linearInstrument() instrument.Instrument {
	return instrument.Instrument{
		ID:                   1,
		Symbol:               "BTCUSDT",
		ProductType:          instrument.ProductPerpetual,
		QuoteCurrency:        "USDT",
		DenominationCurrency: "USDT",
		Multiplier:           qt("1"),
		TickSize:             pr("0.01"),
		LotSize:              qt("0.001"),
	}
}

func inverseInstrument() instrument.Instrument {
	return instrument.Instrument{
		ID:                   2,
		Symbol:               "BTCUSD_PERP",
		ProductType:          instrument.ProductPerpetual,
		BaseCurrency:         "BTC",
		QuoteCurrency:        "USD",
		DenominationCurrency: "BTC",
		Multiplier:           qt("1"),
		TickSize:             pr("1"),
		LotSize:              qt("1"),
	}
}

func TestApplyFillOpensPositionFromFlat(t *testing.T) {
	inst := linearInstrument()
	next, err := applyFill(BookElement{InstrumentID: inst.ID}, inst, Fill{Side: SideBuy, Price: pr("100"), Quantity: qt("1")}, identityUSDT)
	require.NoError(t, err)
	assert.Equal(t, qt("1"), next.Size)
	assert.Equal(t, pr("100"), next.AvgPrice)
	assert.True(t, next.SessionRealizedPnLUSDT.IsZero())
	assert.Equal(t, am("100"), next.SessionVolumeUSDT)
}

func TestApplyFillAddsSameDirectionWeightsAvgPrice(t *testing.T) {
	inst := linearInstrument()
	current := BookElement{InstrumentID: inst.ID, Size: qt("1"), AvgPrice: pr("100")}
	next, err := applyFill(current, inst, Fill{Side: SideBuy, Price: pr("110"), Quantity: qt("1")}, identityUSDT)
	require.NoError(t, err)
	assert.Equal(t, qt("2"), next.Size)
	assert.Equal(t, pr("105"), next.AvgPrice)
	assert.True(t, next.SessionRealizedPnLUSDT.IsZero(), "adding to a position realizes nothing")
}

func TestApplyFillPartialCloseRealizesPnLKeepsAvgPrice(t *testing.T) {
	inst := linearInstrument()
	current := BookElement{InstrumentID: inst.ID, Size: qt("2"), AvgPrice: pr("100")}
	next, err := applyFill(current, inst, Fill{Side: SideSell, Price: pr("110"), Quantity: qt("1")}, identityUSDT)
	require.NoError(t, err)
	assert.Equal(t, qt("1"), next.Size)
	assert.Equal(t, pr("100"), next.AvgPrice, "partial close keeps the entry price")
	assert.Equal(t, am("10"), next.SessionRealizedPnLUSDT)
}

func TestApplyFillFlipsThroughZeroRealizesOnFullOldSize(t *testing.T) {
	inst := linearInstrument()
	current := BookElement{InstrumentID: inst.ID, Size: qt("1"), AvgPrice: pr("100")}
	next, err := applyFill(current, inst, Fill{Side: SideSell, Price: pr("110"), Quantity: qt("3")}, identityUSDT)
	require.NoError(t, err)
	assert.Equal(t, qt("-2"), next.Size)
	assert.Equal(t, pr("110"), next.AvgPrice, "new short leg opens at the fill price")
	assert.Equal(t, am("10"), next.SessionRealizedPnLUSDT)
}

func TestApplyFillClosingToExactlyFlatResetsAvgPrice(t *testing.T) {
	inst := linearInstrument()
	current := BookElement{InstrumentID: inst.ID, Size: qt("1"), AvgPrice: pr("100")}
	next, err := applyFill(current, inst, Fill{Side: SideSell, Price: pr("110"), Quantity: qt("1")}, identityUSDT)
	require.NoError(t, err)
	assert.True(t, next.Size.IsZero())
	assert.True(t, next.AvgPrice.IsZero())
	assert.Equal(t, am("10"), next.SessionRealizedPnLUSDT)
}

func TestApplyFillInverseInstrumentNegatesRealizedPnL(t *testing.T) {
	inst := inverseInstrument()
	current := BookElement{InstrumentID: inst.ID, Size: qt("1"), AvgPrice: pr("50000")}
	next, err := applyFill(current, inst, Fill{Side: SideSell, Price: pr("25000"), Quantity: qt("1")}, identityUSDT)
	require.NoError(t, err)
	assert.True(t, next.Size.IsZero())
	// Long 1 contract at 50000, price halves to 25000: a loss, expressed in
	// BTC (the denomination currency) as a negative delta even though the
	// un-negated base-currency arithmetic alone would read positive.
	assert.Equal(t, -1, next.SessionRealizedPnLUSDT.Sign())
}

func TestApplyFillVolumeAccumulatesCumulativeAndSession(t *testing.T) {
	inst := linearInstrument()
	current := BookElement{InstrumentID: inst.ID, CumulativeVolumeUSDT: am("500")}
	next, err := applyFill(current, inst, Fill{Side: SideBuy, Price: pr("100"), Quantity: qt("2")}, identityUSDT)
	require.NoError(t, err)
	assert.Equal(t, am("200"), next.SessionVolumeUSDT)
	assert.Equal(t, am("700"), next.CumulativeVolumeUSDT)
}

func TestApplyFillFailSoftWithoutFXPath(t *testing.T) {
	inst := instrument.Instrument{ID: 3, ProductType: instrument.ProductPerpetual, QuoteCurrency: "BTC", DenominationCurrency: "BTC", Multiplier: qt("1"), LotSize: qt("0.001")}
	noPath := func(fixedpoint.CurrencyAmount) (fixedpoint.CurrencyAmount, bool) { return fixedpoint.CurrencyAmount{}, false }

	next, err := applyFill(BookElement{InstrumentID: inst.ID}, inst, Fill{Side: SideBuy, Price: pr("0.05"), Quantity: qt("1")}, noPath)
	require.NoError(t, err)
	assert.True(t, next.SessionVolumeUSDT.IsZero(), "no FX path means the USDT fields stay put, not an error")
	assert.True(t, next.SessionRealizedPnLUSDT.IsZero())
	assert.Equal(t, qt("1"), next.Size, "position state itself still updates")
}
