package orderbook

import (
	"testing"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/marketdata"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func p(s string) fixedpoint.Price       { return fixedpoint.PriceFromDecimal(decimal.RequireFromString(s)) }
func q(s string) fixedpoint.Quantity    { return fixedpoint.QuantityFromDecimal(decimal.RequireFromString(s)) }

func addEvent(seq uint64, instrumentID int32, entries ...marketdata.PriceLevelEntry) marketdata.Event {
	ev := marketdata.Event{Sequence: seq, InstrumentID: instrumentID, Kind: marketdata.KindUpdate, TimestampUS: seq * 1000}
	for _, e := range entries {
		ev.AppendUpdate(e)
	}
	return ev
}

func lvl(side marketdata.Side, price, qty string) marketdata.PriceLevelEntry {
	return marketdata.PriceLevelEntry{Side: side, PriceTicks: p(price), QuantityTicks: q(qty)}
}

func TestApplyEventBuildsTopOfBook(t *testing.T) {
	book := New(1, 10, nil)

	ok := book.ApplyEvent(addEvent(1, 1,
		lvl(marketdata.SideBuy, "100", "5"),
		lvl(marketdata.SideSell, "101", "3"),
	))
	require.True(t, ok)

	bidPrice, bidQty := book.GetBestBid()
	assert.Equal(t, p("100"), bidPrice)
	assert.Equal(t, q("5"), bidQty)

	askPrice, askQty := book.GetBestAsk()
	assert.Equal(t, p("101"), askPrice)
	assert.Equal(t, q("3"), askQty)

	assert.Equal(t, p("1"), book.GetSpread())
	assert.Equal(t, p("100.5"), book.GetMidPrice())
	assert.True(t, book.ValidateIntegrity())
}

func TestApplyEventRejectsSequenceGap(t *testing.T) {
	book := New(1, 10, nil)
	require.True(t, book.ApplyEvent(addEvent(5, 1, lvl(marketdata.SideBuy, "100", "1"))))

	ok := book.ApplyEvent(addEvent(3, 1, lvl(marketdata.SideBuy, "99", "1")))
	assert.False(t, ok)

	bidPrice, _ := book.GetBestBid()
	assert.Equal(t, p("100"), bidPrice, "book state must be unchanged after a rejected out-of-order event")
	assert.Equal(t, uint64(5), book.LastSequence())
}

func TestSnapshotClearsPriorLevels(t *testing.T) {
	book := New(1, 10, nil)
	require.True(t, book.ApplyEvent(addEvent(1, 1,
		lvl(marketdata.SideBuy, "100", "5"),
		lvl(marketdata.SideBuy, "99", "4"),
	)))
	assert.Equal(t, 2, book.Stats().BidLevels)

	snap := marketdata.Event{Sequence: 2, InstrumentID: 1, Kind: marketdata.KindSnapshot}
	snap.AppendUpdate(lvl(marketdata.SideBuy, "200", "1"))
	require.True(t, book.ApplyEvent(snap))

	assert.Equal(t, 1, book.Stats().BidLevels)
	bidPrice, _ := book.GetBestBid()
	assert.Equal(t, p("200"), bidPrice)
}

func TestDeleteRemovesLevel(t *testing.T) {
	book := New(1, 10, nil)
	require.True(t, book.ApplyEvent(addEvent(1, 1, lvl(marketdata.SideBuy, "100", "5"))))

	del := marketdata.Event{Sequence: 2, InstrumentID: 1, Kind: marketdata.KindDelete}
	del.AppendUpdate(lvl(marketdata.SideBuy, "100", "0"))
	require.True(t, book.ApplyEvent(del))

	bidPrice, bidQty := book.GetBestBid()
	assert.Equal(t, fixedpoint.Price(0), bidPrice)
	assert.Equal(t, fixedpoint.Quantity(0), bidQty)
}

func TestMaxDepthEvictsWorstLevel(t *testing.T) {
	book := New(1, 2, nil)
	require.True(t, book.ApplyEvent(addEvent(1, 1,
		lvl(marketdata.SideBuy, "100", "1"),
		lvl(marketdata.SideBuy, "99", "1"),
	)))
	require.True(t, book.ApplyEvent(addEvent(2, 1, lvl(marketdata.SideBuy, "101", "1"))))

	levels := book.GetTopLevels(marketdata.SideBuy, 10)
	require.Len(t, levels, 2)
	assert.Equal(t, p("101"), levels[0].Price)
	assert.Equal(t, p("100"), levels[1].Price)
}

func TestWrongInstrumentRejected(t *testing.T) {
	book := New(1, 10, nil)
	ok := book.ApplyEvent(addEvent(1, 2, lvl(marketdata.SideBuy, "100", "1")))
	assert.False(t, ok)
	assert.Equal(t, 0, book.Stats().BidLevels)
}

func TestCrossedBookDetected(t *testing.T) {
	book := New(1, 10, nil)
	require.True(t, book.ApplyEvent(addEvent(1, 1,
		lvl(marketdata.SideBuy, "101", "1"),
		lvl(marketdata.SideSell, "100", "1"),
	)))
	assert.True(t, book.IsCrossed())
	assert.False(t, book.ValidateIntegrity())
}

func TestOrderFlowImbalance(t *testing.T) {
	book := New(1, 10, nil)
	require.True(t, book.ApplyEvent(addEvent(1, 1,
		lvl(marketdata.SideBuy, "100", "9"),
		lvl(marketdata.SideSell, "101", "1"),
	)))
	imbalance := book.CalculateOrderFlowImbalance(10)
	assert.InDelta(t, 0.8, imbalance, 0.0001)
}
