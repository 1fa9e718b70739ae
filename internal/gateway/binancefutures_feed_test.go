package gateway

import (
	"testing"
	"time"

	"github.com/Bishopest/openhft-sub002/internal/marketdata"
	"github.com/Bishopest/openhft-sub002/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticInstruments map[string]int32

func (s staticInstruments) InstrumentID(symbol string) (int32, bool) {
	id, ok := s[symbol]
	return id, ok
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDepthCallbackPublishesSnapshotWithBothSides(t *testing.T) {
	f := &BinanceFuturesFeed{}
	var got marketdata.Event
	f.OnMarketDataReceived(func(ev marketdata.Event) { got = ev })

	cb := f.depthCallback(7)
	cb(&types.FuturesDepth{
		Symbol:    "BTCUSDT",
		Timestamp: time.Now(),
		Bids:      []types.PriceLevel{{Price: dec("100"), Quantity: dec("1")}},
		Asks:      []types.PriceLevel{{Price: dec("101"), Quantity: dec("2")}},
	})

	assert.Equal(t, int32(7), got.InstrumentID)
	assert.Equal(t, TopicOrderBook, got.TopicID)
	assert.Equal(t, marketdata.KindSnapshot, got.Kind)
	require.Equal(t, uint8(2), got.UpdateCount)
	assert.Equal(t, marketdata.SideBuy, got.Updates[0].Side)
	assert.Equal(t, marketdata.SideSell, got.Updates[1].Side)
}

func TestTradeCallbackInfersAggressorSideFromMaker(t *testing.T) {
	f := &BinanceFuturesFeed{}
	var got marketdata.Event
	f.OnMarketDataReceived(func(ev marketdata.Event) { got = ev })

	cb := f.tradeCallback(7)
	cb(&types.FuturesTrade{Symbol: "BTCUSDT", Time: time.Now(), Price: dec("100"), Quantity: dec("1"), IsBuyerMaker: true})

	assert.Equal(t, TopicTrade, got.TopicID)
	require.Equal(t, uint8(1), got.UpdateCount)
	assert.Equal(t, marketdata.SideSell, got.Updates[0].Side, "a maker buyer means the aggressor sold")
}

func TestOrderUpdateCallbackMapsStatusAndFillDelta(t *testing.T) {
	f := &BinanceFuturesFeed{insts: staticInstruments{"BTCUSDT": 7}}
	var got OrderStatusReport
	f.OnOrderUpdateReceived(func(r OrderStatusReport) { got = r })

	cb := f.orderUpdateCallback()
	cb(&types.FuturesOrderUpdate{
		Symbol: "BTCUSDT", ClientOrderID: "c-1", Side: "SELL", Status: "PARTIALLY_FILLED",
		OriginalQty: dec("10"), AccumulatedFilledQty: dec("3"), LastFilledQty: dec("3"),
		TransactionTime: time.Now(),
	})

	assert.Equal(t, int32(7), got.InstrumentID)
	assert.Equal(t, marketdata.SideSell, got.Side)
	assert.Equal(t, StatusPartiallyFilled, got.Status)
	assert.True(t, got.Quantity.ToDecimal().Equal(dec("3")), "Quantity should carry this event's fill delta, not the order's original size")
	assert.True(t, got.LeavesQuantity.ToDecimal().Equal(dec("7")))
}

func TestOrderUpdateCallbackIgnoresUnresolvedSymbol(t *testing.T) {
	f := &BinanceFuturesFeed{insts: staticInstruments{}}
	called := false
	f.OnOrderUpdateReceived(func(r OrderStatusReport) { called = true })

	f.orderUpdateCallback()(&types.FuturesOrderUpdate{Symbol: "UNKNOWN", Status: "NEW"})

	assert.False(t, called)
}
