package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/marketdata"
	binancefutures "github.com/Bishopest/openhft-sub002/services/binance/futures"
	"github.com/Bishopest/openhft-sub002/pkg/types"
)

// Market-data topic IDs BinanceFuturesFeed publishes on. TopicOrderBook
// matches the topic cmd/market-maker wires distributor.SubscribeOrderBook
// to (topic 0).
const (
	TopicOrderBook int32 = 0
	TopicTrade     int32 = 1
)

// InstrumentResolver maps an exchange symbol back to the internal
// instrument ID a FeedAdapter event should carry. The inverse of
// SymbolResolver.
type InstrumentResolver interface {
	InstrumentID(symbol string) (int32, bool)
}

// BinanceFuturesFeed adapts *binancefutures.BinanceFutures's websocket
// subscriptions to FeedAdapter, translating depth/trade/user-data streams
// into marketdata.Event and OrderStatusReport callbacks. Grounded on
// services/binance/futures/ws_handler.go's Subscribe* methods; the
// exchange-id tag on published events is left zero, as this core only
// ever runs a single feed per instrument.
type BinanceFuturesFeed struct {
	client  *binancefutures.BinanceFutures
	symbols SymbolResolver
	insts   InstrumentResolver

	mu        sync.Mutex
	connected bool
	stops     []func()
	seq       uint64

	onMarketData func(marketdata.Event)
	onOrderUpd   func(OrderStatusReport)
	onConnState  func(ConnectionStateChanged)
}

// NewBinanceFuturesFeed wraps client, resolving instrument IDs to exchange
// symbols (for Subscribe) and exchange symbols back to instrument IDs (for
// the events the stream delivers) via symbols/insts.
func NewBinanceFuturesFeed(client *binancefutures.BinanceFutures, symbols SymbolResolver, insts InstrumentResolver) *BinanceFuturesFeed {
	return &BinanceFuturesFeed{client: client, symbols: symbols, insts: insts}
}

func (f *BinanceFuturesFeed) Connect(ctx context.Context) error {
	connected := f.client.IsConnected()
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()

	if f.onConnState != nil {
		f.onConnState(ConnectionStateChanged{IsConnected: connected})
	}
	if !connected {
		return fmt.Errorf("gateway: binance futures connectivity check failed")
	}
	return nil
}

func (f *BinanceFuturesFeed) Disconnect() error {
	f.mu.Lock()
	f.connected = false
	stops := f.stops
	f.stops = nil
	f.mu.Unlock()

	for _, stop := range stops {
		stop()
	}

	if f.onConnState != nil {
		f.onConnState(ConnectionStateChanged{IsConnected: false, Reason: "disconnect requested"})
	}
	return f.client.Close()
}

func (f *BinanceFuturesFeed) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// Subscribe opens a depth and trade stream for every instrument in
// instrumentIDs whose topic is present in topics. Topics outside
// TopicOrderBook/TopicTrade are ignored: user-data is process-wide, not
// per-instrument, and is not driven through Subscribe.
func (f *BinanceFuturesFeed) Subscribe(instrumentIDs []int32, topics []int32) error {
	wantsOrderBook, wantsTrade := false, false
	for _, t := range topics {
		switch t {
		case TopicOrderBook:
			wantsOrderBook = true
		case TopicTrade:
			wantsTrade = true
		}
	}

	for _, instrumentID := range instrumentIDs {
		symbol, ok := f.symbols.Symbol(instrumentID)
		if !ok {
			return fmt.Errorf("gateway: no symbol registered for instrument %d", instrumentID)
		}

		if wantsOrderBook {
			stop, err := f.client.SubscribeOrderBook(symbol, 20, f.depthCallback(instrumentID))
			if err != nil {
				return fmt.Errorf("gateway: subscribe order book for %s: %w", symbol, err)
			}
			f.addStop(stop)
		}
		if wantsTrade {
			stop, err := f.client.SubscribeTrades(symbol, f.tradeCallback(instrumentID))
			if err != nil {
				return fmt.Errorf("gateway: subscribe trades for %s: %w", symbol, err)
			}
			f.addStop(stop)
		}
	}
	return nil
}

// Unsubscribe tears down every stream this feed opened. The underlying
// client has no per-symbol unsubscribe, only stream teardown, so
// instrumentIDs/topics are accepted for interface conformance and otherwise
// ignored: callers that want a subset should build one BinanceFuturesFeed
// per instrument instead.
func (f *BinanceFuturesFeed) Unsubscribe(instrumentIDs []int32, topics []int32) error {
	f.mu.Lock()
	stops := f.stops
	f.stops = nil
	f.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	return nil
}

// SubscribeUserData opens the authenticated order-update stream. It is not
// part of FeedAdapter's Subscribe/Unsubscribe pair (user data has no
// per-instrument scope) and must be called explicitly once after Connect.
func (f *BinanceFuturesFeed) SubscribeUserData() error {
	stop, err := f.client.SubscribeUserData(f.orderUpdateCallback())
	if err != nil {
		return fmt.Errorf("gateway: subscribe user data: %w", err)
	}
	f.addStop(stop)
	return nil
}

func (f *BinanceFuturesFeed) addStop(stop func()) {
	f.mu.Lock()
	f.stops = append(f.stops, stop)
	f.mu.Unlock()
}

func (f *BinanceFuturesFeed) nextSequence() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return f.seq
}

func (f *BinanceFuturesFeed) depthCallback(instrumentID int32) func(*types.FuturesDepth) {
	return func(depth *types.FuturesDepth) {
		if f.onMarketData == nil {
			return
		}
		ev := marketdata.Event{
			Sequence:     f.nextSequence(),
			TimestampUS:  uint64(depth.Timestamp.UnixMicro()),
			Kind:         marketdata.KindSnapshot,
			InstrumentID: instrumentID,
			TopicID:      TopicOrderBook,
		}
		for _, bid := range depth.Bids {
			if !ev.AppendUpdate(marketdata.PriceLevelEntry{
				Side:          marketdata.SideBuy,
				PriceTicks:    fixedpoint.PriceFromDecimal(bid.Price),
				QuantityTicks: fixedpoint.QuantityFromDecimal(bid.Quantity),
			}) {
				break
			}
		}
		for _, ask := range depth.Asks {
			if !ev.AppendUpdate(marketdata.PriceLevelEntry{
				Side:          marketdata.SideSell,
				PriceTicks:    fixedpoint.PriceFromDecimal(ask.Price),
				QuantityTicks: fixedpoint.QuantityFromDecimal(ask.Quantity),
			}) {
				break
			}
		}
		f.onMarketData(ev)
	}
}

func (f *BinanceFuturesFeed) tradeCallback(instrumentID int32) func(*types.FuturesTrade) {
	return func(trade *types.FuturesTrade) {
		if f.onMarketData == nil {
			return
		}
		// A maker-side buyer means the aggressor (the trade's directional
		// side) sold.
		side := marketdata.SideBuy
		if trade.IsBuyerMaker {
			side = marketdata.SideSell
		}
		ev := marketdata.Event{
			Sequence:     f.nextSequence(),
			TimestampUS:  uint64(trade.Time.UnixMicro()),
			Kind:         marketdata.KindTrade,
			InstrumentID: instrumentID,
			TopicID:      TopicTrade,
		}
		ev.AppendUpdate(marketdata.PriceLevelEntry{
			Side:          side,
			PriceTicks:    fixedpoint.PriceFromDecimal(trade.Price),
			QuantityTicks: fixedpoint.QuantityFromDecimal(trade.Quantity),
		})
		f.onMarketData(ev)
	}
}

// orderUpdateCallback converts one ORDER_TRADE_UPDATE into an
// OrderStatusReport. On a (Partially)Filled status, Quantity carries this
// event's incremental fill (LastFilledQty), not the order's original size,
// so callers like quoting.Engine.RecordFill can apply it directly as a
// fill delta.
func (f *BinanceFuturesFeed) orderUpdateCallback() func(*types.FuturesOrderUpdate) {
	return func(u *types.FuturesOrderUpdate) {
		if f.onOrderUpd == nil {
			return
		}
		instrumentID, ok := f.insts.InstrumentID(u.Symbol)
		if !ok {
			return
		}
		side := marketdata.SideBuy
		if u.Side == "SELL" {
			side = marketdata.SideSell
		}
		status := orderUpdateStatus(u.Status)

		qty := u.OriginalQty
		if status == StatusFilled || status == StatusPartiallyFilled {
			qty = u.LastFilledQty
		}

		f.onOrderUpd(OrderStatusReport{
			ClientOrderID:   u.ClientOrderID,
			ExchangeOrderID: fmt.Sprintf("%d", u.OrderID),
			InstrumentID:    instrumentID,
			Side:            side,
			Status:          status,
			Price:           fixedpoint.PriceFromDecimal(u.LastFilledPrice),
			Quantity:        fixedpoint.QuantityFromDecimal(qty),
			LeavesQuantity:  fixedpoint.QuantityFromDecimal(u.OriginalQty.Sub(u.AccumulatedFilledQty)),
			TimestampMS:     u.TransactionTime.UnixMilli(),
		})
	}
}

func orderUpdateStatus(raw string) OrderStatus {
	switch raw {
	case "NEW":
		return StatusNew
	case "PARTIALLY_FILLED":
		return StatusPartiallyFilled
	case "FILLED":
		return StatusFilled
	case "CANCELED", "EXPIRED":
		return StatusCancelled
	case "REJECTED":
		return StatusRejected
	default:
		return StatusPending
	}
}

func (f *BinanceFuturesFeed) OnMarketDataReceived(cb func(marketdata.Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onMarketData = cb
}

func (f *BinanceFuturesFeed) OnOrderUpdateReceived(cb func(OrderStatusReport)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onOrderUpd = cb
}

func (f *BinanceFuturesFeed) OnConnectionStateChanged(cb func(ConnectionStateChanged)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onConnState = cb
}
