package futures

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Bishopest/openhft-sub002/pkg/types"
	"github.com/adshao/go-binance/v2/futures"
)

// SubscribeOrderBook subscribes to partial depth updates for symbol,
// invoking onUpdate with every book snapshot the stream delivers. The
// returned stop func tears the stream down; it is also torn down by Close.
func (bf *BinanceFutures) SubscribeOrderBook(symbol string, levels int, onUpdate func(*types.FuturesDepth)) (func(), error) {
	wsHandler := func(event *futures.WsDepthEvent) {
		depth := &types.FuturesDepth{
			Symbol:       event.Symbol,
			LastUpdateID: event.LastUpdateID,
			Bids:         make([]types.PriceLevel, 0, len(event.Bids)),
			Asks:         make([]types.PriceLevel, 0, len(event.Asks)),
			Timestamp:    parseTimestamp(event.Time),
		}

		for _, bid := range event.Bids {
			depth.Bids = append(depth.Bids, types.PriceLevel{
				Price:    parseDecimal(bid.Price),
				Quantity: parseDecimal(bid.Quantity),
			})
		}
		for _, ask := range event.Asks {
			depth.Asks = append(depth.Asks, types.PriceLevel{
				Price:    parseDecimal(ask.Price),
				Quantity: parseDecimal(ask.Quantity),
			})
		}

		onUpdate(depth)
	}

	errHandler := func(err error) {
		bf.log.WithError(err).WithField("symbol", symbol).Warn("futures order book stream error")
	}

	wsSymbol := strings.ToLower(symbol)
	doneC, stopC, err := futures.WsPartialDepthServe(wsSymbol, levels, wsHandler, errHandler)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("orderbook:%s", symbol)
	bf.wsClient[key] = stopC
	go func() {
		<-doneC
		delete(bf.wsClient, key)
	}()

	return func() { close(stopC) }, nil
}

// SubscribeTrades subscribes to aggregated trade updates for symbol,
// invoking onTrade for every trade the stream delivers.
func (bf *BinanceFutures) SubscribeTrades(symbol string, onTrade func(*types.FuturesTrade)) (func(), error) {
	wsHandler := func(event *futures.WsAggTradeEvent) {
		onTrade(&types.FuturesTrade{
			ID:           event.AggregateTradeID,
			Symbol:       event.Symbol,
			Price:        parseDecimal(event.Price),
			Quantity:     parseDecimal(event.Quantity),
			Time:         parseTimestamp(event.Time),
			IsBuyerMaker: event.Maker,
		})
	}

	errHandler := func(err error) {
		bf.log.WithError(err).WithField("symbol", symbol).Warn("futures trade stream error")
	}

	doneC, stopC, err := futures.WsAggTradeServe(symbol, wsHandler, errHandler)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("trades:%s", symbol)
	bf.wsClient[key] = stopC
	go func() {
		<-doneC
		delete(bf.wsClient, key)
	}()

	return func() { close(stopC) }, nil
}

// SubscribeUserData subscribes to the authenticated user data stream,
// invoking onOrderUpdate for every ORDER_TRADE_UPDATE event. Account and
// margin-call events are logged only: spec.md's core does not model wallet
// balances, so there is nothing downstream to feed them to.
func (bf *BinanceFutures) SubscribeUserData(onOrderUpdate func(*types.FuturesOrderUpdate)) (func(), error) {
	listenKey, err := bf.client.NewStartUserStreamService().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get listen key: %w", err)
	}

	wsHandler := func(event *futures.WsUserDataEvent) {
		switch event.Event {
		case "ORDER_TRADE_UPDATE":
			u := event.OrderTradeUpdate
			onOrderUpdate(&types.FuturesOrderUpdate{
				Symbol:               u.Symbol,
				ClientOrderID:        u.ClientOrderID,
				Side:                 string(u.Side),
				Status:               string(u.Status),
				OrderID:              u.ID,
				Price:                parseDecimal(u.OriginalPrice),
				OriginalQty:          parseDecimal(u.OriginalQty),
				AccumulatedFilledQty: parseDecimal(u.AccumulatedFilledQty),
				LastFilledQty:        parseDecimal(u.LastFilledQty),
				LastFilledPrice:      parseDecimal(u.LastFilledPrice),
				TransactionTime:      parseTimestamp(event.TransactionTime),
			})
		case "ACCOUNT_UPDATE":
			bf.log.Debug("futures user data: account update received")
		case "MARGIN_CALL":
			bf.log.Warn("futures user data: margin call received")
		}
	}

	errHandler := func(err error) {
		bf.log.WithError(err).Warn("futures user data stream error")
	}

	doneC, stopC, err := futures.WsUserDataServe(listenKey, wsHandler, errHandler)
	if err != nil {
		return nil, err
	}

	bf.wsClient["userdata"] = stopC
	go bf.keepAliveListenKey(listenKey, doneC)

	return func() { close(stopC) }, nil
}

// keepAliveListenKey keeps the user data stream's listen key alive until
// its stream is torn down.
func (bf *BinanceFutures) keepAliveListenKey(listenKey string, done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			delete(bf.wsClient, "userdata")
			return
		case <-ticker.C:
			err := bf.client.NewKeepaliveUserStreamService().
				ListenKey(listenKey).
				Do(context.Background())
			if err != nil {
				bf.log.WithError(err).Warn("failed to keepalive listen key")
			}
		}
	}
}

func parseTimestamp(ts int64) time.Time {
	return time.Unix(ts/1000, (ts%1000)*1000000)
}
