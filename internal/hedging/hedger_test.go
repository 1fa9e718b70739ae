package hedging

import (
	"context"
	"testing"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/fx"
	"github.com/Bishopest/openhft-sub002/internal/gateway"
	"github.com/Bishopest/openhft-sub002/internal/instrument"
	"github.com/Bishopest/openhft-sub002/internal/marketdata"
	"github.com/Bishopest/openhft-sub002/internal/orderbook"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) fixedpoint.Price    { return fixedpoint.PriceFromDecimal(decimal.RequireFromString(s)) }
func qty(s string) fixedpoint.Quantity   { return fixedpoint.QuantityFromDecimal(decimal.RequireFromString(s)) }

type recordingGateway struct {
	newOrders      []gateway.NewOrderRequest
	cancelAllCalls int
}

func (g *recordingGateway) SupportsOrderReplacement() bool { return false }
func (g *recordingGateway) SendNewOrder(ctx context.Context, req gateway.NewOrderRequest) (gateway.OrderPlacementResult, error) {
	g.newOrders = append(g.newOrders, req)
	return gateway.OrderPlacementResult{Success: true, ExchangeOrderID: "ex-1"}, nil
}
func (g *recordingGateway) SendReplaceOrder(ctx context.Context, req gateway.ReplaceOrderRequest) (gateway.OrderModificationResult, error) {
	return gateway.OrderModificationResult{Success: true}, nil
}
func (g *recordingGateway) SendCancelOrder(ctx context.Context, req gateway.CancelOrderRequest) (gateway.OrderModificationResult, error) {
	return gateway.OrderModificationResult{Success: true}, nil
}
func (g *recordingGateway) SendBulkCancelOrders(ctx context.Context, req gateway.BulkCancelOrdersRequest) ([]gateway.OrderModificationResult, error) {
	return nil, nil
}
func (g *recordingGateway) FetchOrderStatus(ctx context.Context, exchangeOrderID string) (gateway.OrderStatusReport, error) {
	return gateway.OrderStatusReport{}, nil
}
func (g *recordingGateway) CancelAllOrders(ctx context.Context, symbol string) error {
	g.cancelAllCalls++
	return nil
}

func buildHedgeBook(t *testing.T, instrumentID int32, mid string) *orderbook.Book {
	t.Helper()
	book := orderbook.New(instrumentID, 10, nil)
	ev := marketdata.Event{Sequence: 1, InstrumentID: instrumentID, Kind: marketdata.KindUpdate}
	ev.AppendUpdate(marketdata.PriceLevelEntry{Side: marketdata.SideBuy, PriceTicks: price(mid), QuantityTicks: qty("100")})
	ev.AppendUpdate(marketdata.PriceLevelEntry{Side: marketdata.SideSell, PriceTicks: price(mid), QuantityTicks: qty("100")})
	require.True(t, book.ApplyEvent(ev))
	return book
}

func TestOnQuoteFillAccumulatesAndSlices(t *testing.T) {
	quoteInst := instrument.Instrument{ID: 1, Symbol: "BTCUSDT", ProductType: instrument.ProductPerpetual, QuoteCurrency: "USDT", DenominationCurrency: "USDT", Multiplier: qty("1")}
	hedgeInst := instrument.Instrument{ID: 2, Symbol: "BTCUSDT-HEDGE", ProductType: instrument.ProductPerpetual, QuoteCurrency: "USDT", DenominationCurrency: "USDT", Multiplier: qty("1"), MinOrderSize: qty("0.01"), LotSize: qty("0.001")}

	hedgeBook := buildHedgeBook(t, 2, "50000")
	fxSvc := fx.NewService(nil)

	gw := &recordingGateway{}
	h := NewHedger(HedgingParameters{QuoteInstrument: quoteInst, HedgeInstrument: hedgeInst, MaxOrderSize: qty("10")}, fxSvc, gw, hedgeBook, nil)
	h.SetHedgeExchangeConnected(context.Background(), true)

	err := h.OnQuoteFill(context.Background(), marketdata.SideBuy, price("50000"), qty("1"))
	require.NoError(t, err)

	require.Len(t, gw.newOrders, 1)
	assert.Equal(t, marketdata.SideSell, gw.newOrders[0].Side, "a buy fill on the quote side needs an opposite-sign hedge")
}

func TestOnQuoteFillHoldsWithoutFXPath(t *testing.T) {
	quoteInst := instrument.Instrument{ID: 1, Symbol: "ETHBTC", ProductType: instrument.ProductSpot, QuoteCurrency: "BTC", DenominationCurrency: "BTC"}
	hedgeInst := instrument.Instrument{ID: 2, Symbol: "ETHUSDT", ProductType: instrument.ProductPerpetual, QuoteCurrency: "USDT", DenominationCurrency: "USDT", MinOrderSize: qty("0.01"), LotSize: qty("0.001")}

	hedgeBook := buildHedgeBook(t, 2, "3000")
	fxSvc := fx.NewService(nil) // no path registered

	gw := &recordingGateway{}
	h := NewHedger(HedgingParameters{QuoteInstrument: quoteInst, HedgeInstrument: hedgeInst, MaxOrderSize: qty("10")}, fxSvc, gw, hedgeBook, nil)
	h.SetHedgeExchangeConnected(context.Background(), true)

	err := h.OnQuoteFill(context.Background(), marketdata.SideBuy, price("0.05"), qty("1"))
	require.NoError(t, err)
	assert.Empty(t, gw.newOrders)
	assert.True(t, h.NetPendingHedgeQuantity().IsZero())
}

func TestHedgerSlicesUntilExhaustedAcrossFills(t *testing.T) {
	quoteInst := instrument.Instrument{ID: 1, Symbol: "BTCUSDT", ProductType: instrument.ProductPerpetual, QuoteCurrency: "USDT", DenominationCurrency: "USDT", Multiplier: qty("1")}
	hedgeInst := instrument.Instrument{ID: 2, Symbol: "BTCUSDT-HEDGE", ProductType: instrument.ProductPerpetual, QuoteCurrency: "USDT", DenominationCurrency: "USDT", Multiplier: qty("1"), MinOrderSize: qty("0.01"), LotSize: qty("0.001")}

	hedgeBook := buildHedgeBook(t, 2, "50000")
	fxSvc := fx.NewService(nil)

	gw := &recordingGateway{}
	h := NewHedger(HedgingParameters{QuoteInstrument: quoteInst, HedgeInstrument: hedgeInst, MaxOrderSize: qty("0.4")}, fxSvc, gw, hedgeBook, nil)
	h.SetHedgeExchangeConnected(context.Background(), true)

	err := h.OnQuoteFill(context.Background(), marketdata.SideBuy, price("50000"), qty("1"))
	require.NoError(t, err)
	require.Len(t, gw.newOrders, 1, "MaxOrderSize caps the first slice, only one order in flight at a time")
	assert.False(t, h.NetPendingHedgeQuantity().IsZero(), "1 BTC of pending exceeds MaxOrderSize so some should remain unsliced")

	for i := 0; i < 10 && !h.NetPendingHedgeQuantity().IsZero(); i++ {
		last := gw.newOrders[len(gw.newOrders)-1]
		require.NoError(t, h.OnHedgeOrderFilled(context.Background(), last.ClientOrderID))
	}

	assert.True(t, h.NetPendingHedgeQuantity().IsZero(), "repeated fills should keep slicing until net_pending_hedge_quantity is exhausted, per spec scenario 6")
	assert.Greater(t, len(gw.newOrders), 1, "more than one slice should have been submitted across fills")
}

func TestDeactivationTriggersBulkCancel(t *testing.T) {
	quoteInst := instrument.Instrument{ID: 1, DenominationCurrency: "USDT"}
	hedgeInst := instrument.Instrument{ID: 2, Symbol: "BTCUSDT", DenominationCurrency: "USDT"}
	hedgeBook := buildHedgeBook(t, 2, "50000")

	gw := &recordingGateway{}
	h := NewHedger(HedgingParameters{QuoteInstrument: quoteInst, HedgeInstrument: hedgeInst}, fx.NewService(nil), gw, hedgeBook, nil)

	h.SetHedgeExchangeConnected(context.Background(), true)
	assert.True(t, h.IsActive())

	h.SetHedgeExchangeConnected(context.Background(), false)
	assert.False(t, h.IsActive())
	assert.Equal(t, 1, gw.cancelAllCalls, "the active-to-inactive transition issues one bulk cancel")
}
