package quoting

import (
	"context"
	"testing"
	"time"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/gateway"
	"github.com/Bishopest/openhft-sub002/internal/marketdata"
	"github.com/Bishopest/openhft-sub002/internal/orderbook"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func p(s string) fixedpoint.Price    { return fixedpoint.PriceFromDecimal(decimal.RequireFromString(s)) }
func q(s string) fixedpoint.Quantity { return fixedpoint.QuantityFromDecimal(decimal.RequireFromString(s)) }

func buildBook(t *testing.T, bid, ask, bidQty, askQty string) *orderbook.Book {
	t.Helper()
	book := orderbook.New(1, 10, nil)
	ev := marketdata.Event{Sequence: 1, InstrumentID: 1, Kind: marketdata.KindUpdate, TimestampUS: uint64(time.Now().UnixMicro())}
	ev.AppendUpdate(marketdata.PriceLevelEntry{Side: marketdata.SideBuy, PriceTicks: p(bid), QuantityTicks: q(bidQty)})
	ev.AppendUpdate(marketdata.PriceLevelEntry{Side: marketdata.SideSell, PriceTicks: p(ask), QuantityTicks: q(askQty)})
	require.True(t, book.ApplyEvent(ev))
	return book
}

type trackingGateway struct {
	supportsReplace bool
	newOrders       int
	replaces        int
	cancels         int
}

func (g *trackingGateway) SupportsOrderReplacement() bool { return g.supportsReplace }

func (g *trackingGateway) SendNewOrder(ctx context.Context, req gateway.NewOrderRequest) (gateway.OrderPlacementResult, error) {
	g.newOrders++
	return gateway.OrderPlacementResult{Success: true, ExchangeOrderID: "ex-" + req.ClientOrderID}, nil
}

func (g *trackingGateway) SendReplaceOrder(ctx context.Context, req gateway.ReplaceOrderRequest) (gateway.OrderModificationResult, error) {
	g.replaces++
	return gateway.OrderModificationResult{Success: true}, nil
}

func (g *trackingGateway) SendCancelOrder(ctx context.Context, req gateway.CancelOrderRequest) (gateway.OrderModificationResult, error) {
	g.cancels++
	return gateway.OrderModificationResult{Success: true}, nil
}

func (g *trackingGateway) SendBulkCancelOrders(ctx context.Context, req gateway.BulkCancelOrdersRequest) ([]gateway.OrderModificationResult, error) {
	return nil, nil
}

func (g *trackingGateway) FetchOrderStatus(ctx context.Context, exchangeOrderID string) (gateway.OrderStatusReport, error) {
	return gateway.OrderStatusReport{}, nil
}

func (g *trackingGateway) CancelAllOrders(ctx context.Context, symbol string) error { return nil }

func baseParams() QuotingParameters {
	mid, _ := NewFVModel(FVModelMid)
	return QuotingParameters{
		SourceInstrumentID: 1,
		TargetInstrumentID: 1,
		FVModel:            mid,
		Depth:              2,
		AskSpreadBp:        10,
		BidSpreadBp:        10,
		StepBp:             5,
		SkewBp:             0,
		GroupingBp:         1,
		Size:               q("1"),
		Tick:               p("0.01"),
		Lot:                q("0.001"),
		Hitting:            HittingAllowAll,
	}
}

func TestTickSubmitsLadderOnBothSides(t *testing.T) {
	book := buildBook(t, "100", "100.01", "10", "10")
	gw := &trackingGateway{supportsReplace: true}
	e := NewEngine("strat1", baseParams(), gw, book, nil)

	e.Tick(context.Background())

	assert.Equal(t, 4, gw.newOrders, "2 levels per side, 2 sides")
	bidState, askState := e.SideStates()
	assert.Equal(t, SideQuoting, bidState)
	assert.Equal(t, SideQuoting, askState)
}

func TestTickHoldsOnCrossedBook(t *testing.T) {
	book := orderbook.New(1, 10, nil)
	ev := marketdata.Event{Sequence: 1, InstrumentID: 1, Kind: marketdata.KindUpdate, TimestampUS: uint64(time.Now().UnixMicro())}
	ev.AppendUpdate(marketdata.PriceLevelEntry{Side: marketdata.SideBuy, PriceTicks: p("101"), QuantityTicks: q("1")})
	ev.AppendUpdate(marketdata.PriceLevelEntry{Side: marketdata.SideSell, PriceTicks: p("100"), QuantityTicks: q("1")})
	require.True(t, book.ApplyEvent(ev))

	gw := &trackingGateway{supportsReplace: true}
	e := NewEngine("strat1", baseParams(), gw, book, nil)
	e.Tick(context.Background())

	assert.Equal(t, 0, gw.newOrders)
}

func TestThrottlePausesSide(t *testing.T) {
	book := buildBook(t, "100", "100.01", "10", "10")
	gw := &trackingGateway{supportsReplace: true}
	params := baseParams()
	params.MaxCumBidFills = q("1")
	e := NewEngine("strat1", params, gw, book, nil)

	e.RecordFill(marketdata.SideBuy, p("100"), q("1"))
	e.Tick(context.Background())

	bidState, _ := e.SideStates()
	assert.Equal(t, SidePaused, bidState)
}

func TestReplaceUsedWhenSupported(t *testing.T) {
	book := buildBook(t, "100", "100.01", "10", "10")
	gw := &trackingGateway{supportsReplace: true}
	params := baseParams()
	params.GroupingBp = 0
	e := NewEngine("strat1", params, gw, book, nil)
	e.Tick(context.Background())

	moved := buildBook(t, "105", "105.01", "10", "10")
	e2 := NewEngine("strat1", params, gw, moved, nil)
	e2.bidSlots = e.bidSlots
	e2.askSlots = e.askSlots
	e2.Tick(context.Background())

	assert.Greater(t, gw.replaces, 0)
}

func TestRetireCancelsAll(t *testing.T) {
	book := buildBook(t, "100", "100.01", "10", "10")
	gw := &trackingGateway{supportsReplace: true}
	e := NewEngine("strat1", baseParams(), gw, book, nil)
	e.Tick(context.Background())
	require.Equal(t, 4, gw.newOrders)

	e.Retire(context.Background())
	assert.Equal(t, 4, gw.cancels)

	bidState, askState := e.SideStates()
	assert.Equal(t, SideRetired, bidState)
	assert.Equal(t, SideRetired, askState)
}
