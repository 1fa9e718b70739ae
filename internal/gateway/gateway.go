// Package gateway defines the feed adapter and order gateway interfaces
// the core depends on, plus the rate-limiter decorator all concrete
// gateways are wrapped in. binancefutures.go adapts
// services/binance/futures.BinanceFutures (a plain REST client) to
// OrderGateway; the interfaces here are grounded on
// internal/exchange/base.go's connect/disconnect/is_connected shape and
// services/binance/*/client.go's CreateOrder/CancelOrder/GetOpenOrders method
// naming.
package gateway

import (
	"context"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/marketdata"
)

// Side mirrors marketdata.Side for order-facing code that should not
// import the market-data package just for the enum.
type Side = marketdata.Side

// OrderStatus is the closed set of order lifecycle states.
type OrderStatus string

const (
	StatusPending         OrderStatus = "Pending"
	StatusNew             OrderStatus = "New"
	StatusPartiallyFilled OrderStatus = "PartiallyFilled"
	StatusFilled          OrderStatus = "Filled"
	StatusCancelled       OrderStatus = "Cancelled"
	StatusRejected        OrderStatus = "Rejected"
)

// OrderStatusReport is the wire-stable report a gateway or feed adapter
// emits for order lifecycle events.
type OrderStatusReport struct {
	ClientOrderID    string
	ExchangeOrderID  string
	ExecutionID      string
	InstrumentID     int32
	Side             Side
	Status           OrderStatus
	Price            fixedpoint.Price
	Quantity         fixedpoint.Quantity
	LeavesQuantity   fixedpoint.Quantity
	TimestampMS      int64
}

// Fill is a single execution report.
type Fill struct {
	InstrumentID    int32
	BookName        string
	ClientOrderID   string
	ExchangeOrderID string
	ExecutionID     string
	Side            Side
	Price           fixedpoint.Price
	Quantity        fixedpoint.Quantity
	TimestampMS     int64
}

// ConnectionStateChanged is raised by a FeedAdapter whenever its
// connection status flips.
type ConnectionStateChanged struct {
	IsConnected bool
	Reason      string
}

// NewOrderRequest is the input to SendNewOrder.
type NewOrderRequest struct {
	ClientOrderID string
	InstrumentID  int32
	Side          Side
	Price         fixedpoint.Price
	Quantity      fixedpoint.Quantity
	PostOnly      bool
}

// ReplaceOrderRequest is the input to SendReplaceOrder.
type ReplaceOrderRequest struct {
	ClientOrderID   string
	ExchangeOrderID string
	InstrumentID    int32
	NewPrice        fixedpoint.Price
	NewQuantity     fixedpoint.Quantity
}

// CancelOrderRequest is the input to SendCancelOrder.
type CancelOrderRequest struct {
	ClientOrderID   string
	ExchangeOrderID string
	InstrumentID    int32
}

// BulkCancelOrdersRequest is the input to SendBulkCancelOrders.
type BulkCancelOrdersRequest struct {
	InstrumentID int32
	OrderIDs     []string
}

// OrderPlacementResult is the outcome of SendNewOrder.
type OrderPlacementResult struct {
	Success         bool
	ExchangeOrderID string
	FailureReason   string
	InitialReport   *OrderStatusReport
}

// OrderModificationResult is the outcome of a replace/cancel/bulk-cancel
// call.
type OrderModificationResult struct {
	Success       bool
	FailureReason string
	Report        *OrderStatusReport
}

// FeedAdapter is the interface the core depends on for market-data and
// private-stream ingestion. Concrete exchange framing is out of scope;
// implementations live alongside their OrderGateway counterpart (see
// binancefutures_feed.go).
type FeedAdapter interface {
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool

	Subscribe(instrumentIDs []int32, topics []int32) error
	Unsubscribe(instrumentIDs []int32, topics []int32) error

	OnMarketDataReceived(cb func(marketdata.Event))
	OnOrderUpdateReceived(cb func(OrderStatusReport))
	OnConnectionStateChanged(cb func(ConnectionStateChanged))
}

// OrderGateway is the interface the quoting engine and hedger send
// orders through.
type OrderGateway interface {
	SupportsOrderReplacement() bool

	SendNewOrder(ctx context.Context, req NewOrderRequest) (OrderPlacementResult, error)
	SendReplaceOrder(ctx context.Context, req ReplaceOrderRequest) (OrderModificationResult, error)
	SendCancelOrder(ctx context.Context, req CancelOrderRequest) (OrderModificationResult, error)
	SendBulkCancelOrders(ctx context.Context, req BulkCancelOrdersRequest) ([]OrderModificationResult, error)
	FetchOrderStatus(ctx context.Context, exchangeOrderID string) (OrderStatusReport, error)
	CancelAllOrders(ctx context.Context, symbol string) error
}
