package gateway

import (
	"context"
	"fmt"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/marketdata"
	binancefutures "github.com/Bishopest/openhft-sub002/services/binance/futures"
	"github.com/Bishopest/openhft-sub002/pkg/types"
	"github.com/shopspring/decimal"
)

// SymbolResolver maps an internal instrument ID to the exchange symbol the
// underlying client expects, and back. Concrete instrument registries
// (e.g. a static config-loaded table) implement this.
type SymbolResolver interface {
	Symbol(instrumentID int32) (string, bool)
}

// BinanceFuturesGateway adapts *binancefutures.BinanceFutures, a plain REST
// client with no replace-order or bulk-cancel endpoints, to OrderGateway.
// Grounded on services/binance/futures/client.go's CreateOrder/CancelOrder/
// GetOpenOrders method shapes.
type BinanceFuturesGateway struct {
	client   *binancefutures.BinanceFutures
	symbols  SymbolResolver
}

// NewBinanceFuturesGateway wraps client, resolving instrument IDs to
// exchange symbols via symbols.
func NewBinanceFuturesGateway(client *binancefutures.BinanceFutures, symbols SymbolResolver) *BinanceFuturesGateway {
	return &BinanceFuturesGateway{client: client, symbols: symbols}
}

// SupportsOrderReplacement is false: the REST client has no cancel-replace
// endpoint, so the quoting engine must cancel-then-submit instead.
func (g *BinanceFuturesGateway) SupportsOrderReplacement() bool { return false }

func (g *BinanceFuturesGateway) symbolFor(instrumentID int32) (string, error) {
	sym, ok := g.symbols.Symbol(instrumentID)
	if !ok {
		return "", fmt.Errorf("gateway: no symbol registered for instrument %d", instrumentID)
	}
	return sym, nil
}

func sideToExchange(s Side) types.OrderSide {
	if s == marketdata.SideSell {
		return types.OrderSideSell
	}
	return types.OrderSideBuy
}

func (g *BinanceFuturesGateway) SendNewOrder(ctx context.Context, req NewOrderRequest) (OrderPlacementResult, error) {
	symbol, err := g.symbolFor(req.InstrumentID)
	if err != nil {
		return OrderPlacementResult{Success: false, FailureReason: err.Error()}, nil
	}

	order := &types.Order{
		ClientOrderID: req.ClientOrderID,
		Symbol:        symbol,
		Side:          sideToExchange(req.Side),
		Type:          types.OrderTypeLimit,
		Price:         req.Price.ToDecimal(),
		Quantity:      req.Quantity.ToDecimal(),
	}
	if req.PostOnly {
		order.TimeInForce = types.TimeInForceGTX
	}

	res, err := g.client.CreateOrder(order)
	if err != nil {
		return OrderPlacementResult{Success: false, FailureReason: err.Error()}, nil
	}

	return OrderPlacementResult{
		Success:         true,
		ExchangeOrderID: res.OrderID,
		InitialReport: &OrderStatusReport{
			ClientOrderID:   req.ClientOrderID,
			ExchangeOrderID: res.OrderID,
			InstrumentID:    req.InstrumentID,
			Side:            req.Side,
			Status:          statusFromExchange(res.Status),
			Price:           fixedpoint.PriceFromDecimal(parseDecimalOrZero(res.Price)),
			Quantity:        fixedpoint.QuantityFromDecimal(parseDecimalOrZero(res.Quantity)),
		},
	}, nil
}

// SendReplaceOrder is implemented as cancel-then-new since the exchange has
// no native modify endpoint; callers should prefer it only when
// SupportsOrderReplacement is true, which this gateway reports false for.
func (g *BinanceFuturesGateway) SendReplaceOrder(ctx context.Context, req ReplaceOrderRequest) (OrderModificationResult, error) {
	symbol, err := g.symbolFor(req.InstrumentID)
	if err != nil {
		return OrderModificationResult{Success: false, FailureReason: err.Error()}, nil
	}
	if cancelErr := g.client.CancelOrder(symbol, req.ExchangeOrderID); cancelErr != nil {
		return OrderModificationResult{Success: false, FailureReason: cancelErr.Error()}, nil
	}
	placed, err := g.SendNewOrder(ctx, NewOrderRequest{
		ClientOrderID: req.ClientOrderID,
		InstrumentID:  req.InstrumentID,
		Price:         req.NewPrice,
		Quantity:      req.NewQuantity,
	})
	if err != nil || !placed.Success {
		return OrderModificationResult{Success: false, FailureReason: placed.FailureReason}, err
	}
	return OrderModificationResult{Success: true, Report: placed.InitialReport}, nil
}

func (g *BinanceFuturesGateway) SendCancelOrder(ctx context.Context, req CancelOrderRequest) (OrderModificationResult, error) {
	symbol, err := g.symbolFor(req.InstrumentID)
	if err != nil {
		return OrderModificationResult{Success: false, FailureReason: err.Error()}, nil
	}
	id := req.ExchangeOrderID
	if id == "" {
		id = req.ClientOrderID
	}
	if err := g.client.CancelOrder(symbol, id); err != nil {
		return OrderModificationResult{Success: false, FailureReason: err.Error()}, nil
	}
	return OrderModificationResult{Success: true}, nil
}

// SendBulkCancelOrders has no native batch endpoint: it cancels each order
// ID in sequence, collecting a result per ID.
func (g *BinanceFuturesGateway) SendBulkCancelOrders(ctx context.Context, req BulkCancelOrdersRequest) ([]OrderModificationResult, error) {
	symbol, err := g.symbolFor(req.InstrumentID)
	if err != nil {
		return nil, err
	}
	results := make([]OrderModificationResult, 0, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		if err := g.client.CancelOrder(symbol, id); err != nil {
			results = append(results, OrderModificationResult{Success: false, FailureReason: err.Error()})
			continue
		}
		results = append(results, OrderModificationResult{Success: true})
	}
	return results, nil
}

func (g *BinanceFuturesGateway) FetchOrderStatus(ctx context.Context, exchangeOrderID string) (OrderStatusReport, error) {
	// The underlying client requires a symbol; callers that only have an
	// exchange order ID must keep their own order->symbol mapping and use
	// SendCancelOrder/SendNewOrder's InitialReport instead where possible.
	return OrderStatusReport{}, fmt.Errorf("gateway: FetchOrderStatus requires a symbol-scoped lookup, not supported by exchange order ID alone")
}

// CancelAllOrders cancels every open order on symbol via repeated
// GetOpenOrders + CancelOrder calls (no native "cancel all" endpoint).
func (g *BinanceFuturesGateway) CancelAllOrders(ctx context.Context, symbol string) error {
	open, err := g.client.GetOpenOrders(symbol)
	if err != nil {
		return err
	}
	var firstErr error
	for _, o := range open {
		if err := g.client.CancelOrder(symbol, o.OrderID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func statusFromExchange(s string) OrderStatus {
	switch s {
	case types.OrderStatusNew:
		return StatusNew
	case types.OrderStatusPartiallyFilled:
		return StatusPartiallyFilled
	case types.OrderStatusFilled:
		return StatusFilled
	case types.OrderStatusCanceled:
		return StatusCancelled
	case types.OrderStatusRejected, types.OrderStatusExpired:
		return StatusRejected
	default:
		return StatusPending
	}
}

func parseDecimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
