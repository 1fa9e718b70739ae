package futures

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/Bishopest/openhft-sub002/pkg/cache"
	"github.com/Bishopest/openhft-sub002/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BinanceFutures wraps the go-binance futures REST and websocket clients.
// Only the order-entry surface (CreateOrder/CancelOrder/GetOpenOrders,
// behind gateway.BinanceFuturesGateway) and the market-data/user-data
// websocket streams (behind gateway.BinanceFuturesFeed) are exposed; the
// broader account/position/leverage REST surface the exchange offers is
// out of scope for this core.
type BinanceFutures struct {
	client      *futures.Client
	wsClient    map[string]chan struct{}
	rateLimiter *cache.RateLimiter
	apiKey      string
	apiSecret   string
	testnet     bool
	log         *logrus.Entry
}

func NewBinanceFutures(apiKey, apiSecret string, testnet bool) (*BinanceFutures, error) {
	var client *futures.Client

	if testnet {
		futures.UseTestnet = true
	}

	client = futures.NewClient(apiKey, apiSecret)

	bf := &BinanceFutures{
		client:      client,
		wsClient:    make(map[string]chan struct{}),
		rateLimiter: cache.NewRateLimiter(2400, time.Minute), // Futures has higher limits
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		testnet:     testnet,
		log:         logrus.WithField("component", "binance-futures"),
	}

	return bf, nil
}

// GetName returns the exchange name
func (bf *BinanceFutures) GetName() string {
	return "binance"
}

// GetMarket returns the market type
func (bf *BinanceFutures) GetMarket() string {
	return "futures"
}

// IsConnected checks if the connection is active
func (bf *BinanceFutures) IsConnected() bool {
	err := bf.client.NewPingService().Do(context.Background())
	return err == nil
}

// CreateOrder creates a new futures order
func (bf *BinanceFutures) CreateOrder(order *types.Order) (*types.OrderResponse, error) {
	if !bf.rateLimiter.Allow("create_order") {
		return nil, fmt.Errorf("rate limit exceeded")
	}

	svc := bf.client.NewCreateOrderService().
		Symbol(order.Symbol).
		Side(futures.SideType(order.Side)).
		Type(futures.OrderType(order.Type))

	// Set position side if specified
	if order.PositionSide != "" {
		svc.PositionSide(futures.PositionSideType(order.PositionSide))
	}

	if order.Type == types.OrderTypeLimit {
		svc.TimeInForce(futures.TimeInForceTypeGTC).
			Price(order.Price.String()).
			Quantity(order.Quantity.String())
	} else if order.Type == types.OrderTypeMarket {
		svc.Quantity(order.Quantity.String())
	}

	// Add reduce only if specified
	if order.ReduceOnly {
		svc.ReduceOnly(true)
	}

	res, err := svc.Do(context.Background())
	if err != nil {
		return nil, err
	}

	response := &types.OrderResponse{
		OrderID:      fmt.Sprintf("%d", res.OrderID),
		ClientID:     res.ClientOrderID,
		Symbol:       res.Symbol,
		Side:         string(res.Side),
		Type:         string(res.Type),
		Status:       string(res.Status),
		Price:        res.Price,
		Quantity:     res.OrigQuantity,
		ExecutedQty:  res.ExecutedQuantity,
		TransactTime: res.UpdateTime,
	}

	return response, nil
}

// CancelOrder cancels an existing order
func (bf *BinanceFutures) CancelOrder(symbol, orderID string) error {
	if !bf.rateLimiter.Allow("cancel_order") {
		return fmt.Errorf("rate limit exceeded")
	}

	// Try to parse orderID as int64 first
	if orderIDInt, err := strconv.ParseInt(orderID, 10, 64); err == nil {
		_, err = bf.client.NewCancelOrderService().
			Symbol(symbol).
			OrderID(orderIDInt).
			Do(context.Background())
		return err
	}

	// If not numeric, try as origClientOrderID
	_, err := bf.client.NewCancelOrderService().
		Symbol(symbol).
		OrigClientOrderID(orderID).
		Do(context.Background())

	return err
}

// GetOpenOrders retrieves all open orders
func (bf *BinanceFutures) GetOpenOrders(symbol string) ([]*types.OrderResponse, error) {
	if !bf.rateLimiter.Allow("open_orders") {
		return nil, fmt.Errorf("rate limit exceeded")
	}

	svc := bf.client.NewListOpenOrdersService()
	if symbol != "" {
		svc.Symbol(symbol)
	}

	orders, err := svc.Do(context.Background())
	if err != nil {
		return nil, err
	}

	result := make([]*types.OrderResponse, 0, len(orders))
	for _, order := range orders {
		result = append(result, &types.OrderResponse{
			OrderID:      fmt.Sprintf("%d", order.OrderID),
			ClientID:     order.ClientOrderID,
			Symbol:       order.Symbol,
			Side:         string(order.Side),
			Type:         string(order.Type),
			Status:       string(order.Status),
			Price:        order.Price,
			Quantity:     order.OrigQuantity,
			ExecutedQty:  order.ExecutedQuantity,
			TransactTime: order.UpdateTime,
		})
	}

	return result, nil
}

// Helper function to parse decimal
func parseDecimal(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// Close stops every subscribed websocket stream.
func (bf *BinanceFutures) Close() error {
	for key, stop := range bf.wsClient {
		close(stop)
		delete(bf.wsClient, key)
	}
	return nil
}
