package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGateway struct {
	newOrderCalls int
	replaceCalls  int
	cancelCalls   int
	bulkCalls     int
}

func (m *mockGateway) SupportsOrderReplacement() bool { return true }

func (m *mockGateway) SendNewOrder(ctx context.Context, req NewOrderRequest) (OrderPlacementResult, error) {
	m.newOrderCalls++
	return OrderPlacementResult{Success: true, ExchangeOrderID: "ex-1"}, nil
}

func (m *mockGateway) SendReplaceOrder(ctx context.Context, req ReplaceOrderRequest) (OrderModificationResult, error) {
	m.replaceCalls++
	return OrderModificationResult{Success: true}, nil
}

func (m *mockGateway) SendCancelOrder(ctx context.Context, req CancelOrderRequest) (OrderModificationResult, error) {
	m.cancelCalls++
	return OrderModificationResult{Success: true}, nil
}

func (m *mockGateway) SendBulkCancelOrders(ctx context.Context, req BulkCancelOrdersRequest) ([]OrderModificationResult, error) {
	m.bulkCalls++
	return make([]OrderModificationResult, len(req.OrderIDs)), nil
}

func (m *mockGateway) FetchOrderStatus(ctx context.Context, exchangeOrderID string) (OrderStatusReport, error) {
	return OrderStatusReport{ExchangeOrderID: exchangeOrderID}, nil
}

func (m *mockGateway) CancelAllOrders(ctx context.Context, symbol string) error {
	return nil
}

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	mock := &mockGateway{}
	rl := NewRateLimiterGateway(mock, 5, 100)

	res, err := rl.SendNewOrder(context.Background(), NewOrderRequest{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, mock.newOrderCalls)
}

func TestRateLimiterRejectsWithoutCallingWrapped(t *testing.T) {
	mock := &mockGateway{}
	rl := NewRateLimiterGateway(mock, 1, 100)

	_, err := rl.SendNewOrder(context.Background(), NewOrderRequest{})
	require.NoError(t, err)

	res, err := rl.SendNewOrder(context.Background(), NewOrderRequest{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, rateLimitRejectedReason, res.FailureReason)
	assert.Equal(t, 1, mock.newOrderCalls, "wrapped gateway must not be called when the limiter rejects")
}

func TestFetchOrderStatusBypassesLimiter(t *testing.T) {
	mock := &mockGateway{}
	rl := NewRateLimiterGateway(mock, 0, 0)

	_, err := rl.FetchOrderStatus(context.Background(), "ex-1")
	assert.NoError(t, err)
}

func TestCancelAllOrdersBypassesLimiter(t *testing.T) {
	mock := &mockGateway{}
	rl := NewRateLimiterGateway(mock, 0, 0)

	err := rl.CancelAllOrders(context.Background(), "BTCUSDT")
	assert.NoError(t, err)
}
