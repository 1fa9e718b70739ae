package gateway

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiterGateway decorates an OrderGateway with two token buckets
// (per-second and per-minute). If either bucket has no token available,
// send_* calls return immediately with success=false and do NOT call the
// wrapped gateway. FetchOrderStatus and CancelAllOrders bypass the
// limiter entirely, per spec.
//
// Adapted from pkg/cache/rate_limiter.go's fixed-window counter: that
// counter's periodic cleanup goroutine and "count < limit" check are
// replaced by golang.org/x/time/rate's Allow(), which gives the required
// non-blocking immediate-rejection semantics directly, with no background
// goroutine of its own.
type RateLimiterGateway struct {
	wrapped    OrderGateway
	perSecond  *rate.Limiter
	perMinute  *rate.Limiter
}

const rateLimitRejectedReason = "Rate limit exceeded."

// NewRateLimiterGateway wraps wrapped with token buckets sized
// perSecondLimit/perMinuteLimit. Bursts equal to each limit are allowed.
func NewRateLimiterGateway(wrapped OrderGateway, perSecondLimit, perMinuteLimit int) *RateLimiterGateway {
	return &RateLimiterGateway{
		wrapped:   wrapped,
		perSecond: rate.NewLimiter(rate.Limit(perSecondLimit), perSecondLimit),
		perMinute: rate.NewLimiter(rate.Limit(float64(perMinuteLimit)/60.0), perMinuteLimit),
	}
}

func (g *RateLimiterGateway) allow() bool {
	if !g.perSecond.Allow() {
		return false
	}
	if !g.perMinute.Allow() {
		return false
	}
	return true
}

func (g *RateLimiterGateway) SupportsOrderReplacement() bool {
	return g.wrapped.SupportsOrderReplacement()
}

func (g *RateLimiterGateway) SendNewOrder(ctx context.Context, req NewOrderRequest) (OrderPlacementResult, error) {
	if !g.allow() {
		return OrderPlacementResult{Success: false, FailureReason: rateLimitRejectedReason}, nil
	}
	return g.wrapped.SendNewOrder(ctx, req)
}

func (g *RateLimiterGateway) SendReplaceOrder(ctx context.Context, req ReplaceOrderRequest) (OrderModificationResult, error) {
	if !g.allow() {
		return OrderModificationResult{Success: false, FailureReason: rateLimitRejectedReason}, nil
	}
	return g.wrapped.SendReplaceOrder(ctx, req)
}

func (g *RateLimiterGateway) SendCancelOrder(ctx context.Context, req CancelOrderRequest) (OrderModificationResult, error) {
	if !g.allow() {
		return OrderModificationResult{Success: false, FailureReason: rateLimitRejectedReason}, nil
	}
	return g.wrapped.SendCancelOrder(ctx, req)
}

func (g *RateLimiterGateway) SendBulkCancelOrders(ctx context.Context, req BulkCancelOrdersRequest) ([]OrderModificationResult, error) {
	if !g.allow() {
		results := make([]OrderModificationResult, len(req.OrderIDs))
		for i := range results {
			results[i] = OrderModificationResult{Success: false, FailureReason: rateLimitRejectedReason}
		}
		return results, nil
	}
	return g.wrapped.SendBulkCancelOrders(ctx, req)
}

// FetchOrderStatus bypasses the limiter.
func (g *RateLimiterGateway) FetchOrderStatus(ctx context.Context, exchangeOrderID string) (OrderStatusReport, error) {
	return g.wrapped.FetchOrderStatus(ctx, exchangeOrderID)
}

// CancelAllOrders bypasses the limiter.
func (g *RateLimiterGateway) CancelAllOrders(ctx context.Context, symbol string) error {
	return g.wrapped.CancelAllOrders(ctx, symbol)
}
