package quoting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Bishopest/openhft-sub002/internal/coreerrors"
	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/gateway"
	"github.com/Bishopest/openhft-sub002/internal/marketdata"
	"github.com/Bishopest/openhft-sub002/internal/orderbook"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FillHandler is invoked whenever a ladder slot's resting order fills
// (fully or partially), so the hedger can react. qty is the signed fill
// quantity for the quote's side (positive for Buy, negative for Sell).
type FillHandler func(side marketdata.Side, price fixedpoint.Price, qty fixedpoint.Quantity)

// Engine maintains a two-sided ladder of resting orders for one target
// instrument, replacing MarketMaker's direct-exchange-call shape with an
// OrderGateway dependency and an explicit per-slot order reference instead
// of the teacher's fmt.Sprintf key-based order matching.
type Engine struct {
	mu sync.Mutex

	strategyID string
	params     QuotingParameters
	gw         gateway.OrderGateway
	sourceBook *orderbook.Book

	bidSlots []Slot
	askSlots []Slot

	bidState SideState
	askState SideState

	cumBidFilled fixedpoint.Quantity
	cumAskFilled fixedpoint.Quantity

	onFill FillHandler

	log *logrus.Entry
}

// NewEngine creates a quoting engine for params, reading fair value from
// sourceBook and submitting orders through gw. strategyID prefixes
// generated client order ids.
func NewEngine(strategyID string, params QuotingParameters, gw gateway.OrderGateway, sourceBook *orderbook.Book, log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.WithField("component", "quoting")
	}
	return &Engine{
		strategyID: strategyID,
		params:     params,
		gw:         gw,
		sourceBook: sourceBook,
		bidSlots:   make([]Slot, params.Depth),
		askSlots:   make([]Slot, params.Depth),
		bidState:   SideIdle,
		askState:   SideIdle,
		log:        log.WithField("strategy", strategyID),
	}
}

// OnFill registers the callback invoked on every slot fill.
func (e *Engine) OnFill(h FillHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFill = h
}

// SideStates reports the bid/ask state machine states.
func (e *Engine) SideStates() (bid, ask SideState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bidState, e.askState
}

// RecordFill updates cumulative throttle tracking and notifies the
// registered FillHandler. Called by the order-update stream when a ladder
// order fills.
func (e *Engine) RecordFill(side marketdata.Side, price fixedpoint.Price, qty fixedpoint.Quantity) {
	e.mu.Lock()
	if side == marketdata.SideBuy {
		e.cumBidFilled = e.cumBidFilled.Add(qty)
	} else {
		e.cumAskFilled = e.cumAskFilled.Add(qty)
	}
	handler := e.onFill
	e.mu.Unlock()

	if handler != nil {
		signed := qty
		if side == marketdata.SideSell {
			signed = qty.Neg()
		}
		handler(side, price, signed)
	}
}

// ResetThrottle clears cumulative-fill throttling for side, moving it out
// of Paused back to Idle (it resumes Quoting on the next Tick).
func (e *Engine) ResetThrottle(side marketdata.Side) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if side == marketdata.SideBuy {
		e.cumBidFilled = 0
		if e.bidState == SidePaused {
			e.bidState = SideIdle
		}
	} else {
		e.cumAskFilled = 0
		if e.askState == SidePaused {
			e.askState = SideIdle
		}
	}
}

// Retire moves both sides to Retired and cancels all resting orders. A
// retired engine never quotes again.
func (e *Engine) Retire(ctx context.Context) {
	e.mu.Lock()
	e.bidState = SideRetired
	e.askState = SideRetired
	e.mu.Unlock()
	e.cancelAll(ctx)
}

func (e *Engine) cancelAll(ctx context.Context) {
	for i := range e.bidSlots {
		e.cancelSlot(ctx, &e.bidSlots[i])
	}
	for i := range e.askSlots {
		e.cancelSlot(ctx, &e.askSlots[i])
	}
}

// Tick recomputes the ladder from the current source book state and
// reconciles resting orders against it. It should be called on a fixed
// refresh rate (the teacher's RefreshRate ticker pattern in
// market_maker.go's quoteWorker) or after a material book event.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	if e.bidState == SideRetired && e.askState == SideRetired {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	if e.isStale() {
		e.log.Debug("quoting: source book stale, holding")
		e.holdSide(ctx, marketdata.SideBuy)
		e.holdSide(ctx, marketdata.SideSell)
		return
	}

	fv, ok := e.params.FVModel.FairValue(e.sourceBook)
	if !ok || e.sourceBook.IsCrossed() || !e.sourceBook.IsTightSpread(e.params.Tick) {
		e.holdSide(ctx, marketdata.SideBuy)
		e.holdSide(ctx, marketdata.SideSell)
		return
	}

	e.tickSide(ctx, marketdata.SideBuy, fv)
	e.tickSide(ctx, marketdata.SideSell, fv)
}

func (e *Engine) isStale() bool {
	if e.params.ExpectedUpdateInterval <= 0 {
		return false
	}
	lastUS := e.sourceBook.LastUpdateTS()
	if lastUS == 0 {
		return true
	}
	age := time.Duration(time.Now().UnixMicro()-int64(lastUS)) * time.Microsecond
	return age > e.params.SourceStaleAfter()
}

func (e *Engine) holdSide(ctx context.Context, side marketdata.Side) {
	slots := e.slotsFor(side)
	for i := range slots {
		e.cancelSlot(ctx, &slots[i])
	}
}

func (e *Engine) slotsFor(side marketdata.Side) []Slot {
	if side == marketdata.SideBuy {
		return e.bidSlots
	}
	return e.askSlots
}

func (e *Engine) tickSide(ctx context.Context, side marketdata.Side, fv fixedpoint.Price) {
	e.mu.Lock()
	throttled := e.isThrottledLocked(side)
	state := e.stateFor(side)
	e.mu.Unlock()

	if state == SideRetired {
		return
	}
	if throttled {
		e.setState(side, SidePaused)
		e.holdSide(ctx, side)
		return
	}

	quotes := e.generateQuotes(side, fv)
	e.setState(side, SideQuoting)
	e.reconcileSide(ctx, side, quotes)
}

func (e *Engine) isThrottledLocked(side marketdata.Side) bool {
	if side == marketdata.SideBuy {
		return e.params.MaxCumBidFills > 0 && e.cumBidFilled.Cmp(e.params.MaxCumBidFills) >= 0
	}
	return e.params.MaxCumAskFills > 0 && e.cumAskFilled.Cmp(e.params.MaxCumAskFills) >= 0
}

func (e *Engine) stateFor(side marketdata.Side) SideState {
	if side == marketdata.SideBuy {
		return e.bidState
	}
	return e.askState
}

func (e *Engine) setState(side marketdata.Side, s SideState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if side == marketdata.SideBuy {
		if e.bidState != SideRetired {
			e.bidState = s
		}
	} else {
		if e.askState != SideRetired {
			e.askState = s
		}
	}
}

// generateQuotes computes spec §4.4's ladder for one side, applying
// grouping against each slot's current resting price.
func (e *Engine) generateQuotes(side marketdata.Side, fv fixedpoint.Price) []Quote {
	quotes := make([]Quote, e.params.Depth)
	slots := e.slotsFor(side)

	baseSpread := e.params.AskSpreadBp
	sign := int64(1)
	if side == marketdata.SideBuy {
		baseSpread = e.params.BidSpreadBp
		sign = -1
	}

	for i := 0; i < e.params.Depth; i++ {
		spreadBp := baseSpread + int64(i)*e.params.StepBp
		skewTerm := e.params.SkewBp * sign
		totalBp := spreadBp + skewTerm

		raw := applyBp(fv, totalBp*sign)
		var price fixedpoint.Price
		if side == marketdata.SideSell {
			price = fixedpoint.RoundPriceUpToTick(raw, e.params.Tick)
		} else {
			price = fixedpoint.RoundPriceDownToTick(raw, e.params.Tick)
		}

		if e.withinGrouping(slots[i], price, fv) {
			price = slots[i].RestingPrice
		}

		valid := e.passesHittingLogic(side, price)

		quotes[i] = Quote{
			Side:  side,
			Level: i,
			Price: price,
			Qty:   e.params.Size.RoundDownToLot(e.params.Lot),
			Valid: valid,
		}
	}
	return quotes
}

// applyBp computes price * (1 + bp/10000) using float64 intermediate math,
// acceptable here since quote placement is not ledger PnL (see
// fixedpoint.MulQuantityByPriceRatio's doc for the same rationale).
func applyBp(price fixedpoint.Price, bp int64) fixedpoint.Price {
	return fixedpoint.Price(float64(price) * (1 + float64(bp)/10000.0))
}

func (e *Engine) withinGrouping(slot Slot, newPrice fixedpoint.Price, fv fixedpoint.Price) bool {
	if !slot.HasOrder || e.params.GroupingBp <= 0 || fv == 0 {
		return false
	}
	diff := int64(newPrice) - int64(slot.RestingPrice)
	if diff < 0 {
		diff = -diff
	}
	diffBp := diff * 10000 / int64(fv)
	return diffBp < e.params.GroupingBp
}

func (e *Engine) passesHittingLogic(side marketdata.Side, price fixedpoint.Price) bool {
	if e.params.Hitting == HittingAllowAll {
		return true
	}
	// NoCross and MakerOnly both forbid quoting through the opposite best.
	bestBid, bidQty := e.sourceBook.GetBestBid()
	bestAsk, askQty := e.sourceBook.GetBestAsk()
	if side == marketdata.SideSell && !bidQty.IsZero() && price.Cmp(bestBid) <= 0 {
		return false
	}
	if side == marketdata.SideBuy && !askQty.IsZero() && price.Cmp(bestAsk) >= 0 {
		return false
	}
	return true
}

func (e *Engine) reconcileSide(ctx context.Context, side marketdata.Side, quotes []Quote) {
	slots := e.slotsFor(side)
	for i := range slots {
		slot := &slots[i]
		q := quotes[i]

		if !q.Valid {
			e.cancelSlot(ctx, slot)
			continue
		}

		if !slot.HasOrder {
			e.submitSlot(ctx, slot, q)
			continue
		}

		if slot.RestingPrice != q.Price {
			e.replaceSlot(ctx, slot, q)
		}
	}
}

func (e *Engine) submitSlot(ctx context.Context, slot *Slot, q Quote) {
	clientID := fmt.Sprintf("%s-%s", e.strategyID, uuid.NewString())
	req := gateway.NewOrderRequest{
		ClientOrderID: clientID,
		InstrumentID:  e.params.TargetInstrumentID,
		Side:          q.Side,
		Price:         q.Price,
		Quantity:      q.Qty,
		PostOnly:      e.params.UsePostOnly || e.params.Hitting == HittingMakerOnly,
	}
	res, err := e.gw.SendNewOrder(ctx, req)
	if err != nil || !res.Success {
		e.handleGatewayFailure(ctx, "submit", err, res.FailureReason)
		return
	}
	slot.ClientOrderID = clientID
	slot.ExchangeOrderID = res.ExchangeOrderID
	slot.RestingPrice = q.Price
	slot.RestingQty = q.Qty
	slot.HasOrder = true
}

func (e *Engine) replaceSlot(ctx context.Context, slot *Slot, q Quote) {
	if e.gw.SupportsOrderReplacement() {
		res, err := e.gw.SendReplaceOrder(ctx, gateway.ReplaceOrderRequest{
			ClientOrderID:   slot.ClientOrderID,
			ExchangeOrderID: slot.ExchangeOrderID,
			InstrumentID:    e.params.TargetInstrumentID,
			NewPrice:        q.Price,
			NewQuantity:     q.Qty,
		})
		if err != nil || !res.Success {
			e.handleGatewayFailure(ctx, "replace", err, res.FailureReason)
			return
		}
		slot.RestingPrice = q.Price
		slot.RestingQty = q.Qty
		return
	}

	e.cancelSlot(ctx, slot)
	e.submitSlot(ctx, slot, q)
}

func (e *Engine) cancelSlot(ctx context.Context, slot *Slot) {
	if !slot.HasOrder {
		return
	}
	res, err := e.gw.SendCancelOrder(ctx, gateway.CancelOrderRequest{
		ClientOrderID:   slot.ClientOrderID,
		ExchangeOrderID: slot.ExchangeOrderID,
		InstrumentID:    e.params.TargetInstrumentID,
	})
	if err != nil || !res.Success {
		e.handleGatewayFailure(ctx, "cancel", err, res.FailureReason)
	}
	*slot = Slot{Side: slot.Side, Level: slot.Level}
}

// handleGatewayFailure implements spec §4.4's failure semantics: a plain
// gateway failure releases the slot (retried next tick); a Fatal-class
// error pauses the whole engine pending operator intervention.
func (e *Engine) handleGatewayFailure(ctx context.Context, op string, err error, reason string) {
	e.log.WithFields(logrus.Fields{"op": op, "reason": reason, "error": err}).Warn("quoting: gateway call failed")
	if err != nil && coreerrors.IsClass(err, coreerrors.ClassFatal) {
		e.mu.Lock()
		e.bidState = SidePaused
		e.askState = SidePaused
		e.mu.Unlock()
		e.cancelAll(ctx)
	}
}
