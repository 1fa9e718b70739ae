// Package hedging implements the cross-instrument, cross-currency hedger:
// it keeps the net signed quantity of filled quoted orders on a target
// instrument offset by orders of opposite sign on a designated hedge
// instrument.
//
// Grounded on internal/strategies/market_maker/inventory_manager.go's
// ShouldHedge trigger/position bookkeeping shape and
// other_examples/.../hedging_strategy.go's rebalance-on-threshold rhythm
// and position-flip PnL bookkeeping in updatePosition. That file's
// regression-based dynamic hedge ratio is NOT carried over: spec.md §4.5
// specifies an exact deterministic notional conversion, not a statistical
// beta, so only the rebalance/slice rhythm is reused.
package hedging

import (
	"context"
	"fmt"
	"sync"

	"github.com/Bishopest/openhft-sub002/internal/coreerrors"
	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/fx"
	"github.com/Bishopest/openhft-sub002/internal/gateway"
	"github.com/Bishopest/openhft-sub002/internal/instrument"
	"github.com/Bishopest/openhft-sub002/internal/marketdata"
	"github.com/Bishopest/openhft-sub002/internal/orderbook"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HedgingParameters configures one Hedger instance.
type HedgingParameters struct {
	QuoteInstrument instrument.Instrument
	HedgeInstrument instrument.Instrument

	MaxOrderSize fixedpoint.Quantity
}

// Hedger keeps net_pending_hedge_quantity for one (quote instrument, hedge
// instrument) pair, slicing it into orders on the hedge instrument's
// gateway whenever it exceeds the hedge instrument's minimum order size.
type Hedger struct {
	mu sync.Mutex

	params    HedgingParameters
	fxService *fx.Service
	gw        gateway.OrderGateway
	hedgeBook *orderbook.Book

	netPendingHedgeQty fixedpoint.Quantity

	active            bool
	parametersApplied bool

	outstandingSliceID string

	log *logrus.Entry
}

// NewHedger creates a hedger for params, converting notionals via
// fxService and submitting hedge orders through gw against hedgeBook.
func NewHedger(params HedgingParameters, fxService *fx.Service, gw gateway.OrderGateway, hedgeBook *orderbook.Book, log *logrus.Entry) *Hedger {
	if log == nil {
		log = logrus.WithField("component", "hedging")
	}
	return &Hedger{
		params:            params,
		fxService:         fxService,
		gw:                gw,
		hedgeBook:         hedgeBook,
		parametersApplied: true,
		log:               log,
	}
}

// IsActive reports whether the hedger will act on fills: the hedge
// exchange adapter must report connected and parameters must be applied.
func (h *Hedger) IsActive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active && h.parametersApplied
}

// SetHedgeExchangeConnected updates activation state when the hedge
// instrument's adapter connection flips. Transitioning active->inactive
// triggers a bulk-cancel of all hedge orders; connection loss on the
// quote exchange must NOT call this (spec §4.5).
func (h *Hedger) SetHedgeExchangeConnected(ctx context.Context, connected bool) {
	h.mu.Lock()
	wasActive := h.active && h.parametersApplied
	h.active = connected
	nowActive := h.active && h.parametersApplied
	h.mu.Unlock()

	if wasActive && !nowActive {
		if err := h.gw.CancelAllOrders(ctx, h.params.HedgeInstrument.Symbol); err != nil {
			h.log.WithError(err).Warn("hedging: bulk cancel on deactivation failed")
		}
	}
}

// NetPendingHedgeQuantity returns the current unhedged signed quantity.
func (h *Hedger) NetPendingHedgeQuantity() fixedpoint.Quantity {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.netPendingHedgeQty
}

// OnQuoteFill implements spec §4.5 steps 1-4 for one fill (side, price,
// qty) on the quote instrument.
func (h *Hedger) OnQuoteFill(ctx context.Context, side marketdata.Side, price fixedpoint.Price, qty fixedpoint.Quantity) error {
	qSigned := qty
	if side == marketdata.SideSell {
		qSigned = qty.Neg()
	}

	notionalQ, err := h.params.QuoteInstrument.ValueInDenomination(price, qSigned)
	if err != nil {
		return coreerrors.InvariantViolation("hedging.OnQuoteFill", err)
	}

	notionalH, ok := h.fxService.Convert(notionalQ, h.params.HedgeInstrument.DenominationCurrency)
	if !ok {
		h.log.Debug("hedging: no FX path, holding fill unhedged")
		return nil
	}

	neededH := notionalH.Neg()

	hedgeMid := h.hedgeBook.GetMidPrice()
	if hedgeMid.IsZero() {
		h.log.Debug("hedging: hedge book has no mid price, holding")
		return nil
	}
	perUnitValue, err := h.params.HedgeInstrument.ValueInDenomination(hedgeMid, fixedpoint.Quantity(fixedpoint.Scale))
	if err != nil || perUnitValue.Value.IsZero() {
		return coreerrors.InvariantViolation("hedging.OnQuoteFill", fmt.Errorf("hedge instrument per-unit value unavailable"))
	}

	hedgeQty := divideAmountByAmount(neededH.Value, perUnitValue.Value)

	h.mu.Lock()
	h.netPendingHedgeQty = h.netPendingHedgeQty.Add(hedgeQty)
	h.mu.Unlock()

	return h.trySlice(ctx)
}

// trySlice implements spec §4.5 step 4: while the pending quantity exceeds
// the hedge instrument's minimum order size and there is no outstanding
// slice, submit one.
func (h *Hedger) trySlice(ctx context.Context) error {
	h.mu.Lock()
	if h.outstandingSliceID != "" {
		h.mu.Unlock()
		return nil
	}
	pending := h.netPendingHedgeQty
	h.mu.Unlock()

	if pending.Abs().Cmp(h.params.HedgeInstrument.MinOrderSize) < 0 {
		return nil
	}
	if !h.IsActive() {
		return nil
	}

	sliceAbs := pending.Abs()
	if sliceAbs.Cmp(h.params.MaxOrderSize) > 0 {
		sliceAbs = h.params.MaxOrderSize
	}
	sliceAbs = sliceAbs.RoundDownToLot(h.params.HedgeInstrument.LotSize)
	if sliceAbs.IsZero() {
		return nil
	}

	// A positive net_pending_hedge_quantity means the hedger still needs
	// to buy the hedge instrument to offset exposure; negative means sell.
	side := marketdata.SideSell
	if pending.Sign() > 0 {
		side = marketdata.SideBuy
	}

	clientID := fmt.Sprintf("hedge-%s", uuid.NewString())
	req := gateway.NewOrderRequest{
		ClientOrderID: clientID,
		InstrumentID:  h.params.HedgeInstrument.ID,
		Side:          side,
		Price:         h.hedgeBook.GetMidPrice(),
		Quantity:      sliceAbs,
	}

	res, err := h.gw.SendNewOrder(ctx, req)
	if err != nil || !res.Success {
		h.log.WithFields(logrus.Fields{"error": err, "reason": res.FailureReason}).Warn("hedging: slice submission failed, rolled back")
		return nil
	}

	signedSlice := sliceAbs
	if side == marketdata.SideSell {
		signedSlice = sliceAbs.Neg()
	}

	h.mu.Lock()
	h.netPendingHedgeQty = h.netPendingHedgeQty.Sub(signedSlice)
	h.outstandingSliceID = clientID
	h.mu.Unlock()

	return nil
}

// OnHedgeOrderCancelled implements spec §4.5 step 5's rollback: an
// unfilled (or partially filled) cancelled hedge order adds the unfilled
// portion back into net_pending_hedge_quantity. It then re-runs trySlice so
// the while loop in step 4 keeps slicing the remaining pending quantity
// instead of stalling once this slot clears.
func (h *Hedger) OnHedgeOrderCancelled(ctx context.Context, clientOrderID string, unfilledQty fixedpoint.Quantity, side marketdata.Side) error {
	h.mu.Lock()
	if h.outstandingSliceID != clientOrderID {
		h.mu.Unlock()
		return nil
	}
	signed := unfilledQty
	if side == marketdata.SideSell {
		signed = unfilledQty.Neg()
	}
	h.netPendingHedgeQty = h.netPendingHedgeQty.Add(signed)
	h.outstandingSliceID = ""
	h.mu.Unlock()

	return h.trySlice(ctx)
}

// OnHedgeOrderFilled clears the outstanding-slice gate once a slice is
// fully filled, allowing the next slice to be submitted. Per spec §4.5
// step 5, filled quantity is not re-added (it was already deducted at
// submission time). It then re-runs trySlice so a single large quote fill
// keeps slicing until net_pending_hedge_quantity drops below the hedge
// instrument's minimum order size, per §8 scenario 6.
func (h *Hedger) OnHedgeOrderFilled(ctx context.Context, clientOrderID string) error {
	h.mu.Lock()
	if h.outstandingSliceID != clientOrderID {
		h.mu.Unlock()
		return nil
	}
	h.outstandingSliceID = ""
	h.mu.Unlock()

	return h.trySlice(ctx)
}

func divideAmountByAmount(a, b fixedpoint.Amount) fixedpoint.Quantity {
	hi, lo := mul64(int64(a), fixedpoint.Scale)
	return fixedpoint.Quantity(div128by64(hi, lo, int64(b)))
}
