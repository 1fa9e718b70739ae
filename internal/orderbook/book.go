// Package orderbook implements a depth-bounded, two-sided limit order
// book for a single instrument. It applies batched market-data events
// (add/update/delete/trade/snapshot) with sequence-gap detection and
// exposes top-of-book, depth and integrity-check queries.
//
// Grounded on the sorted price-level shape of pkg/types.OrderBookData,
// redesigned into array-backed sides per spec section 4.2 (binary-search
// insert, eviction of the worst level past max depth).
package orderbook

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/marketdata"
	"github.com/sirupsen/logrus"
)

// DefaultMaxDepth is used when a Book is constructed without an explicit
// depth bound.
const DefaultMaxDepth = 50

// PriceLevel is one resting price on a BookSide.
type PriceLevel struct {
	Price               fixedpoint.Price
	TotalQuantity       fixedpoint.Quantity
	OrderCount          uint32
	LastUpdateSequence  uint64
	LastUpdateTS        uint64
}

// BookSide is a fixed-capacity, sorted array of price levels for one side
// of the book. Bids sort strictly descending by price; asks strictly
// ascending.
type BookSide struct {
	side     marketdata.Side
	maxDepth int
	levels   []PriceLevel
}

func newBookSide(side marketdata.Side, maxDepth int) *BookSide {
	return &BookSide{side: side, maxDepth: maxDepth, levels: make([]PriceLevel, 0, maxDepth)}
}

// better reports whether price a is a better (more aggressive) price than
// b on this side: higher for bids, lower for asks.
func (bs *BookSide) better(a, b fixedpoint.Price) bool {
	if bs.side == marketdata.SideBuy {
		return a.Cmp(b) > 0
	}
	return a.Cmp(b) < 0
}

// find returns the index of price within levels (sorted per better()),
// and whether it was found.
func (bs *BookSide) find(price fixedpoint.Price) (int, bool) {
	n := len(bs.levels)
	idx := sort.Search(n, func(i int) bool {
		// levels[i] is "at or past" price in side order when
		// levels[i] is NOT strictly better than price.
		return !bs.better(bs.levels[i].Price, price)
	})
	if idx < n && bs.levels[idx].Price == price {
		return idx, true
	}
	return idx, false
}

// Upsert sets the level at price to qty/seq/ts. A qty of zero erases the
// level (equivalent to Delete). When the side is already at maxDepth, a new
// level better than the worst one evicts the worst; a new level no better
// than the worst is dropped.
func (bs *BookSide) Upsert(price fixedpoint.Price, qty fixedpoint.Quantity, orderCount uint32, seq uint64, ts uint64) {
	idx, found := bs.find(price)

	if qty.IsZero() {
		if found {
			bs.levels = append(bs.levels[:idx], bs.levels[idx+1:]...)
		}
		return
	}

	if found {
		bs.levels[idx].TotalQuantity = qty
		bs.levels[idx].OrderCount = orderCount
		bs.levels[idx].LastUpdateSequence = seq
		bs.levels[idx].LastUpdateTS = ts
		return
	}

	// New level. If the side is already at capacity, only insert if this
	// price is better than the current worst (last) level; the worst
	// level is evicted to make room.
	if len(bs.levels) >= bs.maxDepth {
		worst := bs.levels[len(bs.levels)-1]
		if !bs.better(price, worst.Price) {
			return // worse than the current worst on a full side: drop
		}
		bs.levels = bs.levels[:len(bs.levels)-1]
		idx, _ = bs.find(price)
	}

	bs.levels = append(bs.levels, PriceLevel{})
	copy(bs.levels[idx+1:], bs.levels[idx:len(bs.levels)-1])
	bs.levels[idx] = PriceLevel{
		Price: price, TotalQuantity: qty, OrderCount: orderCount,
		LastUpdateSequence: seq, LastUpdateTS: ts,
	}
}

// Clear empties the side.
func (bs *BookSide) Clear() {
	bs.levels = bs.levels[:0]
}

// Best returns the best level on this side, or the zero value and false
// if empty.
func (bs *BookSide) Best() (PriceLevel, bool) {
	if len(bs.levels) == 0 {
		return PriceLevel{}, false
	}
	return bs.levels[0], true
}

// Top returns up to n levels from the best outward.
func (bs *BookSide) Top(n int) []PriceLevel {
	if n > len(bs.levels) {
		n = len(bs.levels)
	}
	out := make([]PriceLevel, n)
	copy(out, bs.levels[:n])
	return out
}

// Depth sums TotalQuantity over the top n levels.
func (bs *BookSide) Depth(n int) fixedpoint.Quantity {
	if n > len(bs.levels) {
		n = len(bs.levels)
	}
	var total fixedpoint.Quantity
	for i := 0; i < n; i++ {
		total = total.Add(bs.levels[i].TotalQuantity)
	}
	return total
}

func (bs *BookSide) Len() int { return len(bs.levels) }

// Book is a depth-bounded two-sided limit order book for one instrument.
type Book struct {
	mu sync.RWMutex

	instrumentID int32
	maxDepth     int

	bids *BookSide
	asks *BookSide

	lastSequence uint64
	lastUpdateTS uint64
	updateCount  uint64
	tradeCount   uint64
	valid        bool

	log *logrus.Entry
}

// New creates an empty book for instrumentID bounded to maxDepth levels
// per side.
func New(instrumentID int32, maxDepth int, log *logrus.Entry) *Book {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if log == nil {
		log = logrus.WithField("component", "orderbook")
	}
	return &Book{
		instrumentID: instrumentID,
		maxDepth:     maxDepth,
		bids:         newBookSide(marketdata.SideBuy, maxDepth),
		asks:         newBookSide(marketdata.SideSell, maxDepth),
		valid:        true,
		log:          log.WithField("instrument_id", instrumentID),
	}
}

// ApplyEvent validates and applies one batch event. Returns false (and
// leaves the book unchanged) when the instrument id does not match or the
// event's sequence is strictly behind the book's last applied sequence.
func (b *Book) ApplyEvent(ev marketdata.Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ev.InstrumentID != b.instrumentID {
		b.log.WithFields(logrus.Fields{
			"event_instrument_id": ev.InstrumentID,
		}).Warn("orderbook: event instrument id mismatch")
		return false
	}

	if ev.Sequence < b.lastSequence {
		b.log.WithFields(logrus.Fields{
			"last_sequence": b.lastSequence,
			"event_sequence": ev.Sequence,
		}).Warn("orderbook: sequence gap, rejecting event")
		return false
	}
	if ev.Sequence == b.lastSequence {
		b.log.Debug("orderbook: processing equal-sequence event")
	}

	switch ev.Kind {
	case marketdata.KindTrade:
		b.tradeCount++
	case marketdata.KindSnapshot:
		b.bids.Clear()
		b.asks.Clear()
		b.applyUpdates(ev)
		// A fresh snapshot replaces the book wholesale, so any invariant
		// violation recorded against the old state no longer applies.
		// Per spec section 7, the next snapshot clears a stuck valid=false.
		b.valid = true
	case marketdata.KindAdd, marketdata.KindUpdate:
		b.applyUpdates(ev)
	case marketdata.KindDelete:
		b.applyDeletes(ev)
	default:
		b.log.WithField("kind", ev.Kind).Warn("orderbook: unknown event kind")
	}

	b.lastSequence = ev.Sequence
	b.lastUpdateTS = ev.TimestampUS
	b.updateCount++

	if b.isCrossedLocked() || b.hasNegativeQuantityLocked() {
		b.valid = false
		b.log.Error("orderbook: invariant violation after apply_event")
	}

	return true
}

func (b *Book) applyUpdates(ev marketdata.Event) {
	for _, u := range ev.UpdateSlice() {
		side := b.sideFor(u.Side)
		side.Upsert(u.PriceTicks, u.QuantityTicks, 1, ev.Sequence, ev.TimestampUS)
	}
}

func (b *Book) applyDeletes(ev marketdata.Event) {
	for _, u := range ev.UpdateSlice() {
		side := b.sideFor(u.Side)
		side.Upsert(u.PriceTicks, 0, 0, ev.Sequence, ev.TimestampUS)
	}
}

func (b *Book) sideFor(s marketdata.Side) *BookSide {
	if s == marketdata.SideBuy {
		return b.bids
	}
	return b.asks
}

// InstrumentID returns the instrument this book tracks.
func (b *Book) InstrumentID() int32 { return b.instrumentID }

// GetBestBid returns (price, qty), or (0,0) when the bid side is empty.
func (b *Book) GetBestBid() (fixedpoint.Price, fixedpoint.Quantity) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lvl, ok := b.bids.Best()
	if !ok {
		return 0, 0
	}
	return lvl.Price, lvl.TotalQuantity
}

// GetBestAsk returns (price, qty), or (0,0) when the ask side is empty.
func (b *Book) GetBestAsk() (fixedpoint.Price, fixedpoint.Quantity) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lvl, ok := b.asks.Best()
	if !ok {
		return 0, 0
	}
	return lvl.Price, lvl.TotalQuantity
}

// GetSpread returns best_ask - best_bid, or zero when either side is empty.
func (b *Book) GetSpread() fixedpoint.Price {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bid, bidOK := b.bids.Best()
	ask, askOK := b.asks.Best()
	if !bidOK || !askOK {
		return 0
	}
	return ask.Price.Sub(bid.Price)
}

// GetMidPrice returns (best_bid+best_ask)/2, or zero when either side is
// empty.
func (b *Book) GetMidPrice() fixedpoint.Price {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bid, bidOK := b.bids.Best()
	ask, askOK := b.asks.Best()
	if !bidOK || !askOK {
		return 0
	}
	return fixedpoint.Price((int64(bid.Price) + int64(ask.Price)) / 2)
}

// GetTopLevels returns up to n levels of side from the best outward.
func (b *Book) GetTopLevels(side marketdata.Side, n int) []PriceLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sideFor(side).Top(n)
}

// GetDepth sums the total quantity across the top n levels of side.
func (b *Book) GetDepth(side marketdata.Side, n int) fixedpoint.Quantity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sideFor(side).Depth(n)
}

// CalculateOrderFlowImbalance returns (bidDepth(n)-askDepth(n)) /
// (bidDepth(n)+askDepth(n)) as a float64 in [-1,1], or 0 when both sides
// are empty.
func (b *Book) CalculateOrderFlowImbalance(n int) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bidDepth := b.bids.Depth(n)
	askDepth := b.asks.Depth(n)
	total := bidDepth + askDepth
	if total == 0 {
		return 0
	}
	return float64(bidDepth-askDepth) / float64(total)
}

// IsCrossed reports best_bid >= best_ask with both sides non-empty.
func (b *Book) IsCrossed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.isCrossedLocked()
}

func (b *Book) isCrossedLocked() bool {
	bid, bidOK := b.bids.Best()
	ask, askOK := b.asks.Best()
	if !bidOK || !askOK {
		return false
	}
	return bid.Price.Cmp(ask.Price) >= 0
}

func (b *Book) hasNegativeQuantityLocked() bool {
	for _, lvl := range b.bids.levels {
		if lvl.TotalQuantity < 0 {
			return true
		}
	}
	for _, lvl := range b.asks.levels {
		if lvl.TotalQuantity < 0 {
			return true
		}
	}
	return false
}

// IsTightSpread reports whether the book is exactly one tick wide.
// Returns false when either side is empty or the book is crossed.
func (b *Book) IsTightSpread(tick fixedpoint.Price) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bid, bidOK := b.bids.Best()
	ask, askOK := b.asks.Best()
	if !bidOK || !askOK {
		return false
	}
	if b.isCrossedLocked() {
		return false
	}
	return ask.Price.Sub(bid.Price) == tick
}

// ValidateIntegrity reports false if the book is crossed or any level
// holds a negative quantity.
func (b *Book) ValidateIntegrity() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.isCrossedLocked() {
		return false
	}
	if b.hasNegativeQuantityLocked() {
		return false
	}
	return true
}

// LastSequence returns the last successfully applied sequence number.
func (b *Book) LastSequence() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastSequence
}

// LastUpdateTS returns the timestamp (microseconds) of the last applied
// event, used by the quoting engine's staleness check.
func (b *Book) LastUpdateTS() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdateTS
}

// Stats returns simple bookkeeping counters, mostly useful for tests and
// dashboards.
type Stats struct {
	UpdateCount uint64
	TradeCount  uint64
	BidLevels   int
	AskLevels   int
	Valid       bool
}

func (b *Book) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Stats{
		UpdateCount: b.updateCount,
		TradeCount:  b.tradeCount,
		BidLevels:   b.bids.Len(),
		AskLevels:   b.asks.Len(),
		Valid:       b.valid,
	}
}

// Snapshot is a lock-free-to-readers copy of top-of-book state, suitable
// for handing to dashboard/monitoring consumers per spec section 5.
type Snapshot struct {
	InstrumentID int32
	BestBid      fixedpoint.Price
	BestBidQty   fixedpoint.Quantity
	BestAsk      fixedpoint.Price
	BestAskQty   fixedpoint.Quantity
	Sequence     uint64
	TimestampUS  uint64
}

func (b *Book) TakeSnapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bid, _ := b.bids.Best()
	ask, _ := b.asks.Best()
	return Snapshot{
		InstrumentID: b.instrumentID,
		BestBid:      bid.Price,
		BestBidQty:   bid.TotalQuantity,
		BestAsk:      ask.Price,
		BestAskQty:   ask.TotalQuantity,
		Sequence:     b.lastSequence,
		TimestampUS:  b.lastUpdateTS,
	}
}

func (b *Book) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bid, _ := b.bids.Best()
	ask, _ := b.asks.Best()
	return fmt.Sprintf("Book{instrument=%d bid=%s ask=%s seq=%d}", b.instrumentID, bid.Price, ask.Price, b.lastSequence)
}
