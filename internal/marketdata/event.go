// Package marketdata defines the value-typed batch event that flows from
// feed adapters through the event bus to the order book and the quoting
// and hedging engines. Events are fixed-capacity value types so they can
// be copied into ring buffer slots without allocation.
package marketdata

import "github.com/Bishopest/openhft-sub002/internal/fixedpoint"

// MaxUpdatesPerEvent (K in spec section 3) is sized to cover the P99 batch
// size seen on exchange order book feeds.
const MaxUpdatesPerEvent = 32

// Kind is the closed set of market-data event kinds.
type Kind uint8

const (
	KindAdd Kind = iota
	KindUpdate
	KindDelete
	KindTrade
	KindSnapshot
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "Add"
	case KindUpdate:
		return "Update"
	case KindDelete:
		return "Delete"
	case KindTrade:
		return "Trade"
	case KindSnapshot:
		return "Snapshot"
	default:
		return "Unknown"
	}
}

// Side is the closed set of book sides.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "Buy"
	}
	return "Sell"
}

// PriceLevelEntry is one per-level update within a batch event.
type PriceLevelEntry struct {
	Side         Side
	PriceTicks   fixedpoint.Price
	QuantityTicks fixedpoint.Quantity
}

// Event is a fixed-capacity batch of price-level updates for one
// instrument/exchange/topic at a given sequence number. It never
// allocates: Updates is an inline array, not a slice.
type Event struct {
	Sequence     uint64
	TimestampUS  uint64
	Kind         Kind
	InstrumentID int32
	ExchangeID   int32
	TopicID      int32
	UpdateCount  uint8
	Updates      [MaxUpdatesPerEvent]PriceLevelEntry
}

// AppendUpdate appends one level update to the event, returning false if
// the event is already at capacity (UpdateCount == MaxUpdatesPerEvent).
func (e *Event) AppendUpdate(entry PriceLevelEntry) bool {
	if int(e.UpdateCount) >= MaxUpdatesPerEvent {
		return false
	}
	e.Updates[e.UpdateCount] = entry
	e.UpdateCount++
	return true
}

// UpdateSlice returns the populated prefix of Updates as a slice. The
// slice aliases the event's backing array; callers must not retain it
// past the event's lifetime in a ring slot.
func (e *Event) UpdateSlice() []PriceLevelEntry {
	return e.Updates[:e.UpdateCount]
}
