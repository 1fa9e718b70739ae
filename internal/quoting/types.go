package quoting

import (
	"time"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/marketdata"
)

// HittingLogic is the closed set of quote-versus-opposite-best behaviors.
type HittingLogic string

const (
	HittingAllowAll  HittingLogic = "AllowAll"
	HittingNoCross   HittingLogic = "NoCross"
	HittingMakerOnly HittingLogic = "MakerOnly"
)

// SideState is a ladder side's state machine state.
type SideState string

const (
	SideIdle    SideState = "Idle"
	SideQuoting SideState = "Quoting"
	SidePaused  SideState = "Paused"
	SideRetired SideState = "Retired"
)

// QuotingParameters configures one Engine instance for one target
// instrument.
type QuotingParameters struct {
	SourceInstrumentID int32
	TargetInstrumentID int32

	FVModel FVModel

	Depth int

	AskSpreadBp int64
	BidSpreadBp int64
	StepBp      int64
	SkewBp      int64
	GroupingBp  int64

	Size fixedpoint.Quantity
	Tick fixedpoint.Price
	Lot  fixedpoint.Quantity

	MaxCumBidFills fixedpoint.Quantity
	MaxCumAskFills fixedpoint.Quantity

	Hitting HittingLogic

	UsePostOnly bool

	// ExpectedUpdateInterval is the source feed's nominal inter-update
	// gap; the engine holds when the source book has gone stale for
	// 2x this duration (Open Question resolution 3 in SPEC_FULL.md).
	ExpectedUpdateInterval time.Duration
}

// SourceStaleAfter returns the freshness timeout derived from
// ExpectedUpdateInterval.
func (p QuotingParameters) SourceStaleAfter() time.Duration {
	return 2 * p.ExpectedUpdateInterval
}

// Quote is a single computed target for one ladder slot.
type Quote struct {
	Side  marketdata.Side
	Level int
	Price fixedpoint.Price
	Qty   fixedpoint.Quantity
	Valid bool
}

// Slot tracks one resting ladder position: the last quote computed for it
// and the live order (if any) resting at the exchange.
type Slot struct {
	Side  marketdata.Side
	Level int

	ClientOrderID   string
	ExchangeOrderID string
	RestingPrice    fixedpoint.Price
	RestingQty      fixedpoint.Quantity
	HasOrder        bool
}
