// Package quoting implements the quoting engine: a per-instrument ladder
// of resting orders derived from a fair-value model applied to a source
// instrument's order book, with throttling, grouping and hitting-logic
// controls.
//
// Grounded on internal/strategies/market_maker/spread_calculator.go's
// strategy-object pattern (one small interface, several concrete
// implementations selected by config) and market_maker.go's
// worker-goroutine/state shape.
package quoting

import (
	"fmt"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/orderbook"
)

// FVModelKind is the closed set of fair-value models.
type FVModelKind string

const (
	FVModelMid         FVModelKind = "Mid"
	FVModelMicroPrice  FVModelKind = "MicroPrice"
	FVModelWeightedMid FVModelKind = "WeightedMid"
)

// FVModel computes a fair value from a source book. Returns ok=false when
// the book does not support a fair-value computation (either side empty).
type FVModel interface {
	FairValue(book *orderbook.Book) (fixedpoint.Price, bool)
}

// midModel is the simple (best_bid+best_ask)/2 fair value.
type midModel struct{}

func (midModel) FairValue(book *orderbook.Book) (fixedpoint.Price, bool) {
	bid, bidQty := book.GetBestBid()
	ask, askQty := book.GetBestAsk()
	if bidQty.IsZero() || askQty.IsZero() {
		return 0, false
	}
	return fixedpoint.Price((int64(bid) + int64(ask)) / 2), true
}

// microPriceModel weights each side's price by the opposite side's resting
// quantity, so a fair value that leans toward the thinner side of the book.
type microPriceModel struct{}

func (microPriceModel) FairValue(book *orderbook.Book) (fixedpoint.Price, bool) {
	bid, bidQty := book.GetBestBid()
	ask, askQty := book.GetBestAsk()
	if bidQty.IsZero() || askQty.IsZero() {
		return 0, false
	}
	totalQty := int64(bidQty) + int64(askQty)
	if totalQty == 0 {
		return 0, false
	}
	// micro price = (bid*askQty + ask*bidQty) / (bidQty+askQty)
	num := int64(bid)*int64(askQty) + int64(ask)*int64(bidQty)
	return fixedpoint.Price(num / totalQty), true
}

// weightedMidModel blends best bid/ask with configurable weights that must
// sum to 1.0 (expressed as basis points out of 10000 to stay integer-only).
type weightedMidModel struct {
	bidWeightBp int64
	askWeightBp int64
}

// NewWeightedMidModel builds a WeightedMid model; weights are basis points
// (sum should equal 10000).
func NewWeightedMidModel(bidWeightBp, askWeightBp int64) FVModel {
	return weightedMidModel{bidWeightBp: bidWeightBp, askWeightBp: askWeightBp}
}

func (m weightedMidModel) FairValue(book *orderbook.Book) (fixedpoint.Price, bool) {
	bid, bidQty := book.GetBestBid()
	ask, askQty := book.GetBestAsk()
	if bidQty.IsZero() || askQty.IsZero() {
		return 0, false
	}
	num := int64(bid)*m.bidWeightBp + int64(ask)*m.askWeightBp
	return fixedpoint.Price(num / 10000), true
}

// NewFVModel resolves a FVModelKind to a model instance. WeightedMid
// requires NewWeightedMidModel directly; this constructor only serves the
// two parameter-free kinds.
func NewFVModel(kind FVModelKind) (FVModel, error) {
	switch kind {
	case FVModelMid:
		return midModel{}, nil
	case FVModelMicroPrice:
		return microPriceModel{}, nil
	default:
		return nil, fmt.Errorf("quoting: unknown or parameterized fv model kind %q", kind)
	}
}
