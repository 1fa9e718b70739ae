// Package fx converts amounts between currencies using reference
// instrument mid-prices, for the hedger's cross-currency notional
// conversion and the ledger's USDT-normalized volume/PnL.
//
// Grounded on internal/marketdata/aggregator.go's exchange->symbol price
// cache pattern (map guarded by sync.RWMutex, read on the query path,
// written on the update path), repurposed here into a currency-pair path
// cache instead of a raw exchange ticker cache.
package fx

import (
	"sync"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/sirupsen/logrus"
)

// pathKey identifies a currency conversion direction.
type pathKey struct {
	source string
	target string
}

// path describes how to convert pathKey's source currency into its
// target currency: read the mid-price of referenceInstrumentID and
// either multiply (inverted=false) or divide (inverted=true) by it.
type path struct {
	referenceInstrumentID int32
	inverted              bool
}

// BookSource supplies the current mid price for an instrument, satisfied
// by *orderbook.Book in production and a stub in tests.
type BookSource interface {
	GetMidPrice() fixedpoint.Price
}

// Service converts CurrencyAmount between currencies via a configured set
// of reference-instrument paths.
type Service struct {
	mu    sync.RWMutex
	paths map[pathKey]path
	books map[int32]BookSource

	log *logrus.Entry
}

// NewService creates an empty FX service. Register reference paths with
// RegisterPath and instrument books with RegisterBook before Convert is
// called.
func NewService(log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.WithField("component", "fx")
	}
	return &Service{
		paths: make(map[pathKey]path),
		books: make(map[int32]BookSource),
		log:   log,
	}
}

// RegisterPath declares that source can be converted to target by reading
// referenceInstrumentID's mid-price: multiply by it when inverted is
// false, divide by it when inverted is true. A reverse path (target ->
// source) is registered automatically with inverted flipped.
func (s *Service) RegisterPath(source, target string, referenceInstrumentID int32, inverted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths[pathKey{source, target}] = path{referenceInstrumentID, inverted}
	s.paths[pathKey{target, source}] = path{referenceInstrumentID, !inverted}
}

// RegisterBook associates instrumentID with the book used to source its
// mid price. Call whenever a new order book becomes available (e.g. from
// the distributor's SubscribeOrderBook).
func (s *Service) RegisterBook(instrumentID int32, book BookSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[instrumentID] = book
}

// Convert converts amount into target currency. It returns ok=false when
// no reference-instrument path exists for the pair, or the path's book has
// no mid price available (either side of the book is empty).
func (s *Service) Convert(amount fixedpoint.CurrencyAmount, target string) (fixedpoint.CurrencyAmount, bool) {
	if amount.Currency == target {
		return amount, true
	}

	s.mu.RLock()
	p, ok := s.paths[pathKey{amount.Currency, target}]
	var book BookSource
	if ok {
		book, ok = s.books[p.referenceInstrumentID]
	}
	s.mu.RUnlock()

	if !ok {
		s.log.WithFields(logrus.Fields{"source": amount.Currency, "target": target}).
			Debug("fx: no reference path registered")
		return fixedpoint.CurrencyAmount{}, false
	}

	mid := book.GetMidPrice()
	if mid.IsZero() {
		return fixedpoint.CurrencyAmount{}, false
	}

	var converted fixedpoint.Amount
	if p.inverted {
		converted = divideAmountByPrice(amount.Value, mid)
	} else {
		converted = multiplyAmountByPrice(amount.Value, mid)
	}
	return fixedpoint.NewCurrencyAmount(converted, target), true
}

func multiplyAmountByPrice(a fixedpoint.Amount, p fixedpoint.Price) fixedpoint.Amount {
	hi, lo := mul64(int64(a), int64(p))
	return fixedpoint.Amount(div128by64(hi, lo, fixedpoint.Scale))
}

func divideAmountByPrice(a fixedpoint.Amount, p fixedpoint.Price) fixedpoint.Amount {
	hi, lo := mul64(int64(a), fixedpoint.Scale)
	return fixedpoint.Amount(div128by64(hi, lo, int64(p)))
}
