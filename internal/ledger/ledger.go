package ledger

import (
	"fmt"
	"sync"

	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/instrument"
	"github.com/sirupsen/logrus"
)

// elementKey identifies one BookElement row, mirroring
// internal/position/manager.go's "exchange:symbol" string-keyed cache
// convention, adapted to (book_name, instrument_id).
type elementKey struct {
	bookName     string
	instrumentID int32
}

func (k elementKey) String() string { return fmt.Sprintf("%s:%d", k.bookName, k.instrumentID) }

// Ledger is the per-(book_name, instrument_id) position/PnL cache. It wraps
// applyFill with locking and exposes Snapshot/Restore hooks for a
// repository to persist cumulative state across restarts; the repository
// itself (e.g. SQLite-backed) is out of scope.
type Ledger struct {
	mu       sync.Mutex
	elements map[elementKey]BookElement
	toUSDT   usdtConverter

	log *logrus.Entry
}

// New creates an empty Ledger. toUSDT converts a denomination-currency
// amount into USDT, typically backed by an *fx.Service's Convert method; it
// is allowed to return ok=false, which the ledger treats fail-soft (the
// USDT-normalized fields simply don't move for that fill).
func New(toUSDT func(fixedpoint.CurrencyAmount) (fixedpoint.CurrencyAmount, bool), log *logrus.Entry) *Ledger {
	if log == nil {
		log = logrus.WithField("component", "ledger")
	}
	return &Ledger{
		elements: make(map[elementKey]BookElement),
		toUSDT:   toUSDT,
		log:      log,
	}
}

// Get returns the current BookElement for (bookName, instrumentID), or the
// zero value if no fill has ever been recorded for it.
func (l *Ledger) Get(bookName string, instrumentID int32) BookElement {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.elementLocked(bookName, instrumentID)
}

func (l *Ledger) elementLocked(bookName string, instrumentID int32) BookElement {
	key := elementKey{bookName, instrumentID}
	el, ok := l.elements[key]
	if !ok {
		el = BookElement{BookName: bookName, InstrumentID: instrumentID}
	}
	return el
}

// OnOrderFilled applies fill to the (bookName, inst.ID) row and stores the
// resulting state. It is the ledger's single entry point; strategies call
// it from their fill-handling callbacks.
func (l *Ledger) OnOrderFilled(bookName string, inst instrument.Instrument, fill Fill) (BookElement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.elementLocked(bookName, inst.ID)
	next, err := applyFill(current, inst, fill, l.toUSDT)
	if err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{
			"book":       bookName,
			"instrument": inst.ID,
		}).Error("ledger: apply fill failed")
		return current, err
	}

	l.elements[elementKey{bookName, inst.ID}] = next
	return next, nil
}

// ResetSession zeroes the session-scoped PnL/volume counters for
// (bookName, instrumentID) without touching size, avg price, or cumulative
// counters. Callers invoke this at session boundaries (e.g. daily rollover).
func (l *Ledger) ResetSession(bookName string, instrumentID int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := elementKey{bookName, instrumentID}
	el := l.elementLocked(bookName, instrumentID)
	el.SessionRealizedPnLUSDT = 0
	el.SessionVolumeUSDT = 0
	l.elements[key] = el
}

// Snapshot returns a copy of every tracked BookElement as a slice in no
// particular order (each element carries its own BookName and
// InstrumentID), for a repository to persist.
func (l *Ledger) Snapshot() []BookElement {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]BookElement, 0, len(l.elements))
	for _, el := range l.elements {
		out = append(out, el)
	}
	return out
}

// Restore seeds the ledger's in-memory state from previously persisted
// elements, e.g. on process startup before any fills have been replayed.
// Size, avg price, and cumulative fields are restored verbatim; session
// fields are reset to zero so a restart starts a fresh session.
func (l *Ledger) Restore(elements []BookElement) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, el := range elements {
		key := elementKey{el.BookName, el.InstrumentID}
		restored := el
		restored.SessionRealizedPnLUSDT = 0
		restored.SessionVolumeUSDT = 0
		l.elements[key] = restored
	}
}
