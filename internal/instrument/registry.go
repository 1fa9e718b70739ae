package instrument

import (
	"fmt"
	"sync"
)

// Registry is a concurrent-safe lookup of Instruments by id that rejects
// duplicate (market, symbol, type) triples. It holds whatever Instruments
// the caller adds; this module has no instruments-file reader, and
// cmd/market-maker builds its instruments from config keys without a
// Registry.
type Registry struct {
	mu      sync.RWMutex
	byID    map[int32]Instrument
	byTriple map[string]int32 // "market|symbol|type" -> id, for duplicate detection
}

func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[int32]Instrument),
		byTriple: make(map[string]int32),
	}
}

// Record is one parsed row of the instruments CSV.
type Record struct {
	InstrumentID           int32
	Market                 string
	Symbol                 string
	Type                   string
	BaseCurrency           string
	QuoteCurrency          string
	DenominationCurrency   string
	MinimumPriceVariation  string
	LotSize                string
	ContractMultiplier     string
	MinimumOrderSize       string
}

func tripleKey(market, symbol, typ string) string {
	return fmt.Sprintf("%s|%s|%s", market, symbol, typ)
}

// Add registers an instrument, rejecting duplicate (market,symbol,type)
// triples per spec section 6.
func (r *Registry) Add(inst Instrument, market string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := tripleKey(market, inst.Symbol, string(inst.ProductType))
	if existingID, ok := r.byTriple[key]; ok {
		return fmt.Errorf("instrument: duplicate (market=%s,symbol=%s,type=%s): already registered as id %d",
			market, inst.Symbol, inst.ProductType, existingID)
	}
	if _, ok := r.byID[inst.ID]; ok {
		return fmt.Errorf("instrument: duplicate instrument id %d", inst.ID)
	}

	r.byTriple[key] = inst.ID
	r.byID[inst.ID] = inst
	return nil
}

func (r *Registry) Get(id int32) (Instrument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.byID[id]
	return inst, ok
}

func (r *Registry) All() []Instrument {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Instrument, 0, len(r.byID))
	for _, inst := range r.byID {
		out = append(out, inst)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
