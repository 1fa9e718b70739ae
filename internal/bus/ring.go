// Package bus implements the bounded ring buffer and single-consumer
// distributor that move market-data events from feed adapters to the
// order book, quoting engine and hedger.
//
// The ring's head/tail/CAS shape is grounded directly on
// test/benchmark/lockfree_test.go's BenchmarkRingBuffer. That benchmark
// is single-producer/single-consumer; this core allows multiple feed
// adapters to publish concurrently, so Ring adds a short publish-side
// mutex around slot reservation. The consumer side stays lock-free,
// reading head/tail with plain atomic loads exactly like the benchmark.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/Bishopest/openhft-sub002/internal/marketdata"
)

// DefaultCapacity is used when a Ring is constructed with a zero or negative
// capacity request; any other request is rounded up to a power of two.
const DefaultCapacity = 65536

// Ring is a bounded circular buffer of marketdata.Event. Capacity must be a
// power of two; NewRing rounds up.
type Ring struct {
	buffer   []marketdata.Event
	mask     uint64
	head     atomic.Uint64 // next slot a producer may claim
	tail     atomic.Uint64 // next slot the consumer will read
	publishMu sync.Mutex    // serializes producers claiming+writing a slot

	// spaceWait governs what Publish does when the ring is full. It
	// defaults to BlockingWaitStrategy (producer backpressure, per
	// spec's "blocking by default"); tryConsume signals it every time it
	// frees a slot. An explicit DropWaitStrategy opts back into
	// drop-on-full instead.
	spaceWait WaitStrategy

	dropped atomic.Uint64
}

// NewRing allocates a ring of the given capacity, rounded up to the next
// power of two (minimum 2).
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	capacity = nextPowerOfTwo(capacity)
	return &Ring{
		buffer:    make([]marketdata.Event, capacity),
		mask:      uint64(capacity) - 1,
		spaceWait: NewBlockingWaitStrategy(),
	}
}

// WithWaitStrategy overrides the wait strategy Publish uses when the ring is
// full. Pass a DropWaitStrategy to restore drop-on-full behavior.
func (r *Ring) WithWaitStrategy(w WaitStrategy) *Ring {
	r.publishMu.Lock()
	defer r.publishMu.Unlock()
	r.spaceWait = w
	return r
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	if p < 2 {
		p = 2
	}
	return p
}

// Capacity returns the ring's fixed slot count.
func (r *Ring) Capacity() int { return int(r.mask) + 1 }

// Dropped returns the count of events dropped because the ring was full and
// a non-blocking (DropWaitStrategy) space-wait strategy was in effect.
func (r *Ring) Dropped() uint64 { return r.dropped.Load() }

// Publish writes ev into the next free slot. If the ring is full it waits on
// the configured space-wait strategy (blocking by default) and retries once
// space frees up, per the producer-backpressure requirement; with a
// DropWaitStrategy installed it instead increments the dropped counter and
// returns false immediately. Multiple goroutines may call Publish
// concurrently.
func (r *Ring) Publish(ev marketdata.Event) bool {
	for {
		r.publishMu.Lock()
		head := r.head.Load()
		next := head + 1
		if next-r.tail.Load() > r.mask+1 {
			wait := r.spaceWait
			r.publishMu.Unlock()
			if nb, ok := wait.(nonBlockingWait); ok && nb.nonBlocking() {
				r.dropped.Add(1)
				return false
			}
			wait.Wait()
			continue
		}
		r.buffer[head&r.mask] = ev
		r.head.Store(next)
		r.publishMu.Unlock()
		return true
	}
}

// tryConsume reads and advances past the next event if the ring is
// non-empty. Safe for a single consumer goroutine only. Signals the
// space-wait strategy after freeing a slot so a blocked Publish can retry.
func (r *Ring) tryConsume() (marketdata.Event, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return marketdata.Event{}, false
	}
	ev := r.buffer[tail&r.mask]
	r.tail.Store(tail + 1)
	r.publishMu.Lock()
	wait := r.spaceWait
	r.publishMu.Unlock()
	wait.Signal()
	return ev, true
}

// Len returns the number of events currently buffered.
func (r *Ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}
