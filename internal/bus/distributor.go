package bus

import (
	"sync"

	"github.com/Bishopest/openhft-sub002/internal/marketdata"
	"github.com/Bishopest/openhft-sub002/internal/orderbook"
	"github.com/Bishopest/openhft-sub002/pkg/cache"
	"github.com/sirupsen/logrus"
)

// Consumer is one registered callback for a (instrumentID, topicID) key.
// Grounded on internal/router/router.go's callback-registration shape and
// pkg/nats/subjects.go's topic-key design, adapted from string subjects to
// integer (instrumentID, topicID) keys.
type Consumer struct {
	Name     string
	Topic    int32
	Callback func(marketdata.Event)
}

type subscriberKey struct {
	instrumentID int32
	topicID      int32
}

// Distributor drains a single Ring on one consumer goroutine and fans
// events out to registered subscribers. Subscriber registration is
// snapshotted under an RWMutex before each dispatch so a slow or
// misbehaving callback can never block Subscribe/Unsubscribe.
type Distributor struct {
	ring         *Ring
	wait         WaitStrategy
	log          *logrus.Entry

	mu          sync.RWMutex
	subscribers map[subscriberKey][]Consumer
	books       map[int32]*orderbook.Book
	maxDepth    int

	// resume tracks the last sequence delivered per (instrumentID,
	// subscriber name) so a reconnecting consumer can detect a gap instead
	// of silently resuming mid-stream. Nil disables tracking.
	resume *cache.SubscriberCache

	stopCh chan struct{}
	doneCh chan struct{}

	onPanic func(consumerName string, r interface{})
}

// NewDistributor creates a distributor reading from ring. maxDepth bounds
// any orderbook.Book created on demand via SubscribeOrderBook.
func NewDistributor(ring *Ring, wait WaitStrategy, maxDepth int, log *logrus.Entry) *Distributor {
	if wait == nil {
		wait = NewBlockingWaitStrategy()
	}
	if log == nil {
		log = logrus.WithField("component", "distributor")
	}
	return &Distributor{
		ring:        ring,
		wait:        wait,
		log:         log,
		subscribers: make(map[subscriberKey][]Consumer),
		books:       make(map[int32]*orderbook.Book),
		maxDepth:    maxDepth,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Subscribe registers a consumer for all events matching (instrumentID,
// topic). Topic -1 matches any topic for that instrument. If a
// SubscriberCache was set via WithResumeCache, the consumer's last
// delivered sequence (if any survives from a prior connection) can be read
// back with LastDeliveredSequence before Subscribe is called, so the
// caller can decide whether it missed events while disconnected.
func (d *Distributor) Subscribe(instrumentID int32, c Consumer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := subscriberKey{instrumentID: instrumentID, topicID: c.Topic}
	d.subscribers[key] = append(d.subscribers[key], c)
}

// Unsubscribe removes every consumer registered under name for
// instrumentID/topic, and drops any resume state held for it.
func (d *Distributor) Unsubscribe(instrumentID int32, topic int32, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := subscriberKey{instrumentID: instrumentID, topicID: topic}
	existing := d.subscribers[key]
	filtered := existing[:0]
	for _, c := range existing {
		if c.Name != name {
			filtered = append(filtered, c)
		}
	}
	d.subscribers[key] = filtered
	if d.resume != nil {
		d.resume.Forget(instrumentID, name)
	}
}

// WithResumeCache attaches a SubscriberCache that records, per
// (instrumentID, subscriber name), the last sequence delivered. A
// reconnecting subscriber can call LastDeliveredSequence to find out where
// it left off before resubscribing.
func (d *Distributor) WithResumeCache(c *cache.SubscriberCache) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resume = c
}

// LastDeliveredSequence returns the last sequence delivered to
// (instrumentID, name), if the resume cache entry has not expired. A
// deliberate Unsubscribe drops the entry, so only a consumer that went away
// without unsubscribing has one to read back.
func (d *Distributor) LastDeliveredSequence(instrumentID int32, name string) (uint64, bool) {
	d.mu.RLock()
	resume := d.resume
	d.mu.RUnlock()
	if resume == nil {
		return 0, false
	}
	return resume.LastSequence(instrumentID, name)
}

// SubscribeOrderBook registers (and lazily creates) an orderbook.Book for
// instrumentID, invoking cb with the book after every successfully applied
// event on topic.
func (d *Distributor) SubscribeOrderBook(instrumentID int32, topic int32, name string, cb func(*orderbook.Book)) {
	d.mu.Lock()
	book, ok := d.books[instrumentID]
	if !ok {
		book = orderbook.New(instrumentID, d.maxDepth, d.log.WithField("instrument_id", instrumentID))
		d.books[instrumentID] = book
	}
	d.mu.Unlock()

	d.Subscribe(instrumentID, Consumer{Name: name, Topic: topic, Callback: func(ev marketdata.Event) {
		if book.ApplyEvent(ev) {
			cb(book)
		}
	}})
}

// Book returns the on-demand order book for instrumentID, if one has been
// created via SubscribeOrderBook.
func (d *Distributor) Book(instrumentID int32) (*orderbook.Book, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.books[instrumentID]
	return b, ok
}

// Publish forwards ev to the underlying ring and wakes the consumer.
func (d *Distributor) Publish(ev marketdata.Event) bool {
	ok := d.ring.Publish(ev)
	d.wait.Signal()
	return ok
}

// OnPanic registers a handler invoked when a subscriber callback panics.
// If unset, panics are logged and swallowed (at-most-once delivery to the
// misbehaving consumer, every other consumer still runs).
func (d *Distributor) OnPanic(h func(consumerName string, r interface{})) {
	d.onPanic = h
}

// Run drains the ring on the calling goroutine until Stop is called. It is
// meant to be launched as `go distributor.Run()`.
func (d *Distributor) Run() {
	defer close(d.doneCh)
	for {
		for {
			ev, ok := d.ring.tryConsume()
			if !ok {
				break
			}
			d.dispatch(ev)
		}
		select {
		case <-d.stopCh:
			// Drain whatever remains before exiting.
			for {
				ev, ok := d.ring.tryConsume()
				if !ok {
					return
				}
				d.dispatch(ev)
			}
		default:
			d.wait.Wait()
		}
	}
}

func (d *Distributor) dispatch(ev marketdata.Event) {
	d.mu.RLock()
	exact := append([]Consumer(nil), d.subscribers[subscriberKey{ev.InstrumentID, ev.TopicID}]...)
	wildcard := append([]Consumer(nil), d.subscribers[subscriberKey{ev.InstrumentID, -1}]...)
	d.mu.RUnlock()

	for _, c := range exact {
		d.invoke(c, ev)
	}
	for _, c := range wildcard {
		d.invoke(c, ev)
	}
}

func (d *Distributor) invoke(c Consumer, ev marketdata.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithFields(logrus.Fields{"consumer": c.Name, "panic": r}).Error("distributor: consumer callback panicked")
			if d.onPanic != nil {
				d.onPanic(c.Name, r)
			}
		}
	}()
	c.Callback(ev)
	if d.resume != nil {
		d.resume.Record(ev.InstrumentID, c.Name, ev.Sequence)
	}
}

// Stop signals the consumer goroutine to drain and exit, and blocks until
// it has.
func (d *Distributor) Stop() {
	close(d.stopCh)
	d.wait.Signal()
	<-d.doneCh
}
