package bus

import (
	"github.com/Bishopest/openhft-sub002/internal/orderbook"
	"github.com/Bishopest/openhft-sub002/pkg/nats"
	"github.com/sirupsen/logrus"
)

// natsSnapshot is the wire shape published to dashboard/monitoring
// consumers over NATS, built from an orderbook.Snapshot.
type natsSnapshot struct {
	InstrumentID int32  `json:"instrument_id"`
	BestBid      string `json:"best_bid"`
	BestBidQty   string `json:"best_bid_qty"`
	BestAsk      string `json:"best_ask"`
	BestAskQty   string `json:"best_ask_qty"`
	Sequence     uint64 `json:"sequence"`
	TimestampUS  uint64 `json:"timestamp_us"`
}

// DistributorNATSBridge republishes applied order-book snapshots onto NATS
// for out-of-process readers, per pkg/nats/subjects.go's MarketDataSubject
// convention. It runs on its own goroutine fed by a bounded channel so a
// slow NATS publish never blocks the distributor's consumer thread.
type DistributorNATSBridge struct {
	client   *nats.Client
	exchange string
	symbol   string
	queue    chan orderbook.Snapshot
	stopCh   chan struct{}
	doneCh   chan struct{}
	log      *logrus.Entry
}

// NewDistributorNATSBridge creates a bridge that publishes under
// market.orderbook.<exchange>.<symbol>. queueSize bounds the internal
// channel; snapshots are dropped (never blocked on) when it is full.
func NewDistributorNATSBridge(client *nats.Client, exchange, symbol string, queueSize int, log *logrus.Entry) *DistributorNATSBridge {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if log == nil {
		log = logrus.WithField("component", "nats-bridge")
	}
	return &DistributorNATSBridge{
		client:   client,
		exchange: exchange,
		symbol:   symbol,
		queue:    make(chan orderbook.Snapshot, queueSize),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		log:      log,
	}
}

// Offer enqueues a snapshot for publication, dropping it if the queue is
// full rather than applying backpressure to the caller.
func (br *DistributorNATSBridge) Offer(snap orderbook.Snapshot) {
	select {
	case br.queue <- snap:
	default:
		br.log.Warn("nats-bridge: queue full, dropping snapshot")
	}
}

// Run drains the queue and publishes to NATS until Stop is called.
func (br *DistributorNATSBridge) Run() {
	defer close(br.doneCh)
	for {
		select {
		case snap := <-br.queue:
			br.publish(snap)
		case <-br.stopCh:
			return
		}
	}
}

func (br *DistributorNATSBridge) publish(snap orderbook.Snapshot) {
	payload := natsSnapshot{
		InstrumentID: snap.InstrumentID,
		BestBid:      snap.BestBid.String(),
		BestBidQty:   snap.BestBidQty.String(),
		BestAsk:      snap.BestAsk.String(),
		BestAskQty:   snap.BestAskQty.String(),
		Sequence:     snap.Sequence,
		TimestampUS:  snap.TimestampUS,
	}
	if err := br.client.PublishMarketData(br.exchange, "perpetual", br.symbol, payload); err != nil {
		br.log.WithError(err).Warn("nats-bridge: publish failed")
	}
}

// Stop signals Run to exit and waits for it to do so.
func (br *DistributorNATSBridge) Stop() {
	close(br.stopCh)
	<-br.doneCh
}
