package cache

import (
	"strconv"
	"sync"
	"time"
)

// SubscriberState is the last-known delivery position the distributor
// recorded for one (instrumentID, subscriber name) pair.
type SubscriberState struct {
	InstrumentID   int32
	Name           string
	LastSequence   uint64
	LastDeliveryAt time.Time
	ExpiresAt      time.Time
}

// SubscriberCache remembers the last sequence delivered to each distributor
// subscriber so a reconnecting consumer can tell whether it missed events
// while disconnected, instead of silently resuming mid-stream. Adapted from
// the TTL-keyed map-with-background-sweep pattern below; an entry expires
// the same way an idle session would, since a subscriber that never
// reconnects within the TTL has no resume state worth keeping.
type SubscriberCache struct {
	states sync.Map
	ttl    time.Duration
}

func subscriberCacheKey(instrumentID int32, name string) string {
	return strconv.Itoa(int(instrumentID)) + "\x00" + name
}

// NewSubscriberCache starts a cache whose entries expire after ttl of
// inactivity.
func NewSubscriberCache(ttl time.Duration) *SubscriberCache {
	c := &SubscriberCache{ttl: ttl}
	go c.cleanupExpired()
	return c
}

// Record stores the sequence most recently delivered to (instrumentID,
// name).
func (c *SubscriberCache) Record(instrumentID int32, name string, sequence uint64) {
	now := time.Now()
	c.states.Store(subscriberCacheKey(instrumentID, name), &SubscriberState{
		InstrumentID:   instrumentID,
		Name:           name,
		LastSequence:   sequence,
		LastDeliveryAt: now,
		ExpiresAt:      now.Add(c.ttl),
	})
}

// LastSequence returns the last sequence delivered to (instrumentID, name),
// if the entry has not expired.
func (c *SubscriberCache) LastSequence(instrumentID int32, name string) (uint64, bool) {
	key := subscriberCacheKey(instrumentID, name)
	value, ok := c.states.Load(key)
	if !ok {
		return 0, false
	}
	state := value.(*SubscriberState)
	if time.Now().After(state.ExpiresAt) {
		c.states.Delete(key)
		return 0, false
	}
	return state.LastSequence, true
}

// Forget removes any resume state held for (instrumentID, name), used when a
// subscriber unsubscribes deliberately rather than disconnecting.
func (c *SubscriberCache) Forget(instrumentID int32, name string) {
	c.states.Delete(subscriberCacheKey(instrumentID, name))
}

func (c *SubscriberCache) cleanupExpired() {
	ticker := time.NewTicker(time.Minute * 5)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.states.Range(func(key, value interface{}) bool {
			state := value.(*SubscriberState)
			if now.After(state.ExpiresAt) {
				c.states.Delete(key)
			}
			return true
		})
	}
}
