package cache

import (
	"testing"
	"time"
)

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	
	// Test Set and Get
	cache.Set("key1", "value1", time.Hour)
	value, exists := cache.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}
	
	// Test TTL expiration
	cache.Set("key2", "value2", time.Millisecond*100)
	time.Sleep(time.Millisecond * 200)
	_, exists = cache.Get("key2")
	if exists {
		t.Error("Expected key2 to be expired")
	}
	
	// Test Delete
	cache.Set("key3", "value3", time.Hour)
	cache.Delete("key3")
	_, exists = cache.Get("key3")
	if exists {
		t.Error("Expected key3 to be deleted")
	}
	
	// Test Clear
	cache.Set("key4", "value4", time.Hour)
	cache.Set("key5", "value5", time.Hour)
	cache.Clear()
	all := cache.GetAll()
	if len(all) != 0 {
		t.Error("Expected cache to be empty after Clear")
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(3, time.Second)
	
	// Test within limit
	for i := 0; i < 3; i++ {
		if !limiter.Allow("user1") {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}
	
	// Test over limit
	if limiter.Allow("user1") {
		t.Error("Expected request to be rate limited")
	}
	
	// Test different key
	if !limiter.Allow("user2") {
		t.Error("Expected request for different user to be allowed")
	}
	
	// Test reset
	limiter.Reset("user1")
	if !limiter.Allow("user1") {
		t.Error("Expected request after reset to be allowed")
	}
}

func TestSubscriberCache(t *testing.T) {
	sc := NewSubscriberCache(time.Hour)

	if _, ok := sc.LastSequence(1, "quoter-BTCUSDT"); ok {
		t.Error("expected no resume state before first Record")
	}

	sc.Record(1, "quoter-BTCUSDT", 42)
	seq, ok := sc.LastSequence(1, "quoter-BTCUSDT")
	if !ok || seq != 42 {
		t.Errorf("expected (42, true), got (%d, %v)", seq, ok)
	}

	// Different instrument id must not collide with the same name.
	if _, ok := sc.LastSequence(2, "quoter-BTCUSDT"); ok {
		t.Error("expected no resume state for a different instrument id")
	}

	sc.Record(1, "quoter-BTCUSDT", 43)
	seq, ok = sc.LastSequence(1, "quoter-BTCUSDT")
	if !ok || seq != 43 {
		t.Errorf("expected Record to overwrite to (43, true), got (%d, %v)", seq, ok)
	}

	sc.Forget(1, "quoter-BTCUSDT")
	if _, ok := sc.LastSequence(1, "quoter-BTCUSDT"); ok {
		t.Error("expected resume state to be gone after Forget")
	}
}

func TestSubscriberCacheExpiry(t *testing.T) {
	sc := NewSubscriberCache(time.Millisecond * 50)
	sc.Record(7, "hedger-XBTUSD", 100)

	time.Sleep(time.Millisecond * 100)
	if _, ok := sc.LastSequence(7, "hedger-XBTUSD"); ok {
		t.Error("expected resume state to expire after ttl")
	}
}