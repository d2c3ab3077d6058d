package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
}

// MemoryCache implements Service with an in-process map. Values are stored
// JSON-encoded so Get behaves identically across backends.
type MemoryCache struct {
	mu    sync.RWMutex
	data  map[string]memoryItem
	stop  chan struct{}
	sweep time.Duration
}

// NewMemoryCache creates an in-memory cache with periodic expiry sweeps.
func NewMemoryCache() *MemoryCache {
	mc := &MemoryCache{
		data:  make(map[string]memoryItem),
		stop:  make(chan struct{}),
		sweep: 5 * time.Minute,
	}
	go mc.cleanupLoop()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.data[key] = memoryItem{data: b, expireAt: time.Now().Add(ttl)}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.RLock()
	item, ok := mc.data[key]
	mc.mu.RUnlock()
	if !ok || time.Now().After(item.expireAt) {
		return ErrCacheMiss
	}
	return json.Unmarshal(item.data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		delete(mc.data, k)
	}
	return nil
}

func (mc *MemoryCache) Close() error {
	close(mc.stop)
	return nil
}

func (mc *MemoryCache) cleanupLoop() {
	t := time.NewTicker(mc.sweep)
	defer t.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case now := <-t.C:
			mc.mu.Lock()
			for k, item := range mc.data {
				if now.After(item.expireAt) {
					delete(mc.data, k)
				}
			}
			mc.mu.Unlock()
		}
	}
}
