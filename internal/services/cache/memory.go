package cache

import (
	"container/list"
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// DefaultTTL applies when Set is called without one
const DefaultTTL = 5 * time.Minute

// MemoryCache is a size-bounded in-memory cache with least-recently-used eviction
type MemoryCache struct {
	mu          sync.Mutex
	items       map[string]*list.Element
	order       *list.List // front is most recently used
	maxSize     int64
	currentSize int64
	stats       Stats
	now         func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type entry struct {
	key    string
	value  []byte
	expiry time.Time
	size   int64
}

// NewMemoryCache creates a cache holding at most maxSizeMB megabytes; 0 means unbounded
func NewMemoryCache(maxSizeMB int64) *MemoryCache {
	return newMemoryCache(maxSizeMB, time.Minute)
}

func newMemoryCache(maxSizeMB int64, sweep time.Duration) *MemoryCache {
	mc := &MemoryCache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSizeMB * 1024 * 1024,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	mc.wg.Add(1)
	go mc.janitor(sweep)
	return mc
}

// Get returns a live value and marks it recently used
func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	el, ok := mc.items[key]
	if !ok {
		mc.stats.Misses++
		return nil, false
	}

	e := el.Value.(*entry)
	if mc.now().After(e.expiry) {
		mc.remove(el)
		mc.stats.Misses++
		return nil, false
	}

	mc.order.MoveToFront(el)
	mc.stats.Hits++
	return e.value, true
}

// Set stores value until ttl passes
func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	size := int64(len(key) + len(value))

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if el, ok := mc.items[key]; ok {
		mc.remove(el)
	}
	if mc.maxSize > 0 && size > mc.maxSize {
		log.Printf("[WARN] Not caching %s: %d bytes exceeds cache size", key, size)
		return nil
	}

	for mc.maxSize > 0 && mc.currentSize+size > mc.maxSize {
		oldest := mc.order.Back()
		if oldest == nil {
			break
		}
		mc.remove(oldest)
		mc.stats.Evictions++
	}

	e := &entry{key: key, value: value, expiry: mc.now().Add(ttl), size: size}
	mc.items[key] = mc.order.PushFront(e)
	mc.currentSize += size
	mc.stats.Sets++
	return nil
}

// Delete removes a key
func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if el, ok := mc.items[key]; ok {
		mc.remove(el)
		mc.stats.Deletes++
	}
	return nil
}

// DeletePrefix removes every key starting with prefix
func (mc *MemoryCache) DeletePrefix(ctx context.Context, prefix string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	removed := 0
	for key, el := range mc.items {
		if strings.HasPrefix(key, prefix) {
			mc.remove(el)
			mc.stats.Deletes++
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[DEBUG] Invalidated %d cached entr(ies) under %q", removed, prefix)
	}
	return nil
}

// Clear removes everything
func (mc *MemoryCache) Clear(ctx context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.items = make(map[string]*list.Element)
	mc.order.Init()
	mc.currentSize = 0
	return nil
}

// Stats returns cache statistics
func (mc *MemoryCache) Stats() Stats {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	stats := mc.stats
	stats.Size = mc.currentSize
	stats.MaxSize = mc.maxSize
	stats.Entries = len(mc.items)
	return stats
}

// Stop ends the janitor goroutine; it is safe to call more than once
func (mc *MemoryCache) Stop() {
	mc.stopOnce.Do(func() { close(mc.stopCh) })
	mc.wg.Wait()
}

func (mc *MemoryCache) janitor(interval time.Duration) {
	defer mc.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.removeExpired()
		case <-mc.stopCh:
			return
		}
	}
}

func (mc *MemoryCache) removeExpired() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	for _, el := range mc.items {
		if now.After(el.Value.(*entry).expiry) {
			mc.remove(el)
			mc.stats.Evictions++
		}
	}
}

// remove unlinks el; callers hold mu
func (mc *MemoryCache) remove(el *list.Element) {
	e := el.Value.(*entry)
	mc.order.Remove(el)
	delete(mc.items, e.key)
	mc.currentSize -= e.size
}
