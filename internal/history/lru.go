// Package history is the get-or-fetch layer for candle series: a bounded
// in-memory LRU+TTL cache over a durable store over the source gateway.
package history

import (
	"container/list"
	"sync"
	"time"

	"github.com/eMatthiola/CryptoSage/internal/model"
)

const (
	defaultMaxSize = 20
	defaultTTL     = 300 * time.Second
)

type cacheEntry struct {
	key       string
	series    model.Series
	createdAt time.Time
}

// lruCache is a mutex-protected LRU cache with per-entry TTL. LRU and TTL
// are independent eviction rules: whichever triggers first wins. Expired
// entries are evicted lazily on lookup.
type lruCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	ll      *list.List // front = most recently used
	items   map[string]*list.Element

	now     func() time.Time
	evicted func() // eviction hook for metrics, may be nil
}

func newLRUCache(maxSize int, ttl time.Duration) *lruCache {
	return &lruCache{
		maxSize: maxSize,
		ttl:     ttl,
		ll:      list.New(),
		items:   make(map[string]*list.Element),
		now:     time.Now,
	}
}

// Get returns the cached series if present and within TTL, promoting the
// entry to most-recently-used.
func (c *lruCache) Get(key string) (model.Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return model.Series{}, false
	}
	ent := el.Value.(*cacheEntry)
	if c.now().Sub(ent.createdAt) >= c.ttl {
		c.removeLocked(el)
		return model.Series{}, false
	}
	c.ll.MoveToFront(el)
	return ent.series, true
}

// Set inserts or refreshes an entry, evicting the least-recently-used one
// when the cache is over capacity.
func (c *lruCache) Set(key string, series model.Series) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*cacheEntry)
		ent.series = series
		ent.createdAt = c.now()
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&cacheEntry{key: key, series: series, createdAt: c.now()})
	c.items[key] = el

	if c.ll.Len() > c.maxSize {
		if oldest := c.ll.Back(); oldest != nil {
			c.removeLocked(oldest)
		}
	}
}

func (c *lruCache) removeLocked(el *list.Element) {
	ent := el.Value.(*cacheEntry)
	c.ll.Remove(el)
	delete(c.items, ent.key)
	if c.evicted != nil {
		c.evicted()
	}
}

// Stats reports cache occupancy for the monitoring endpoint.
type CacheStats struct {
	Size       int      `json:"size"`
	MaxSize    int      `json:"maxsize"`
	TTLSeconds int      `json:"ttl"`
	Keys       []string `json:"keys"`
}

func (c *lruCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.ll.Len())
	for el := c.ll.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*cacheEntry).key)
	}
	return CacheStats{
		Size:       c.ll.Len(),
		MaxSize:    c.maxSize,
		TTLSeconds: int(c.ttl / time.Second),
		Keys:       keys,
	}
}
