package dataset

import (
	"container/list"
	"context"
	"sync"

	"github.com/couchcryptid/geoguess-service/internal/domain"
	"github.com/couchcryptid/geoguess-service/internal/observability"
)

// CachedFetcher wraps a DatasetFetcher with an in-memory LRU cache bounded
// by entry count and by total body size.
type CachedFetcher struct {
	inner   domain.DatasetFetcher
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around a fetcher. maxBytes <= 0
// leaves the size unbounded.
func NewCachedFetcher(inner domain.DatasetFetcher, maxEntries, maxBytes int, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		cache:   newLRUCache(maxEntries, maxBytes),
		metrics: metrics,
	}
}

func (c *CachedFetcher) FetchDataset(ctx context.Context, path string) ([]byte, error) {
	if data, ok := c.cache.get(path); ok {
		c.metrics.DatasetCache.WithLabelValues("hit").Inc()
		return data, nil
	}
	c.metrics.DatasetCache.WithLabelValues("miss").Inc()

	data, err := c.inner.FetchDataset(ctx, path)
	if err != nil {
		return nil, err
	}
	// Only successes are cached so datasets published later are picked up.
	c.cache.put(path, data)
	return data, nil
}

// lruCache is a thread-safe LRU of dataset bodies. The front of order is
// the most recently used entry.
type lruCache struct {
	maxEntries int
	maxBytes   int

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
	bytes   int
}

type cacheEntry struct {
	key   string
	value []byte
}

func newLRUCache(maxEntries, maxBytes int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

// put stores value under key. A body larger than the whole byte budget is
// not cached at all.
func (c *lruCache) put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries <= 0 || (c.maxBytes > 0 && len(value) > c.maxBytes) {
		return
	}
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*cacheEntry)
		c.bytes += len(value) - len(e.value)
		e.value = value
		c.order.MoveToFront(el)
	} else {
		c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: value})
		c.bytes += len(value)
	}

	for c.order.Len() > c.maxEntries || (c.maxBytes > 0 && c.bytes > c.maxBytes) {
		c.evictOldest()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

func (c *lruCache) evictOldest() {
	el := c.order.Back()
	if el == nil {
		return
	}
	e := c.order.Remove(el).(*cacheEntry)
	delete(c.entries, e.key)
	c.bytes -= len(e.value)
}
