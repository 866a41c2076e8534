package nws

import (
	"context"
	"sync"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
	"github.com/couchcryptid/storm-alert-polygons/internal/observability"
)

// CachedZoneFetcher wraps a ZoneFetcher with an in-memory LRU cache. Zone
// boundaries change rarely, and neighbouring alerts share most zones.
type CachedZoneFetcher struct {
	inner   domain.ZoneFetcher
	cache   *lruCache[domain.ZoneGeometry]
	metrics *observability.Metrics
}

// NewCachedZoneFetcher creates a cache decorator around a zone fetcher.
func NewCachedZoneFetcher(inner domain.ZoneFetcher, maxEntries int, metrics *observability.Metrics) *CachedZoneFetcher {
	return &CachedZoneFetcher{
		inner:   inner,
		cache:   newLRUCache[domain.ZoneGeometry](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedZoneFetcher) FetchZone(ctx context.Context, zoneType, zoneID string) (domain.ZoneGeometry, error) {
	key := zoneType + "/" + zoneID
	if g, ok := c.cache.get(key); ok {
		c.metrics.ZoneCache.WithLabelValues("memory", "hit").Inc()
		return g, nil
	}
	c.metrics.ZoneCache.WithLabelValues("memory", "miss").Inc()

	g, err := c.inner.FetchZone(ctx, zoneType, zoneID)
	if err != nil {
		return g, err
	}
	// Zones without geometry are not cached so they can be retried next run.
	if g.Type != "" {
		c.cache.put(key, g)
	}
	return g, nil
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
