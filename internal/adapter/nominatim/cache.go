package nominatim

import (
	"container/list"
	"context"
	"sync"

	"github.com/poamaps/incident-etl/internal/domain"
	"github.com/poamaps/incident-etl/internal/observability"
)

// Cached wraps a Geocoder with an in-memory LRU cache keyed by the candidate
// address string. Cache hits bypass the throttle entirely: they cost the
// provider nothing, so they owe it no delay.
type Cached struct {
	inner   domain.Geocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCached creates a cache decorator around a geocoder.
func NewCached(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *Cached {
	return &Cached{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *Cached) Resolve(ctx context.Context, street string) (domain.Coordinates, bool, error) {
	if coords, ok := c.cache.get(street); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return coords, true, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	coords, found, err := c.inner.Resolve(ctx, street)
	if err != nil {
		return coords, found, err
	}
	// Only found results are cached so transient provider misses can be
	// retried on a later run.
	if found {
		c.cache.put(street, coords)
	}
	return coords, found, err
}

// lruCache is a small thread-safe LRU over container/list.
type lruCache struct {
	maxEntries int

	mu    sync.Mutex
	ll    *list.List
	items map[string]*list.Element
}

type cacheEntry struct {
	key    string
	coords domain.Coordinates
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (domain.Coordinates, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return domain.Coordinates{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).coords, true
}

func (c *lruCache) put(key string, coords domain.Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).coords = coords
		c.ll.MoveToFront(el)
		return
	}

	c.items[key] = c.ll.PushFront(&cacheEntry{key: key, coords: coords})

	if c.ll.Len() > c.maxEntries {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}
