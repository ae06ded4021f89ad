package lookup

import (
	"container/list"
	"sync"

	"github.com/couchcryptid/treecover-lookup-service/internal/domain"
	"github.com/couchcryptid/treecover-lookup-service/internal/observability"
)

// normalizeCache memoizes domain.Normalize for names typed at runtime.
// A zero or negative size disables caching.
type normalizeCache struct {
	maxEntries int
	metrics    *observability.Metrics

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List // front is most recently used
}

type cacheItem struct {
	name  string
	token string
}

func newNormalizeCache(maxEntries int, metrics *observability.Metrics) *normalizeCache {
	return &normalizeCache{
		maxEntries: maxEntries,
		metrics:    metrics,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (c *normalizeCache) normalize(name string) string {
	if c.maxEntries <= 0 {
		return domain.Normalize(name)
	}
	if token, ok := c.get(name); ok {
		c.metrics.NormalizeCache.WithLabelValues("hit").Inc()
		return token
	}
	c.metrics.NormalizeCache.WithLabelValues("miss").Inc()
	token := domain.Normalize(name)
	c.put(name, token)
	return token
}

func (c *normalizeCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *normalizeCache) get(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[name]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheItem).token, true
}

func (c *normalizeCache) put(name, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[name]; ok {
		el.Value.(*cacheItem).token = token
		c.order.MoveToFront(el)
		return
	}

	c.items[name] = c.order.PushFront(&cacheItem{name: name, token: token})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheItem).name)
	}
}
