// services/product_cache.go
package services

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type productCall struct {
	done      chan struct{}
	discovery *ProductDiscovery
}

// ProductCache caches product discoveries per brand for the lifetime of a
// batch run, with a single in-flight fetch per key so concurrent workers on
// the same brand do not stampede the enrichment providers.
type ProductCache struct {
	mu       sync.Mutex
	store    *gocache.Cache
	inflight map[string]*productCall
}

func NewProductCache(ttl time.Duration) *ProductCache {
	return &ProductCache{
		store:    gocache.New(ttl, 2*ttl),
		inflight: make(map[string]*productCall),
	}
}

// Get returns the cached discovery for key, or runs loader exactly once while
// concurrent callers for the same key wait on the result. Failed loads are
// not cached; the loader itself degrades to an empty discovery when every
// provider fails, and that empty result is cached deliberately.
func (c *ProductCache) Get(key string, loader func() *ProductDiscovery) *ProductDiscovery {
	c.mu.Lock()
	if cached, ok := c.store.Get(key); ok {
		c.mu.Unlock()
		return cached.(*ProductDiscovery)
	}
	if call, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-call.done
		return call.discovery
	}
	call := &productCall{done: make(chan struct{})}
	c.inflight[key] = call
	c.mu.Unlock()

	discovery := loader()

	c.mu.Lock()
	c.store.SetDefault(key, discovery)
	call.discovery = discovery
	close(call.done)
	delete(c.inflight, key)
	c.mu.Unlock()

	return discovery
}

// Flush clears the cache. The batch runner flushes between batches so stale
// product lists do not outlive a run longer than the TTL intends.
func (c *ProductCache) Flush() {
	c.mu.Lock()
	c.store.Flush()
	c.mu.Unlock()
}
