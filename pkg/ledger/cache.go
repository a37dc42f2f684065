package ledger

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// cacheEntry stores one cached result with its insertion time. Expiry is
// evaluated on read against the cache TTL.
type cacheEntry struct {
	value    any
	storedAt time.Time
}

// ResponseCache is a bounded, time-expiring store for cacheable read results.
//
// Entries expire on read once the TTL has elapsed. At capacity the
// least-recently-used entry is evicted before inserting a new one.
type ResponseCache struct {
	mu      sync.Mutex
	entries *simplelru.LRU[string, cacheEntry]

	enabled    bool
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	logger     *log.Helper
}

// NewResponseCache creates a cache holding at most maxEntries values for up
// to ttl each. A disabled cache accepts calls but stores and returns nothing.
func NewResponseCache(enabled bool, ttl time.Duration, maxEntries int, logger log.Logger) (*ResponseCache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	c := &ResponseCache{
		enabled:    enabled,
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		logger:     log.NewHelper(logger),
	}

	entries, err := simplelru.NewLRU[string, cacheEntry](maxEntries, nil)
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}
	c.entries = entries

	return c, nil
}

// Get returns the cached value for key. An entry older than the TTL is
// deleted and reported as a miss.
func (c *ResponseCache) Get(key string) (any, bool) {
	if !c.enabled {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Get(key)
	if !ok {
		observeCacheEvent(cacheEventMiss)
		return nil, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.entries.Remove(key)
		observeCacheEvent(cacheEventExpired)
		return nil, false
	}

	observeCacheEvent(cacheEventHit)
	return entry.value, true
}

// Put stores value under key, evicting the least-recently-used entry when the
// cache is full. No-op when the cache is disabled.
func (c *ResponseCache) Put(key string, value any) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if evicted := c.entries.Add(key, cacheEntry{value: value, storedAt: c.now()}); evicted {
		observeCacheEvent(cacheEventEvicted)
	}
}

// Clear drops every entry. Intended for operator-triggered invalidation.
func (c *ResponseCache) Clear() {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	size := c.entries.Len()
	c.entries.Purge()
	c.mu.Unlock()

	c.logger.Infow("msg", "response cache cleared", "dropped_entries", size)
}

// Len returns the number of stored entries, including any not yet expired on read.
func (c *ResponseCache) Len() int {
	if !c.enabled {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// cacheKey derives the deterministic cache key for an operation and its
// parameters. JSON encoding keeps map keys sorted, so equal parameters always
// produce equal keys.
func cacheKey(operation string, params any) (string, error) {
	if params == nil {
		return operation, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("serialize cache key params: %w", err)
	}
	return operation + ":" + string(raw), nil
}
