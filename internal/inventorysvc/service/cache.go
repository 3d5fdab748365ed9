package service

import (
	"context"
	"sync"
	"time"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
)

// SearchCache holds card search pages keyed by SearchParams.Key.
type SearchCache interface {
	Get(ctx context.Context, key string) (*models.CardPage, bool)
	Set(ctx context.Context, key string, page *models.CardPage)
	Purge(ctx context.Context)
}

type cacheEntry struct {
	page     *models.CardPage
	storedAt time.Time
}

// MemoryCache is a size-capped TTL map. When full, the entry stored longest
// ago is evicted.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &MemoryCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*models.CardPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.page, true
}

func (c *MemoryCache) Set(_ context.Context, key string, page *models.CardPage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = cacheEntry{page: page, storedAt: c.now()}
}

func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey, oldest = k, e.storedAt
		}
	}
	delete(c.entries, oldestKey)
}

func (c *MemoryCache) Purge(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
