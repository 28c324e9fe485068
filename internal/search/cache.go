package search

import (
	"sort"
	"strings"
	"sync"
	"time"

	"torrentstream/webclient/internal/domain"
	"torrentstream/webclient/internal/metrics"
)

const (
	defaultCacheTTL        = 10 * time.Minute
	defaultCacheMaxEntries = 200
)

type cachedResults struct {
	results   []domain.SearchResult
	updatedAt time.Time
	expiresAt time.Time
}

// memoryCache keeps recent result sets so repeated queries do not hit the
// providers again within the TTL.
type memoryCache struct {
	mu         sync.Mutex
	entries    map[string]*cachedResults
	ttl        time.Duration
	maxEntries int
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &memoryCache{
		entries:    make(map[string]*cachedResults),
		ttl:        ttl,
		maxEntries: defaultCacheMaxEntries,
	}
}

func (c *memoryCache) lookup(key string, now time.Time) ([]domain.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if now.After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return cloneResults(entry.results), true
}

func (c *memoryCache) store(key string, results []domain.SearchResult, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cachedResults{
		results:   cloneResults(results),
		updatedAt: now,
		expiresAt: now.Add(c.ttl),
	}
	c.trimLocked(now)
}

func (c *memoryCache) trimLocked(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	type pair struct {
		key   string
		entry *cachedResults
	}
	items := make([]pair, 0, len(c.entries))
	for key, entry := range c.entries {
		items = append(items, pair{key: key, entry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].entry.updatedAt.Before(items[j].entry.updatedAt)
	})
	for i := 0; i < len(items)-c.maxEntries; i++ {
		delete(c.entries, items[i].key)
	}
}

func cacheKey(provider domain.SearchProvider, query string) string {
	return strings.Join([]string{
		"q=" + strings.ToLower(strings.TrimSpace(query)),
		"p=" + string(provider),
	}, "|")
}

func cloneResults(results []domain.SearchResult) []domain.SearchResult {
	if results == nil {
		return nil
	}
	cloned := make([]domain.SearchResult, len(results))
	copy(cloned, results)
	return cloned
}

func recordCacheHit(hit bool) {
	if hit {
		metrics.SearchCacheHitsTotal.Inc()
	} else {
		metrics.SearchCacheMissesTotal.Inc()
	}
}
