// Package search coordinates query submission against the configured
// provider, caches result sets, and serves paginated views of them.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"torrentstream/webclient/internal/api"
	"torrentstream/webclient/internal/domain"
	"torrentstream/webclient/internal/metrics"
	"torrentstream/webclient/internal/ui"
)

const searchLabel = "Search"

// Backend issues one search request against a named provider.
type Backend interface {
	Search(ctx context.Context, provider domain.SearchProvider, query string) ([]domain.SearchResult, error)
}

// SettingsSource yields the current configuration snapshot. Provider choice
// is evaluated against it at submit time, never cached between searches.
type SettingsSource interface {
	Snapshot() domain.Settings
}

// Coordinator owns the single result set behind the search UI. One query at
// a time per control; pagination is a pure view over the stored set.
type Coordinator struct {
	backend  Backend
	settings SettingsSource
	notifier ui.Notifier
	sink     ui.EventSink
	logger   *slog.Logger
	control  *ui.Control

	cache         *memoryCache
	cacheDisabled bool
	redis         *RedisCacheBackend
	limiter       *rate.Limiter
	inflight      singleflight.Group
	pageSize      int

	mu      sync.Mutex
	results []domain.SearchResult
	page    int
}

type CoordinatorOption func(*Coordinator)

// WithRedisCache adds a Redis layer in front of the providers. The memory
// cache stays in place as the first tier.
func WithRedisCache(backend *RedisCacheBackend) CoordinatorOption {
	return func(c *Coordinator) { c.redis = backend }
}

// WithCacheTTL overrides the result-set cache lifetime.
func WithCacheTTL(ttl time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.cache = newMemoryCache(ttl) }
}

// WithCacheDisabled bypasses both cache tiers; every search hits a provider.
func WithCacheDisabled(disabled bool) CoordinatorOption {
	return func(c *Coordinator) { c.cacheDisabled = disabled }
}

// WithRateLimit caps queries per minute across all UI clients.
func WithRateLimit(perMinute int) CoordinatorOption {
	return func(c *Coordinator) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		}
	}
}

// WithSearchControl binds the search submit control for busy-state handling.
func WithSearchControl(control *ui.Control) CoordinatorOption {
	return func(c *Coordinator) { c.control = control }
}

func NewCoordinator(backend Backend, settings SettingsSource, notifier ui.Notifier, sink ui.EventSink, pageSize int, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator {
	if sink == nil {
		sink = ui.NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = 5
	}
	c := &Coordinator{
		backend:  backend,
		settings: settings,
		notifier: notifier,
		sink:     sink,
		logger:   logger,
		cache:    newMemoryCache(defaultCacheTTL),
		pageSize: pageSize,
		page:     1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelectProvider applies the provider preference order: the secondary
// provider is used only when the primary has no usable credentials and the
// secondary does. Every other combination targets the primary.
func SelectProvider(snapshot domain.Settings) domain.SearchProvider {
	if !snapshot.ProwlarrConfigured() && snapshot.JackettConfigured() {
		return domain.ProviderJackett
	}
	return domain.ProviderProwlarr
}

// Search issues one query and replaces the result set wholesale on success.
// The previous results are cleared before the query resolves; an in-flight
// older query is not cancelled and will overwrite a faster newer one if it
// finishes last.
func (c *Coordinator) Search(ctx context.Context, query string) bool {
	if strings.TrimSpace(query) == "" {
		c.notifier.Error("Please enter a search query")
		return false
	}
	if c.limiter != nil && !c.limiter.Allow() {
		c.notifier.Error("Too many searches, please wait a moment")
		return false
	}

	provider := SelectProvider(c.settings.Snapshot())

	c.setResults(nil)
	c.emitPage()
	c.busy()
	defer c.ready()

	started := time.Now()
	results, err := c.fetch(ctx, provider, query)
	metrics.SearchDuration.WithLabelValues(string(provider)).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.SearchesTotal.WithLabelValues(string(provider), "error").Inc()
		c.logger.Warn("search failed",
			slog.String("provider", string(provider)),
			slog.String("query", query),
			slog.String("error", err.Error()))
		c.notifier.Error(api.UserMessage(err))
		return false
	}
	metrics.SearchesTotal.WithLabelValues(string(provider), "ok").Inc()

	c.setResults(results)
	c.logger.Info("search completed",
		slog.String("provider", string(provider)),
		slog.String("query", query),
		slog.Int("results", len(results)))
	if len(results) == 0 {
		c.notifier.Error("No results found")
	}
	c.emitPage()
	return true
}

func (c *Coordinator) fetch(ctx context.Context, provider domain.SearchProvider, query string) ([]domain.SearchResult, error) {
	key := cacheKey(provider, query)
	now := time.Now()

	if c.cacheDisabled {
		return c.backend.Search(ctx, provider, query)
	}

	if cached, ok := c.cache.lookup(key, now); ok {
		recordCacheHit(true)
		return cached, nil
	}
	if c.redis != nil {
		if cached, found, err := c.redis.Get(ctx, key); err == nil && found {
			recordCacheHit(true)
			c.cache.store(key, cached, now)
			return cached, nil
		}
	}
	recordCacheHit(false)

	value, err, _ := c.inflight.Do(key, func() (any, error) {
		results, err := c.backend.Search(ctx, provider, query)
		if err != nil {
			return nil, err
		}
		c.cache.store(key, results, time.Now())
		if c.redis != nil {
			if err := c.redis.Set(ctx, key, results, c.cache.ttl); err != nil {
				c.logger.Warn("redis cache write failed", slog.String("error", err.Error()))
			}
		}
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]domain.SearchResult), nil
}

// CurrentPage returns the view for the page selected last.
func (c *Coordinator) CurrentPage() Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Paginate(c.results, c.page, c.pageSize)
}

// GoToPage switches the derived view. It never re-queries the backend.
func (c *Coordinator) GoToPage(n int) Page {
	c.mu.Lock()
	c.page = Paginate(c.results, n, c.pageSize).Number
	page := Paginate(c.results, c.page, c.pageSize)
	c.mu.Unlock()

	c.sink.Emit("search-results", page)
	return page
}

// NextPage advances one page; at the last page it is a no-op.
func (c *Coordinator) NextPage() Page {
	current := c.CurrentPage()
	if !current.HasNext {
		return current
	}
	return c.GoToPage(current.Number + 1)
}

// PrevPage goes back one page; at the first page it is a no-op.
func (c *Coordinator) PrevPage() Page {
	current := c.CurrentPage()
	if !current.HasPrev {
		return current
	}
	return c.GoToPage(current.Number - 1)
}

// Result returns the stored result at index, counted across the full set.
func (c *Coordinator) Result(index int) (domain.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.results) {
		return domain.SearchResult{}, false
	}
	return c.results[index], true
}

// Results returns a copy of the full stored result set.
func (c *Coordinator) Results() []domain.SearchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneResults(c.results)
}

func (c *Coordinator) setResults(results []domain.SearchResult) {
	c.mu.Lock()
	c.results = results
	c.page = 1
	c.mu.Unlock()
}

func (c *Coordinator) emitPage() {
	c.sink.Emit("search-results", c.CurrentPage())
}

func (c *Coordinator) busy() {
	if c.control != nil {
		c.control.SetBusy("")
	}
}

func (c *Coordinator) ready() {
	if c.control != nil {
		c.control.SetReady(searchLabel)
	}
}
