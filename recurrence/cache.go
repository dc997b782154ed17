package recurrence

import (
	"slices"
	"sync"
	"time"
)

// windowKey identifies one expansion: the rule text, the deadline gap it was
// expanded with and the requested window.
type windowKey struct {
	rule    string
	gap     int
	from    int
	limit   int
	horizon string
}

func keyFor(rule string, gap int, w Window) windowKey {
	k := windowKey{rule: rule, gap: gap, from: w.FromIndex, limit: w.Limit}
	if w.Horizon != nil {
		k.horizon = w.Horizon.String()
	}
	return k
}

type cachedWindow struct {
	occurrences []Occurrence
	expires     time.Time
	// tick of the last Get or Set, used to pick eviction victims
	tick uint64
}

// Cache keeps recently expanded windows so repeated reads of the same series
// do not re-run the rule iterator.
type Cache struct {
	mu      sync.Mutex
	windows map[windowKey]*cachedWindow
	clock   uint64
	config  CacheConfig
	done    chan struct{}
	stop    sync.Once
}

// CacheConfig bounds the expansion cache
type CacheConfig struct {
	TTL             time.Duration
	MaxEntries      int
	CleanupInterval time.Duration
}

var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewCache starts a cache and its sweeper. Zero fields fall back to
// DefaultCacheConfig.
func NewCache(config CacheConfig) *Cache {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheConfig.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCacheConfig.CleanupInterval
	}
	c := &Cache{
		windows: make(map[windowKey]*cachedWindow),
		config:  config,
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Get returns a copy of the cached window, if it is still fresh
func (c *Cache) Get(rule string, gap int, w Window) ([]Occurrence, bool) {
	key := keyFor(rule, gap, w)

	c.mu.Lock()
	defer c.mu.Unlock()

	cw, ok := c.windows[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(cw.expires) {
		delete(c.windows, key)
		return nil, false
	}
	c.clock++
	cw.tick = c.clock
	return slices.Clone(cw.occurrences), true
}

// Set stores a copy of occurrences for the window
func (c *Cache) Set(rule string, gap int, w Window, occurrences []Occurrence) {
	key := keyFor(rule, gap, w)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clock++
	c.windows[key] = &cachedWindow{
		occurrences: slices.Clone(occurrences),
		expires:     time.Now().Add(c.config.TTL),
		tick:        c.clock,
	}
	if len(c.windows) > c.config.MaxEntries {
		c.evict()
	}
}

// evict drops expired windows, then the least recently touched ones until
// the cache fits. c.mu must be held.
func (c *Cache) evict() {
	now := time.Now()
	for key, cw := range c.windows {
		if now.After(cw.expires) {
			delete(c.windows, key)
		}
	}

	excess := len(c.windows) - c.config.MaxEntries
	if excess <= 0 {
		return
	}
	keys := make([]windowKey, 0, len(c.windows))
	for key := range c.windows {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b windowKey) int {
		ta, tb := c.windows[a].tick, c.windows[b].tick
		switch {
		case ta < tb:
			return -1
		case ta > tb:
			return 1
		}
		return 0
	})
	for _, key := range keys[:excess] {
		delete(c.windows, key)
	}
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.evict()
			c.mu.Unlock()
		}
	}
}

// Close stops the sweeper and empties the cache. It is safe to call twice.
func (c *Cache) Close() {
	c.stop.Do(func() { close(c.done) })

	c.mu.Lock()
	clear(c.windows)
	c.mu.Unlock()
}

// CacheStats counts cached windows
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	stats := CacheStats{TotalEntries: len(c.windows)}
	for _, cw := range c.windows {
		if now.After(cw.expires) {
			stats.ExpiredEntries++
		}
	}
	stats.ActiveEntries = stats.TotalEntries - stats.ExpiredEntries
	return stats
}
