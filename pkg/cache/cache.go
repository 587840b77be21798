// Package cache stores analysis results keyed by content fingerprint,
// with TTL expiry and capacity-bounded LRU eviction.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/vueadmin/vibeguard/pkg/types"
)

const (
	// DefaultTTL is how long an entry stays live regardless of access.
	DefaultTTL = 60 * time.Second

	// DefaultCapacity bounds the entry population.
	DefaultCapacity = 100

	// DefaultSweepInterval is how often expired entries are removed
	// independent of lookups, to bound idle memory.
	DefaultSweepInterval = 30 * time.Second
)

// Options configures the cache.
type Options struct {
	TTL           time.Duration
	Capacity      int
	SweepInterval time.Duration
	Logger        zerolog.Logger
}

// DefaultOptions returns the default cache options.
func DefaultOptions() Options {
	return Options{
		TTL:           DefaultTTL,
		Capacity:      DefaultCapacity,
		SweepInterval: DefaultSweepInterval,
		Logger:        zerolog.Nop(),
	}
}

type entry struct {
	result    *types.AnalysisResult
	expiresAt time.Time
}

// Cache is a fingerprint-keyed store of analysis results. Entries expire
// a fixed TTL after insertion; access does not refresh them. Reads may
// run concurrently, inserts and evictions are serialized by the
// underlying LRU.
type Cache struct {
	lru    *lru.Cache[string, *entry]
	ttl    time.Duration
	logger zerolog.Logger

	now func() time.Time // injectable clock for tests

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a cache and starts its background sweep. Callers must
// Close it to stop the sweeper.
func New(opts Options) (*Cache, error) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}

	inner, err := lru.New[string, *entry](opts.Capacity)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		lru:    inner,
		ttl:    opts.TTL,
		logger: opts.Logger.With().Str("component", "cache").Logger(),
		now:    time.Now,
		done:   make(chan struct{}),
	}

	go c.sweep(opts.SweepInterval)
	return c, nil
}

// Get returns the live (non-expired) result for key, or nil. An expired
// entry found during lookup is removed eagerly.
func (c *Cache) Get(key string) *types.AnalysisResult {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil
	}
	if c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		return nil
	}
	return e.result
}

// Put stores a result under key, evicting the least-recently-used entry
// if capacity is exceeded.
func (c *Cache) Put(key string, result *types.AnalysisResult) {
	c.lru.Add(key, &entry{
		result:    result,
		expiresAt: c.now().Add(c.ttl),
	})
}

// Invalidate removes a single entry.
func (c *Cache) Invalidate(key string) {
	c.lru.Remove(key)
}

// Purge drops everything.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len returns the current entry count, including not-yet-swept expired
// entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Close stops the background sweep. Safe to call more than once.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// sweep periodically removes expired entries so idle documents do not
// pin memory until their next lookup.
func (c *Cache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *Cache) removeExpired() {
	now := c.now()
	removed := 0
	for _, key := range c.lru.Keys() {
		if e, ok := c.lru.Peek(key); ok && now.After(e.expiresAt) {
			c.lru.Remove(key)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug().Int("removed", removed).Msg("swept expired entries")
	}
}
