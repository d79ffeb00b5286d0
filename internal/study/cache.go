package study

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache timing defaults.
const (
	DefaultCacheTTL        = 5 * time.Minute
	DefaultRefreshCooldown = 30 * time.Second
)

// CacheEntry is one cached generation result plus its creation time.
type CacheEntry struct {
	Data      *StudyMaterials
	CreatedAt time.Time
}

// GenerationCache deduplicates concurrent generation requests per key and
// serves completed results until they expire. Expired entries are evicted
// lazily on access; Sweep exists for periodic cleanup.
type GenerationCache struct {
	ttl      time.Duration
	cooldown time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]CacheEntry

	flights singleflight.Group
}

// CacheOption configures a GenerationCache.
type CacheOption func(*GenerationCache)

// WithTTL overrides how long completed results stay fresh.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *GenerationCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCooldown overrides the minimum age before a forced refresh regenerates.
func WithCooldown(d time.Duration) CacheOption {
	return func(c *GenerationCache) {
		if d > 0 {
			c.cooldown = d
		}
	}
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *GenerationCache) {
		if now != nil {
			c.now = now
		}
	}
}

func NewGenerationCache(opts ...CacheOption) *GenerationCache {
	c := &GenerationCache{
		ttl:      DefaultCacheTTL,
		cooldown: DefaultRefreshCooldown,
		now:      time.Now,
		entries:  make(map[string]CacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrGenerate returns the cached result for key if it is still fresh;
// otherwise it runs generate, sharing one in-flight call among all concurrent
// requesters of the same key. The shared call runs detached from any single
// caller's context so that one caller timing out does not abort generation
// for the others; the caller's own ctx still bounds its wait.
func (c *GenerationCache) GetOrGenerate(ctx context.Context, key string, generate func(context.Context) (*StudyMaterials, error)) (*StudyMaterials, error) {
	if data, ok := c.fresh(key); ok {
		return data, nil
	}
	return c.generate(ctx, key, generate)
}

// Refresh bypasses the TTL and regenerates, except within the cooldown window
// after the last completion, where the cached result is returned instead.
// The cooldown keeps a misbehaving client from hammering the generator.
func (c *GenerationCache) Refresh(ctx context.Context, key string, generate func(context.Context) (*StudyMaterials, error)) (*StudyMaterials, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && c.now().Sub(entry.CreatedAt) < c.cooldown {
		c.mu.Unlock()
		return entry.Data, nil
	}
	delete(c.entries, key)
	c.mu.Unlock()

	return c.generate(ctx, key, generate)
}

func (c *GenerationCache) generate(ctx context.Context, key string, generate func(context.Context) (*StudyMaterials, error)) (*StudyMaterials, error) {
	ch := c.flights.DoChan(key, func() (any, error) {
		data, err := generate(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = CacheEntry{Data: data, CreatedAt: c.now()}
		c.mu.Unlock()
		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*StudyMaterials), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Peek returns the cached result without triggering generation.
func (c *GenerationCache) Peek(key string) (*StudyMaterials, bool) {
	return c.fresh(key)
}

// Invalidate drops the entry for key, if any.
func (c *GenerationCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Sweep removes all expired entries and returns how many were dropped.
func (c *GenerationCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	for key, entry := range c.entries {
		if now.Sub(entry.CreatedAt) >= c.ttl {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of stored entries, expired or not.
func (c *GenerationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *GenerationCache) fresh(key string) (*StudyMaterials, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.CreatedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.Data, true
}
