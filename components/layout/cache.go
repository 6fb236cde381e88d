package layout

import (
	"context"
	"sync"
	"time"
)

// CachedRepository memoizes FetchLayout results for a TTL. Saves and resets
// through the cache invalidate the key; writes made elsewhere become visible
// once the entry expires.
type CachedRepository struct {
	next Repository
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[PageKey]cachedLayout
}

type cachedLayout struct {
	cfg     *PageLayoutConfig
	expires time.Time
}

var _ Repository = (*CachedRepository)(nil)

// NewCachedRepository wraps next. A non-positive ttl disables caching.
func NewCachedRepository(next Repository, ttl time.Duration) *CachedRepository {
	return &CachedRepository{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[PageKey]cachedLayout),
	}
}

// FetchLayout returns a cached copy when fresh. Missing layouts are cached
// too; errors are not.
func (c *CachedRepository) FetchLayout(ctx context.Context, key PageKey) (*PageLayoutConfig, error) {
	if cfg, ok := c.get(key); ok {
		return cfg, nil
	}
	cfg, err := c.next.FetchLayout(ctx, key)
	if err != nil {
		return nil, err
	}
	c.set(key, cfg)
	return copyConfig(cfg), nil
}

func (c *CachedRepository) SaveLayout(ctx context.Context, key PageKey, cfg PageLayoutConfig) error {
	c.invalidate(key)
	if err := c.next.SaveLayout(ctx, key, cfg); err != nil {
		return err
	}
	c.set(key, &cfg)
	return nil
}

func (c *CachedRepository) ResetLayout(ctx context.Context, key PageKey) error {
	c.invalidate(key)
	return c.next.ResetLayout(ctx, key)
}

// Unwrap returns the wrapped repository.
func (c *CachedRepository) Unwrap() Repository {
	return c.next
}

func (c *CachedRepository) get(key PageKey) (*PageLayoutConfig, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		if ok {
			c.invalidate(key)
		}
		return nil, false
	}
	return copyConfig(entry.cfg), true
}

func (c *CachedRepository) set(key PageKey, cfg *PageLayoutConfig) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cachedLayout{cfg: copyConfig(cfg), expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *CachedRepository) invalidate(key PageKey) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func copyConfig(cfg *PageLayoutConfig) *PageLayoutConfig {
	if cfg == nil {
		return nil
	}
	out := *cfg
	out.Widgets = cloneWidgets(cfg.Widgets)
	return &out
}
