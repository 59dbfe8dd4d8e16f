package collector

import (
	"context"
	"errors"
	"time"

	"BandSentinel/internal/cache"
	"BandSentinel/internal/logger"
	"BandSentinel/internal/model"
)

// CachedSource wraps a DataSource and serves raw payloads from a cache.Store for TTL.
// Failed fetches are never cached.
type CachedSource struct {
	Source   DataSource
	Store    cache.Store
	TTL      time.Duration
	KeyScope string
	Observer Observer
	Logger   *logger.Logger
}

// NewCachedSource creates a caching decorator. keyScope distinguishes otherwise identical
// symbols fetched with different parameters (interval, limit).
func NewCachedSource(src DataSource, store cache.Store, ttl time.Duration, keyScope string, obs Observer, log *logger.Logger) *CachedSource {
	if obs == nil {
		obs = NopObserver{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedSource{Source: src, Store: store, TTL: ttl, KeyScope: keyScope, Observer: obs, Logger: log}
}

func (c *CachedSource) Name() string       { return c.Source.Name() }
func (c *CachedSource) Shape() model.Shape { return c.Source.Shape() }

func (c *CachedSource) FetchRaw(ctx context.Context, symbol string) ([]byte, error) {
	key := cache.GenerateKey(c.Source.Name(), c.KeyScope, symbol)

	body, err := c.Store.Get(ctx, key)
	if err == nil {
		c.Observer.ObserveCache(true)
		return body, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.Logger.Warn("cache read failed, fetching upstream",
			logger.String("key", key), logger.Error(err))
	}
	c.Observer.ObserveCache(false)

	body, err = c.Source.FetchRaw(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := c.Store.Set(ctx, key, body, c.TTL); err != nil {
		c.Logger.Warn("cache write failed",
			logger.String("key", key), logger.Error(err))
	}
	return body, nil
}
