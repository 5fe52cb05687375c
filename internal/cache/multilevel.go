package cache

import (
	"context"
	"errors"
	"time"
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Health(ctx context.Context) error
	Close() error
}

// MultiLevelCache reads through a process-local L1 to an optional shared L2.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      Cache
	l1TTL   time.Duration
	metrics *CacheMetrics
}

// NewMultiLevelCache builds the cache. l2 may be nil for a single instance
// deployment.
func NewMultiLevelCache(l1 *MemoryCache, l2 Cache, l1TTL time.Duration) *MultiLevelCache {
	if l1 == nil {
		l1 = NewMemoryCache(0)
	}
	if l1TTL <= 0 {
		l1TTL = time.Minute
	}
	return &MultiLevelCache{
		l1:      l1,
		l2:      l2,
		l1TTL:   l1TTL,
		metrics: NewCacheMetrics(),
	}
}

func (c *MultiLevelCache) Metrics() *CacheMetrics {
	return c.metrics
}

func (c *MultiLevelCache) l1Expiry(ttl time.Duration) time.Duration {
	if ttl > 0 && ttl < c.l1TTL {
		return ttl
	}
	return c.l1TTL
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.metrics.RecordSet()

	if err := c.l1.Set(ctx, key, value, c.l1Expiry(ttl)); err != nil {
		c.metrics.RecordError()
		return err
	}
	if c.l2 != nil {
		if err := c.l2.Set(ctx, key, value, ttl); err != nil {
			c.metrics.RecordError()
			return err
		}
	}
	return nil
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	err := c.l1.Get(ctx, key, dest)
	if err == nil {
		c.metrics.RecordHit()
		return nil
	}

	if c.l2 == nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	err = c.l2.Get(ctx, key, dest)
	switch {
	case err == nil:
		c.metrics.RecordHit()
		_ = c.l1.Set(ctx, key, dest, c.l1TTL)
		return nil
	case errors.Is(err, ErrCacheMiss):
		c.metrics.RecordMiss()
	default:
		c.metrics.RecordError()
	}
	return err
}

func (c *MultiLevelCache) Delete(ctx context.Context, keys ...string) error {
	c.metrics.RecordDelete()

	_ = c.l1.Delete(ctx, keys...)
	if c.l2 != nil {
		if err := c.l2.Delete(ctx, keys...); err != nil {
			c.metrics.RecordError()
			return err
		}
	}
	return nil
}

func (c *MultiLevelCache) Health(ctx context.Context) error {
	if c.l2 != nil {
		return c.l2.Health(ctx)
	}
	return nil
}

func (c *MultiLevelCache) Close() error {
	_ = c.l1.Close()
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}
