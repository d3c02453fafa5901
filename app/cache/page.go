package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Recorder counts cache lookups.
type Recorder interface {
	CacheHit()
	CacheMiss()
}

// PageCache wraps a Cache with a fixed TTL for rendered listing pages.
// Entries are never invalidated on writes; they expire after TTL.
type PageCache struct {
	cache    Cache
	ttl      time.Duration
	recorder Recorder
	logger   *zap.Logger
}

func NewPageCache(c Cache, ttl time.Duration, recorder Recorder, logger *zap.Logger) *PageCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageCache{cache: c, ttl: ttl, recorder: recorder, logger: logger}
}

// Key builds the cache key of a page as seen by a viewer. Viewer 0 is anonymous.
func Key(name, page string, viewerID int, format string) string {
	return fmt.Sprintf("%s:%s:page=%s:user=%d", format, name, page, viewerID)
}

// Fetch returns the cached value of key, or renders, stores and returns it.
// Cache failures are logged and fall back to rendering.
func (p *PageCache) Fetch(ctx context.Context, key string, render func() ([]byte, error)) ([]byte, error) {
	enabled := p.cache != nil && p.ttl > 0
	if enabled {
		data, ok, err := p.cache.Get(ctx, key)
		if err != nil {
			p.logger.Warn("page cache get failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			p.hit()
			return data, nil
		}
	}
	p.miss()

	data, err := render()
	if err != nil {
		return nil, err
	}
	if enabled {
		if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
			p.logger.Warn("page cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return data, nil
}

// Clear drops every cached page. It is a no-op when caching is disabled.
func (p *PageCache) Clear(ctx context.Context) error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Clear(ctx)
}

func (p *PageCache) hit() {
	if p.recorder != nil {
		p.recorder.CacheHit()
	}
}

func (p *PageCache) miss() {
	if p.recorder != nil {
		p.recorder.CacheMiss()
	}
}
