package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/pkg/logger"
)

// TTLCatalog is the default lifetime of the cached catalog snapshot.
const TTLCatalog = 5 * time.Minute

// CatalogCache is a read-through cache in front of a badge.CatalogSource.
// Redis failures fall back to the source, so the cache never fails a read
// the source could serve.
type CatalogCache struct {
	source badge.CatalogSource
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCatalogCache creates a new CatalogCache.
func NewCatalogCache(source badge.CatalogSource, client redis.Cmdable, ttl time.Duration, log *slog.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = TTLCatalog
	}
	return &CatalogCache{
		source: source,
		client: client,
		ttl:    ttl,
		logger: logger.OrDefault(log).With(logger.Component("catalog_cache")),
	}
}

// ActiveBadges implements badge.CatalogSource.
func (c *CatalogCache) ActiveBadges(ctx context.Context) ([]badge.Badge, error) {
	var cached []badge.Badge
	err := getJSON(ctx, c.client, CatalogKey(), &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("catalog cache read failed", logger.Err(err))
	}

	badges, err := c.source.ActiveBadges(ctx)
	if err != nil {
		return nil, err
	}

	if err := setJSON(ctx, c.client, CatalogKey(), badges, c.ttl); err != nil {
		c.logger.Warn("catalog cache write failed", logger.Err(err))
	}
	return badges, nil
}

// Invalidate drops the cached snapshot. Call it after the catalog changes.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, CatalogKey()).Err()
}
