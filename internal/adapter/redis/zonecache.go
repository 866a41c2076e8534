// Package redis provides a shared zone geometry cache backed by Redis, so
// that several service instances and consecutive runs reuse zone lookups.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
	"github.com/couchcryptid/storm-alert-polygons/internal/observability"
)

const keyPrefix = "storm-alert-polygons:zone:"

// NewClient connects to the Redis server described by a redis:// URL.
func NewClient(url string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return goredis.NewClient(opt), nil
}

// ZoneCache is a domain.ZoneFetcher decorator that stores zone geometries in
// Redis. Redis failures are logged and the inner fetcher is used instead.
type ZoneCache struct {
	client  *goredis.Client
	inner   domain.ZoneFetcher
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewZoneCache creates a Redis-backed cache around a zone fetcher.
func NewZoneCache(client *goredis.Client, inner domain.ZoneFetcher, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *ZoneCache {
	return &ZoneCache{
		client:  client,
		inner:   inner,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *ZoneCache) FetchZone(ctx context.Context, zoneType, zoneID string) (domain.ZoneGeometry, error) {
	key := cacheKey(zoneType, zoneID)

	if g, ok := c.get(ctx, key); ok {
		return g, nil
	}

	g, err := c.inner.FetchZone(ctx, zoneType, zoneID)
	if err != nil {
		return g, err
	}
	if g.Type != "" {
		c.set(ctx, key, g)
	}
	return g, nil
}

// Ping checks the Redis connection.
func (c *ZoneCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (c *ZoneCache) Close() error {
	return c.client.Close()
}

func (c *ZoneCache) get(ctx context.Context, key string) (domain.ZoneGeometry, bool) {
	v, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		c.metrics.ZoneCache.WithLabelValues("redis", "miss").Inc()
		return domain.ZoneGeometry{}, false
	}
	if err != nil {
		c.metrics.ZoneCache.WithLabelValues("redis", "error").Inc()
		c.logger.Warn("redis zone cache read failed", "key", key, "error", err)
		return domain.ZoneGeometry{}, false
	}

	var g domain.ZoneGeometry
	if err := json.Unmarshal(v, &g); err != nil {
		c.metrics.ZoneCache.WithLabelValues("redis", "error").Inc()
		c.logger.Warn("redis zone cache entry corrupt", "key", key, "error", err)
		return domain.ZoneGeometry{}, false
	}
	c.metrics.ZoneCache.WithLabelValues("redis", "hit").Inc()
	return g, true
}

func (c *ZoneCache) set(ctx context.Context, key string, g domain.ZoneGeometry) {
	v, err := json.Marshal(g)
	if err != nil {
		c.logger.Warn("encode zone for redis", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, v, c.ttl).Err(); err != nil {
		c.logger.Warn("redis zone cache write failed", "key", key, "error", err)
	}
}

func cacheKey(zoneType, zoneID string) string {
	return keyPrefix + zoneType + "/" + zoneID
}
