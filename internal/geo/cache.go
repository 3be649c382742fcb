package geo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

// CachedGeocoder wraps a Geocoder with a Redis read-through cache. Geocode
// results are stable, so cache failures only cost an extra upstream call.
type CachedGeocoder struct {
	inner  Geocoder
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedGeocoder caches inner's lookups in Redis for ttl. A nil client
// disables caching and passes every call through.
func NewCachedGeocoder(inner Geocoder, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, redis: redisClient, ttl: ttl, logger: logger}
}

func (c *CachedGeocoder) key(address string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(address))))
	return fmt.Sprintf("geo:geocode:%s", hex.EncodeToString(sum[:]))
}

// Geocode returns the cached point when present, otherwise asks the inner
// geocoder and stores the result.
func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (Point, error) {
	if c.redis == nil {
		return c.inner.Geocode(ctx, address)
	}

	key := c.key(address)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var point Point
		if err := json.Unmarshal(data, &point); err == nil {
			return point, nil
		}
		// Unreadable entries are treated as a miss and overwritten below.
	} else if err != redis.Nil {
		c.logger.Warn("geocode cache read failed", "error", err)
	}

	point, err := c.inner.Geocode(ctx, address)
	if err != nil {
		return Point{}, err
	}

	if payload, err := json.Marshal(point); err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("geocode cache write failed", "error", err)
		}
	}
	return point, nil
}
