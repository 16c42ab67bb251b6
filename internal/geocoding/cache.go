package geocoding

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"maps-api/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CachedGeocoder keeps successful geocodes in Redis so repeated addresses skip the provider.
type CachedGeocoder struct {
	next   Geocoder
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// WithCache wraps next with a Redis cache. A nil client returns next unchanged.
func WithCache(next Geocoder, provider string, rdb *redis.Client, ttl time.Duration) Geocoder {
	if rdb == nil {
		return next
	}
	return &CachedGeocoder{next: next, rdb: rdb, ttl: ttl, prefix: "geocode:" + provider + ":"}
}

func (c *CachedGeocoder) key(address string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(address))))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Geocode answers from the cache when possible. Cache failures never fail the lookup.
func (c *CachedGeocoder) Geocode(ctx context.Context, address string) ([]Result, error) {
	key := c.key(address)

	s, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var results []Result
		if jsonErr := json.Unmarshal([]byte(s), &results); jsonErr == nil {
			metrics.GeocodeCacheTotal.WithLabelValues("hit").Inc()
			return results, nil
		}
	case errors.Is(err, redis.Nil):
	default:
		log.Warn().Err(err).Msg("geocode cache read failed")
	}
	metrics.GeocodeCacheTotal.WithLabelValues("miss").Inc()

	results, err := c.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		if b, err := json.Marshal(results); err == nil {
			if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
				log.Warn().Err(err).Msg("geocode cache write failed")
			}
		}
	}
	return results, nil
}
