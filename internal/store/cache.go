package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultDestinationCacheTTL bounds how long an edited or deleted
	// destination row can still be served from Redis.
	DefaultDestinationCacheTTL = time.Minute
	destinationCachePrefix     = "tourdesk:dest:"
)

// Cached fronts a Store with a Redis cache for destination name lookups.
// Only hits are cached; a miss always reaches the database so a newly
// created destination is seen immediately. Nothing invalidates an entry,
// so changes to an existing row show up once its TTL expires.
type Cached struct {
	Store
	rdb redis.Cmdable
	ttl time.Duration
}

// NewCached uses DefaultDestinationCacheTTL when ttl is not positive.
func NewCached(inner Store, rdb redis.Cmdable, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultDestinationCacheTTL
	}
	return &Cached{Store: inner, rdb: rdb, ttl: ttl}
}

func destinationKey(name string) string {
	return destinationCachePrefix + strings.ToLower(strings.TrimSpace(name))
}

func (c *Cached) FindDestinationByName(ctx context.Context, name string) (*Destination, error) {
	key := destinationKey(name)

	if cached, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var d Destination
		if err := json.Unmarshal(cached, &d); err == nil {
			return &d, nil
		}
	}

	d, err := c.Store.FindDestinationByName(ctx, name)
	if err != nil || d == nil {
		return d, err
	}

	if data, err := json.Marshal(d); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Debug("destination cache write failed", "key", key, "error", err)
		}
	}
	return d, nil
}
