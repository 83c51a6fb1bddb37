package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares fixed-window counters across instances. If rdb is nil
// or Redis errors, every check passes (fail open).
type RedisLimiter struct {
	rdb    redis.Scripter
	limit  int64
	window time.Duration
	prefix string
}

func NewRedisLimiter(rdb redis.Scripter, limit int64, windowSize time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		limit:  limit,
		window: windowSize,
		prefix: "tourdesk:rl:",
	}
}

// fixedWindowScript atomically increments the window counter, starting the
// window's TTL on the first hit, and refuses to count past the limit.
// KEYS[1] = counter key
// ARGV[1] = limit
// ARGV[2] = window in milliseconds
// Returns: [count, 1=allowed/0=denied, ttl_ms]
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])

local count = tonumber(redis.call('GET', key) or '0')
if count >= limit then
    return {count, 0, redis.call('PTTL', key)}
end

count = redis.call('INCR', key)
if count == 1 then
    redis.call('PEXPIRE', key, window_ms)
end
return {count, 1, redis.call('PTTL', key)}
`)

func (l *RedisLimiter) Check(ctx context.Context, key string) LimitResult {
	now := time.Now()
	if l.rdb == nil {
		return newResult(1, l.limit, true, now.Add(l.window), now)
	}

	result, err := fixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + key},
		l.limit, l.window.Milliseconds(),
	).Int64Slice()
	if err != nil || len(result) != 3 {
		slog.Warn("rate limiter unavailable, allowing request", "error", err)
		return newResult(0, l.limit, true, now.Add(l.window), now)
	}

	ttl := time.Duration(result[2]) * time.Millisecond
	if ttl <= 0 {
		ttl = l.window
	}
	return newResult(result[0], l.limit, result[1] == 1, now.Add(ttl), now)
}
