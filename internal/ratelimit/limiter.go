package ratelimit

import (
	"context"
	"time"
)

// LimitResult is the outcome of a rate limit check.
type LimitResult struct {
	Allowed    bool
	Count      int64
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter decides whether a request from key may proceed.
type Limiter interface {
	Check(ctx context.Context, key string) LimitResult
}

func newResult(count, limit int64, allowed bool, resetAt, now time.Time) LimitResult {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	var retryAfter time.Duration
	if !allowed {
		retryAfter = resetAt.Sub(now)
	}
	return LimitResult{
		Allowed:    allowed,
		Count:      count,
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    resetAt,
		RetryAfter: retryAfter,
	}
}
