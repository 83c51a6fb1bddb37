package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int64
	start time.Time
}

// MemoryLimiter is a fixed-window counter per key held in process memory.
// State does not survive restarts and is not shared across instances; use
// RedisLimiter for that.
type MemoryLimiter struct {
	limit  int64
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*window
}

func NewMemoryLimiter(limit int64, windowSize time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  windowSize,
		now:     time.Now,
		entries: make(map[string]*window),
	}
}

// Check admits at most limit requests per key per window. The first call
// after a window expires starts a new one with count 1.
func (l *MemoryLimiter) Check(_ context.Context, key string) LimitResult {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.Sub(e.start) >= l.window {
		l.entries[key] = &window{count: 1, start: now}
		return newResult(1, l.limit, true, now.Add(l.window), now)
	}

	resetAt := e.start.Add(l.window)
	if e.count >= l.limit {
		return newResult(e.count, l.limit, false, resetAt, now)
	}
	e.count++
	return newResult(e.count, l.limit, true, resetAt, now)
}

// Sweep drops entries whose window has expired and returns how many were removed.
func (l *MemoryLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if now.Sub(e.start) >= l.window {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired entries every interval until ctx is done.
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = l.window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
