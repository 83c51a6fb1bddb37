package llm

import (
	"sync"
	"time"
)

// HealthTracker keeps one CircuitBreaker per provider name. Breakers are
// created on first use, so providers added by a config reload need no setup.
type HealthTracker struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker

	threshold int
	cooldown  time.Duration
}

func NewHealthTracker(threshold int, cooldown time.Duration) *HealthTracker {
	return &HealthTracker{
		breakers:  make(map[string]*CircuitBreaker),
		threshold: threshold,
		cooldown:  cooldown,
	}
}

func (ht *HealthTracker) breaker(provider string) *CircuitBreaker {
	ht.mu.RLock()
	cb := ht.breakers[provider]
	ht.mu.RUnlock()
	if cb != nil {
		return cb
	}

	ht.mu.Lock()
	defer ht.mu.Unlock()
	if cb = ht.breakers[provider]; cb == nil {
		cb = NewCircuitBreaker(ht.threshold, ht.cooldown)
		ht.breakers[provider] = cb
	}
	return cb
}

// IsAvailable reports whether provider may receive a call. For a half-open
// circuit a true answer claims the single trial call.
func (ht *HealthTracker) IsAvailable(provider string) bool {
	return ht.breaker(provider).Allow()
}

func (ht *HealthTracker) RecordSuccess(provider string) { ht.breaker(provider).RecordSuccess() }

func (ht *HealthTracker) RecordFailure(provider string) { ht.breaker(provider).RecordFailure() }

func (ht *HealthTracker) ReleaseTrial(provider string) { ht.breaker(provider).ReleaseTrial() }

// Reset closes every circuit. Called when providers.yaml is reloaded, since
// a corrected endpoint or key should be tried straight away.
func (ht *HealthTracker) Reset() {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	for _, cb := range ht.breakers {
		cb.Reset()
	}
}

// Status reports every provider that has been called so far.
func (ht *HealthTracker) Status() map[string]ProviderStatus {
	ht.mu.RLock()
	defer ht.mu.RUnlock()

	out := make(map[string]ProviderStatus, len(ht.breakers))
	for name, cb := range ht.breakers {
		out[name] = cb.Snapshot()
	}
	return out
}
