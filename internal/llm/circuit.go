package llm

import (
	"sync"
	"time"
)

// CircuitState is the routing view of a provider's recent failures.
type CircuitState int

const (
	StateClosed   CircuitState = iota // healthy, calls flow
	StateOpen                         // unhealthy, route to the fallback
	StateHalfOpen                     // cooldown over, one trial call allowed
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ProviderStatus is a point-in-time copy of a breaker, reported by the
// health endpoint.
type ProviderStatus struct {
	State               string     `json:"state"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	OpenedAt            *time.Time `json:"openedAt,omitempty"`
}

// CircuitBreaker counts consecutive failed generation calls for one
// provider. It only steers route selection; a failed call is never replayed.
type CircuitBreaker struct {
	mu sync.Mutex

	state         CircuitState
	failures      int
	openedAt      time.Time
	trialInFlight bool

	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

// NewCircuitBreaker opens after threshold consecutive failures and admits a
// single trial call once cooldown has passed.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold: max(threshold, 1),
		cooldown:  cooldown,
		now:       time.Now,
	}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	return cb.state
}

// Snapshot returns the breaker's state without consuming the trial call.
func (cb *CircuitBreaker) Snapshot() ProviderStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()

	st := ProviderStatus{State: cb.state.String(), ConsecutiveFailures: cb.failures}
	if cb.state != StateClosed {
		opened := cb.openedAt
		st.OpenedAt = &opened
	}
	return st
}

// refresh moves an open circuit to half-open when the cooldown has passed.
// mu must be held.
func (cb *CircuitBreaker) refresh() {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.cooldown {
		cb.state = StateHalfOpen
		cb.trialInFlight = false
	}
}

func (cb *CircuitBreaker) closeCircuit() {
	cb.state = StateClosed
	cb.failures = 0
	cb.trialInFlight = false
}

func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.openedAt = cb.now()
	cb.trialInFlight = false
}

// Allow reports whether a call may be routed to the provider. While
// half-open only the first caller is admitted until its outcome is recorded.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()

	switch cb.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.trialInFlight {
			return false
		}
		cb.trialInFlight = true
		return true
	}
	return false
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.closeCircuit()
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()

	cb.failures++
	switch {
	case cb.state == StateHalfOpen:
		cb.trip()
	case cb.state == StateClosed && cb.failures >= cb.threshold:
		cb.trip()
	}
}

// ReleaseTrial hands back a claimed half-open trial call whose outcome said
// nothing about the provider, so the next caller may take it.
func (cb *CircuitBreaker) ReleaseTrial() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.trialInFlight = false
}

// Reset closes the circuit and forgets past failures.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.closeCircuit()
}
