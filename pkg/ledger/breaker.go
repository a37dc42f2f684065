package ledger

import (
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// BreakerState is the circuit breaker state.
type BreakerState int32

const (
	// StateClosed lets all traffic through.
	StateClosed BreakerState = iota
	// StateOpen rejects all traffic until the cooldown elapses.
	StateOpen
	// StateHalfOpen lets a trial call through to probe recovery.
	StateHalfOpen
)

func (s BreakerState) String() string {
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

const (
	// breakerFailureThreshold is the consecutive-failure count that opens the breaker.
	breakerFailureThreshold = 5
	// breakerCooldown is how long an open breaker rejects traffic before probing.
	breakerCooldown = 30 * time.Second
)

// CircuitBreaker is a tri-state gate guarding outbound traffic.
//
// The open→half-open transition is a computed predicate on the time since the
// last failure, evaluated inside Allow. There is no background timer, so
// several concurrent callers may observe the transition and probe at once;
// any one probe succeeding closes the breaker correctly.
type CircuitBreaker struct {
	mu                  sync.Mutex
	state               BreakerState
	consecutiveFailures int
	lastFailureAt       time.Time

	threshold int
	cooldown  time.Duration
	now       func() time.Time
	logger    *log.Helper
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(logger log.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		state:     StateClosed,
		threshold: breakerFailureThreshold,
		cooldown:  breakerCooldown,
		now:       time.Now,
		logger:    log.NewHelper(logger),
	}
}

// Allow reports whether a call may proceed. While open, it flips to half-open
// once the cooldown has elapsed and permits the triggering call as the probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailureAt) > cb.cooldown {
			cb.transitionTo(StateHalfOpen)
			return true
		}
		return false
	default:
		// Closed always allows; half-open allows the probe.
		return true
	}
}

// RecordSuccess resets the failure streak and closes the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
	if cb.state != StateClosed {
		cb.transitionTo(StateClosed)
	}
}

// RecordFailure extends the failure streak. The breaker opens at the
// threshold or immediately when a half-open probe fails.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++
	cb.lastFailureAt = cb.now()

	switch cb.state {
	case StateHalfOpen:
		// Probe failed: reopen and restart the cooldown.
		cb.transitionTo(StateOpen)
	case StateClosed:
		if cb.consecutiveFailures >= cb.threshold {
			cb.transitionTo(StateOpen)
		}
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker closed and clears the failure streak. Intended for
// operator-triggered manual recovery.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
	cb.lastFailureAt = time.Time{}
	if cb.state != StateClosed {
		cb.transitionTo(StateClosed)
	}
}

// retryAfter returns how long until an open breaker starts probing again.
func (cb *CircuitBreaker) retryAfter() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return 0
	}
	remaining := cb.cooldown - cb.now().Sub(cb.lastFailureAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// transitionTo switches states and records the transition. Callers hold cb.mu.
func (cb *CircuitBreaker) transitionTo(next BreakerState) {
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next

	observeBreakerTransition(next)
	cb.logger.Infow(
		"msg", "circuit breaker state changed",
		"from", prev.String(),
		"to", next.String(),
		"consecutive_failures", cb.consecutiveFailures,
	)
}
