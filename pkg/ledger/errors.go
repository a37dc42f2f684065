package ledger

import (
	"errors"
	"fmt"
	"time"
)

// CircuitOpenError is returned without contacting any endpoint while the
// circuit breaker is open. Callers may retry after RetryAfter elapses.
type CircuitOpenError struct {
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("circuit breaker is open, retry after %s", e.RetryAfter.Round(time.Millisecond))
	}
	return "circuit breaker is open"
}

// TimeoutError marks a single attempt that exceeded the per-attempt timeout.
// It is retried internally and only surfaces as the cause of an
// AllAttemptsFailedError.
type TimeoutError struct {
	Endpoint string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.Endpoint, e.Timeout)
}

// EndpointError marks a single attempt that failed with a transport or
// application error from one endpoint.
type EndpointError struct {
	Endpoint string
	Err      error
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("endpoint %s: %v", e.Endpoint, e.Err)
}

func (e *EndpointError) Unwrap() error { return e.Err }

// AllAttemptsFailedError is returned after the whole attempt sequence is
// exhausted. It carries the last underlying cause.
type AllAttemptsFailedError struct {
	Attempts int
	LastErr  error
}

func (e *AllAttemptsFailedError) Error() string {
	return fmt.Sprintf("all %d attempts exhausted: %v", e.Attempts, e.LastErr)
}

func (e *AllAttemptsFailedError) Unwrap() error { return e.LastErr }

// QuotaExceededError signals that the shared sponsor budget declined a
// reservation. It is a soft failure: the caller should re-submit with an
// explicit fee payer instead of the sponsor budget.
type QuotaExceededError struct {
	Requested  uint64
	PerTxLimit uint64
	Remaining  uint64
}

func (e *QuotaExceededError) Error() string {
	if e.Requested > e.PerTxLimit {
		return fmt.Sprintf("sponsor quota exceeded: fee %d is over the per-transaction ceiling %d", e.Requested, e.PerTxLimit)
	}
	return fmt.Sprintf("sponsor quota exceeded: fee %d is over the remaining daily budget %d", e.Requested, e.Remaining)
}

// IsCircuitOpen reports whether err is a CircuitOpenError.
func IsCircuitOpen(err error) bool {
	var target *CircuitOpenError
	return errors.As(err, &target)
}

// IsTimeout reports whether err is, or was caused by, a per-attempt timeout.
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsAllAttemptsFailed reports whether err marks an exhausted attempt sequence.
func IsAllAttemptsFailed(err error) bool {
	var target *AllAttemptsFailedError
	return errors.As(err, &target)
}

// IsQuotaExceeded reports whether err is a sponsor budget denial.
func IsQuotaExceeded(err error) bool {
	var target *QuotaExceededError
	return errors.As(err, &target)
}
