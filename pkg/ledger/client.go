// Package ledger implements the resilient access client for an external
// distributed-ledger RPC network. The client routes calls across a primary
// endpoint and an ordered set of fallbacks, stops sending traffic to a
// failing backend via a circuit breaker, retries transient failures with
// capped exponential backoff, caches idempotent read results for a short
// window, meters a shared fee-sponsorship budget, and reports aggregate
// health derived from these signals.
//
// The wire format of ledger calls is opaque to this package: callers supply
// a RequestFunc that performs one call against one endpoint, and the client
// decides when, where and whether to invoke it.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/time/rate"
)

// Defaults for the configuration surface.
const (
	DefaultMaxRetries        = 3
	DefaultPerAttemptTimeout = 10 * time.Second
	DefaultCacheTTL          = 60 * time.Second
	DefaultCacheMaxEntries   = 1000
)

// Inter-attempt backoff policy: 1s, 2s, 4s, then capped at 5s.
const (
	backoffInitialInterval = 1 * time.Second
	backoffMaxInterval     = 5 * time.Second
	backoffMultiplier      = 2
)

// Operation names used in cache keys, metrics labels and logs.
const (
	opSubmitTransaction = "submit_transaction"
	opQueryState        = "query_state"
)

// RequestFunc performs a single call against one endpoint and returns the
// decoded result. Implementations should honor ctx cancellation; the client
// additionally races every call against the per-attempt timeout, so an
// implementation that ignores ctx still cannot stall the attempt loop.
type RequestFunc func(ctx context.Context, endpoint string) (any, error)

// Config is the client configuration surface. The zero value is not usable:
// PrimaryEndpoint is required. Zero durations and cache sizes fall back to
// the package defaults.
type Config struct {
	PrimaryEndpoint   string
	FallbackEndpoints []string

	// MaxRetries is the number of retries after the initial attempt.
	// Zero means a single attempt.
	MaxRetries int
	// PerAttemptTimeout bounds each single call, independent of any
	// caller-supplied deadline.
	PerAttemptTimeout time.Duration

	CacheEnabled    bool
	CacheTTL        time.Duration
	CacheMaxEntries int

	SponsorEnabled      bool
	SponsorPerTxCeiling uint64
	SponsorDailyCeiling uint64

	// RequestsPerSecond throttles outbound attempts across all callers of
	// this client. Zero disables the throttle.
	RequestsPerSecond float64
}

// TransactionRequest describes a signed transaction to submit.
type TransactionRequest struct {
	// SignedTx is the serialized, already-signed transaction. Signing and
	// key management happen upstream; the client never sees key material.
	SignedTx string `json:"signed_tx"`
	// Kind labels the transaction for logs (e.g. "recommendation", "follow").
	Kind string `json:"kind"`
	// Sponsored requests the shared fee-sponsorship budget to pay the fee.
	Sponsored bool `json:"sponsored"`
	// EstimatedFee is the fee reserved against the sponsor budget.
	EstimatedFee uint64 `json:"estimated_fee"`
	// FeePayer is an explicit fee-payer address used instead of the sponsor
	// budget; callers fall back to it when a reservation is denied.
	FeePayer string `json:"fee_payer,omitempty"`
}

// TransactionResult is the outcome of a submitted transaction.
type TransactionResult struct {
	Success bool   `json:"success"`
	TxHash  string `json:"tx_hash"`
	GasUsed uint64 `json:"gas_used"`
	Error   string `json:"error,omitempty"`
}

// StateQuery describes an idempotent read against ledger state.
type StateQuery struct {
	Method string `json:"method"`
	Params []any  `json:"params,omitempty"`
}

// QueryResult is the outcome of a state query.
type QueryResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client mediates every outbound ledger call. It is safe for concurrent use;
// each stateful collaborator guards itself with its own narrow lock and no
// lock is held across network I/O.
type Client struct {
	pool    *EndpointPool
	breaker *CircuitBreaker
	cache   *ResponseCache
	quota   *QuotaManager
	metrics *metricsCollector
	limiter *rate.Limiter
	logger  *log.Helper

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a client from cfg. It fails when no usable endpoint is
// configured; every other field falls back to package defaults.
func NewClient(cfg Config, logger log.Logger) (*Client, error) {
	pool := NewEndpointPool(cfg.PrimaryEndpoint, cfg.FallbackEndpoints, cfg.MaxRetries, cfg.PerAttemptTimeout)
	if pool.Size() == 0 {
		return nil, errors.New("ledger: primary endpoint is required")
	}

	cache, err := NewResponseCache(cfg.CacheEnabled, cfg.CacheTTL, cfg.CacheMaxEntries, logger)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	c := &Client{
		pool:    pool,
		breaker: NewCircuitBreaker(logger),
		cache:   cache,
		quota:   NewQuotaManager(cfg.SponsorEnabled, cfg.SponsorPerTxCeiling, cfg.SponsorDailyCeiling, logger),
		metrics: newMetricsCollector(),
		limiter: limiter,
		logger:  log.NewHelper(logger),
		now:     time.Now,
		sleep:   sleepContext,
	}

	c.logger.Infow(
		"msg", "ledger client configured",
		"endpoints", pool.Size(),
		"max_retries", pool.MaxRetries(),
		"per_attempt_timeout", pool.PerAttemptTimeout().String(),
		"cache_enabled", cfg.CacheEnabled,
		"sponsor_enabled", cfg.SponsorEnabled,
		"requests_per_second", cfg.RequestsPerSecond,
	)

	return c, nil
}

// SubmitTransaction submits a signed transaction. It is never cached. For a
// sponsored transaction the estimated fee is reserved against the shared
// budget before any network call; a denied reservation returns a
// QuotaExceededError without contacting any endpoint, signalling the caller
// to re-submit with an explicit fee payer. The actual gas used is debited
// after a successful submission.
func (c *Client) SubmitTransaction(ctx context.Context, tx TransactionRequest, fn RequestFunc) (*TransactionResult, error) {
	if tx.Sponsored {
		if !c.quota.TryReserve(tx.EstimatedFee) {
			snap := c.quota.Snapshot()
			return nil, &QuotaExceededError{
				Requested:  tx.EstimatedFee,
				PerTxLimit: snap.PerTxCeiling,
				Remaining:  snap.Remaining(),
			}
		}
	}

	res, err := c.Execute(ctx, opSubmitTransaction, tx, fn, false)
	if err != nil {
		return nil, err
	}
	result, ok := res.(*TransactionResult)
	if !ok {
		return nil, fmt.Errorf("ledger: submit request returned %T, want *TransactionResult", res)
	}

	if tx.Sponsored && result.Success {
		c.quota.Commit(result.GasUsed)
	}

	return result, nil
}

// QueryState performs an idempotent read. Results are cached for the
// configured TTL, keyed by the query method and parameters.
func (c *Client) QueryState(ctx context.Context, query StateQuery, fn RequestFunc) (*QueryResult, error) {
	res, err := c.Execute(ctx, opQueryState, query, fn, true)
	if err != nil {
		return nil, err
	}
	result, ok := res.(*QueryResult)
	if !ok {
		return nil, fmt.Errorf("ledger: query request returned %T, want *QueryResult", res)
	}
	return result, nil
}

// Execute runs one request sequence: breaker gate, cache lookup, then up to
// MaxRetries+1 attempts rotating round-robin over the endpoint pool with a
// per-attempt timeout and capped exponential backoff between attempts.
//
// A cache hit returns without touching metrics or the breaker. A rejected
// call (breaker open) returns CircuitOpenError without any network contact.
// Per-attempt failures are retried; only exhaustion of the whole sequence
// surfaces, as an AllAttemptsFailedError feeding the breaker.
func (c *Client) Execute(ctx context.Context, operation string, params any, fn RequestFunc, cacheable bool) (any, error) {
	if !c.breaker.Allow() {
		observeRejection(operation)
		return nil, &CircuitOpenError{RetryAfter: c.breaker.retryAfter()}
	}

	var key string
	if cacheable {
		var err error
		key, err = cacheKey(operation, params)
		if err != nil {
			// Unserializable params cannot be keyed; serve uncached.
			c.logger.Warnw("msg", "request not cacheable", "operation", operation, "error", err.Error())
			cacheable = false
		} else if value, ok := c.cache.Get(key); ok {
			return value, nil
		}
	}

	attempts := c.pool.MaxRetries() + 1
	start := c.now()
	bo := newAttemptBackoff()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		endpoint := c.pool.Endpoint(attempt)
		result, err := c.attempt(ctx, endpoint, fn)
		if err == nil {
			elapsed := c.now().Sub(start)
			c.metrics.recordSuccess(elapsed)
			c.breaker.RecordSuccess()
			observeRequest(operation, outcomeSuccess, elapsed)
			if cacheable {
				c.cache.Put(key, result)
			}
			return result, nil
		}

		// Caller cancellation aborts the sequence without exhaustion
		// bookkeeping: it says nothing about backend health.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		c.metrics.noteError(err.Error())
		observeAttemptError(operation, err)
		c.logger.Warnw(
			"msg", "ledger attempt failed",
			"operation", operation,
			"attempt", attempt+1,
			"attempts", attempts,
			"endpoint", endpoint,
			"error", err.Error(),
		)

		if attempt < attempts-1 {
			if err := c.sleep(ctx, bo.NextBackOff()); err != nil {
				return nil, err
			}
		}
	}

	elapsed := c.now().Sub(start)
	c.metrics.recordFailure(lastErr.Error())
	c.breaker.RecordFailure()
	observeRequest(operation, outcomeFailure, elapsed)

	return nil, &AllAttemptsFailedError{Attempts: attempts, LastErr: lastErr}
}

// attempt races fn against the per-attempt timeout. The request context
// carries the attempt deadline, so a ctx-honoring fn is cancelled in place;
// a ctx-ignoring fn is abandoned to finish on its own goroutine (its send is
// buffered, so it never leaks blocked).
func (c *Client) attempt(ctx context.Context, endpoint string, fn RequestFunc) (any, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.pool.PerAttemptTimeout())
	defer cancel()

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := fn(attemptCtx, endpoint)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			// A ctx-honoring fn surfaces the attempt deadline itself;
			// classify that the same as losing the race below.
			if errors.Is(out.err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, &TimeoutError{Endpoint: endpoint, Timeout: c.pool.PerAttemptTimeout()}
			}
			return nil, &EndpointError{Endpoint: endpoint, Err: out.err}
		}
		return out.result, nil
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TimeoutError{Endpoint: endpoint, Timeout: c.pool.PerAttemptTimeout()}
	}
}

// GetMetricsSnapshot returns a read-only copy of the request counters.
func (c *Client) GetMetricsSnapshot() MetricsSnapshot {
	return c.metrics.snapshot()
}

// GetHealthReport derives the tri-level health verdict from the breaker
// state, request counters and sponsor budget.
func (c *Client) GetHealthReport() HealthReport {
	return evaluateHealth(c.breaker.State(), c.metrics.snapshot(), c.quota.Snapshot(), c.now())
}

// GetBudgetSnapshot returns a read-only copy of the sponsor budget state.
func (c *Client) GetBudgetSnapshot() BudgetSnapshot {
	return c.quota.Snapshot()
}

// GetBreakerState reports the current circuit breaker state.
func (c *Client) GetBreakerState() BreakerState {
	return c.breaker.State()
}

// ResetCircuitBreaker forces the breaker closed. Operator-triggered.
func (c *Client) ResetCircuitBreaker() {
	c.breaker.Reset()
	c.logger.Infow("msg", "circuit breaker reset by operator")
}

// ClearCache drops every cached response. Operator-triggered.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

// newAttemptBackoff builds the deterministic inter-attempt delay sequence
// 1s, 2s, 4s, 5s, 5s, ... (no jitter, never stops on elapsed time).
func newAttemptBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = backoffInitialInterval
	bo.RandomizationFactor = 0
	bo.Multiplier = backoffMultiplier
	bo.MaxInterval = backoffMaxInterval
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// sleepContext waits for d or until ctx is cancelled, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
