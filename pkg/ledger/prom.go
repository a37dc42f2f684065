package ledger

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus collectors run alongside the MetricsSnapshot counters: they feed
// scrapes, never the snapshot, so cache hits and breaker rejections stay out
// of the snapshot while still being observable.
var (
	// RequestsTotal counts completed request sequences by operation and outcome.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerlane_requests_total",
			Help: "Completed request sequences by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// RequestDuration observes whole-sequence latency in seconds by operation.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledgerlane_request_duration_seconds",
			Help:    "Request sequence latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// AttemptErrors counts per-attempt failures by operation and cause.
	AttemptErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerlane_attempt_errors_total",
			Help: "Per-attempt failures by cause, before retry or failover",
		},
		[]string{"operation", "cause"},
	)

	// BreakerStateGauge tracks the circuit breaker state (0 closed, 1 open, 2 half-open).
	BreakerStateGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledgerlane_circuit_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open",
		},
	)

	// BreakerTransitions counts breaker state changes by target state.
	BreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerlane_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions by target state",
		},
		[]string{"to"},
	)

	// CacheEvents counts response cache activity.
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerlane_cache_events_total",
			Help: "Response cache events: hit, miss, expired, evicted",
		},
		[]string{"event"},
	)

	// SponsorSpent tracks today's sponsor budget spend.
	SponsorSpent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledgerlane_sponsor_spent",
			Help: "Sponsor budget spent today",
		},
	)

	// SponsorDenials counts sponsor reservation denials by reason.
	SponsorDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerlane_sponsor_denials_total",
			Help: "Sponsor budget reservation denials by reason",
		},
		[]string{"reason"},
	)
)

const (
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeRejected = "rejected"

	causeTimeout  = "timeout"
	causeEndpoint = "endpoint"

	cacheEventHit     = "hit"
	cacheEventMiss    = "miss"
	cacheEventExpired = "expired"
	cacheEventEvicted = "evicted"

	sponsorDenialPerTx = "per_tx_ceiling"
	sponsorDenialDaily = "daily_ceiling"
)

// Init registers all collectors with the default Prometheus registry.
// Must be called once at startup before handling requests.
func Init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AttemptErrors,
		BreakerStateGauge,
		BreakerTransitions,
		CacheEvents,
		SponsorSpent,
		SponsorDenials,
	)
}

// Handler returns an http.Handler that serves the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func observeRequest(operation, outcome string, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(operation, outcome).Inc()
	RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func observeRejection(operation string) {
	RequestsTotal.WithLabelValues(operation, outcomeRejected).Inc()
}

func observeAttemptError(operation string, err error) {
	cause := causeEndpoint
	if IsTimeout(err) {
		cause = causeTimeout
	}
	AttemptErrors.WithLabelValues(operation, cause).Inc()
}

func observeBreakerTransition(next BreakerState) {
	BreakerStateGauge.Set(float64(next))
	BreakerTransitions.WithLabelValues(next.String()).Inc()
}

func observeCacheEvent(event string) {
	CacheEvents.WithLabelValues(event).Inc()
}

func observeSponsorSpend(spent uint64) {
	SponsorSpent.Set(float64(spent))
}

func observeSponsorDenial(reason string) {
	SponsorDenials.WithLabelValues(reason).Inc()
}
