package ledger

import (
	"sync"
	"time"
)

// MetricsSnapshot is a read-only copy of the client's request counters.
type MetricsSnapshot struct {
	TotalRequests       uint64
	FailedRequests      uint64
	SuccessRate         float64
	AverageResponseTime time.Duration
	LastSuccessAt       time.Time
	LastError           string
}

// metricsCollector keeps running counters for completed request sequences.
// Cache hits and breaker rejections never touch it; per-attempt errors update
// only lastError, while the counters move once per finished sequence.
type metricsCollector struct {
	mu              sync.Mutex
	totalRequests   uint64
	failedRequests  uint64
	avgResponseTime time.Duration
	lastSuccessAt   time.Time
	lastError       string

	now func() time.Time
}

func newMetricsCollector() *metricsCollector {
	return &metricsCollector{now: time.Now}
}

// recordSuccess counts one successful sequence and folds its duration into
// the running mean. The mean is over successes only; failed sequences
// contribute no duration.
func (m *metricsCollector) recordSuccess(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	succ := time.Duration(m.totalRequests - m.failedRequests)
	m.avgResponseTime = (m.avgResponseTime*(succ-1) + elapsed) / succ
	m.lastSuccessAt = m.now()
}

// recordFailure counts one exhausted sequence.
func (m *metricsCollector) recordFailure(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	m.failedRequests++
	m.lastError = msg
}

// noteError records a per-attempt error without moving the counters.
func (m *metricsCollector) noteError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = msg
}

func (m *metricsCollector) snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	rate := 100.0
	if m.totalRequests > 0 {
		rate = float64(m.totalRequests-m.failedRequests) / float64(m.totalRequests) * 100
	}

	return MetricsSnapshot{
		TotalRequests:       m.totalRequests,
		FailedRequests:      m.failedRequests,
		SuccessRate:         rate,
		AverageResponseTime: m.avgResponseTime,
		LastSuccessAt:       m.lastSuccessAt,
		LastError:           m.lastError,
	}
}
