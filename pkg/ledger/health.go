package ledger

import (
	"fmt"
	"time"
)

// HealthStatus is the aggregate health verdict of a client.
type HealthStatus string

const (
	// HealthHealthy means every check passed.
	HealthHealthy HealthStatus = "healthy"
	// HealthDegraded means most checks passed; the client is usable but impaired.
	HealthDegraded HealthStatus = "degraded"
	// HealthUnhealthy means too many checks failed to trust the client.
	HealthUnhealthy HealthStatus = "unhealthy"
)

// Health check thresholds.
const (
	healthMinSuccessRate = 95.0
	healthMaxAvgResponse = 5000 * time.Millisecond
	healthMaxBudgetRatio = 0.90
	healthDegradedQuorum = 0.7
)

// Check names as they appear in HealthReport.Checks.
const (
	checkCircuitBreaker = "circuit_breaker"
	checkSuccessRate    = "success_rate"
	checkResponseTime   = "response_time"
	checkSponsorBudget  = "sponsor_budget"
)

// HealthCheck is the outcome of a single named check.
type HealthCheck struct {
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// HealthReport is the aggregate verdict with its contributing checks.
type HealthReport struct {
	Status      HealthStatus           `json:"status"`
	Checks      map[string]HealthCheck `json:"checks"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// evaluateHealth derives the tri-level verdict from component snapshots:
// breaker closed, success rate at least 95%, average response under 5s and,
// when the sponsor budget is enabled, under 90% of the daily ceiling spent.
// All checks passing is healthy; at least 70% passing is degraded; anything
// less is unhealthy.
func evaluateHealth(breaker BreakerState, metrics MetricsSnapshot, budget BudgetSnapshot, now time.Time) HealthReport {
	checks := map[string]HealthCheck{
		checkCircuitBreaker: {
			Passed: breaker == StateClosed,
			Detail: fmt.Sprintf("state=%s", breaker),
		},
		checkSuccessRate: {
			Passed: metrics.SuccessRate >= healthMinSuccessRate,
			Detail: fmt.Sprintf("%.1f%% of %d requests", metrics.SuccessRate, metrics.TotalRequests),
		},
		checkResponseTime: {
			Passed: metrics.AverageResponseTime < healthMaxAvgResponse,
			Detail: fmt.Sprintf("avg %s", metrics.AverageResponseTime.Round(time.Millisecond)),
		},
	}

	// The budget check only participates while sponsorship is enabled; a
	// disabled budget neither passes nor fails.
	if budget.Enabled {
		ratio := 0.0
		if budget.DailyCeiling > 0 {
			ratio = float64(budget.SpentToday) / float64(budget.DailyCeiling)
		}
		checks[checkSponsorBudget] = HealthCheck{
			Passed: ratio < healthMaxBudgetRatio,
			Detail: fmt.Sprintf("%.1f%% of daily ceiling spent", ratio*100),
		}
	}

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	status := HealthUnhealthy
	switch {
	case passed == len(checks):
		status = HealthHealthy
	case float64(passed) >= healthDegradedQuorum*float64(len(checks)):
		status = HealthDegraded
	}

	return HealthReport{
		Status:      status,
		Checks:      checks,
		GeneratedAt: now,
	}
}

// FailedChecks lists the names of checks that did not pass, for log output.
func (r HealthReport) FailedChecks() []string {
	var failed []string
	for name, c := range r.Checks {
		if !c.Passed {
			failed = append(failed, name)
		}
	}
	return failed
}
