// Package model defines the HTTP transport DTOs exchanged with clients.
package model

import (
	"encoding/json"
	"time"
)

// SubmitTransactionRequest is the body of POST /v1/transactions.
type SubmitTransactionRequest struct {
	// SignedTx carries the serialized, already-signed transaction.
	SignedTx string `json:"signed_tx"`
	// Kind labels the transaction for logs and metrics.
	Kind string `json:"kind,omitempty"`
	// Sponsored asks the shared fee budget to cover the fee.
	Sponsored bool `json:"sponsored,omitempty"`
	// EstimatedFee is reserved against the sponsor budget before submission.
	EstimatedFee uint64 `json:"estimated_fee,omitempty"`
	// FeePayer is the fallback fee-payer address used when sponsorship
	// is denied.
	FeePayer string `json:"fee_payer,omitempty"`
}

// SubmitTransactionResponse is the body returned for a submitted transaction.
type SubmitTransactionResponse struct {
	Success   bool   `json:"success"`
	TxHash    string `json:"tx_hash,omitempty"`
	GasUsed   uint64 `json:"gas_used,omitempty"`
	Sponsored bool   `json:"sponsored"`
	Error     string `json:"error,omitempty"`
}

// QueryStateRequest is the body of POST /v1/query.
type QueryStateRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params,omitempty"`
}

// QueryStateResponse is the body returned for a state query.
type QueryStateResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SponsorBudgetStatus reports the fee-sponsorship budget inside a metrics
// response.
type SponsorBudgetStatus struct {
	Enabled       bool   `json:"enabled"`
	PerTxCeiling  uint64 `json:"per_tx_ceiling"`
	DailyCeiling  uint64 `json:"daily_ceiling"`
	SpentToday    uint64 `json:"spent_today"`
	Remaining     uint64 `json:"remaining"`
	LastResetDate string `json:"last_reset_date"`
}

// MetricsResponse is the body of GET /v1/metrics.
type MetricsResponse struct {
	TotalRequests       uint64              `json:"total_requests"`
	FailedRequests      uint64              `json:"failed_requests"`
	SuccessRate         float64             `json:"success_rate"`
	AverageResponseTime string              `json:"average_response_time"`
	LastSuccessAt       *time.Time          `json:"last_success_at,omitempty"`
	LastError           string              `json:"last_error,omitempty"`
	CircuitState        string              `json:"circuit_state"`
	SponsorBudget       SponsorBudgetStatus `json:"sponsor_budget"`
}

// HealthCheckStatus is one named check inside a health response.
type HealthCheckStatus struct {
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// HealthResponse is the body of GET /v1/health.
type HealthResponse struct {
	Status      string                       `json:"status"`
	Checks      map[string]HealthCheckStatus `json:"checks"`
	GeneratedAt time.Time                    `json:"generated_at"`
}

// OpsActionResponse is the body returned by mutating ops routes
// (breaker reset, cache clear).
type OpsActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
