package biz

import (
	"context"
	stderrors "errors"
	"fmt"

	"LedgerLane/internal/model"
	"LedgerLane/pkg/ledger"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// Error reasons surfaced to HTTP clients.
const (
	reasonInvalidRequest       = "INVALID_REQUEST"
	reasonCircuitOpen          = "CIRCUIT_OPEN"
	reasonAllAttemptsFailed    = "ALL_ATTEMPTS_FAILED"
	reasonSponsorQuotaExceeded = "SPONSOR_QUOTA_EXCEEDED"
	reasonDeadlineExceeded     = "DEADLINE_EXCEEDED"
	reasonClientClosedRequest  = "CLIENT_CLOSED_REQUEST"
	reasonInternal             = "INTERNAL"
)

// LedgerUseCase implements the transaction submission and state query
// business logic on top of the resilient ledger client.
type LedgerUseCase struct {
	client  *ledger.Client
	invoker RPCInvoker
	logger  *log.Helper
}

// NewLedgerUseCase creates a new ledger use case.
func NewLedgerUseCase(client *ledger.Client, invoker RPCInvoker, logger log.Logger) *LedgerUseCase {
	return &LedgerUseCase{
		client:  client,
		invoker: invoker,
		logger:  log.NewHelper(logger),
	}
}

// SubmitTransaction validates and submits a signed transaction.
//
// A sponsored submission reserves the estimated fee against the shared budget
// first. When the reservation is denied and the request names a fallback fee
// payer, the transaction is re-submitted once, unsponsored, with that payer;
// without a fallback payer the denial surfaces as HTTP 402.
func (uc *LedgerUseCase) SubmitTransaction(ctx context.Context, req *model.SubmitTransactionRequest) (*model.SubmitTransactionResponse, error) {
	if req == nil || req.SignedTx == "" {
		return nil, errors.New(400, reasonInvalidRequest, "signed_tx is required")
	}
	if req.Sponsored && req.EstimatedFee == 0 {
		return nil, errors.New(400, reasonInvalidRequest, "estimated_fee must be positive for sponsored transactions")
	}

	tx := ledger.TransactionRequest{
		SignedTx:     req.SignedTx,
		Kind:         req.Kind,
		Sponsored:    req.Sponsored,
		EstimatedFee: req.EstimatedFee,
		FeePayer:     req.FeePayer,
	}

	// Sponsored submissions carry no explicit payer; the sponsor account
	// attached to the shared budget covers the fee node-side.
	result, err := uc.client.SubmitTransaction(ctx, tx, uc.submitFn(req.SignedTx, ""))
	if err == nil {
		return submitResponse(result, req.Sponsored), nil
	}

	if ledger.IsQuotaExceeded(err) {
		if req.FeePayer == "" {
			uc.logger.Warnw(
				"msg", "sponsorship denied, no fallback fee payer",
				"kind", req.Kind,
				"estimated_fee", req.EstimatedFee,
				"type", "quota",
			)
			return nil, errors.New(402, reasonSponsorQuotaExceeded, err.Error())
		}

		uc.logger.Warnw(
			"msg", "sponsorship denied, falling back to explicit fee payer",
			"kind", req.Kind,
			"estimated_fee", req.EstimatedFee,
			"type", "quota",
		)

		fallback := tx
		fallback.Sponsored = false
		result, err = uc.client.SubmitTransaction(ctx, fallback, uc.submitFn(req.SignedTx, req.FeePayer))
		if err != nil {
			return nil, uc.mapLedgerError(err)
		}
		return submitResponse(result, false), nil
	}

	return nil, uc.mapLedgerError(err)
}

// submitFn builds the per-endpoint request function handed to the client.
func (uc *LedgerUseCase) submitFn(signedTx, feePayer string) ledger.RequestFunc {
	return func(ctx context.Context, endpoint string) (any, error) {
		result, err := uc.invoker.SubmitTransaction(ctx, endpoint, signedTx, feePayer)
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

// QueryState performs an idempotent read against ledger state. Responses are
// served from the client's TTL cache when possible.
func (uc *LedgerUseCase) QueryState(ctx context.Context, req *model.QueryStateRequest) (*model.QueryStateResponse, error) {
	if req == nil || req.Method == "" {
		return nil, errors.New(400, reasonInvalidRequest, "method is required")
	}

	query := ledger.StateQuery{Method: req.Method, Params: req.Params}
	fn := func(ctx context.Context, endpoint string) (any, error) {
		result, err := uc.invoker.Query(ctx, endpoint, req.Method, req.Params)
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	result, err := uc.client.QueryState(ctx, query, fn)
	if err != nil {
		return nil, uc.mapLedgerError(err)
	}

	return &model.QueryStateResponse{
		Success: result.Success,
		Data:    result.Data,
		Error:   result.Error,
	}, nil
}

// GetMetrics assembles the observability snapshot: request counters, breaker
// state and the sponsor budget.
func (uc *LedgerUseCase) GetMetrics(ctx context.Context) (*model.MetricsResponse, error) {
	snap := uc.client.GetMetricsSnapshot()
	budget := uc.client.GetBudgetSnapshot()

	resp := &model.MetricsResponse{
		TotalRequests:       snap.TotalRequests,
		FailedRequests:      snap.FailedRequests,
		SuccessRate:         snap.SuccessRate,
		AverageResponseTime: snap.AverageResponseTime.String(),
		LastError:           snap.LastError,
		CircuitState:        uc.client.GetBreakerState().String(),
		SponsorBudget: model.SponsorBudgetStatus{
			Enabled:       budget.Enabled,
			PerTxCeiling:  budget.PerTxCeiling,
			DailyCeiling:  budget.DailyCeiling,
			SpentToday:    budget.SpentToday,
			Remaining:     budget.Remaining(),
			LastResetDate: budget.LastResetDate,
		},
	}
	if !snap.LastSuccessAt.IsZero() {
		t := snap.LastSuccessAt
		resp.LastSuccessAt = &t
	}

	return resp, nil
}

// GetHealth derives the tri-level health verdict.
func (uc *LedgerUseCase) GetHealth(ctx context.Context) (*model.HealthResponse, error) {
	report := uc.client.GetHealthReport()

	checks := make(map[string]model.HealthCheckStatus, len(report.Checks))
	for name, check := range report.Checks {
		checks[name] = model.HealthCheckStatus{
			Passed: check.Passed,
			Detail: check.Detail,
		}
	}

	return &model.HealthResponse{
		Status:      string(report.Status),
		Checks:      checks,
		GeneratedAt: report.GeneratedAt,
	}, nil
}

// ResetCircuitBreaker forces the breaker closed. Operator action, audited.
func (uc *LedgerUseCase) ResetCircuitBreaker(ctx context.Context) (*model.OpsActionResponse, error) {
	before := uc.client.GetBreakerState()
	uc.client.ResetCircuitBreaker()

	uc.logger.Infow(
		"msg", "circuit breaker reset",
		"previous_state", before.String(),
		"type", "audit",
	)

	return &model.OpsActionResponse{
		Success: true,
		Message: fmt.Sprintf("circuit breaker reset (was %s)", before),
	}, nil
}

// ClearCache drops every cached response. Operator action, audited.
func (uc *LedgerUseCase) ClearCache(ctx context.Context) (*model.OpsActionResponse, error) {
	uc.client.ClearCache()

	uc.logger.Infow(
		"msg", "response cache cleared",
		"type", "audit",
	)

	return &model.OpsActionResponse{
		Success: true,
		Message: "response cache cleared",
	}, nil
}

// HealthReport exposes the raw report for the cron heartbeat.
func (uc *LedgerUseCase) HealthReport() ledger.HealthReport {
	return uc.client.GetHealthReport()
}

// BudgetSnapshot exposes the raw budget state for the cron summary.
func (uc *LedgerUseCase) BudgetSnapshot() ledger.BudgetSnapshot {
	return uc.client.GetBudgetSnapshot()
}

// mapLedgerError translates client failures into transport errors. The
// breaker's retry hint rides along as metadata when present.
func (uc *LedgerUseCase) mapLedgerError(err error) error {
	switch {
	case ledger.IsQuotaExceeded(err):
		return errors.New(402, reasonSponsorQuotaExceeded, err.Error())
	case ledger.IsCircuitOpen(err):
		kerr := errors.New(503, reasonCircuitOpen, err.Error())
		var open *ledger.CircuitOpenError
		if stderrors.As(err, &open) {
			kerr = kerr.WithMetadata(map[string]string{
				"retry_after": open.RetryAfter.String(),
			})
		}
		return kerr
	case ledger.IsAllAttemptsFailed(err):
		return errors.New(502, reasonAllAttemptsFailed, err.Error())
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.New(504, reasonDeadlineExceeded, err.Error())
	case stderrors.Is(err, context.Canceled):
		return errors.New(499, reasonClientClosedRequest, err.Error())
	default:
		uc.logger.Errorw("msg", "unclassified ledger failure", "error", err.Error())
		return errors.New(500, reasonInternal, err.Error())
	}
}

// submitResponse converts a client result into the transport DTO. sponsored
// reports who actually paid, which differs from the request after a fallback.
func submitResponse(result *ledger.TransactionResult, sponsored bool) *model.SubmitTransactionResponse {
	return &model.SubmitTransactionResponse{
		Success:   result.Success,
		TxHash:    result.TxHash,
		GasUsed:   result.GasUsed,
		Sponsored: sponsored,
		Error:     result.Error,
	}
}
