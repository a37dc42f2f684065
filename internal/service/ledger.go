package service

import (
	"context"

	"LedgerLane/internal/biz"
	"LedgerLane/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// Operation names identify each endpoint to middleware selectors and logs.
const (
	OperationLedgerServiceSubmitTransaction   = "/ledgerlane.v1.LedgerService/SubmitTransaction"
	OperationLedgerServiceQueryState          = "/ledgerlane.v1.LedgerService/QueryState"
	OperationLedgerServiceGetMetrics          = "/ledgerlane.v1.LedgerService/GetMetrics"
	OperationLedgerServiceGetHealth           = "/ledgerlane.v1.LedgerService/GetHealth"
	OperationLedgerServiceResetCircuitBreaker = "/ledgerlane.v1.LedgerService/ResetCircuitBreaker"
	OperationLedgerServiceClearCache          = "/ledgerlane.v1.LedgerService/ClearCache"
)

// OpsOperations lists the operator-only operations that require admin
// authentication.
var OpsOperations = []string{
	OperationLedgerServiceResetCircuitBreaker,
	OperationLedgerServiceClearCache,
}

// LedgerService implements the ledger HTTP API.
type LedgerService struct {
	uc     *biz.LedgerUseCase
	logger *log.Helper
}

// NewLedgerService creates a new LedgerService instance.
func NewLedgerService(uc *biz.LedgerUseCase, logger log.Logger) *LedgerService {
	return &LedgerService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// SubmitTransaction submits a signed transaction to the ledger network.
func (s *LedgerService) SubmitTransaction(ctx context.Context, req *model.SubmitTransactionRequest) (*model.SubmitTransactionResponse, error) {
	s.logger.Infow("msg", "SubmitTransaction called", "kind", req.Kind, "sponsored", req.Sponsored)

	resp, err := s.uc.SubmitTransaction(ctx, req)
	if err != nil {
		s.logger.Errorw("msg", "failed to submit transaction", "kind", req.Kind, "error", err.Error())
		return nil, err
	}

	return resp, nil
}

// QueryState performs an idempotent read against ledger state.
func (s *LedgerService) QueryState(ctx context.Context, req *model.QueryStateRequest) (*model.QueryStateResponse, error) {
	s.logger.Debugw("msg", "QueryState called", "method", req.Method)

	resp, err := s.uc.QueryState(ctx, req)
	if err != nil {
		s.logger.Errorw("msg", "failed to query state", "method", req.Method, "error", err.Error())
		return nil, err
	}

	return resp, nil
}

// GetMetrics returns the aggregate request counters, breaker state and
// sponsor budget.
func (s *LedgerService) GetMetrics(ctx context.Context) (*model.MetricsResponse, error) {
	s.logger.Debugw("msg", "GetMetrics called")
	return s.uc.GetMetrics(ctx)
}

// GetHealth returns the tri-level health verdict with per-check detail.
func (s *LedgerService) GetHealth(ctx context.Context) (*model.HealthResponse, error) {
	s.logger.Debugw("msg", "GetHealth called")
	return s.uc.GetHealth(ctx)
}

// ResetCircuitBreaker forces the circuit breaker closed. Operator-only.
func (s *LedgerService) ResetCircuitBreaker(ctx context.Context) (*model.OpsActionResponse, error) {
	s.logger.Infow("msg", "ResetCircuitBreaker called")
	return s.uc.ResetCircuitBreaker(ctx)
}

// ClearCache drops every cached query response. Operator-only.
func (s *LedgerService) ClearCache(ctx context.Context) (*model.OpsActionResponse, error) {
	s.logger.Infow("msg", "ClearCache called")
	return s.uc.ClearCache(ctx)
}
