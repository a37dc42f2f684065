package service

import (
	"context"
	"net/http"

	"LedgerLane/internal/model"
	"LedgerLane/pkg/ledger"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// RegisterLedgerServiceHTTPRoutes mounts the ledger API on srv. Routes are
// registered by hand; each handler follows the same shape: bind the request,
// set the operation for middleware matching, run the middleware chain, then
// encode the reply.
func RegisterLedgerServiceHTTPRoutes(srv *khttp.Server, svc *LedgerService) {
	r := srv.Route("/")
	r.POST("/v1/transactions", submitTransactionHandler(svc))
	r.POST("/v1/query", queryStateHandler(svc))
	r.GET("/v1/metrics", getMetricsHandler(svc))
	r.GET("/v1/health", getHealthHandler(svc))
	r.POST("/v1/ops/breaker/reset", resetCircuitBreakerHandler(svc))
	r.POST("/v1/ops/cache/clear", clearCacheHandler(svc))
}

func submitTransactionHandler(svc *LedgerService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		var in model.SubmitTransactionRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		khttp.SetOperation(ctx, OperationLedgerServiceSubmitTransaction)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return svc.SubmitTransaction(ctx, req.(*model.SubmitTransactionRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out.(*model.SubmitTransactionResponse))
	}
}

func queryStateHandler(svc *LedgerService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		var in model.QueryStateRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		khttp.SetOperation(ctx, OperationLedgerServiceQueryState)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return svc.QueryState(ctx, req.(*model.QueryStateRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out.(*model.QueryStateResponse))
	}
}

func getMetricsHandler(svc *LedgerService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		khttp.SetOperation(ctx, OperationLedgerServiceGetMetrics)
		h := ctx.Middleware(func(ctx context.Context, _ any) (any, error) {
			return svc.GetMetrics(ctx)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out.(*model.MetricsResponse))
	}
}

func getHealthHandler(svc *LedgerService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		khttp.SetOperation(ctx, OperationLedgerServiceGetHealth)
		h := ctx.Middleware(func(ctx context.Context, _ any) (any, error) {
			return svc.GetHealth(ctx)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		reply := out.(*model.HealthResponse)
		// Load balancers key on the status code: only unhealthy drops the
		// instance, degraded still serves.
		code := http.StatusOK
		if reply.Status == string(ledger.HealthUnhealthy) {
			code = http.StatusServiceUnavailable
		}
		return ctx.Result(code, reply)
	}
}

func resetCircuitBreakerHandler(svc *LedgerService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		khttp.SetOperation(ctx, OperationLedgerServiceResetCircuitBreaker)
		h := ctx.Middleware(func(ctx context.Context, _ any) (any, error) {
			return svc.ResetCircuitBreaker(ctx)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out.(*model.OpsActionResponse))
	}
}

func clearCacheHandler(svc *LedgerService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		khttp.SetOperation(ctx, OperationLedgerServiceClearCache)
		h := ctx.Middleware(func(ctx context.Context, _ any) (any, error) {
			return svc.ClearCache(ctx)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out.(*model.OpsActionResponse))
	}
}
