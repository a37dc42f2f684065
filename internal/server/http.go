package server

import (
	nethttp "net/http"

	"LedgerLane/internal/conf"
	"LedgerLane/internal/server/middleware"
	"LedgerLane/internal/service"
	"LedgerLane/pkg/ledger"
	pkglog "LedgerLane/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, ledgerService *service.LedgerService, logger log.Logger) *http.Server {
	logHelper := pkglog.NewLogHelper(logger)

	var adminToken string
	if c.Ops != nil {
		adminToken = c.Ops.AdminToken
	}

	// Logging 在 AdminAuth 之前，被拒绝的运维请求也要留下访问日志
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			middleware.Logging(logHelper),
			middleware.AdminAuth(adminToken, service.OpsOperations, logHelper), // 保护熔断器复位、缓存清空等运维操作
		),
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}
	srv := http.NewServer(opts...)

	// Register HTTP services
	service.RegisterLedgerServiceHTTPRoutes(srv, ledgerService)

	// Prometheus 抓取端点，绕过 API 中间件链
	srv.Handle("/metrics", ledger.Handler())

	// 存活探针：进程在即返回 200，健康评估走 /v1/health
	srv.HandleFunc("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return srv
}
