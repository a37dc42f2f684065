//go:build ignore
// +build ignore

// 控制台编码器的人工检查脚本：go run test_logging.go
// 按一次完整的交易提交流程输出各类日志，肉眼核对表情前缀和脱敏效果
package main

import (
	"context"

	"LedgerLane/internal/conf"
	pkglog "LedgerLane/pkg/log"
)

func main() {
	zapLogger, err := pkglog.NewZapLogger(&conf.Log{
		Level:  "debug",
		Format: "console",
		Env:    "development",
	})
	if err != nil {
		panic(err)
	}
	helper := pkglog.NewLogHelper(pkglog.NewKratosAdapter(zapLogger))

	// 启动阶段
	helper.Startup("LedgerLane service starting", "version", "1.0.0", "port", 8080)
	helper.HealthCheck("Ledger access healthy", "status", "healthy", "healthy_endpoints", 3)

	// 一次带上下文的提交流程
	ctx := pkglog.WithRequestContext(context.Background(), pkglog.GenerateRequestID(), "submit_transaction")
	helper.Auth("Ops request authorized", "token_masked", "ledgerop***")
	helper.RPCWithContext(ctx, "Submitting transaction to node",
		"endpoint", "https://rpc-a.ledger.example.com", "method", "ledger_submitTransaction")
	helper.Retry("Retrying on fallback endpoint", "attempt", 2, "endpoint", "https://rpc-b.ledger.example.com")
	helper.TxCompleted("0x3f9a1be2c41d", "https://rpc-b.ledger.example.com", 21000, true, 542)
	helper.RequestWithContext(ctx, "POST", "/v1/transactions", 200, 542, "ip", "192.168.1.100")

	// 查询与缓存
	helper.CacheEvent("Query served from cache", "method", "ledger_getBalance", "age_ms", 1200)
	helper.CacheStats(ctx, "query_cache", 412, 1000, 900, 100)

	// 保护机制
	helper.Quota("Sponsor reservation denied", "requested", 250000, "per_tx_ceiling", 100000)
	helper.Breaker("Circuit breaker opened", "consecutive_failures", 5, "cooldown", "30s")
	helper.Security("Rejected ops request: invalid admin token", "ip", "10.0.0.1", "token_masked", "deadbeef***")

	// 运维与调度
	helper.Scheduler("Budget summary job fired", "spent_today", 48500, "daily_ceiling", 10000000)
	helper.Performance("Attempt sequence completed", "operation", "submit_transaction", "duration_ms", 250)
	helper.Audit("Circuit breaker reset by operator", "previous_state", "open")
	helper.Success("Transaction confirmed", "tx_hash", "0x3f9a...c41d")

	// 慢请求：RequestWithContext 超阈值时自动补一条，这里直接验证独立入口
	helper.SlowRequest(ctx, "POST", "/v1/query", 13438, 1000)
	helper.Request("GET", "/v1/metrics", 200, 3)
}
