// Package middleware provides HTTP middleware for authentication, logging, and request processing.
package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	pkglog "LedgerLane/pkg/log"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// AdminAuth 返回一个保护运维操作的认证中间件
// guarded 列出需要管理员令牌的操作名，其余请求直接放行
//
// 日志输出示例:
//
//	🔓 Authorized ops request (ledgerop***) in 0ms | {"type":"auth","token_masked":"ledgerop***"}
//	🔒 Rejected ops request: invalid admin token | {"type":"security","token_masked":"deadbeef***"}
//
// 注意: 未配置令牌时运维操作不设防，仅在启动时告警一次
func AdminAuth(token string, guarded []string, logger *pkglog.LogHelper) middleware.Middleware {
	guardedOps := make(map[string]struct{}, len(guarded))
	for _, op := range guarded {
		guardedOps[op] = struct{}{}
	}

	if token == "" {
		logger.Security(
			"Admin token not configured, ops operations are unprotected",
			"guarded_operations", len(guarded),
		)
		return func(handler middleware.Handler) middleware.Handler {
			return handler
		}
	}

	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}
			if _, needsAuth := guardedOps[tr.Operation()]; !needsAuth {
				return handler(ctx, req)
			}

			startTime := time.Now()
			presented := extractAdminToken(tr)
			masked := maskToken(presented)

			// 常数时间比较，避免令牌长度和内容泄露
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger.Security(
					"Rejected ops request: invalid admin token",
					"operation", tr.Operation(),
					"token_masked", masked,
				)
				return nil, kerrors.Unauthorized("UNAUTHORIZED", "invalid admin token")
			}

			authDuration := time.Since(startTime).Milliseconds()
			logger.Auth(
				"Authorized ops request ("+masked+") in "+formatDuration(authDuration),
				"operation", tr.Operation(),
				"token_masked", masked,
				"duration_ms", authDuration,
			)

			return handler(ctx, req)
		}
	}
}

// extractAdminToken 提取管理员令牌
// 支持 "Bearer {token}" 格式，其次读取 X-Admin-Token header
func extractAdminToken(tr transport.Transporter) string {
	ht, ok := tr.(http.Transporter)
	if !ok {
		return ""
	}
	req := ht.Request()

	authHeader := req.Header.Get("Authorization")
	if authHeader != "" {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		return strings.TrimSpace(token)
	}

	return req.Header.Get("X-Admin-Token")
}

// maskToken 脱敏令牌，仅显示前 8 位
// 示例: "ledgerops-1234567890" -> "ledgerop***"
func maskToken(token string) string {
	if len(token) <= 8 {
		// 如果令牌太短，全部脱敏
		return strings.Repeat("*", len(token))
	}

	// 显示前 8 位，其余用 *** 代替
	return token[:8] + "***"
}

// formatDuration 格式化持续时间为易读格式
// 示例: 5ms, 150ms, 2.5s
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	seconds := float64(ms) / 1000.0
	return fmt.Sprintf("%.1fs", seconds)
}
