package middleware

import (
	"context"
	"strings"

	pkglog "LedgerLane/pkg/log"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// requestInfo 从传输层提取的请求描述
type requestInfo struct {
	method    string
	path      string
	ip        string
	userAgent string
	requestID string
	operation string
}

// Logging 返回记录每个 HTTP 请求的中间件。
// 进入时生成请求 ID（优先复用 X-Request-ID）并注入请求上下文，
// 返回时输出访问日志，超过慢请求阈值的会自动补一条 slow_request。
//
// 日志输出示例:
//
//	🟢 POST /v1/transactions - 200 (542ms)
//	🐌 [mgrn0zfqda] Slow request detected | POST /v1/transactions | 13438ms
func Logging(logger *pkglog.LogHelper) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			info := extractRequestInfo(ctx)

			// 注入请求上下文，后续所有日志自动携带 request_id 和 operation
			ctx = pkglog.WithRequestContext(ctx, info.requestID, info.operation)

			reply, err := handler(ctx, req)

			status := 200
			if err != nil {
				status = extractHTTPStatus(err)
			}

			logger.RequestWithContext(ctx, info.method, info.path, status,
				pkglog.GetElapsedTime(ctx),
				"ip", info.ip,
				"user_agent", info.userAgent,
			)

			return reply, err
		}
	}
}

func extractRequestInfo(ctx context.Context) requestInfo {
	var info requestInfo

	tr, ok := transport.FromServerContext(ctx)
	if !ok {
		info.requestID = pkglog.GenerateRequestID()
		return info
	}

	// 非 HTTP 传输时以 operation 兜底
	info.operation = tr.Operation()
	info.method = tr.Operation()
	info.path = tr.Operation()

	if ht, ok := tr.(http.Transporter); ok {
		httpReq := ht.Request()
		info.method = httpReq.Method
		info.path = httpReq.URL.Path
		if httpReq.URL.RawQuery != "" {
			info.path += "?" + httpReq.URL.RawQuery
		}
		info.ip = extractClientIP(httpReq)
		info.userAgent = httpReq.Header.Get("User-Agent")
		info.requestID = httpReq.Header.Get("X-Request-ID")
	}
	if info.requestID == "" {
		info.requestID = pkglog.GenerateRequestID()
	}
	return info
}

// extractClientIP 提取客户端真实 IP
// 优先级: X-Real-IP > X-Forwarded-For 首个地址 > RemoteAddr
func extractClientIP(req *http.Request) string {
	if ip := req.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ips := strings.Split(forwarded, ","); len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	return req.RemoteAddr
}

// extractHTTPStatus 从 Kratos 错误中提取状态码，未知错误统一映射为 500
func extractHTTPStatus(err error) int {
	if err == nil {
		return 200
	}
	return int(kerrors.FromError(err).Code)
}
