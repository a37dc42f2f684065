package log

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// ctxKey 私有类型，避免与其他包的 context key 冲突
type ctxKey struct{}

var requestContextKey ctxKey

// unknownRequestID 是缺少追踪信息时的占位 ID
const unknownRequestID = "unknown"

// RequestContext 随请求流动的追踪信息，由日志中间件注入
type RequestContext struct {
	RequestID string    // 10 位 base36 短 ID，如 mgrn0zfqda
	Operation string    // Kratos 操作名，如 /ledgerlane.v1.LedgerService/SubmitTransaction
	StartTime time.Time // 进入中间件的时间
}

const (
	requestIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	requestIDLength   = 10
)

var (
	ridMu  sync.Mutex
	ridRnd = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// GenerateRequestID 生成 10 位 base36 请求 ID
func GenerateRequestID() string {
	b := make([]byte, requestIDLength)
	ridMu.Lock()
	for i := range b {
		b[i] = requestIDAlphabet[ridRnd.Intn(len(requestIDAlphabet))]
	}
	ridMu.Unlock()
	return string(b)
}

// WithRequestContext 注入请求追踪信息，在中间件入口调用一次
func WithRequestContext(ctx context.Context, requestID, operation string) context.Context {
	return context.WithValue(ctx, requestContextKey, &RequestContext{
		RequestID: requestID,
		Operation: operation,
		StartTime: time.Now(),
	})
}

// GetRequestContext 取出追踪信息；缺失时返回 RequestID 为 "unknown" 的占位值，
// 调用方无需判空
func GetRequestContext(ctx context.Context) *RequestContext {
	if ctx != nil {
		if rc, ok := ctx.Value(requestContextKey).(*RequestContext); ok {
			return rc
		}
	}
	return &RequestContext{RequestID: unknownRequestID}
}

// GetRequestID 提取 Request ID
func GetRequestID(ctx context.Context) string {
	return GetRequestContext(ctx).RequestID
}

// GetOperation 提取操作名
func GetOperation(ctx context.Context) string {
	return GetRequestContext(ctx).Operation
}

// GetElapsedTime 返回自请求进入以来的毫秒数；无追踪信息时为 0
func GetElapsedTime(ctx context.Context) int64 {
	rc := GetRequestContext(ctx)
	if rc.StartTime.IsZero() {
		return 0
	}
	return time.Since(rc.StartTime).Milliseconds()
}
