package log

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
)

// slowRequestThresholdMs 超过该毫秒数的请求自动追加一条 slow_request 告警
const slowRequestThresholdMs = 1000

// LogHelper 在 Kratos log.Helper 之上追加账本域的类型化日志方法。
// 每条日志都带 "type" 字段：控制台模式下由 EmojiConsoleEncoder 映射成表情，
// JSON 模式下作为检索维度。
type LogHelper struct {
	*log.Helper
}

// NewLogHelper 包装一个 Kratos logger
func NewLogHelper(logger log.Logger) *LogHelper {
	return &LogHelper{Helper: log.NewHelper(logger)}
}

// emit 统一拼装 keyvals：msg 在前，调用方字段居中，type 收尾
func (h *LogHelper) emit(level log.Level, logType, msg string, kvs []interface{}) {
	all := make([]interface{}, 0, len(kvs)+4)
	all = append(all, "msg", msg)
	all = append(all, kvs...)
	all = append(all, "type", logType)
	h.Log(level, all...)
}

// Startup 服务启动阶段的里程碑日志（🚀）
func (h *LogHelper) Startup(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "startup", msg, kvs)
}

// RPC 节点 RPC 调用日志（🔗）
func (h *LogHelper) RPC(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "rpc", msg, kvs)
}

// Auth 认证相关日志（🔓）
func (h *LogHelper) Auth(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "auth", msg, kvs)
}

// Success 操作成功日志（✅）
func (h *LogHelper) Success(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "success", msg, kvs)
}

// CacheEvent 响应缓存的命中、落盘与淘汰（📦）
func (h *LogHelper) CacheEvent(msg string, kvs ...interface{}) {
	h.emit(log.LevelDebug, "cache", msg, kvs)
}

// Quota 赞助预算的拒绝与水位告警（💰）
// 统一 Warn 级别，方便告警规则抓取
func (h *LogHelper) Quota(msg string, kvs ...interface{}) {
	h.emit(log.LevelWarn, "quota", msg, kvs)
}

// Breaker 熔断器状态迁移（🔌）
func (h *LogHelper) Breaker(msg string, kvs ...interface{}) {
	h.emit(log.LevelWarn, "breaker", msg, kvs)
}

// Retry 重试与退避（🔁）
func (h *LogHelper) Retry(msg string, kvs ...interface{}) {
	h.emit(log.LevelWarn, "retry", msg, kvs)
}

// HealthCheck 健康心跳的常规结果（🩺）。
// Debug 级别：30 秒一次的正常心跳不进生产日志，异常由调用方走 Warn
func (h *LogHelper) HealthCheck(msg string, kvs ...interface{}) {
	h.emit(log.LevelDebug, "health", msg, kvs)
}

// Scheduler 定时任务日志（🎯）
func (h *LogHelper) Scheduler(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "scheduler", msg, kvs)
}

// Performance 性能观测日志（⏱️）
func (h *LogHelper) Performance(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "performance", msg, kvs)
}

// Audit 审计日志（📋），运维操作（熔断器复位、缓存清空）必须留痕
func (h *LogHelper) Audit(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "audit", msg, kvs)
}

// Security 安全相关日志（🔒）
func (h *LogHelper) Security(msg string, kvs ...interface{}) {
	h.emit(log.LevelWarn, "security", msg, kvs)
}

// Request 入站 HTTP 请求的结果行（🌐，状态码另行着色）
func (h *LogHelper) Request(method, url string, status int, durationMs int64, kvs ...interface{}) {
	msg := fmt.Sprintf("%s %s - %d (%s)", method, url, status, formatDuration(durationMs))
	fields := append(kvs,
		"method", method,
		"url", url,
		"status", status,
		"duration_ms", durationMs,
	)
	h.emit(log.LevelInfo, "request", msg, fields)
}

// TxCompleted 交易提交成功后的汇总行，带哈希、gas 与赞助标记
func (h *LogHelper) TxCompleted(txHash, endpoint string, gasUsed uint64, sponsored bool, durationMs int64, kvs ...interface{}) {
	msg := fmt.Sprintf("Transaction confirmed - Hash: %s | Gas: %d, Sponsored: %t, Endpoint: %s (%s)",
		txHash, gasUsed, sponsored, endpoint, formatDuration(durationMs))
	fields := append(kvs,
		"tx_hash", txHash,
		"endpoint", endpoint,
		"gas_used", gasUsed,
		"sponsored", sponsored,
		"duration_ms", durationMs,
	)
	h.emit(log.LevelInfo, "success", msg, fields)
}

// ========== Context-Aware 方法：自动携带 Request ID 与操作名 ==========

// SlowRequest 慢请求告警（🐌），threshold 为毫秒阈值
func (h *LogHelper) SlowRequest(ctx context.Context, method, url string, duration, threshold int64, kvs ...interface{}) {
	rc := GetRequestContext(ctx)
	msg := fmt.Sprintf("[%s] Slow request detected | %s %s | %s (threshold: %s)",
		rc.RequestID, method, url, formatDuration(duration), formatDuration(threshold))
	fields := append(kvs,
		"request_id", rc.RequestID,
		"operation", rc.Operation,
		"method", method,
		"url", url,
		"duration_ms", duration,
		"threshold_ms", threshold,
	)
	h.emit(log.LevelWarn, "slow_request", msg, fields)
}

// RequestWithContext 带追踪信息的请求结果行，超过阈值时自动追加慢请求告警
func (h *LogHelper) RequestWithContext(ctx context.Context, method, url string, status int, durationMs int64, kvs ...interface{}) {
	rc := GetRequestContext(ctx)
	msg := fmt.Sprintf("%s %s - %d (%s) | RequestID: %s",
		method, url, status, formatDuration(durationMs), rc.RequestID)
	fields := append(kvs,
		"request_id", rc.RequestID,
		"operation", rc.Operation,
		"method", method,
		"url", url,
		"status", status,
		"duration_ms", durationMs,
	)
	h.emit(log.LevelInfo, "request", msg, fields)

	if durationMs > slowRequestThresholdMs {
		h.SlowRequest(ctx, method, url, durationMs, slowRequestThresholdMs)
	}
}

// RPCWithContext 带追踪信息的节点 RPC 日志
func (h *LogHelper) RPCWithContext(ctx context.Context, msg string, kvs ...interface{}) {
	rc := GetRequestContext(ctx)
	fields := append(kvs,
		"request_id", rc.RequestID,
		"operation", rc.Operation,
	)
	h.emit(log.LevelInfo, "rpc", fmt.Sprintf("[%s] %s", rc.RequestID, msg), fields)
}

// CacheStats 缓存水位与命中率汇总（🧹）
func (h *LogHelper) CacheStats(ctx context.Context, cacheName string, size, maxSize, hits, misses int64, kvs ...interface{}) {
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	msg := fmt.Sprintf("Cache stats - %s | Size: %d/%d, Hit Rate: %.2f%%",
		cacheName, size, maxSize, hitRate)
	fields := kvs
	// 后台任务没有请求上下文，不强塞 unknown
	if rid := GetRequestID(ctx); rid != unknownRequestID {
		fields = append(fields, "request_id", rid)
	}
	fields = append(fields,
		"cache_name", cacheName,
		"size", size,
		"max_size", maxSize,
		"hits", hits,
		"misses", misses,
		"hit_rate", fmt.Sprintf("%.2f%%", hitRate),
		"total_requests", total,
	)
	h.emit(log.LevelInfo, "cache_stats", msg, fields)
}
