package log

import (
	"fmt"
	"maps"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// typeEmojis 把日志的 "type" 字段映射为行首表情，仅控制台模式使用
var typeEmojis = map[string]string{
	"rpc":          "🔗",
	"auth":         "🔓",
	"request":      "🌐",
	"success":      "✅",
	"error":        "❌",
	"warning":      "⚠️",
	"cache":        "📦",
	"quota":        "💰",
	"breaker":      "🔌",
	"retry":        "🔁",
	"health":       "🩺",
	"scheduler":    "🎯",
	"startup":      "🚀",
	"performance":  "⏱️",
	"audit":        "📋",
	"security":     "🔒",
	"slow_request": "🐌",
	"cache_stats":  "🧹",
}

// statusEmoji 按 HTTP 状态码着色
func statusEmoji(status int) string {
	switch {
	case status >= 500:
		return "🔴"
	case status >= 400:
		return "🟠"
	case status >= 300:
		return "🟡"
	default:
		return "🟢"
	}
}

// levelEmoji 没有 type/status 字段时按级别兜底
func levelEmoji(lvl zapcore.Level) string {
	switch {
	case lvl >= zapcore.ErrorLevel:
		return "❌"
	case lvl == zapcore.WarnLevel:
		return "⚠️"
	case lvl == zapcore.DebugLevel:
		return "🐛"
	default:
		return "ℹ️"
	}
}

// EmojiConsoleEncoder 包装 zap 的 ConsoleEncoder，在消息前插入表情前缀
type EmojiConsoleEncoder struct {
	zapcore.Encoder
	config zapcore.EncoderConfig
}

// NewEmojiConsoleEncoder 创建带表情前缀的控制台编码器
func NewEmojiConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &EmojiConsoleEncoder{
		Encoder: zapcore.NewConsoleEncoder(cfg),
		config:  cfg,
	}
}

// EncodeEntry 在交给底层编码器之前改写 entry.Message。
// 表情优先级：status 字段 > type 字段 > 日志级别。
func (enc *EmojiConsoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	entry.Message = pickEmoji(entry.Level, fields) + " " + entry.Message
	return enc.Encoder.EncodeEntry(entry, fields)
}

func pickEmoji(lvl zapcore.Level, fields []zapcore.Field) string {
	var logType string
	for _, f := range fields {
		switch {
		case f.Key == "status" && (f.Type == zapcore.Int64Type || f.Type == zapcore.Int32Type):
			if f.Integer > 0 {
				return statusEmoji(int(f.Integer))
			}
		case f.Key == "type" && f.Type == zapcore.StringType:
			logType = f.String
		}
	}
	if e, ok := typeEmojis[logType]; ok {
		return e
	}
	return levelEmoji(lvl)
}

// Clone 实现 zapcore.Encoder
func (enc *EmojiConsoleEncoder) Clone() zapcore.Encoder {
	return &EmojiConsoleEncoder{
		Encoder: enc.Encoder.Clone(),
		config:  enc.config,
	}
}

// AddEmojiToMap 注册自定义类型的表情映射，应在任何日志输出前调用
func AddEmojiToMap(logType, emoji string) {
	typeEmojis[logType] = emoji
}

// GetEmojiMap 返回当前映射的副本
func GetEmojiMap() map[string]string {
	return maps.Clone(typeEmojis)
}

// formatDuration 毫秒转为 150ms / 2.5s 形式
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000.0)
}
