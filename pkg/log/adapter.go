// Package log provides the logging stack for the LedgerLane service: a Zap
// core with console/JSON encoding, a Kratos adapter, automatic field
// sanitization and typed domain helpers.
package log

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
)

// KratosAdapter 让 Zap 实现 Kratos 的 log.Logger 接口
type KratosAdapter struct {
	zapLogger *zap.Logger
}

// NewKratosAdapter wraps a Zap logger behind the Kratos log.Logger interface.
func NewKratosAdapter(zapLogger *zap.Logger) log.Logger {
	return &KratosAdapter{zapLogger: zapLogger}
}

// Log implements log.Logger. The "msg" keyval becomes the Zap entry message;
// every remaining string value passes through SanitizeField before encoding.
func (a *KratosAdapter) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}

	var msg string
	fields := make([]zap.Field, 0, len(keyvals)/2)
	// 成对消费 keyvals，末尾落单的 key 丢弃
	for i := 0; i+1 < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == "msg" {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields = append(fields, zapField(key, keyvals[i+1]))
	}

	a.write(level, msg, fields)
	return nil
}

// zapField 字符串值先脱敏，error 值展开为文本，其余交给 zap.Any
func zapField(key string, value interface{}) zap.Field {
	switch v := value.(type) {
	case string:
		return zap.String(key, SanitizeField(key, v))
	case error:
		return zap.NamedError(key, v)
	default:
		return zap.Any(key, value)
	}
}

func (a *KratosAdapter) write(level log.Level, msg string, fields []zap.Field) {
	switch level {
	case log.LevelDebug:
		a.zapLogger.Debug(msg, fields...)
	case log.LevelWarn:
		a.zapLogger.Warn(msg, fields...)
	case log.LevelError:
		a.zapLogger.Error(msg, fields...)
	case log.LevelFatal:
		a.zapLogger.Fatal(msg, fields...)
	default:
		a.zapLogger.Info(msg, fields...)
	}
}
