package log

import (
	"fmt"
	"os"
	"strings"
	"time"

	"LedgerLane/internal/conf"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// serviceName 附加在每条日志上的 service 字段
const serviceName = "LedgerLane"

// 文件轮转参数：单文件 100MB，保留 7 天 / 7 份，历史文件压缩
const (
	logMaxSizeMB  = 100
	logMaxAgeDays = 7
	logMaxBackups = 7
)

// utcTimeEncoder 以 UTC 输出 [2006-01-02 15:04:05]。
// 赞助预算按 UTC 日切换，日志时间戳与其保持同一时区。
func utcTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format("[2006-01-02 15:04:05]"))
}

// resolveEnv 运行环境取值顺序：配置 > LEDGERLANE_ENV 环境变量 > production
func resolveEnv(cfg *conf.Log) string {
	if cfg.Env != "" {
		return cfg.Env
	}
	if env := os.Getenv("LEDGERLANE_ENV"); env != "" {
		return env
	}
	return "production"
}

// newEncoder 选择编码器：console 或 development 环境用表情控制台输出，
// 其余一律 JSON
func newEncoder(format, env string) zapcore.Encoder {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     utcTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if strings.ToLower(format) == "console" || env == "development" {
		return NewEmojiConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

// newRotatingFileCore 所有达到 level 的日志写入同一个轮转文件
func newRotatingFileCore(encoder zapcore.Encoder, path string, level zapcore.Level) zapcore.Core {
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSizeMB,
		MaxAge:     logMaxAgeDays,
		MaxBackups: logMaxBackups,
		Compress:   true,
	})
	return zapcore.NewCore(encoder, w, level)
}

// NewZapLogger 按配置构建 Zap 根日志器。
// 输出分三路：stdout 承接 level 到 Error 之间的日志，stderr 承接 Error 及以上，
// 配置了 output_file 时再加一路带轮转的文件输出。
func NewZapLogger(cfg *conf.Log) (*zap.Logger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("log config is nil")
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoder := newEncoder(cfg.Format, resolveEnv(cfg))

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout),
			zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return l >= level && l < zapcore.ErrorLevel
			})),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr),
			zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return l >= zapcore.ErrorLevel
			})),
	}
	if cfg.OutputFile != "" {
		cores = append(cores, newRotatingFileCore(encoder, cfg.OutputFile, level))
	}

	logger := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", serviceName)),
	)
	return logger, nil
}
