package log

import (
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func testEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:  "msg",
		LevelKey:    "level",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
}

func encodeOneEntry(t *testing.T, entry zapcore.Entry, fields []zapcore.Field) string {
	t.Helper()

	enc := NewEmojiConsoleEncoder(testEncoderConfig())
	buf, err := enc.EncodeEntry(entry, fields)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	defer buf.Free()
	return buf.String()
}

func TestStatusEmoji(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "🟢"},
		{301, "🟡"},
		{404, "🟠"},
		{500, "🔴"},
		{503, "🔴"},
	}

	for _, tt := range tests {
		if got := statusEmoji(tt.status); got != tt.want {
			t.Errorf("statusEmoji(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestLevelEmoji(t *testing.T) {
	tests := []struct {
		level zapcore.Level
		want  string
	}{
		{zapcore.DebugLevel, "🐛"},
		{zapcore.InfoLevel, "ℹ️"},
		{zapcore.WarnLevel, "⚠️"},
		{zapcore.ErrorLevel, "❌"},
		{zapcore.FatalLevel, "❌"},
	}

	for _, tt := range tests {
		if got := levelEmoji(tt.level); got != tt.want {
			t.Errorf("levelEmoji(%v) = %s, want %s", tt.level, got, tt.want)
		}
	}
}

// 核心域类型必须有表情映射
func TestTypeEmojisCoverage(t *testing.T) {
	required := []string{
		"rpc", "request", "cache", "quota", "breaker",
		"retry", "health", "startup", "audit", "security",
	}

	for _, logType := range required {
		if emoji, ok := typeEmojis[logType]; !ok || emoji == "" {
			t.Errorf("typeEmojis missing %q", logType)
		}
	}
}

func TestEncodeEntry_TypeField(t *testing.T) {
	tests := []struct {
		logType string
		want    string
	}{
		{"rpc", "🔗"},
		{"breaker", "🔌"},
		{"quota", "💰"},
		{"cache", "📦"},
		{"retry", "🔁"},
		{"health", "🩺"},
	}

	for _, tt := range tests {
		t.Run(tt.logType, func(t *testing.T) {
			out := encodeOneEntry(t,
				zapcore.Entry{Level: zapcore.InfoLevel, Message: "event"},
				[]zapcore.Field{{Key: "type", Type: zapcore.StringType, String: tt.logType}},
			)
			if !strings.Contains(out, tt.want+" event") {
				t.Errorf("output %q missing %s prefix", out, tt.want)
			}
		})
	}
}

// status 字段的着色优先于 type 字段
func TestEncodeEntry_StatusBeatsType(t *testing.T) {
	out := encodeOneEntry(t,
		zapcore.Entry{Level: zapcore.InfoLevel, Message: "request done"},
		[]zapcore.Field{
			{Key: "type", Type: zapcore.StringType, String: "request"},
			{Key: "status", Type: zapcore.Int64Type, Integer: 503},
		},
	)

	if !strings.Contains(out, "🔴 request done") {
		t.Errorf("output %q should carry the 5xx emoji", out)
	}
	if strings.Contains(out, "🌐") {
		t.Errorf("output %q should not fall back to the type emoji", out)
	}
}

func TestEncodeEntry_LevelFallback(t *testing.T) {
	out := encodeOneEntry(t, zapcore.Entry{Level: zapcore.ErrorLevel, Message: "boom"}, nil)
	if !strings.Contains(out, "❌ boom") {
		t.Errorf("output %q missing error emoji", out)
	}

	// 未注册的 type 同样落到级别兜底
	out = encodeOneEntry(t,
		zapcore.Entry{Level: zapcore.InfoLevel, Message: "plain"},
		[]zapcore.Field{{Key: "type", Type: zapcore.StringType, String: "no_such_type"}},
	)
	if !strings.Contains(out, "ℹ️ plain") {
		t.Errorf("output %q missing info emoji", out)
	}
}

func TestEncoderClone(t *testing.T) {
	enc := NewEmojiConsoleEncoder(testEncoderConfig())
	cloned, ok := enc.(*EmojiConsoleEncoder).Clone().(*EmojiConsoleEncoder)
	if !ok {
		t.Fatal("Clone did not return an EmojiConsoleEncoder")
	}

	buf, err := cloned.EncodeEntry(
		zapcore.Entry{Level: zapcore.WarnLevel, Message: "cloned"},
		[]zapcore.Field{{Key: "type", Type: zapcore.StringType, String: "breaker"}},
	)
	if err != nil {
		t.Fatalf("EncodeEntry on clone: %v", err)
	}
	defer buf.Free()

	if !strings.Contains(buf.String(), "🔌 cloned") {
		t.Errorf("cloned encoder output %q missing emoji prefix", buf.String())
	}
}

func TestAddEmojiToMap(t *testing.T) {
	AddEmojiToMap("custom_type", "🎨")
	defer delete(typeEmojis, "custom_type")

	if typeEmojis["custom_type"] != "🎨" {
		t.Errorf("typeEmojis[custom_type] = %s, want 🎨", typeEmojis["custom_type"])
	}
}

func TestGetEmojiMap_ReturnsCopy(t *testing.T) {
	mapCopy := GetEmojiMap()
	if len(mapCopy) != len(typeEmojis) {
		t.Fatalf("copy has %d entries, want %d", len(mapCopy), len(typeEmojis))
	}

	mapCopy["injected"] = "🧪"
	if _, ok := typeEmojis["injected"]; ok {
		t.Error("mutating the copy must not touch the shared map")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0ms"},
		{150, "150ms"},
		{999, "999ms"},
		{1000, "1.0s"},
		{2500, "2.5s"},
		{13438, "13.4s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.ms); got != tt.want {
			t.Errorf("formatDuration(%d) = %s, want %s", tt.ms, got, tt.want)
		}
	}
}
