package logger

import (
	"context"
	"errors"
	"testing"

	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	UseLogger(zap.New(core))
	t.Cleanup(func() { UseLogger(nil) })
	return logs
}

func TestContextLogBuilder_ExtractsRequestFields(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	ctx := ctxutil.WithRequestInfo(context.Background(), "req-1", "10.0.0.1", "curl")
	ctx = ctxutil.NewContextWithRequest(ctx, "service", "Login")

	ErrorWithContext(ctx, "login failed").
		String("email", "a@b.c").
		Err(errors.New("boom")).
		Log()

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "login failed", entry.Message)
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "10.0.0.1", fields["client_ip"])
	assert.Equal(t, "service", fields["module"])
	assert.Equal(t, "Login", fields["function"])
	assert.Equal(t, "a@b.c", fields["email"])
	assert.Equal(t, "boom", fields["error"])
}

func TestContextLogBuilder_RespectsLevel(t *testing.T) {
	logs := observe(t, zapcore.WarnLevel)

	DebugWithContext(context.Background(), "noise").String("k", "v").Log()
	InfoWithContext(context.Background(), "noise").Log()
	WarnWithContext(context.Background(), "kept").Log()

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestLogAuth(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	LogAuth("u-1", "login", true)
	LogAuth("", "login", false, zap.String("reason", "bad password"))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.InfoLevel, logs.All()[0].Level)
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		level, env string
		want       zapcore.Level
	}{
		{"", "production", zapcore.InfoLevel},
		{"", "development", zapcore.DebugLevel},
		{"warn", "development", zapcore.WarnLevel},
		{"debug", "production", zapcore.DebugLevel},
		{"error", "staging", zapcore.ErrorLevel},
		{"verbose", "staging", zapcore.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levelFor(tt.level, tt.env), "level=%q env=%q", tt.level, tt.env)
	}
}
