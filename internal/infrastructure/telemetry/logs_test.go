package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(t.Context(), LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, lp)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.ForceFlush(t.Context()))
	assert.NoError(t, lp.Shutdown(t.Context()))
	assert.NoError(t, lp.Shutdown(t.Context()), "shutdown must be repeatable")
}

func TestLoggerProvider_GetConfig(t *testing.T) {
	cfg := LogsConfig{
		Enabled:           false,
		CollectorEndpoint: "collector:4317",
		ServiceName:       "keepup-backend",
		Insecure:          true,
	}
	lp, err := NewLoggerProvider(t.Context(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, cfg, lp.GetConfig())
}

func TestNewZapOTELCore_DisabledYieldsNop(t *testing.T) {
	t.Run("nil provider", func(t *testing.T) {
		core := NewZapOTELCore(ZapBridgeConfig{ServiceName: "keepup-backend"})
		assert.False(t, core.Enabled(zapcore.ErrorLevel))
	})

	t.Run("disabled provider", func(t *testing.T) {
		lp, err := NewLoggerProvider(t.Context(), LogsConfig{Enabled: false}, zap.NewNop())
		require.NoError(t, err)

		core := NewZapOTELCore(ZapBridgeConfig{
			ServiceName:    "keepup-backend",
			LoggerProvider: lp,
		})
		assert.False(t, core.Enabled(zapcore.ErrorLevel))
	})
}

func TestNewBridgedLogger_WritesBothCores(t *testing.T) {
	baseCore, baseLogs := observer.New(zapcore.DebugLevel)
	otelCore, otelLogs := observer.New(zapcore.DebugLevel)

	logger := NewBridgedLogger(baseCore, otelCore)
	logger.Info("publish completed", zap.String("home_id", "h-1"))

	require.Equal(t, 1, baseLogs.Len())
	require.Equal(t, 1, otelLogs.Len())
	assert.Equal(t, "publish completed", baseLogs.All()[0].Message)
	assert.Equal(t, "publish completed", otelLogs.All()[0].Message)
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(filtered)

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	logger.Error("kept as well")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestLevelFilterCore_WithRetainsLevel(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: inner, minLevel: zapcore.ErrorLevel}

	child := filtered.With([]zapcore.Field{zap.String("component", "publication")})
	logger := zap.New(child)

	logger.Warn("still filtered")
	logger.Error("recorded")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "recorded", entry.Message)
	assert.Equal(t, "publication", entry.ContextMap()["component"])
}
