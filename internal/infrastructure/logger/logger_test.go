package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_LevelParsing(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":    zapcore.DebugLevel,
		"info":     zapcore.InfoLevel,
		"WARN":     zapcore.WarnLevel,
		"warning":  zapcore.WarnLevel,
		"error":    zapcore.ErrorLevel,
		"fatal":    zapcore.FatalLevel,
		"verbose?": zapcore.InfoLevel, // unknown falls back to info
	}

	for level, want := range cases {
		cfg := ProductionConfig()
		cfg.Level = level

		log, err := New(cfg)
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(want), "level %q", level)
		if want > zapcore.DebugLevel {
			assert.False(t, log.Core().Enabled(want-1), "level %q should filter below %v", level, want)
		}
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	cfg := &Config{Level: "info", Format: "json", Output: path, TimeFormat: defaultTimeFormat}

	log, err := New(cfg)
	require.NoError(t, err)

	log.Info("migration complete")
	require.NoError(t, Sync(log))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"migration complete"`)
	assert.Contains(t, string(data), `"level":"info"`)
}

func TestNew_UnwritableOutputFallsBack(t *testing.T) {
	cfg := ProductionConfig()
	cfg.Output = filepath.Join(t.TempDir(), "missing", "nested", "server.log")

	log, err := New(cfg)
	require.NoError(t, err)
	log.Info("still logs somewhere")
}

func TestPresets(t *testing.T) {
	dev := DefaultConfig()
	assert.Equal(t, "console", dev.Format)

	prod := ProductionConfig()
	assert.Equal(t, "json", prod.Format)
	assert.Equal(t, "stdout", prod.Output)
}
