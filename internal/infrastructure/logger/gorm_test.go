package logger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(t *testing.T, level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func traceQuery(l *GormLogger, began time.Time, err error) {
	l.Trace(context.Background(), began, func() (string, int64) {
		return "SELECT * FROM homes WHERE company_id = $1", 3
	}, err)
}

func TestGormLogger_TraceQuery(t *testing.T) {
	l, logs := newObservedGormLogger(t, gormlogger.Info)

	traceQuery(l, time.Now(), nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "SQL Query", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, int64(3), fields["rows"])
	assert.Contains(t, fields["sql"], "FROM homes")
}

func TestGormLogger_SlowQuery(t *testing.T) {
	l, logs := newObservedGormLogger(t, gormlogger.Warn, WithSlowThreshold(time.Millisecond))

	traceQuery(l, time.Now().Add(-50*time.Millisecond), nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Contains(t, entries[0].Message, "SLOW SQL")
}

func TestGormLogger_SlowQueryDisabled(t *testing.T) {
	l, logs := newObservedGormLogger(t, gormlogger.Warn, WithSlowThreshold(0))

	traceQuery(l, time.Now().Add(-time.Second), nil)

	assert.Empty(t, logs.All())
}

func TestGormLogger_Errors(t *testing.T) {
	t.Run("failure logs at error level", func(t *testing.T) {
		l, logs := newObservedGormLogger(t, gormlogger.Error)

		traceQuery(l, time.Now(), errors.New("duplicate key"))

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "SQL Error", entries[0].Message)
		assert.Contains(t, fmt.Sprint(entries[0].ContextMap()["error"]), "duplicate key")
	})

	t.Run("record not found is ignored by default", func(t *testing.T) {
		l, logs := newObservedGormLogger(t, gormlogger.Error)

		traceQuery(l, time.Now(), gormlogger.ErrRecordNotFound)

		assert.Empty(t, logs.All())
	})

	t.Run("record not found logged when opted in", func(t *testing.T) {
		l, logs := newObservedGormLogger(t, gormlogger.Error, WithIgnoreRecordNotFoundError(false))

		traceQuery(l, time.Now(), gormlogger.ErrRecordNotFound)

		assert.Len(t, logs.All(), 1)
	})
}

func TestGormLogger_Silent(t *testing.T) {
	l, logs := newObservedGormLogger(t, gormlogger.Silent)

	traceQuery(l, time.Now(), errors.New("ignored"))
	l.Info(context.Background(), "ignored %s", "too")

	assert.Empty(t, logs.All())
}

func TestGormLogger_LogMode(t *testing.T) {
	l, logs := newObservedGormLogger(t, gormlogger.Silent)

	elevated := l.LogMode(gormlogger.Info)
	elevated.Info(context.Background(), "migrations: %d applied", 4)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "4 applied")

	// the original logger keeps its level
	l.Info(context.Background(), "still silent")
	assert.Len(t, logs.All(), 1)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("anything else"))
}
