package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

func collectedMetricNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]bool {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestNewDBMetrics_Defaults(t *testing.T) {
	_, provider := newTestMeter(t)

	m, err := NewDBMetrics(provider.Meter("test"), DBMetricsConfig{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 200*time.Millisecond, m.config.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, m.config.PoolStatsInterval)
	assert.NotNil(t, m.logger)

	cfg := DefaultDBMetricsConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, cfg.PoolStatsInterval)
}

func TestDBMetrics_RecordQuery(t *testing.T) {
	reader, provider := newTestMeter(t)
	ctx := context.Background()

	m, err := NewDBMetrics(provider.Meter("test"), DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)

	m.RecordQuery(ctx, "select", "homes", 5*time.Millisecond, nil)
	m.RecordQuery(ctx, "", "homes", time.Millisecond, nil)

	names := collectedMetricNames(t, reader)
	assert.True(t, names["db_query_total"])
	assert.True(t, names["db_query_duration_seconds"])
	assert.False(t, names["db_slow_query_total"], "fast queries must not hit the slow counter")
}

func TestDBMetrics_RecordQuery_Slow(t *testing.T) {
	reader, provider := newTestMeter(t)
	ctx := context.Background()

	m, err := NewDBMetrics(provider.Meter("test"), DBMetricsConfig{
		SlowQueryThreshold: 10 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)

	m.RecordQuery(ctx, "UPDATE", "public_homes", 50*time.Millisecond, nil)
	// Empty table name falls back to "unknown" rather than an empty label.
	m.RecordQuery(ctx, "UPDATE", "", 50*time.Millisecond, nil)

	names := collectedMetricNames(t, reader)
	assert.True(t, names["db_slow_query_total"])
}

func TestDBMetrics_PoolStatsLifecycle(t *testing.T) {
	reader, provider := newTestMeter(t)

	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	m, err := NewDBMetrics(provider.Meter("test"), DBMetricsConfig{
		PoolStatsInterval: 10 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)

	m.SetSQLDB(mockDB)
	m.StartPoolStatsCollection(context.Background())
	time.Sleep(30 * time.Millisecond)
	m.Stop()
	m.Stop() // idempotent

	names := collectedMetricNames(t, reader)
	assert.True(t, names["db_pool_connections"])
	assert.True(t, names["db_pool_connections_max"])
}

func TestDBMetrics_StartWithoutSQLDB(t *testing.T) {
	_, provider := newTestMeter(t)

	m, err := NewDBMetrics(provider.Meter("test"), DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)

	// No SetSQLDB call: must not spawn a goroutine, so Stop returns at once.
	m.StartPoolStatsCollection(context.Background())
	m.Stop()
}

func TestSQLVerb(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM homes":        "SELECT",
		"  insert into homes values": "INSERT",
		"update homes set ...":       "UPDATE",
		"DELETE FROM homes":          "DELETE",
		"TRUNCATE homes":             "OTHER",
		"":                           "OTHER",
	}
	for sql, want := range tests {
		assert.Equal(t, want, sqlVerb(sql), sql)
	}
}

func TestDBMetricsPlugin_RecordsQueries(t *testing.T) {
	reader, provider := newTestMeter(t)

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
	require.NoError(t, err)

	m, err := NewDBMetrics(provider.Meter("test"), DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, gormDB.Use(NewDBMetricsPlugin(m, zap.NewNop())))

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	var n int
	require.NoError(t, gormDB.Raw("SELECT 1").Scan(&n).Error)

	names := collectedMetricNames(t, reader)
	assert.True(t, names["db_query_total"])
}

func TestRegisterDBMetrics(t *testing.T) {
	logger := zap.NewNop()

	newGorm := func(t *testing.T) *gorm.DB {
		mockDB, _, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { mockDB.Close() })
		gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
		require.NoError(t, err)
		return gormDB
	}

	t.Run("disabled returns nil", func(t *testing.T) {
		m, err := RegisterDBMetrics(newGorm(t), nil, DBMetricsConfig{Enabled: false}, logger)
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("nil provider returns nil", func(t *testing.T) {
		m, err := RegisterDBMetrics(newGorm(t), nil, DBMetricsConfig{Enabled: true}, logger)
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("enabled registers plugin and pool sampling", func(t *testing.T) {
		_, sdkProvider := newTestMeter(t)
		mp := &MeterProvider{
			provider: sdkProvider,
			logger:   logger,
			config:   MetricsConfig{Enabled: true},
		}

		m, err := RegisterDBMetrics(newGorm(t), mp, DefaultDBMetricsConfig(), logger)
		require.NoError(t, err)
		require.NotNil(t, m)
		m.Stop()
	})
}
