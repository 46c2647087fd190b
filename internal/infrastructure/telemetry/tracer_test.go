package telemetry_test

import (
	"testing"

	"github.com/keepup/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newDisabledTracerProvider(t *testing.T) *telemetry.TracerProvider {
	t.Helper()
	tp, err := telemetry.NewTracerProvider(t.Context(), telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     0.25,
		ServiceName:       "keepup-backend",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return tp
}

func TestTracerProvider_Disabled(t *testing.T) {
	tp := newDisabledTracerProvider(t)

	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.Shutdown(t.Context()))
	assert.NoError(t, tp.ForceFlush(t.Context()))

	cfg := tp.GetConfig()
	assert.Equal(t, "keepup-backend", cfg.ServiceName)
	assert.Equal(t, 0.25, cfg.SamplingRatio)
}

func TestTracerProvider_DisabledStillHandsOutTracers(t *testing.T) {
	tp := newDisabledTracerProvider(t)

	tracer := tp.Tracer("publication")
	require.NotNil(t, tracer)

	// Spans from the fallback provider are non-recording but usable.
	_, span := tracer.Start(t.Context(), "publish_home")
	span.End()
}

func TestTracerProvider_SpanProfilesRequireProvider(t *testing.T) {
	tp := newDisabledTracerProvider(t)

	require.NoError(t, tp.EnableSpanProfiles())
	assert.False(t, tp.IsSpanProfilesEnabled())
}

func TestNewTracerProvider_Exporting(t *testing.T) {
	// Needs a reachable OTLP collector, so only runs outside -short.
	if testing.Short() {
		t.Skip("requires a local collector")
	}

	tp, err := telemetry.NewTracerProvider(t.Context(), telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "keepup-backend",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.True(t, tp.IsEnabled())

	_, span := tp.Tracer("publication").Start(t.Context(), "publish_home")
	span.End()

	assert.NoError(t, tp.ForceFlush(t.Context()))
	assert.NoError(t, tp.Shutdown(t.Context()))
}
