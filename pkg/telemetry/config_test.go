package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	assert.Equal(t, "mcphub", config.ServiceName)
	assert.NotEmpty(t, config.ServiceVersion)
	assert.False(t, config.EnablePrometheusMetricsPath)
	assert.True(t, config.IncludeRuntimeMetrics)
}

func TestNewProviderNoOp(t *testing.T) {
	t.Parallel()

	provider, err := NewProvider(t.Context(), DefaultConfig())
	require.NoError(t, err)

	assert.NotNil(t, provider.MeterProvider())
	assert.Nil(t, provider.PrometheusHandler())

	// The middleware still works against the no-op meter provider, including
	// outside a chi router.
	handler := provider.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProviderPrometheus(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.EnablePrometheusMetricsPath = true

	provider, err := NewProvider(t.Context(), config)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, provider.Shutdown(context.Background()))
	})

	require.NotNil(t, provider.PrometheusHandler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	provider.PrometheusHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	// Runtime metrics are on by default.
	assert.Contains(t, rec.Body.String(), "go_")
	assert.Contains(t, rec.Body.String(), "process_")
}

func TestNewProviderRequiresServiceName(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.ServiceName = ""

	_, err := NewProvider(t.Context(), config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service name cannot be empty")
}
