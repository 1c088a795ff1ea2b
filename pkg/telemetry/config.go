// Package telemetry provides OpenTelemetry instrumentation for the mcphub API server.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/stacklok/mcphub/pkg/telemetry/providers"
	"github.com/stacklok/mcphub/pkg/versions"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the service name for telemetry
	ServiceName string `json:"serviceName"`

	// ServiceVersion is the service version for telemetry
	ServiceVersion string `json:"serviceVersion"`

	// EnablePrometheusMetricsPath controls whether to expose a Prometheus-style
	// metrics endpoint. The handler is mounted on the API port by the server.
	EnablePrometheusMetricsPath bool `json:"enablePrometheusMetricsPath"`

	// IncludeRuntimeMetrics controls whether Go runtime and process collectors
	// are registered alongside the request metrics.
	IncludeRuntimeMetrics bool `json:"includeRuntimeMetrics"`
}

// DefaultConfig returns a default telemetry configuration.
func DefaultConfig() Config {
	versionInfo := versions.GetVersionInfo()
	return Config{
		ServiceName:                 "mcphub",
		ServiceVersion:              versionInfo.Version,
		EnablePrometheusMetricsPath: false, // No metrics endpoint by default
		IncludeRuntimeMetrics:       true,
	}
}

// Provider encapsulates OpenTelemetry providers and configuration.
type Provider struct {
	meterProvider     metric.MeterProvider
	prometheusHandler http.Handler
	shutdown          func(context.Context) error
}

// NewProvider creates a new OpenTelemetry provider with the given configuration.
// When the metrics path is disabled the meter provider is a no-op and
// PrometheusHandler returns nil.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	telemetryOptions := []providers.ProviderOption{
		providers.WithServiceName(config.ServiceName),
		providers.WithServiceVersion(config.ServiceVersion),
		providers.WithEnablePrometheusMetricsPath(config.EnablePrometheusMetricsPath),
		providers.WithIncludeRuntimeMetrics(config.IncludeRuntimeMetrics),
	}

	telemetryProviders, err := providers.NewCompositeProvider(ctx, telemetryOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry providers: %w", err)
	}

	meterProvider := telemetryProviders.MeterProvider()

	// set the global provider for OTEL
	otel.SetMeterProvider(meterProvider)

	return &Provider{
		meterProvider:     meterProvider,
		prometheusHandler: telemetryProviders.PrometheusHandler(),
		shutdown:          telemetryProviders.Shutdown,
	}, nil
}

// Middleware returns an HTTP middleware that instruments requests with OpenTelemetry.
func (p *Provider) Middleware() func(http.Handler) http.Handler {
	return NewHTTPMiddleware(p.meterProvider)
}

// Shutdown gracefully shuts down the telemetry provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.shutdown != nil {
		return p.shutdown(ctx)
	}
	return nil
}

// MeterProvider returns the configured meter provider.
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// PrometheusHandler returns the Prometheus metrics handler if configured.
// Returns nil when the metrics path is disabled.
func (p *Provider) PrometheusHandler() http.Handler {
	return p.prometheusHandler
}
