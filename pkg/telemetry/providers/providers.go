// Package providers contains telemetry provider implementations and builder logic
package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/stacklok/mcphub/pkg/logger"
	"github.com/stacklok/mcphub/pkg/telemetry/providers/prometheus"
)

// Config holds the telemetry configuration for all providers.
type Config struct {
	// Service information
	ServiceName    string // ServiceName identifies the service for telemetry data
	ServiceVersion string // ServiceVersion identifies the service version for telemetry data

	// Prometheus configuration
	EnablePrometheusMetricsPath bool // EnablePrometheusMetricsPath enables the Prometheus scrape endpoint
	IncludeRuntimeMetrics       bool // IncludeRuntimeMetrics adds Go runtime and process collectors
}

// ProviderOption is an option type used to configure the telemetry providers
type ProviderOption func(*Config) error

// WithServiceName sets the service name
func WithServiceName(serviceName string) ProviderOption {
	return func(config *Config) error {
		if serviceName == "" {
			return fmt.Errorf("service name cannot be empty")
		}
		config.ServiceName = serviceName
		return nil
	}
}

// WithServiceVersion sets the service version
func WithServiceVersion(serviceVersion string) ProviderOption {
	return func(config *Config) error {
		if serviceVersion == "" {
			return fmt.Errorf("service version cannot be empty")
		}
		config.ServiceVersion = serviceVersion
		return nil
	}
}

// WithEnablePrometheusMetricsPath sets the enable prometheus metrics path flag
func WithEnablePrometheusMetricsPath(enablePrometheusMetricsPath bool) ProviderOption {
	return func(config *Config) error {
		config.EnablePrometheusMetricsPath = enablePrometheusMetricsPath
		return nil
	}
}

// WithIncludeRuntimeMetrics sets the include runtime metrics flag
func WithIncludeRuntimeMetrics(includeRuntimeMetrics bool) ProviderOption {
	return func(config *Config) error {
		config.IncludeRuntimeMetrics = includeRuntimeMetrics
		return nil
	}
}

// CompositeProvider combines telemetry providers into a single interface.
// It manages the meter provider, the Prometheus handler, and cleanup.
type CompositeProvider struct {
	meterProvider     metric.MeterProvider          // meterProvider provides metrics collection
	prometheusHandler http.Handler                  // prometheusHandler serves Prometheus metrics
	shutdownFuncs     []func(context.Context) error // shutdownFuncs clean up resources on shutdown
}

// NewCompositeProvider creates the appropriate providers based on provided options
func NewCompositeProvider(
	ctx context.Context,
	options ...ProviderOption,
) (*CompositeProvider, error) {
	config := Config{}
	for _, option := range options {
		if err := option(&config); err != nil {
			return nil, err
		}
	}

	// Create resource for all providers
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource with service name '%s' and version '%s': %w",
			config.ServiceName, config.ServiceVersion, err)
	}

	// Early return for the no-op case
	if !config.EnablePrometheusMetricsPath {
		logger.Infof("No telemetry configured, using no-op providers")
		return createNoOpProvider(), nil
	}

	reader, handler, err := prometheus.NewReader(prometheus.Config{
		EnableMetricsPath:     config.EnablePrometheusMetricsPath,
		IncludeRuntimeMetrics: config.IncludeRuntimeMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus reader: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	logger.Infof("Telemetry providers created successfully")
	return &CompositeProvider{
		meterProvider:     meterProvider,
		prometheusHandler: handler,
		shutdownFuncs:     []func(context.Context) error{meterProvider.Shutdown},
	}, nil
}

func createNoOpProvider() *CompositeProvider {
	return &CompositeProvider{
		meterProvider:     noop.NewMeterProvider(),
		prometheusHandler: nil,
		shutdownFuncs:     []func(context.Context) error{},
	}
}

// MeterProvider returns the meter provider
func (p *CompositeProvider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// PrometheusHandler returns the Prometheus metrics handler if configured
func (p *CompositeProvider) PrometheusHandler() http.Handler {
	return p.prometheusHandler
}

// Shutdown gracefully shuts down all providers
func (p *CompositeProvider) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	for i, shutdown := range p.shutdownFuncs {
		if err := shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("provider %d shutdown failed: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown failed with %d errors: %v", len(errs), errs)
	}
	return nil
}
