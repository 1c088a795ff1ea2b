// Package prometheus provides the Prometheus metrics reader and scrape
// handler used by the telemetry providers.
package prometheus

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Config holds the Prometheus reader configuration.
type Config struct {
	// EnableMetricsPath controls whether the Prometheus scrape handler is created.
	EnableMetricsPath bool

	// IncludeRuntimeMetrics registers the Go runtime and process collectors
	// alongside the OpenTelemetry metrics.
	IncludeRuntimeMetrics bool
}

// NewReader creates an OpenTelemetry metric reader backed by a dedicated
// Prometheus registry, plus the HTTP handler serving the scrape endpoint.
func NewReader(config Config) (sdkmetric.Reader, http.Handler, error) {
	if !config.EnableMetricsPath {
		return nil, nil, fmt.Errorf("prometheus reader requires EnableMetricsPath to be set")
	}

	registry := prometheus.NewRegistry()

	if config.IncludeRuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return exporter, handler, nil
}
