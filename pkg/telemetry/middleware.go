// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// instrumentationName is the name of this instrumentation package
	instrumentationName = "github.com/stacklok/mcphub/pkg/telemetry"

	// gatewayRoutePrefix is the route pattern shared by the per-server
	// gateway endpoints.
	gatewayRoutePrefix = "/mcp/gateway/{serverID}"
)

// HTTPMiddleware records OpenTelemetry metrics for API requests.
type HTTPMiddleware struct {
	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
	gatewayOps      metric.Int64Counter
	sseConnections  metric.Int64UpDownCounter
}

// NewHTTPMiddleware creates an HTTP middleware that instruments requests
// against the given meter provider. The route label uses the matched chi
// route pattern rather than the raw request path.
func NewHTTPMiddleware(meterProvider metric.MeterProvider) func(http.Handler) http.Handler {
	meter := meterProvider.Meter(instrumentationName)

	requestCounter, _ := meter.Int64Counter(
		"mcphub_http_requests", // The exporter adds the _total suffix automatically
		metric.WithDescription("Total number of API requests"),
	)

	requestDuration, _ := meter.Float64Histogram(
		"mcphub_http_request_duration", // The exporter adds the _seconds suffix automatically
		metric.WithDescription("Duration of API requests in seconds"),
		metric.WithUnit("s"),
	)

	gatewayOps, _ := meter.Int64Counter(
		"mcphub_gateway_operations",
		metric.WithDescription("Total number of MCP operations forwarded to backend servers"),
	)

	sseConnections, _ := meter.Int64UpDownCounter(
		"mcphub_sse_connections",
		metric.WithDescription("Number of active SSE event streams"),
	)

	middleware := &HTTPMiddleware{
		requestCounter:  requestCounter,
		requestDuration: requestDuration,
		gatewayOps:      gatewayOps,
		sseConnections:  sseConnections,
	}

	return middleware.Handler
}

// Handler implements the middleware function that wraps HTTP handlers.
func (m *HTTPMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// SSE streams are long-lived connections that don't follow the
		// normal request/response pattern. Track them as a gauge and skip
		// the request metrics.
		if strings.HasSuffix(r.URL.Path, "/sse") {
			attrs := metric.WithAttributes(
				attribute.String("server_id", sseServerID(r.URL.Path)),
			)
			m.sseConnections.Add(ctx, 1, attrs)
			defer m.sseConnections.Add(ctx, -1, attrs)

			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		m.recordRequest(ctx, r, rw, time.Since(start))
	})
}

// recordRequest records the request counter and duration histogram, plus the
// gateway operation counter when the matched route is a gateway endpoint.
// Must run after next.ServeHTTP so the chi route context is populated.
func (m *HTTPMiddleware) recordRequest(ctx context.Context, r *http.Request, rw *responseWriter, duration time.Duration) {
	route := "unrouted"
	serverID := ""
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			route = pattern
		}
		serverID = rctx.URLParam("serverID")
	}

	status := "success"
	if rw.statusCode >= 400 {
		status = "error"
	}

	attrs := metric.WithAttributes(
		attribute.String("method", r.Method),
		attribute.String("route", route),
		attribute.String("status_code", strconv.Itoa(rw.statusCode)),
		attribute.String("status", status),
	)

	m.requestCounter.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if operation, ok := gatewayOperation(route); ok {
		m.gatewayOps.Add(ctx, 1, metric.WithAttributes(
			attribute.String("server_id", serverID),
			attribute.String("operation", operation),
			attribute.String("status", status),
		))
	}
}

// gatewayOperation maps a gateway route pattern to the MCP operation it
// forwards. Control endpoints such as status and disconnect are covered by
// the plain request metrics.
func gatewayOperation(route string) (string, bool) {
	if !strings.HasPrefix(route, gatewayRoutePrefix) {
		return "", false
	}
	switch strings.TrimPrefix(route, gatewayRoutePrefix) {
	case "/message":
		return "message", true
	case "/tools/{toolName}":
		return "tools/call", true
	case "/resources/read":
		return "resources/read", true
	case "/prompts/get":
		return "prompts/get", true
	default:
		return "", false
	}
}

// sseServerID extracts the server id from a gateway SSE path. The gauge is
// recorded before routing resolves, so the id comes from the raw path.
func sseServerID(path string) string {
	rest := strings.TrimPrefix(path, "/mcp/gateway/")
	if rest == path {
		return ""
	}
	return strings.TrimSuffix(rest, "/sse")
}

// responseWriter wraps http.ResponseWriter to capture the response status.
type responseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool // Guard against double WriteHeader calls
}

// WriteHeader captures the status code. Duplicate calls are ignored so
// wrapped handlers cannot trigger a superfluous WriteHeader panic.
func (rw *responseWriter) WriteHeader(statusCode int) {
	if rw.headerWritten {
		return
	}
	rw.headerWritten = true
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Write marks headers as written since the underlying ResponseWriter
// implicitly sends a 200 on the first write.
func (rw *responseWriter) Write(data []byte) (int, error) {
	if !rw.headerWritten {
		rw.headerWritten = true
		rw.statusCode = http.StatusOK
	}
	return rw.ResponseWriter.Write(data)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
