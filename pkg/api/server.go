// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package api contains the REST API for mcphub.
package api

// The OpenAPI spec is generated using "github.com/swaggo/swag/v2/cmd/swag@v2.0.0-rc4"
// To update the OpenAPI spec, run:
// install swag:
//	go install github.com/swaggo/swag/v2/cmd/swag@v2.0.0-rc4
// generate the spec:
//	swag init -g pkg/api/server.go --v3.1 -o docs/server

// @title           mcphub API
// @version         1.0
// @description     This is the mcphub API server.

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/stacklok/mcphub/pkg/api/v1"
	"github.com/stacklok/mcphub/pkg/client"
	"github.com/stacklok/mcphub/pkg/logger"
	"github.com/stacklok/mcphub/pkg/registry/registrysvc"
	"github.com/stacklok/mcphub/pkg/storage"
	"github.com/stacklok/mcphub/pkg/telemetry"
)

// Not sure if these values need to be configurable.
const (
	middlewareTimeout = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second

	// metricsPath is where the Prometheus handler is mounted when enabled.
	metricsPath = "/metrics"
)

// Router assembles the full mcphub handler: registry, gateway, and agent
// routers behind the shared middleware stack. The telemetry provider may be
// nil, in which case no instrumentation or metrics endpoint is mounted.
func Router(
	service registrysvc.Service,
	store storage.Store,
	pool *client.Manager,
	telemetryProvider *telemetry.Provider,
) http.Handler {
	r := chi.NewRouter()

	middlewares := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
		requestTimeout(middlewareTimeout),
	}
	if telemetryProvider != nil {
		middlewares = append(middlewares, telemetryProvider.Middleware())
	}
	r.Use(middlewares...)

	routers := map[string]http.Handler{
		"/health":      v1.HealthRouter(),
		"/mcp":         v1.RegistryRouter(service),
		"/mcp/gateway": v1.GatewayRouter(store, pool),
		"/agents":      v1.AgentsRouter(service),
	}
	if telemetryProvider != nil {
		if handler := telemetryProvider.PrometheusHandler(); handler != nil {
			routers[metricsPath] = handler
		}
	}

	for prefix, router := range routers {
		r.Mount(prefix, router)
	}

	return r
}

// Serve starts the server on the given address and serves the API until ctx
// is cancelled. It is assumed that the caller sets up appropriate signal
// handling.
func Serve(
	ctx context.Context,
	address string,
	service registrysvc.Service,
	store storage.Store,
	pool *client.Manager,
	telemetryProvider *telemetry.Provider,
) error {
	srv := &http.Server{
		// Request contexts inherit from ctx so long-lived streams end when
		// the server is asked to stop.
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Addr:              address,
		Handler:           Router(service, store, pool, telemetryProvider),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	logger.Infof("starting HTTP server on %s", listener.Addr())

	// Start server.
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server stopped with error: %v", err)
		}
	}()

	<-ctx.Done()

	// ctx is already cancelled at this point; shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Infof("HTTP server stopped")
	return nil
}

// requestTimeout applies the standard timeout middleware to every route
// except the SSE streams, which stay open until the subscriber leaves.
func requestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := middleware.Timeout(timeout)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/sse") {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

// requestLogger emits one debug line per handled request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debugw("handled request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
