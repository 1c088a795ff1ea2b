// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-core/env"

	"github.com/stacklok/mcphub/pkg/api"
	"github.com/stacklok/mcphub/pkg/client"
	"github.com/stacklok/mcphub/pkg/logger"
	"github.com/stacklok/mcphub/pkg/mcp"
	"github.com/stacklok/mcphub/pkg/registry/registrysvc"
	"github.com/stacklok/mcphub/pkg/storage/sqlite"
	"github.com/stacklok/mcphub/pkg/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mcphub API server",
	Long: `Start the mcphub API server to serve the MCP server registry and gateway.
The server persists registrations in a SQLite database and proxies gateway
calls through pooled sessions to the registered MCP servers.`,
	RunE: runServe,
}

const (
	// defaultDatabasePath is used when neither --db nor DATABASE_PATH is set.
	defaultDatabasePath = "mcphub.db"

	// teardownTimeout bounds pool draining after the HTTP server stops.
	teardownTimeout = 10 * time.Second
)

func init() {
	serveCmd.Flags().String("address", ":8000", "Address to listen on")
	serveCmd.Flags().String("db", "", "Path to the SQLite database (defaults to $DATABASE_PATH, then "+defaultDatabasePath+")")
	serveCmd.Flags().Duration("idle-timeout", mcp.IdleTimeout, "Close pooled sessions idle for longer than this")
	serveCmd.Flags().Bool("otel-enable-prometheus-metrics-path", false, "Expose Prometheus metrics on /metrics")

	for _, flag := range []string{"address", "db", "idle-timeout", "otel-enable-prometheus-metrics-path"} {
		if err := viper.BindPFlag(flag, serveCmd.Flags().Lookup(flag)); err != nil {
			logger.Fatalf("Failed to bind %s flag: %v", flag, err)
		}
	}
}

// databasePath resolves the store location: flag, then environment, then the
// working-directory default.
func databasePath(envReader env.Reader) string {
	if path := viper.GetString("db"); path != "" {
		return path
	}
	if path := envReader.Getenv("DATABASE_PATH"); path != "" {
		return path
	}
	return defaultDatabasePath
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	address := viper.GetString("address")
	dbPath := databasePath(&env.OSReader{})
	idleTimeout := viper.GetDuration("idle-timeout")

	logger.Infof("Starting mcphub API server on %s", address)
	logger.Infof("Database: %s, idle timeout: %s", dbPath, idleTimeout)

	// Open the store and run migrations.
	db, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database at %s: %w", dbPath, err)
	}
	store := sqlite.NewStore(db)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Errorf("Failed to close store: %v", err)
		}
	}()

	// Connection pool for gateway traffic.
	pool := client.NewManager(store, client.WithIdleTimeout(idleTimeout))

	service := registrysvc.New(store, pool)

	telemetryConfig := telemetry.DefaultConfig()
	telemetryConfig.EnablePrometheusMetricsPath = viper.GetBool("otel-enable-prometheus-metrics-path")
	telemetryProvider, err := telemetry.NewProvider(ctx, telemetryConfig)
	if err != nil {
		return fmt.Errorf("failed to create telemetry provider: %w", err)
	}

	// Serve blocks until ctx is cancelled by a signal and has completed its
	// own graceful HTTP shutdown when it returns.
	serveErr := api.Serve(ctx, address, service, store, pool, telemetryProvider)

	// The HTTP server is down; drain the pool and telemetry with a fresh
	// deadline since ctx is already cancelled.
	teardownCtx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	pool.CloseAll(teardownCtx)
	if err := telemetryProvider.Shutdown(teardownCtx); err != nil {
		logger.Errorf("Failed to shut down telemetry: %v", err)
	}

	if serveErr != nil {
		return serveErr
	}
	logger.Info("Server shutdown complete")
	return nil
}
