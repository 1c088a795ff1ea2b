// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeFlagDefaults(t *testing.T) {
	flags := serveCmd.Flags()

	address, err := flags.GetString("address")
	require.NoError(t, err)
	assert.Equal(t, ":8000", address)

	// The metrics switch is an on/off toggle for the /metrics endpoint.
	enabled, err := flags.GetBool("otel-enable-prometheus-metrics-path")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestServeMetricsFlagBinding(t *testing.T) {
	require.NoError(t, serveCmd.Flags().Set("otel-enable-prometheus-metrics-path", "true"))
	t.Cleanup(func() {
		_ = serveCmd.Flags().Set("otel-enable-prometheus-metrics-path", "false")
	})

	assert.True(t, viper.GetBool("otel-enable-prometheus-metrics-path"))
}
