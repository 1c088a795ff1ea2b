// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/mcphub/pkg/registry"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		serverType registry.ServerType
		config     registry.ServerConfig
		want       any
	}{
		{
			name:       "stdio",
			serverType: registry.ServerTypeStdio,
			config:     registry.ServerConfig{Command: "cat"},
			want:       &Stdio{},
		},
		{
			name:       "http",
			serverType: registry.ServerTypeHTTP,
			config:     registry.ServerConfig{URL: "http://localhost:9000/mcp"},
			want:       &Streamable{},
		},
		{
			name:       "sse",
			serverType: registry.ServerTypeSSE,
			config:     registry.ServerConfig{URL: "http://localhost:9000/sse"},
			want:       &SSE{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr, err := New(tt.serverType, tt.config)
			require.NoError(t, err)
			assert.IsType(t, tt.want, tr)
		})
	}
}

func TestNewUnknownType(t *testing.T) {
	t.Parallel()

	_, err := New(registry.ServerType("carrier-pigeon"), registry.ServerConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported server type")
}
