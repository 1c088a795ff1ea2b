// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-core/env/mocks"
)

func callToolRequest(name string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestEchoHandler(t *testing.T) {
	t.Parallel()

	result, err := echoHandler(context.Background(), callToolRequest("echo", map[string]any{"message": "hi"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "hi", textContent(t, result))
}

func TestEchoHandlerMissingArgument(t *testing.T) {
	t.Parallel()

	result, err := echoHandler(context.Background(), callToolRequest("echo", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestAddHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    any
		b    any
		want string
	}{
		{name: "integers", a: 2.0, b: 3.0, want: "5"},
		{name: "fractions", a: 1.5, b: 0.25, want: "1.75"},
		{name: "negative", a: -2.0, b: 0.5, want: "-1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := addHandler(context.Background(), callToolRequest("add", map[string]any{"a": tt.a, "b": tt.b}))
			require.NoError(t, err)
			assert.False(t, result.IsError)
			assert.Equal(t, tt.want, textContent(t, result))
		})
	}
}

func TestGreetHandler(t *testing.T) {
	t.Parallel()

	result, err := greetHandler(context.Background(), callToolRequest("greet", map[string]any{"name": "Ada"}))
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada!", textContent(t, result))
}

func TestPromptHandlers(t *testing.T) {
	t.Parallel()

	req := mcpgo.GetPromptRequest{}
	req.Params.Name = "translate"
	req.Params.Arguments = map[string]string{"text": "hello", "target_language": "fr"}

	result, err := translateHandler(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	text, ok := result.Messages[0].Content.(mcpgo.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "fr")
	assert.Contains(t, text.Text, "hello")
}

func TestExampleServerCapabilities(t *testing.T) {
	t.Parallel()

	srv := newExampleMCPServer()
	require.NotNil(t, srv)
}

func TestDatabasePath(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		envValue string
		want     string
	}{
		{name: "flag wins", flag: "/tmp/flag.db", envValue: "/tmp/env.db", want: "/tmp/flag.db"},
		{name: "env fallback", envValue: "/tmp/env.db", want: "/tmp/env.db"},
		{name: "default", want: defaultDatabasePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Set("db", tt.flag)
			t.Cleanup(func() { viper.Set("db", "") })

			ctrl := gomock.NewController(t)
			mockEnv := mocks.NewMockReader(ctrl)
			if tt.flag == "" {
				mockEnv.EXPECT().Getenv("DATABASE_PATH").Return(tt.envValue)
			}

			assert.Equal(t, tt.want, databasePath(mockEnv))
		})
	}
}
