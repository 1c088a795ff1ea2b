// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stacklok/toolhive-core/httperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/mcphub/pkg/registry"
)

// startBackend runs an in-process MCP server over streamable HTTP exposing
// one tool, one resource, and one prompt. Returns the endpoint URL.
func startBackend(t *testing.T) string {
	t.Helper()

	srv := mcpserver.NewMCPServer("discovery-backend", "1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithPromptCapabilities(true),
	)

	srv.AddTool(
		mcpgo.NewTool("echo",
			mcpgo.WithDescription("Echoes the input back"),
			mcpgo.WithString("message", mcpgo.Required()),
		),
		func(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
			args, _ := req.Params.Arguments.(map[string]any)
			message, _ := args["message"].(string)
			return &mcpgo.CallToolResult{
				Content: []mcpgo.Content{mcpgo.NewTextContent(message)},
			}, nil
		},
	)

	srv.AddResource(
		mcpgo.Resource{URI: "test://data", Name: "Test Data", MIMEType: "text/plain"},
		func(_ context.Context, _ mcpgo.ReadResourceRequest) ([]mcpgo.ResourceContents, error) {
			return []mcpgo.ResourceContents{
				mcpgo.TextResourceContents{URI: "test://data", MIMEType: "text/plain", Text: "hello"},
			}, nil
		},
	)

	srv.AddPrompt(
		mcpgo.NewPrompt("greet",
			mcpgo.WithPromptDescription("Returns a greeting"),
		),
		func(_ context.Context, _ mcpgo.GetPromptRequest) (*mcpgo.GetPromptResult, error) {
			return &mcpgo.GetPromptResult{
				Messages: []mcpgo.PromptMessage{
					{Role: "user", Content: mcpgo.NewTextContent("Hello!")},
				},
			}, nil
		},
	)

	streamable := mcpserver.NewStreamableHTTPServer(srv)
	mux := http.NewServeMux()
	mux.Handle("/mcp", streamable)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return ts.URL + "/mcp"
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	url := startBackend(t)

	caps, err := Discover(t.Context(), registry.ServerTypeHTTP, registry.ServerConfig{URL: url})
	require.NoError(t, err)

	require.Len(t, caps.Tools, 1)
	assert.Equal(t, "echo", caps.Tools[0].Name)
	assert.Equal(t, "Echoes the input back", caps.Tools[0].Description)
	assert.NotEmpty(t, caps.Tools[0].InputSchema)

	require.Len(t, caps.Resources, 1)
	assert.Equal(t, "test://data", caps.Resources[0].URI)

	require.Len(t, caps.Prompts, 1)
	assert.Equal(t, "greet", caps.Prompts[0].Name)
}

func TestDiscoverBestEffortListings(t *testing.T) {
	t.Parallel()

	// A tools-only backend. The missing kinds come back empty, not as errors.
	srv := mcpserver.NewMCPServer("tools-only", "1.0.0",
		mcpserver.WithToolCapabilities(true),
	)
	srv.AddTool(
		mcpgo.NewTool("ping", mcpgo.WithDescription("Answers pong")),
		func(_ context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
			return &mcpgo.CallToolResult{
				Content: []mcpgo.Content{mcpgo.NewTextContent("pong")},
			}, nil
		},
	)
	ts := httptest.NewServer(mcpserver.NewStreamableHTTPServer(srv))
	t.Cleanup(ts.Close)

	caps, err := Discover(t.Context(), registry.ServerTypeHTTP, registry.ServerConfig{URL: ts.URL + "/mcp"})
	require.NoError(t, err)

	require.Len(t, caps.Tools, 1)
	assert.Empty(t, caps.Resources)
	assert.NotNil(t, caps.Resources)
	assert.Empty(t, caps.Prompts)
	assert.NotNil(t, caps.Prompts)
}

func TestDiscoverUnreachableBackend(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := Discover(t.Context(), registry.ServerTypeHTTP, registry.ServerConfig{URL: url})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, httperr.Code(err))
}

func TestDiscoverSpawnFailure(t *testing.T) {
	t.Parallel()

	_, err := Discover(t.Context(), registry.ServerTypeStdio, registry.ServerConfig{
		Command: "this-command-does-not-exist-anywhere",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDiscoverUnknownType(t *testing.T) {
	t.Parallel()

	_, err := Discover(t.Context(), registry.ServerType("carrier-pigeon"), registry.ServerConfig{})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, httperr.Code(err))
	assert.Contains(t, err.Error(), "unsupported server type")
}