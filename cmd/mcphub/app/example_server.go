// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/stacklok/mcphub/pkg/logger"
	"github.com/stacklok/mcphub/pkg/versions"
)

var exampleServerHTTP string

// newExampleServerCmd creates the 'example-server' subcommand
func newExampleServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "example-server",
		Short: "Run a small demonstration MCP server",
		Long: `Run a minimal MCP server exposing a few example tools, resources, and
prompts. It is a convenient backend for trying out mcphub itself:

    mcphub serve &
    curl -X POST localhost:8000/mcp/servers/register \
      -d '{"type":"stdio","config":{"command":"mcphub","args":["example-server"]}}'

By default the server speaks MCP over stdio; with --http it serves
streamable HTTP instead.`,
		RunE: runExampleServer,
	}

	cmd.Flags().StringVar(&exampleServerHTTP, "http", "", "Serve streamable HTTP on this address (e.g. :4483) instead of stdio")

	return cmd
}

func runExampleServer(cmd *cobra.Command, _ []string) error {
	srv := newExampleMCPServer()

	if exampleServerHTTP == "" {
		// Stdio mode: mcp-go reads stdin until EOF. Logs go to stderr via the
		// logger, never to stdout, which carries protocol frames.
		return mcpserver.ServeStdio(srv)
	}

	streamableServer := mcpserver.NewStreamableHTTPServer(
		srv,
		mcpserver.WithEndpointPath("/mcp"),
	)
	httpServer := &http.Server{
		Addr:              exampleServerHTTP,
		Handler:           streamableServer,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
	}

	go func() {
		logger.Infof("Example MCP server listening on http://%s/mcp", exampleServerHTTP)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Example MCP server error: %v", err)
		}
	}()

	<-cmd.Context().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newExampleMCPServer assembles the demonstration server: three tools, two
// resources, two prompts.
func newExampleMCPServer() *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(
		"mcphub-example",
		versions.GetVersionInfo().Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithPromptCapabilities(true),
	)

	srv.AddTool(
		mcpgo.NewTool("echo",
			mcpgo.WithDescription("Echo back the input message"),
			mcpgo.WithString("message", mcpgo.Required(), mcpgo.Description("Message to echo")),
		),
		echoHandler,
	)
	srv.AddTool(
		mcpgo.NewTool("add",
			mcpgo.WithDescription("Add two numbers together"),
			mcpgo.WithNumber("a", mcpgo.Required(), mcpgo.Description("First number")),
			mcpgo.WithNumber("b", mcpgo.Required(), mcpgo.Description("Second number")),
		),
		addHandler,
	)
	srv.AddTool(
		mcpgo.NewTool("greet",
			mcpgo.WithDescription("Generate a greeting message"),
			mcpgo.WithString("name", mcpgo.Required(), mcpgo.Description("Name to greet")),
		),
		greetHandler,
	)

	srv.AddResource(
		mcpgo.Resource{
			URI:         "file://config.json",
			Name:        "Configuration",
			Description: "Server configuration file",
			MIMEType:    "application/json",
		},
		configResourceHandler,
	)
	srv.AddResource(
		mcpgo.Resource{
			URI:         "file://data/sample.txt",
			Name:        "Sample Data",
			Description: "Sample text data",
			MIMEType:    "text/plain",
		},
		sampleResourceHandler,
	)

	srv.AddPrompt(
		mcpgo.NewPrompt("summarize",
			mcpgo.WithPromptDescription("Summarize a given text"),
			mcpgo.WithArgument("text", mcpgo.ArgumentDescription("Text to summarize"), mcpgo.RequiredArgument()),
		),
		summarizeHandler,
	)
	srv.AddPrompt(
		mcpgo.NewPrompt("translate",
			mcpgo.WithPromptDescription("Translate text to another language"),
			mcpgo.WithArgument("text", mcpgo.ArgumentDescription("Text to translate"), mcpgo.RequiredArgument()),
			mcpgo.WithArgument("target_language", mcpgo.ArgumentDescription("Target language code"), mcpgo.RequiredArgument()),
		),
		translateHandler,
	)

	return srv
}

func echoHandler(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	message, err := req.RequireString("message")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return mcpgo.NewToolResultText(message), nil
}

func addHandler(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	a, err := req.RequireFloat("a")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	b, err := req.RequireFloat("b")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return mcpgo.NewToolResultText(fmt.Sprintf("%g", a+b)), nil
}

func greetHandler(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return mcpgo.NewToolResultText(fmt.Sprintf("Hello, %s!", name)), nil
}

func configResourceHandler(_ context.Context, _ mcpgo.ReadResourceRequest) ([]mcpgo.ResourceContents, error) {
	return []mcpgo.ResourceContents{
		mcpgo.TextResourceContents{
			URI:      "file://config.json",
			MIMEType: "application/json",
			Text:     `{"name":"mcphub-example","log_level":"info"}`,
		},
	}, nil
}

func sampleResourceHandler(_ context.Context, _ mcpgo.ReadResourceRequest) ([]mcpgo.ResourceContents, error) {
	return []mcpgo.ResourceContents{
		mcpgo.TextResourceContents{
			URI:      "file://data/sample.txt",
			MIMEType: "text/plain",
			Text:     "This is sample data served by the mcphub example server.",
		},
	}, nil
}

func summarizeHandler(_ context.Context, req mcpgo.GetPromptRequest) (*mcpgo.GetPromptResult, error) {
	text := req.Params.Arguments["text"]
	return &mcpgo.GetPromptResult{
		Description: "Summarization prompt",
		Messages: []mcpgo.PromptMessage{
			{
				Role:    mcpgo.RoleUser,
				Content: mcpgo.NewTextContent(fmt.Sprintf("Please summarize the following text:\n\n%s", text)),
			},
		},
	}, nil
}

func translateHandler(_ context.Context, req mcpgo.GetPromptRequest) (*mcpgo.GetPromptResult, error) {
	text := req.Params.Arguments["text"]
	target := req.Params.Arguments["target_language"]
	return &mcpgo.GetPromptResult{
		Description: "Translation prompt",
		Messages: []mcpgo.PromptMessage{
			{
				Role:    mcpgo.RoleUser,
				Content: mcpgo.NewTextContent(fmt.Sprintf("Translate the following text to %s:\n\n%s", target, text)),
			},
		},
	}, nil
}
