// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package mcp defines the Model Context Protocol surface shared across
// mcphub: the protocol revision, JSON-RPC method names, capability
// descriptions, and the request/result shapes exchanged with backend
// servers. Higher layers (transports, sessions, the gateway) depend on this
// package and never redefine wire shapes locally.
package mcp

import (
	"encoding/json"
	"time"
)

// ProtocolVersion is the MCP revision mcphub speaks to backends during the
// initialize handshake.
const ProtocolVersion = "2024-11-05"

// JSON-RPC method names defined by MCP.
const (
	MethodInitialize    = "initialize"
	MethodPing          = "ping"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"
	MethodPromptsList   = "prompts/list"
	MethodPromptsGet    = "prompts/get"

	NotificationInitialized = "notifications/initialized"
	NotificationCancelled   = "notifications/cancelled"
)

// Deadlines and intervals shared across the module. Every component takes
// these as defaults so operators reason about one set of numbers.
const (
	DiscoveryTimeout   = 30 * time.Second // full capability discovery of one backend
	ListTimeout        = 10 * time.Second // a single tools/resources/prompts listing
	HealthCheckTimeout = 5 * time.Second  // pooled-connection liveness probe
	OperationTimeout   = 30 * time.Second // default per-call budget for proxied operations
	SSEPingInterval    = 10 * time.Second // gateway event-stream keepalive
	IdleTimeout        = 5 * time.Minute  // pooled connection eviction threshold
	IdleSweepInterval  = time.Minute      // janitor pass frequency
	ChildGracePeriod   = 5 * time.Second  // stdio child exit wait before kill
)

// Implementation identifies an MCP client or server by name and version.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities advertises optional client features. mcphub advertises
// none, but the object must be present in the handshake.
type ClientCapabilities struct{}

// InitializeParams is the payload of the initialize request.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult is the backend's half of the handshake. Server
// capabilities are kept raw; mcphub inspects them for logging only and never
// gates operations on them (a missing listing surfaces as an empty slice at
// discovery time instead).
type InitializeResult struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    json.RawMessage `json:"capabilities,omitempty"`
	ServerInfo      Implementation  `json:"serverInfo"`
}

// Tool describes a callable tool exposed by a backend.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// Resource describes a readable resource exposed by a backend.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
}

// PromptArgument describes one argument accepted by a prompt template.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Prompt describes a prompt template exposed by a backend.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// Capabilities is the full capability inventory of one backend.
type Capabilities struct {
	Tools     []Tool     `json:"tools"`
	Resources []Resource `json:"resources"`
	Prompts   []Prompt   `json:"prompts"`
}

// CapabilityCounts summarizes an inventory for registration and verification
// responses.
type CapabilityCounts struct {
	Tools     int `json:"tools"`
	Resources int `json:"resources"`
	Prompts   int `json:"prompts"`
}

// Counts returns the per-kind sizes of the inventory.
func (c Capabilities) Counts() CapabilityCounts {
	return CapabilityCounts{
		Tools:     len(c.Tools),
		Resources: len(c.Resources),
		Prompts:   len(c.Prompts),
	}
}

// IsEmpty reports whether the inventory has no capabilities of any kind.
func (c Capabilities) IsEmpty() bool {
	return len(c.Tools) == 0 && len(c.Resources) == 0 && len(c.Prompts) == 0
}

// ListToolsResult is the result of tools/list. Only the first page is
// consumed; the cursor is carried for completeness.
type ListToolsResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// ListResourcesResult is the result of resources/list.
type ListResourcesResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// ListPromptsResult is the result of prompts/list.
type ListPromptsResult struct {
	Prompts    []Prompt `json:"prompts"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// CallToolParams is the payload of tools/call.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// CallToolResult carries tool output. Content blocks pass through untouched
// so the gateway never loses modalities it does not understand. IsError is
// always emitted; callers distinguish tool-level failure from transport
// failure by it.
type CallToolResult struct {
	Content []json.RawMessage `json:"content"`
	IsError bool              `json:"isError"`
}

// ReadResourceParams is the payload of resources/read.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ReadResourceResult carries resource contents as raw blocks.
type ReadResourceResult struct {
	Contents []json.RawMessage `json:"contents"`
}

// GetPromptParams is the payload of prompts/get. Prompt arguments are
// string-valued per the protocol.
type GetPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// GetPromptResult carries rendered prompt messages as raw blocks.
type GetPromptResult struct {
	Description string            `json:"description,omitempty"`
	Messages    []json.RawMessage `json:"messages"`
}

// CancelledParams is the payload of notifications/cancelled, sent
// best-effort when a caller abandons an in-flight request.
type CancelledParams struct {
	RequestID any    `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}
