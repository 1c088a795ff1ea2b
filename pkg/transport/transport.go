// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package transport provides the adapters that carry framed MCP messages to
// a downstream server over child-process stdio, streamable HTTP, or SSE.
package transport

import (
	"context"

	"golang.org/x/exp/jsonrpc2"
)

// maxMessageSize caps a single framed message read from a backend.
const maxMessageSize = 10 * 1024 * 1024

// Transport carries framed JSON-RPC messages to and from one downstream MCP
// server. Open returns only once the channel can carry a first request.
// Close is idempotent and waits for resource reclamation.
type Transport interface {
	// Open establishes the channel. The context bounds establishment only,
	// not the transport's lifetime.
	Open(ctx context.Context) error
	// ReadMessage blocks for the next inbound message. Messages are returned
	// in the order the backend sent them.
	ReadMessage(ctx context.Context) (jsonrpc2.Message, error)
	// WriteMessage sends one message. Writes are never reordered.
	WriteMessage(ctx context.Context, msg jsonrpc2.Message) error
	// Close tears the channel down and reclaims resources.
	Close() error
}
