// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client connects mcphub to backend MCP servers. It provides
// one-shot capability discovery for registration and verification, and a
// connection manager that pools long-lived sessions for gateway traffic.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/stacklok/toolhive-core/httperr"

	"github.com/stacklok/mcphub/pkg/logger"
	"github.com/stacklok/mcphub/pkg/mcp"
	"github.com/stacklok/mcphub/pkg/registry"
	"github.com/stacklok/mcphub/pkg/session"
	"github.com/stacklok/mcphub/pkg/transport"
)

// DiscoverFunc matches Discover so callers can substitute discovery in tests.
type DiscoverFunc func(ctx context.Context, serverType registry.ServerType, config registry.ServerConfig) (mcp.Capabilities, error)

// Discover connects to a backend once, runs the initialize handshake, and
// collects its capability inventory. Each listing is best-effort: a kind the
// server does not implement comes back as an empty slice. A server that
// fails transport open or initialize is not discovered and the error aborts
// the surrounding registration.
func Discover(ctx context.Context, serverType registry.ServerType, config registry.ServerConfig) (mcp.Capabilities, error) {
	ctx, cancel := context.WithTimeout(ctx, mcp.DiscoveryTimeout)
	defer cancel()

	target := configTarget(config)

	tr, err := transport.New(serverType, config)
	if err != nil {
		return mcp.Capabilities{}, httperr.WithCode(err, http.StatusUnprocessableEntity)
	}

	sess := session.New(tr)
	if _, err := sess.Start(ctx); err != nil {
		return mcp.Capabilities{}, wrapBackendError(err, target, "initialize session")
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Debugf("Closing discovery session for %s: %v", target, err)
		}
	}()

	caps := mcp.Capabilities{
		Tools:     []mcp.Tool{},
		Resources: []mcp.Resource{},
		Prompts:   []mcp.Prompt{},
	}

	toolsCtx, cancelTools := context.WithTimeout(ctx, mcp.ListTimeout)
	tools, err := sess.ListTools(toolsCtx)
	cancelTools()
	if err != nil {
		logger.Debugf("Backend %s did not list tools: %v", target, err)
	} else if tools.Tools != nil {
		caps.Tools = tools.Tools
	}

	resourcesCtx, cancelResources := context.WithTimeout(ctx, mcp.ListTimeout)
	resources, err := sess.ListResources(resourcesCtx)
	cancelResources()
	if err != nil {
		logger.Debugf("Backend %s did not list resources: %v", target, err)
	} else if resources.Resources != nil {
		caps.Resources = resources.Resources
	}

	promptsCtx, cancelPrompts := context.WithTimeout(ctx, mcp.ListTimeout)
	prompts, err := sess.ListPrompts(promptsCtx)
	cancelPrompts()
	if err != nil {
		logger.Debugf("Backend %s did not list prompts: %v", target, err)
	} else if prompts.Prompts != nil {
		caps.Prompts = prompts.Prompts
	}

	return caps, nil
}

// configTarget names a backend in logs and errors before it has an id.
func configTarget(config registry.ServerConfig) string {
	if config.URL != "" {
		return config.URL
	}
	return config.Command
}

// wrapBackendError classifies a backend failure under the matching sentinel
// so callers can branch with errors.Is. The original error is flattened into
// the message. Structured JSON-RPC errors pass through untouched so the
// gateway can put them back on the wire.
func wrapBackendError(err error, serverID string, operation string) error {
	if err == nil {
		return nil
	}

	var perr *mcp.ProtocolError
	if errors.As(err, &perr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, session.ErrTimeout) {
		return fmt.Errorf("%w: failed to %s for server %s: %v", session.ErrTimeout, operation, serverID, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, session.ErrCancelled) {
		return fmt.Errorf("%w: failed to %s for server %s: %v", session.ErrCancelled, operation, serverID, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: failed to %s for server %s: %v", session.ErrTimeout, operation, serverID, err)
	}

	return fmt.Errorf("%w: failed to %s for server %s: %v", ErrUnavailable, operation, serverID, err)
}