// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package registry defines the domain types of the mcphub catalog: MCP
// server records with their transport configurations, capability search
// queries and matches, and A2A agent cards.
package registry

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ServerType identifies how mcphub reaches a registered MCP server.
type ServerType string

const (
	// ServerTypeStdio runs the server as a child process speaking MCP over
	// stdin/stdout.
	ServerTypeStdio ServerType = "stdio"
	// ServerTypeHTTP reaches the server over streamable HTTP.
	ServerTypeHTTP ServerType = "http"
	// ServerTypeSSE reaches the server over the legacy HTTP+SSE pairing.
	ServerTypeSSE ServerType = "sse"
)

// ParseServerType converts a string to a ServerType.
func ParseServerType(s string) (ServerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ServerTypeStdio):
		return ServerTypeStdio, nil
	case string(ServerTypeHTTP):
		return ServerTypeHTTP, nil
	case string(ServerTypeSSE):
		return ServerTypeSSE, nil
	default:
		return "", fmt.Errorf("%w: unknown server type %q", ErrInvalidConfig, s)
	}
}

// ServerStatus is the registry's view of a server's reachability.
type ServerStatus string

const (
	// ServerStatusActive means the last registration or verification succeeded.
	ServerStatusActive ServerStatus = "active"
	// ServerStatusInactive marks a server an operator has parked. It is never
	// set automatically.
	ServerStatusInactive ServerStatus = "inactive"
	// ServerStatusError means the last verification failed.
	ServerStatusError ServerStatus = "error"
)

// ParseServerStatus converts a string to a ServerStatus.
func ParseServerStatus(s string) (ServerStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ServerStatusActive):
		return ServerStatusActive, nil
	case string(ServerStatusInactive):
		return ServerStatusInactive, nil
	case string(ServerStatusError):
		return ServerStatusError, nil
	default:
		return "", fmt.Errorf("%w: unknown server status %q", ErrInvalidConfig, s)
	}
}

// ServerConfig holds the transport-specific connection settings for one
// server. Which fields apply depends on the server type; Normalize drops the
// fields that do not.
type ServerConfig struct {
	// Command is the executable to spawn for stdio servers.
	Command string `json:"command,omitempty"`
	// Args are the arguments passed to Command.
	Args []string `json:"args,omitempty"`
	// Env is merged into the child environment for stdio servers.
	Env map[string]string `json:"env,omitempty"`
	// URL is the endpoint for http and sse servers.
	URL string `json:"url,omitempty"`
	// Headers are sent with every request to http and sse servers.
	Headers map[string]string `json:"headers,omitempty"`
}

// Normalize trims whitespace and drops fields that do not apply to the given
// server type, so stored configs never carry cross-type leftovers.
func (c *ServerConfig) Normalize(t ServerType) {
	c.Command = strings.TrimSpace(c.Command)
	c.URL = strings.TrimSpace(c.URL)

	switch t {
	case ServerTypeStdio:
		c.URL = ""
		c.Headers = nil
	case ServerTypeHTTP, ServerTypeSSE:
		c.Command = ""
		c.Args = nil
		c.Env = nil
	}
}

// Validate checks the transport-specific requirements for the given server
// type. Violations are ErrInvalidConfig-wrapped.
func (c ServerConfig) Validate(t ServerType) error {
	switch t {
	case ServerTypeStdio:
		if c.Command == "" {
			return fmt.Errorf("%w: command is required for stdio servers", ErrInvalidConfig)
		}
	case ServerTypeHTTP, ServerTypeSSE:
		if c.URL == "" {
			return fmt.Errorf("%w: url is required for %s servers", ErrInvalidConfig, t)
		}
		u, err := url.Parse(c.URL)
		if err != nil {
			return fmt.Errorf("%w: url %q is not valid: %v", ErrInvalidConfig, c.URL, err)
		}
		if !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("%w: url %q must be absolute", ErrInvalidConfig, c.URL)
		}
	default:
		return fmt.Errorf("%w: unknown server type %q", ErrInvalidConfig, t)
	}
	return nil
}

// ServerRecord is a registered MCP server as stored by the repository.
// Capabilities live in their own tables and travel separately.
type ServerRecord struct {
	// ID is the registry-issued unique identifier.
	ID string `json:"id"`
	// Type is the transport kind, immutable after creation.
	Type ServerType `json:"type"`
	// Description is optional free text.
	Description string `json:"description,omitempty"`
	// Config holds the transport-specific connection settings.
	Config ServerConfig `json:"config"`
	// Status reflects the last registration or verification outcome.
	Status ServerStatus `json:"status"`
	// CreatedAt is set once at registration.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt changes on every mutation.
	UpdatedAt time.Time `json:"updated_at"`
	// LastVerified is the time of the most recent verification attempt,
	// successful or not, if any.
	LastVerified *time.Time `json:"last_verified,omitempty"`
}
