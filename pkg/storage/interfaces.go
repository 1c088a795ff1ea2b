// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package storage defines the persistence interfaces for registered MCP
// servers, their discovered capabilities, and A2A agent cards.
package storage

import (
	"context"
	"time"

	"github.com/stacklok/mcphub/pkg/mcp"
	"github.com/stacklok/mcphub/pkg/registry"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=interfaces.go Store

// Store defines the interface for registry persistence. Implementations must
// make every operation atomic; multi-row writes happen in one transaction.
type Store interface {
	// CreateServer stores a new server record together with its discovered
	// capability snapshot. Returns ErrAlreadyExists on a duplicate id.
	CreateServer(ctx context.Context, record registry.ServerRecord, caps mcp.Capabilities) error
	// GetServer retrieves a server record by id.
	GetServer(ctx context.Context, id string) (registry.ServerRecord, error)
	// GetCapabilities retrieves the stored capability snapshot for a server.
	GetCapabilities(ctx context.Context, id string) (mcp.Capabilities, error)
	// ListServers returns all server records matching the given filter,
	// newest registration first.
	ListServers(ctx context.Context, filter ServerFilter) ([]registry.ServerRecord, error)
	// UpdateServerStatus sets a server's status and, when lastVerified is
	// non-nil, its last verification time.
	UpdateServerStatus(ctx context.Context, id string, status registry.ServerStatus, lastVerified *time.Time) error
	// RecordVerification sets the server's status and verification time and
	// replaces its capability snapshot wholesale.
	RecordVerification(ctx context.Context, id string, status registry.ServerStatus, verifiedAt time.Time, caps mcp.Capabilities) error
	// DeleteServer removes a server and cascades to its capabilities.
	DeleteServer(ctx context.Context, id string) error
	// SearchCapabilities returns capability matches grouped per server for a
	// normalized query. Only servers with status active are searched.
	SearchCapabilities(ctx context.Context, query registry.SearchQuery) ([]registry.SearchMatch, error)

	// CreateAgent stores a new agent card record.
	CreateAgent(ctx context.Context, agent registry.Agent) error
	// GetAgent retrieves an agent by id.
	GetAgent(ctx context.Context, id string) (registry.Agent, error)
	// ListAgents returns all agents matching the given filter, newest
	// registration first.
	ListAgents(ctx context.Context, filter AgentFilter) ([]registry.Agent, error)
	// UpdateAgent replaces an agent's card and indexed fields. Registration
	// time and heartbeat are preserved.
	UpdateAgent(ctx context.Context, agent registry.Agent) error
	// TouchAgent records a heartbeat for an agent.
	TouchAgent(ctx context.Context, id string, at time.Time) error
	// DeleteAgent removes an agent by id.
	DeleteAgent(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

// ServerFilter configures filtering for ListServers.
type ServerFilter struct {
	// Type filters by transport type. Empty matches all types.
	Type registry.ServerType
	// Status filters by server status. Empty matches all statuses.
	Status registry.ServerStatus
}

// AgentFilter configures filtering for ListAgents.
type AgentFilter struct {
	// Skill matches agents declaring a skill with this id. Empty matches all.
	Skill string
	// Name matches agent names by case-insensitive substring. Empty matches all.
	Name string
	// Owner filters by exact owner. Empty matches all.
	Owner string
	// Streaming, PushNotifications and StateTransitionHistory each require
	// the corresponding capability flag when true.
	Streaming              bool
	PushNotifications      bool
	StateTransitionHistory bool
	// AliveAfter keeps only agents whose last heartbeat is at or after the
	// given time. Zero disables the check.
	AliveAfter time.Time
}
