// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package registrysvc implements the registry workflows behind the HTTP
// surface: registration with one-shot capability discovery, re-verification,
// capability search, and the agent card lifecycle.
package registrysvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/toolhive-core/httperr"

	"github.com/stacklok/mcphub/pkg/client"
	"github.com/stacklok/mcphub/pkg/logger"
	"github.com/stacklok/mcphub/pkg/mcp"
	"github.com/stacklok/mcphub/pkg/registry"
	"github.com/stacklok/mcphub/pkg/storage"
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go Service

// Service exposes the registry operations consumed by the API handlers.
type Service interface {
	// RegisterServer validates a registration, discovers the backend's
	// capabilities, and stores both atomically. The server is rejected when
	// discovery fails.
	RegisterServer(ctx context.Context, req RegisterServerRequest) (ServerDetail, error)
	// GetServer returns one server record with its full capability snapshot.
	GetServer(ctx context.Context, id string) (ServerDetail, error)
	// ListServers returns matching server records newest-first, each with
	// capability counts.
	ListServers(ctx context.Context, filter storage.ServerFilter) ([]ServerSummary, error)
	// VerifyServer re-runs discovery against a registered server and records
	// the outcome. On success the stored capability snapshot is replaced
	// wholesale; on failure the server is marked status error and the
	// returned error unwraps to *VerificationError.
	VerifyServer(ctx context.Context, id string) (VerifyResult, error)
	// DeleteServer closes any pooled session for the server and removes the
	// record with its capabilities.
	DeleteServer(ctx context.Context, id string) error
	// SearchCapabilities matches capabilities of active servers against a
	// query, grouped per server.
	SearchCapabilities(ctx context.Context, query registry.SearchQuery) ([]registry.SearchMatch, error)

	// RegisterAgent validates an agent card and stores it. The card may name
	// its own id; otherwise the registry issues one.
	RegisterAgent(ctx context.Context, card []byte) (registry.Agent, error)
	// GetAgent returns one agent by id.
	GetAgent(ctx context.Context, id string) (registry.Agent, error)
	// ListAgents returns matching agents newest-first.
	ListAgents(ctx context.Context, filter storage.AgentFilter) ([]registry.Agent, error)
	// UpdateAgent replaces an agent's card wholesale after re-validation.
	// Identity, registration time, and heartbeat history are preserved.
	UpdateAgent(ctx context.Context, id string, card []byte) (registry.Agent, error)
	// HeartbeatAgent records a liveness signal and returns the refreshed
	// agent.
	HeartbeatAgent(ctx context.Context, id string) (registry.Agent, error)
	// DeleteAgent removes an agent by id.
	DeleteAgent(ctx context.Context, id string) error
}

// RegisterServerRequest carries the fields of a server registration. Type is
// kept raw so parse failures surface as validation errors here, not in the
// handler.
type RegisterServerRequest struct {
	Type        string
	Description string
	Config      registry.ServerConfig
}

// ServerDetail pairs a server record with its full capability snapshot.
type ServerDetail struct {
	registry.ServerRecord
	Capabilities mcp.Capabilities `json:"capabilities"`
}

// ServerSummary pairs a server record with capability counts for listings.
type ServerSummary struct {
	registry.ServerRecord
	Capabilities mcp.CapabilityCounts `json:"capabilities"`
}

// VerifyResult reports a successful verification.
type VerifyResult struct {
	ServerID     string                `json:"server_id"`
	Status       registry.ServerStatus `json:"status"`
	Message      string                `json:"message"`
	Capabilities mcp.Capabilities      `json:"capabilities"`
}

// verifiedMessage is returned in VerifyResult when the backend responds.
const verifiedMessage = "Server is reachable and responding"

// VerificationError reports that a server failed verification. The record
// still exists, marked status error; Cause is the discovery failure.
// Extracted using errors.As().
type VerificationError struct {
	Cause error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("server verification failed: %v", e.Cause)
}

func (e *VerificationError) Unwrap() error {
	return e.Cause
}

// service is the default implementation of Service.
type service struct {
	store    storage.Store
	pool     *client.Manager
	discover client.DiscoverFunc
}

// Option configures the service.
type Option func(*service)

// WithDiscoverer replaces the capability discovery function, primarily for
// tests.
func WithDiscoverer(fn client.DiscoverFunc) Option {
	return func(s *service) {
		s.discover = fn
	}
}

// New creates a Service backed by the given store and connection pool.
func New(store storage.Store, pool *client.Manager, opts ...Option) Service {
	svc := &service{
		store:    store,
		pool:     pool,
		discover: client.Discover,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *service) RegisterServer(ctx context.Context, req RegisterServerRequest) (ServerDetail, error) {
	serverType, err := registry.ParseServerType(req.Type)
	if err != nil {
		return ServerDetail{}, err
	}

	config := req.Config
	config.Normalize(serverType)
	if err := config.Validate(serverType); err != nil {
		return ServerDetail{}, err
	}

	// Discovery gates registration: a backend that cannot complete the
	// handshake never enters the catalog.
	caps, err := s.discover(ctx, serverType, config)
	if err != nil {
		return ServerDetail{}, err
	}

	now := time.Now().UTC()
	record := registry.ServerRecord{
		ID:           uuid.NewString(),
		Type:         serverType,
		Description:  strings.TrimSpace(req.Description),
		Config:       config,
		Status:       registry.ServerStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastVerified: &now,
	}

	if err := s.store.CreateServer(ctx, record, caps); err != nil {
		return ServerDetail{}, err
	}

	counts := caps.Counts()
	logger.Infof("Registered %s server %s (%d tools, %d resources, %d prompts)",
		record.Type, record.ID, counts.Tools, counts.Resources, counts.Prompts)
	return ServerDetail{ServerRecord: record, Capabilities: caps}, nil
}

func (s *service) GetServer(ctx context.Context, id string) (ServerDetail, error) {
	record, err := s.store.GetServer(ctx, id)
	if err != nil {
		return ServerDetail{}, err
	}
	caps, err := s.store.GetCapabilities(ctx, id)
	if err != nil {
		return ServerDetail{}, err
	}
	return ServerDetail{ServerRecord: record, Capabilities: caps}, nil
}

func (s *service) ListServers(ctx context.Context, filter storage.ServerFilter) ([]ServerSummary, error) {
	records, err := s.store.ListServers(ctx, filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]ServerSummary, 0, len(records))
	for _, record := range records {
		caps, err := s.store.GetCapabilities(ctx, record.ID)
		if err != nil {
			// The server may have been deleted between the listing and this
			// lookup; skip it rather than failing the whole page.
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		summaries = append(summaries, ServerSummary{ServerRecord: record, Capabilities: caps.Counts()})
	}
	return summaries, nil
}

func (s *service) VerifyServer(ctx context.Context, id string) (VerifyResult, error) {
	record, err := s.store.GetServer(ctx, id)
	if err != nil {
		return VerifyResult{}, err
	}

	caps, err := s.discover(ctx, record.Type, record.Config)
	now := time.Now().UTC()
	if err != nil {
		if updateErr := s.store.UpdateServerStatus(ctx, id, registry.ServerStatusError, &now); updateErr != nil {
			logger.Errorf("Recording failed verification for server %s: %v", id, updateErr)
		}
		logger.Warnf("Verification failed for server %s: %v", id, err)
		return VerifyResult{}, httperr.WithCode(&VerificationError{Cause: err}, http.StatusServiceUnavailable)
	}

	if err := s.store.RecordVerification(ctx, id, registry.ServerStatusActive, now, caps); err != nil {
		return VerifyResult{}, err
	}

	logger.Infof("Verified server %s", id)
	return VerifyResult{
		ServerID:     id,
		Status:       registry.ServerStatusActive,
		Message:      verifiedMessage,
		Capabilities: caps,
	}, nil
}

func (s *service) DeleteServer(ctx context.Context, id string) error {
	// Close any live session before the record disappears, so the gateway
	// cannot keep proxying to an unregistered server.
	s.pool.Disconnect(id)

	if err := s.store.DeleteServer(ctx, id); err != nil {
		return err
	}
	logger.Infof("Deleted server %s", id)
	return nil
}

func (s *service) SearchCapabilities(ctx context.Context, query registry.SearchQuery) ([]registry.SearchMatch, error) {
	query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	matches, err := s.store.SearchCapabilities(ctx, query)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []registry.SearchMatch{}
	}
	return matches, nil
}

func (s *service) RegisterAgent(ctx context.Context, card []byte) (registry.Agent, error) {
	if err := registry.ValidateAgentCard(card); err != nil {
		return registry.Agent{}, err
	}
	agent, err := registry.AgentFromCard(card)
	if err != nil {
		return registry.Agent{}, err
	}

	agent.ID = cardID(card)
	if agent.ID == "" {
		agent.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	agent.CreatedAt = now
	agent.UpdatedAt = now

	if err := s.store.CreateAgent(ctx, *agent); err != nil {
		return registry.Agent{}, err
	}

	logger.Infof("Registered agent %s (%s)", agent.ID, agent.Name)
	return *agent, nil
}

func (s *service) GetAgent(ctx context.Context, id string) (registry.Agent, error) {
	return s.store.GetAgent(ctx, id)
}

func (s *service) ListAgents(ctx context.Context, filter storage.AgentFilter) ([]registry.Agent, error) {
	return s.store.ListAgents(ctx, filter)
}

func (s *service) UpdateAgent(ctx context.Context, id string, card []byte) (registry.Agent, error) {
	existing, err := s.store.GetAgent(ctx, id)
	if err != nil {
		return registry.Agent{}, err
	}

	if err := registry.ValidateAgentCard(card); err != nil {
		return registry.Agent{}, err
	}
	agent, err := registry.AgentFromCard(card)
	if err != nil {
		return registry.Agent{}, err
	}

	// The update replaces the card, never the identity or history.
	agent.ID = existing.ID
	agent.CreatedAt = existing.CreatedAt
	agent.LastHeartbeat = existing.LastHeartbeat
	if agent.Owner == "" {
		agent.Owner = existing.Owner
	}
	agent.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateAgent(ctx, *agent); err != nil {
		return registry.Agent{}, err
	}
	return *agent, nil
}

func (s *service) HeartbeatAgent(ctx context.Context, id string) (registry.Agent, error) {
	if err := s.store.TouchAgent(ctx, id, time.Now().UTC()); err != nil {
		return registry.Agent{}, err
	}
	return s.store.GetAgent(ctx, id)
}

func (s *service) DeleteAgent(ctx context.Context, id string) error {
	if err := s.store.DeleteAgent(ctx, id); err != nil {
		return err
	}
	logger.Infof("Deleted agent %s", id)
	return nil
}

// cardID extracts a caller-supplied identifier from an agent card, if any.
func cardID(card []byte) string {
	var ident struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(card, &ident); err != nil {
		return ""
	}
	return strings.TrimSpace(ident.ID)
}
