// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/stacklok/mcphub/pkg/api/errors"
	"github.com/stacklok/mcphub/pkg/registry"
	"github.com/stacklok/mcphub/pkg/registry/registrysvc"
	"github.com/stacklok/mcphub/pkg/storage"
)

// AgentRoutes defines the routes for the A2A agent card registry.
type AgentRoutes struct {
	service registrysvc.Service
}

// AgentsRouter creates a new router for the agent registry endpoints.
func AgentsRouter(service registrysvc.Service) http.Handler {
	routes := AgentRoutes{
		service: service,
	}

	r := chi.NewRouter()
	r.Post("/register", apierrors.ErrorHandler(routes.registerAgent))
	r.Get("/", apierrors.ErrorHandler(routes.listAgents))
	r.Get("/{agentID}", apierrors.ErrorHandler(routes.getAgent))
	r.Put("/{agentID}", apierrors.ErrorHandler(routes.updateAgent))
	r.Delete("/{agentID}", apierrors.ErrorHandler(routes.deleteAgent))
	r.Post("/{agentID}/heartbeat", apierrors.ErrorHandler(routes.heartbeatAgent))
	// The underscore spelling is the wire format clients already use; the
	// hyphenated alias is kept for consistency with the rest of the API.
	r.Get("/{agentID}/invoke_url", apierrors.ErrorHandler(routes.getInvokeURL))
	r.Get("/{agentID}/invoke-url", apierrors.ErrorHandler(routes.getInvokeURL))

	return r
}

// registerAgent registers an agent from its card.
//
//	@Summary		Register an agent
//	@Description	Validate an A2A agent card and store it
//	@Tags			agents
//	@Accept			json
//	@Produce		json
//	@Param			card	body		object	true	"Agent card"
//	@Success		201		{object}	object	"Stored card with registry metadata"
//	@Failure		409		{string}	string	"Conflict"
//	@Failure		422		{string}	string	"Unprocessable Entity"
//	@Router			/agents/register [post]
func (s *AgentRoutes) registerAgent(w http.ResponseWriter, r *http.Request) error {
	card, err := readBody(r)
	if err != nil {
		return err
	}

	agent, err := s.service.RegisterAgent(r.Context(), card)
	if err != nil {
		return err
	}

	doc, err := agentDocument(agent)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusCreated, doc)
}

// listAgents returns all registered agents.
//
//	@Summary		List agents
//	@Description	Get all registered agents, newest first, with optional filters
//	@Tags			agents
//	@Produce		json
//	@Param			skill			query		string	false	"Require a declared skill id"
//	@Param			name			query		string	false	"Case-insensitive name substring"
//	@Param			owner			query		string	false	"Exact owner"
//	@Param			capabilities	query		string	false	"Comma-separated capability flags to require"
//	@Param			only_alive		query		bool	false	"Keep only agents with a recent heartbeat"
//	@Success		200				{array}		object
//	@Router			/agents [get]
func (s *AgentRoutes) listAgents(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	filter := storage.AgentFilter{
		Skill: query.Get("skill"),
		Name:  query.Get("name"),
		Owner: query.Get("owner"),
	}

	for _, capability := range strings.Split(query.Get("capabilities"), ",") {
		switch strings.TrimSpace(capability) {
		case "streaming":
			filter.Streaming = true
		case "push_notifications", "pushNotifications":
			filter.PushNotifications = true
		case "state_transition_history", "stateTransitionHistory":
			filter.StateTransitionHistory = true
		}
	}

	if alive, err := strconv.ParseBool(query.Get("only_alive")); err == nil && alive {
		filter.AliveAfter = time.Now().UTC().Add(-registry.AliveWindow)
	}

	agents, err := s.service.ListAgents(r.Context(), filter)
	if err != nil {
		return err
	}

	docs := make([]map[string]any, 0, len(agents))
	for _, agent := range agents {
		doc, err := agentDocument(agent)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	return respondJSON(w, http.StatusOK, docs)
}

// getAgent returns one agent.
//
//	@Summary		Get an agent
//	@Description	Get a registered agent's card with registry metadata
//	@Tags			agents
//	@Produce		json
//	@Param			agentID	path		string	true	"Agent ID"
//	@Success		200		{object}	object
//	@Failure		404		{string}	string	"Not Found"
//	@Router			/agents/{agentID} [get]
func (s *AgentRoutes) getAgent(w http.ResponseWriter, r *http.Request) error {
	agent, err := s.service.GetAgent(r.Context(), chi.URLParam(r, "agentID"))
	if err != nil {
		return err
	}

	doc, err := agentDocument(agent)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, doc)
}

// updateAgent replaces an agent's card.
//
//	@Summary		Update an agent
//	@Description	Replace a registered agent's card wholesale after re-validation
//	@Tags			agents
//	@Accept			json
//	@Produce		json
//	@Param			agentID	path		string	true	"Agent ID"
//	@Param			card	body		object	true	"Replacement agent card"
//	@Success		200		{object}	object
//	@Failure		404		{string}	string	"Not Found"
//	@Failure		422		{string}	string	"Unprocessable Entity"
//	@Router			/agents/{agentID} [put]
func (s *AgentRoutes) updateAgent(w http.ResponseWriter, r *http.Request) error {
	card, err := readBody(r)
	if err != nil {
		return err
	}

	agent, err := s.service.UpdateAgent(r.Context(), chi.URLParam(r, "agentID"), card)
	if err != nil {
		return err
	}

	doc, err := agentDocument(agent)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, doc)
}

// deleteAgent removes an agent.
//
//	@Summary		Delete an agent
//	@Description	Remove a registered agent
//	@Tags			agents
//	@Param			agentID	path		string	true	"Agent ID"
//	@Success		204		{string}	string	"No Content"
//	@Failure		404		{string}	string	"Not Found"
//	@Router			/agents/{agentID} [delete]
func (s *AgentRoutes) deleteAgent(w http.ResponseWriter, r *http.Request) error {
	if err := s.service.DeleteAgent(r.Context(), chi.URLParam(r, "agentID")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// heartbeatAgent records an agent liveness signal.
//
//	@Summary		Agent heartbeat
//	@Description	Record a liveness signal and return the refreshed agent
//	@Tags			agents
//	@Produce		json
//	@Param			agentID	path		string	true	"Agent ID"
//	@Success		200		{object}	object
//	@Failure		404		{string}	string	"Not Found"
//	@Router			/agents/{agentID}/heartbeat [post]
func (s *AgentRoutes) heartbeatAgent(w http.ResponseWriter, r *http.Request) error {
	agent, err := s.service.HeartbeatAgent(r.Context(), chi.URLParam(r, "agentID"))
	if err != nil {
		return err
	}

	doc, err := agentDocument(agent)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, doc)
}

// getInvokeURL returns the endpoint a caller uses to reach an agent.
//
//	@Summary		Get the invoke URL
//	@Description	Get the endpoint declared in the agent's card
//	@Tags			agents
//	@Produce		json
//	@Param			agentID	path		string	true	"Agent ID"
//	@Success		200		{object}	invokeURLResponse
//	@Failure		404		{string}	string	"Not Found"
//	@Router			/agents/{agentID}/invoke_url [get]
func (s *AgentRoutes) getInvokeURL(w http.ResponseWriter, r *http.Request) error {
	agent, err := s.service.GetAgent(r.Context(), chi.URLParam(r, "agentID"))
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, invokeURLResponse{
		ID:        agent.ID,
		Name:      agent.Name,
		InvokeURL: agent.URL,
	})
}

// agentDocument merges the stored card with registry metadata, so responses
// carry the full submitted document plus the fields the registry maintains.
func agentDocument(agent registry.Agent) (map[string]any, error) {
	doc := make(map[string]any)
	if len(agent.Card) > 0 {
		if err := json.Unmarshal(agent.Card, &doc); err != nil {
			return nil, fmt.Errorf("decoding stored card for agent %s: %w", agent.ID, err)
		}
	}

	doc["id"] = agent.ID
	if agent.Owner != "" {
		doc["owner"] = agent.Owner
	}
	doc["created_at"] = agent.CreatedAt
	doc["updated_at"] = agent.UpdatedAt
	if agent.LastHeartbeat != nil {
		doc["last_heartbeat"] = *agent.LastHeartbeat
	}
	return doc, nil
}

// Response types

// invokeURLResponse points a caller at an agent's declared endpoint.
type invokeURLResponse struct {
	// ID is the agent's registry identifier.
	ID string `json:"id"`
	// Name is the agent's declared name.
	Name string `json:"name"`
	// InvokeURL is the endpoint from the agent's card.
	InvokeURL string `json:"invoke_url"`
}
