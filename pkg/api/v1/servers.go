// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/stacklok/mcphub/pkg/api/errors"
	"github.com/stacklok/mcphub/pkg/registry"
	"github.com/stacklok/mcphub/pkg/registry/registrysvc"
	"github.com/stacklok/mcphub/pkg/storage"
)

// RegistryRoutes defines the routes for MCP server registration and search.
type RegistryRoutes struct {
	service registrysvc.Service
}

// RegistryRouter creates a new router for the server registry endpoints.
func RegistryRouter(service registrysvc.Service) http.Handler {
	routes := RegistryRoutes{
		service: service,
	}

	r := chi.NewRouter()
	r.Post("/servers/register", apierrors.ErrorHandler(routes.registerServer))
	r.Get("/servers", apierrors.ErrorHandler(routes.listServers))
	r.Get("/servers/{serverID}", apierrors.ErrorHandler(routes.getServer))
	r.Post("/servers/{serverID}/verify", apierrors.ErrorHandler(routes.verifyServer))
	r.Delete("/servers/{serverID}", apierrors.ErrorHandler(routes.deleteServer))
	r.Get("/search", apierrors.ErrorHandler(routes.searchCapabilities))

	return r
}

// registerServer registers a new MCP server after discovering its capabilities.
//
//	@Summary		Register an MCP server
//	@Description	Validate the transport config, discover the backend's capabilities, and store both
//	@Tags			servers
//	@Accept			json
//	@Produce		json
//	@Param			request	body		registerServerRequest	true	"Registration request"
//	@Success		201		{object}	registrysvc.ServerDetail
//	@Failure		422		{string}	string	"Unprocessable Entity"
//	@Failure		503		{string}	string	"Service Unavailable"
//	@Router			/mcp/servers/register [post]
func (s *RegistryRoutes) registerServer(w http.ResponseWriter, r *http.Request) error {
	var req registerServerRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	detail, err := s.service.RegisterServer(r.Context(), registrysvc.RegisterServerRequest{
		Type:        req.Type,
		Description: req.Description,
		Config:      req.Config,
	})
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusCreated, detail)
}

// listServers returns all registered servers.
//
//	@Summary		List registered servers
//	@Description	Get all registered servers with capability counts, newest first
//	@Tags			servers
//	@Produce		json
//	@Param			type	query		string	false	"Filter by transport type"	Enums(stdio, http, sse)
//	@Param			status	query		string	false	"Filter by status"	Enums(active, inactive, error)
//	@Success		200		{array}		registrysvc.ServerSummary
//	@Failure		422		{string}	string	"Unprocessable Entity"
//	@Router			/mcp/servers [get]
func (s *RegistryRoutes) listServers(w http.ResponseWriter, r *http.Request) error {
	var filter storage.ServerFilter

	if raw := r.URL.Query().Get("type"); raw != "" {
		serverType, err := registry.ParseServerType(raw)
		if err != nil {
			return err
		}
		filter.Type = serverType
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := registry.ParseServerStatus(raw)
		if err != nil {
			return err
		}
		filter.Status = status
	}

	summaries, err := s.service.ListServers(r.Context(), filter)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, summaries)
}

// getServer returns one server with its full capability snapshot.
//
//	@Summary		Get server details
//	@Description	Get a registered server with its full capability snapshot
//	@Tags			servers
//	@Produce		json
//	@Param			serverID	path		string	true	"Server ID"
//	@Success		200			{object}	registrysvc.ServerDetail
//	@Failure		404			{string}	string	"Not Found"
//	@Router			/mcp/servers/{serverID} [get]
func (s *RegistryRoutes) getServer(w http.ResponseWriter, r *http.Request) error {
	detail, err := s.service.GetServer(r.Context(), chi.URLParam(r, "serverID"))
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, detail)
}

// verifyServer re-checks that a registered server is reachable.
//
//	@Summary		Verify a server
//	@Description	Re-run discovery against a registered server and refresh its stored capabilities
//	@Tags			servers
//	@Produce		json
//	@Param			serverID	path		string	true	"Server ID"
//	@Success		200			{object}	registrysvc.VerifyResult
//	@Failure		404			{string}	string	"Not Found"
//	@Failure		503			{string}	string	"Service Unavailable"
//	@Router			/mcp/servers/{serverID}/verify [post]
func (s *RegistryRoutes) verifyServer(w http.ResponseWriter, r *http.Request) error {
	result, err := s.service.VerifyServer(r.Context(), chi.URLParam(r, "serverID"))
	if err != nil {
		// A failed verification reports its cause to the caller; the server
		// stays registered, marked status error.
		var verr *registrysvc.VerificationError
		if errors.As(err, &verr) {
			http.Error(w, fmt.Sprintf("Server verification failed: %v", verr.Cause), http.StatusServiceUnavailable)
			return nil
		}
		return err
	}
	return respondJSON(w, http.StatusOK, result)
}

// deleteServer removes a server from the registry.
//
//	@Summary		Delete a server
//	@Description	Close any live gateway session and remove the server with its capabilities
//	@Tags			servers
//	@Param			serverID	path		string	true	"Server ID"
//	@Success		204			{string}	string	"No Content"
//	@Failure		404			{string}	string	"Not Found"
//	@Router			/mcp/servers/{serverID} [delete]
func (s *RegistryRoutes) deleteServer(w http.ResponseWriter, r *http.Request) error {
	if err := s.service.DeleteServer(r.Context(), chi.URLParam(r, "serverID")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// searchCapabilities searches capabilities across active servers.
//
//	@Summary		Search capabilities
//	@Description	Match tools, resources, and prompts of active servers against a query, grouped per server
//	@Tags			servers
//	@Produce		json
//	@Param			query	query		string	false	"Case-insensitive substring to match"
//	@Param			kind	query		string	false	"Restrict to one capability kind"	Enums(tool, resource, prompt)
//	@Param			type	query		string	false	"Restrict to one transport type"	Enums(stdio, http, sse)
//	@Param			limit	query		int		false	"Maximum matched servers (1-1000, default 10)"
//	@Success		200		{array}		registry.SearchMatch
//	@Failure		422		{string}	string	"Unprocessable Entity"
//	@Router			/mcp/search [get]
func (s *RegistryRoutes) searchCapabilities(w http.ResponseWriter, r *http.Request) error {
	// The default applies only when the parameter is absent; an explicit
	// limit of 0 must reach validation and be rejected.
	query := registry.SearchQuery{
		Query: r.URL.Query().Get("query"),
		Limit: registry.SearchLimitDefault,
	}

	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := registry.ParseCapabilityKind(raw)
		if err != nil {
			return err
		}
		query.Kinds = []registry.CapabilityKind{kind}
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		serverType, err := registry.ParseServerType(raw)
		if err != nil {
			return err
		}
		query.Type = serverType
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: limit %q is not an integer", registry.ErrInvalidSearch, raw)
		}
		query.Limit = limit
	}

	matches, err := s.service.SearchCapabilities(r.Context(), query)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, matches)
}

// Response types

// registerServerRequest is the body of a server registration.
type registerServerRequest struct {
	// Type is the transport kind: stdio, http, or sse.
	Type string `json:"type"`
	// Description is optional free text.
	Description string `json:"description,omitempty"`
	// Config holds the transport-specific connection settings.
	Config registry.ServerConfig `json:"config"`
}
