// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/toolhive-core/httperr"

	apierrors "github.com/stacklok/mcphub/pkg/api/errors"
	"github.com/stacklok/mcphub/pkg/client"
	"github.com/stacklok/mcphub/pkg/mcp"
	"github.com/stacklok/mcphub/pkg/storage"
)

// jsonRPCVersion is the version string stamped on every gateway envelope.
const jsonRPCVersion = "2.0"

// GatewayRoutes defines the routes that proxy MCP operations to registered
// backends over pooled sessions.
type GatewayRoutes struct {
	store storage.Store
	pool  *client.Manager
}

// GatewayRouter creates a new router for the MCP gateway endpoints.
func GatewayRouter(store storage.Store, pool *client.Manager) http.Handler {
	routes := GatewayRoutes{
		store: store,
		pool:  pool,
	}

	r := chi.NewRouter()
	r.Get("/health", apierrors.ErrorHandler(routes.getGatewayHealth))
	r.Route("/{serverID}", func(r chi.Router) {
		r.Post("/message", apierrors.ErrorHandler(routes.postMessage))
		r.Post("/tools/{toolName}", apierrors.ErrorHandler(routes.callTool))
		r.Post("/resources/read", apierrors.ErrorHandler(routes.readResource))
		r.Post("/prompts/get", apierrors.ErrorHandler(routes.getPrompt))
		r.Get("/sse", apierrors.ErrorHandler(routes.streamEvents))
		r.Get("/status", apierrors.ErrorHandler(routes.getStatus))
		r.Post("/disconnect", apierrors.ErrorHandler(routes.disconnect))
	})

	return r
}

// postMessage forwards a raw JSON-RPC request to a backend server.
//
//	@Summary		Send a JSON-RPC message
//	@Description	Forward a JSON-RPC request to the backend and return the response envelope
//	@Tags			gateway
//	@Accept			json
//	@Produce		json
//	@Param			serverID	path		string		true	"Server ID"
//	@Param			request		body		rpcRequest	true	"JSON-RPC request"
//	@Success		200			{object}	rpcResponse
//	@Failure		404			{string}	string	"Not Found"
//	@Failure		503			{string}	string	"Service Unavailable"
//	@Failure		504			{string}	string	"Gateway Timeout"
//	@Router			/mcp/gateway/{serverID}/message [post]
func (s *GatewayRoutes) postMessage(w http.ResponseWriter, r *http.Request) error {
	serverID := chi.URLParam(r, "serverID")

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// A body that does not parse is still answered on the JSON-RPC
		// channel rather than with an HTTP failure.
		return writeRPCError(w, nil, mcp.CodeParseError, "Parse error")
	}

	result, rpcErr, err := s.dispatch(r.Context(), serverID, req)
	if err != nil {
		return err
	}
	if rpcErr != nil {
		return writeRPCError(w, req.ID, rpcErr.Code, rpcErr.Message)
	}
	return respondJSON(w, http.StatusOK, rpcResponse{
		JSONRPC: jsonRPCVersion,
		ID:      normalizeRPCID(req.ID),
		Result:  result,
	})
}

// dispatch routes one JSON-RPC request to the matching pooled operation. It
// returns exactly one of: a result, an envelope error, or an HTTP-level
// error.
func (s *GatewayRoutes) dispatch(ctx context.Context, serverID string, req rpcRequest) (any, *rpcError, error) {
	params := req.Params
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}

	switch req.Method {
	case mcp.MethodToolsList:
		result, err := s.pool.ListTools(ctx, serverID)
		return splitBackendError(result, err)

	case mcp.MethodToolsCall:
		var p mcp.CallToolParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpcError{Code: mcp.CodeInvalidParams, Message: "Invalid params: " + err.Error()}, nil
		}
		if p.Name == "" {
			return nil, &rpcError{Code: mcp.CodeInvalidParams, Message: "Missing required parameter: name"}, nil
		}
		result, err := s.pool.CallTool(ctx, serverID, p.Name, p.Arguments)
		return splitBackendError(result, err)

	case mcp.MethodResourcesList:
		result, err := s.pool.ListResources(ctx, serverID)
		return splitBackendError(result, err)

	case mcp.MethodResourcesRead:
		var p mcp.ReadResourceParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpcError{Code: mcp.CodeInvalidParams, Message: "Invalid params: " + err.Error()}, nil
		}
		if p.URI == "" {
			return nil, &rpcError{Code: mcp.CodeInvalidParams, Message: "Missing required parameter: uri"}, nil
		}
		result, err := s.pool.ReadResource(ctx, serverID, p.URI)
		return splitBackendError(result, err)

	case mcp.MethodPromptsList:
		result, err := s.pool.ListPrompts(ctx, serverID)
		return splitBackendError(result, err)

	case mcp.MethodPromptsGet:
		var p mcp.GetPromptParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpcError{Code: mcp.CodeInvalidParams, Message: "Invalid params: " + err.Error()}, nil
		}
		if p.Name == "" {
			return nil, &rpcError{Code: mcp.CodeInvalidParams, Message: "Missing required parameter: name"}, nil
		}
		result, err := s.pool.GetPrompt(ctx, serverID, p.Name, p.Arguments)
		return splitBackendError(result, err)

	default:
		return nil, &rpcError{Code: mcp.CodeMethodNotFound, Message: "Method not found: " + req.Method}, nil
	}
}

// splitBackendError separates backend protocol errors, which go back on the
// JSON-RPC channel, from transport failures that surface as HTTP statuses.
func splitBackendError(result any, err error) (any, *rpcError, error) {
	if err == nil {
		return result, nil, nil
	}
	var perr *mcp.ProtocolError
	if errors.As(err, &perr) {
		return nil, &rpcError{Code: perr.Code, Message: perr.Message}, nil
	}
	return nil, nil, err
}

// callTool invokes one tool on a backend server.
//
//	@Summary		Call a tool
//	@Description	Invoke a named tool on the backend and return its content blocks
//	@Tags			gateway
//	@Accept			json
//	@Produce		json
//	@Param			serverID	path		string			true	"Server ID"
//	@Param			toolName	path		string			true	"Tool name"
//	@Param			request		body		callToolRequest	false	"Tool arguments"
//	@Success		200			{object}	callToolResponse
//	@Failure		404			{string}	string	"Not Found"
//	@Failure		503			{string}	string	"Service Unavailable"
//	@Failure		504			{string}	string	"Gateway Timeout"
//	@Router			/mcp/gateway/{serverID}/tools/{toolName} [post]
func (s *GatewayRoutes) callTool(w http.ResponseWriter, r *http.Request) error {
	serverID := chi.URLParam(r, "serverID")
	toolName := chi.URLParam(r, "toolName")

	var req callToolRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	result, err := s.pool.CallTool(r.Context(), serverID, toolName, req.Arguments)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, callToolResponse{
		Tool:    toolName,
		Content: result.Content,
		IsError: result.IsError,
	})
}

// readResource reads one resource from a backend server.
//
//	@Summary		Read a resource
//	@Description	Read a resource from the backend by URI
//	@Tags			gateway
//	@Accept			json
//	@Produce		json
//	@Param			serverID	path		string				true	"Server ID"
//	@Param			request		body		readResourceRequest	true	"Resource URI"
//	@Success		200			{object}	readResourceResponse
//	@Failure		404			{string}	string	"Not Found"
//	@Failure		422			{string}	string	"Unprocessable Entity"
//	@Failure		503			{string}	string	"Service Unavailable"
//	@Router			/mcp/gateway/{serverID}/resources/read [post]
func (s *GatewayRoutes) readResource(w http.ResponseWriter, r *http.Request) error {
	serverID := chi.URLParam(r, "serverID")

	var req readResourceRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if req.URI == "" {
		return httperr.WithCode(errors.New("missing required parameter: uri"), http.StatusUnprocessableEntity)
	}

	result, err := s.pool.ReadResource(r.Context(), serverID, req.URI)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, readResourceResponse{
		URI:      req.URI,
		Contents: result.Contents,
	})
}

// getPrompt renders one prompt template on a backend server.
//
//	@Summary		Get a prompt
//	@Description	Render a named prompt template on the backend with the given arguments
//	@Tags			gateway
//	@Accept			json
//	@Produce		json
//	@Param			serverID	path		string				true	"Server ID"
//	@Param			request		body		getPromptRequest	true	"Prompt name and arguments"
//	@Success		200			{object}	getPromptResponse
//	@Failure		404			{string}	string	"Not Found"
//	@Failure		422			{string}	string	"Unprocessable Entity"
//	@Failure		503			{string}	string	"Service Unavailable"
//	@Router			/mcp/gateway/{serverID}/prompts/get [post]
func (s *GatewayRoutes) getPrompt(w http.ResponseWriter, r *http.Request) error {
	serverID := chi.URLParam(r, "serverID")

	var req getPromptRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if req.Name == "" {
		return httperr.WithCode(errors.New("missing required parameter: name"), http.StatusUnprocessableEntity)
	}

	result, err := s.pool.GetPrompt(r.Context(), serverID, req.Name, req.Arguments)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, getPromptResponse{
		Name:     req.Name,
		Messages: result.Messages,
	})
}

// streamEvents streams gateway lifecycle events for one server over SSE.
//
//	@Summary		Stream gateway events
//	@Description	Server-sent events: a connected event, keepalive pings, and a final disconnected event
//	@Tags			gateway
//	@Produce		text/event-stream
//	@Param			serverID	path		string	true	"Server ID"
//	@Success		200			{string}	string	"event stream"
//	@Failure		404			{string}	string	"Not Found"
//	@Router			/mcp/gateway/{serverID}/sse [get]
func (s *GatewayRoutes) streamEvents(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	serverID := chi.URLParam(r, "serverID")

	// Subscribing requires a registered server, but the stream itself never
	// dials the backend.
	if _, err := s.store.GetServer(ctx, serverID); err != nil {
		return err
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		return httperr.WithCode(errors.New("streaming unsupported"), http.StatusInternalServerError)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	stream := &eventStream{w: w, flusher: flusher, serverID: serverID}
	if err := stream.send("connected", map[string]string{"message": "Connected to MCP server"}); err != nil {
		return nil
	}
	// Whatever ends the stream, the subscriber gets a best-effort farewell.
	defer func() {
		_ = stream.send("disconnected", map[string]string{"message": "Disconnected from MCP server"})
	}()

	ticker := time.NewTicker(mcp.SSEPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := stream.send("ping", nil); err != nil {
				_ = stream.send("error", map[string]string{"error": err.Error()})
				return nil
			}
		}
	}
}

// getStatus reports the pooled connection status for one server.
//
//	@Summary		Get connection status
//	@Description	Report the gateway's pooled connection status for a registered server
//	@Tags			gateway
//	@Produce		json
//	@Param			serverID	path		string	true	"Server ID"
//	@Success		200			{object}	client.Status
//	@Failure		404			{string}	string	"Not Found"
//	@Router			/mcp/gateway/{serverID}/status [get]
func (s *GatewayRoutes) getStatus(w http.ResponseWriter, r *http.Request) error {
	serverID := chi.URLParam(r, "serverID")

	if _, err := s.store.GetServer(r.Context(), serverID); err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, s.pool.Status(serverID))
}

// disconnect closes the pooled connection for one server.
//
//	@Summary		Disconnect a server
//	@Description	Close the gateway's pooled connection for a registered server, if one exists
//	@Tags			gateway
//	@Produce		json
//	@Param			serverID	path		string	true	"Server ID"
//	@Success		200			{object}	disconnectResponse
//	@Failure		404			{string}	string	"Not Found"
//	@Router			/mcp/gateway/{serverID}/disconnect [post]
func (s *GatewayRoutes) disconnect(w http.ResponseWriter, r *http.Request) error {
	serverID := chi.URLParam(r, "serverID")

	if _, err := s.store.GetServer(r.Context(), serverID); err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, disconnectResponse{
		ServerID:     serverID,
		Disconnected: s.pool.Disconnect(serverID),
	})
}

// getGatewayHealth summarizes the health of all pooled connections.
//
//	@Summary		Gateway health
//	@Description	Summarize pooled connections: healthy, degraded, or unhealthy
//	@Tags			gateway
//	@Produce		json
//	@Success		200	{object}	gatewayHealthResponse
//	@Router			/mcp/gateway/health [get]
func (s *GatewayRoutes) getGatewayHealth(w http.ResponseWriter, _ *http.Request) error {
	statuses := s.pool.Statuses()

	connected := 0
	for _, status := range statuses {
		if status.Status == client.StatusConnected {
			connected++
		}
	}

	overall := "healthy"
	switch {
	case len(statuses) == 0 || connected == len(statuses):
		// No connections at all is a healthy idle gateway.
	case connected > 0:
		overall = "degraded"
	default:
		overall = "unhealthy"
	}

	return respondJSON(w, http.StatusOK, gatewayHealthResponse{
		Status:           overall,
		TotalConnections: len(statuses),
		ActiveServers:    connected,
		Connections:      statuses,
	})
}

// writeRPCError answers a request on the JSON-RPC channel with an error
// envelope. The HTTP status stays 200.
func writeRPCError(w http.ResponseWriter, id json.RawMessage, code int64, message string) error {
	return respondJSON(w, http.StatusOK, rpcResponse{
		JSONRPC: jsonRPCVersion,
		ID:      normalizeRPCID(id),
		Error:   &rpcError{Code: code, Message: message},
	})
}

// normalizeRPCID substitutes the JSON null id for requests that carried none,
// so the envelope always has an id key.
func normalizeRPCID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage(`null`)
	}
	return id
}

// eventStream writes SSE frames wrapping gateway events.
type eventStream struct {
	w        io.Writer
	flusher  http.Flusher
	serverID string
}

func (s *eventStream) send(eventType string, data any) error {
	payload, err := json.Marshal(gatewayEvent{
		Type:      eventType,
		ServerID:  s.serverID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Response types

// rpcRequest is a JSON-RPC request forwarded through the gateway. The id is
// kept raw so string and numeric ids round-trip untouched.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// rpcResponse is the gateway's JSON-RPC response envelope.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is the error member of a JSON-RPC response.
type rpcError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

// gatewayEvent is the envelope for every SSE frame.
type gatewayEvent struct {
	// Type is the event name: connected, ping, error, or disconnected.
	Type string `json:"type"`
	// ServerID is the subscribed server.
	ServerID string `json:"server_id"`
	// Data carries event-specific detail, if any.
	Data any `json:"data,omitempty"`
	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`
}

// callToolRequest is the body of a REST tool invocation.
type callToolRequest struct {
	// Arguments are passed to the tool as-is.
	Arguments map[string]any `json:"arguments,omitempty"`
}

// callToolResponse carries a tool invocation result.
type callToolResponse struct {
	// Tool is the invoked tool name.
	Tool string `json:"tool"`
	// Content is the tool's output blocks, passed through untouched.
	Content []json.RawMessage `json:"content"`
	// IsError marks a tool-level failure, as opposed to a transport failure.
	IsError bool `json:"isError"`
}

// readResourceRequest is the body of a REST resource read.
type readResourceRequest struct {
	// URI names the resource to read.
	URI string `json:"uri"`
}

// readResourceResponse carries resource contents.
type readResourceResponse struct {
	// URI is the resource that was read.
	URI string `json:"uri"`
	// Contents are the resource's content blocks, passed through untouched.
	Contents []json.RawMessage `json:"contents"`
}

// getPromptRequest is the body of a REST prompt render.
type getPromptRequest struct {
	// Name names the prompt template.
	Name string `json:"name"`
	// Arguments fill the template; prompt arguments are string-valued.
	Arguments map[string]string `json:"arguments,omitempty"`
}

// getPromptResponse carries rendered prompt messages.
type getPromptResponse struct {
	// Name is the rendered prompt.
	Name string `json:"name"`
	// Messages are the rendered messages, passed through untouched.
	Messages []json.RawMessage `json:"messages"`
}

// disconnectResponse reports the outcome of a disconnect request.
type disconnectResponse struct {
	// ServerID is the target server.
	ServerID string `json:"server_id"`
	// Disconnected is true when a pooled connection existed and was closed.
	Disconnected bool `json:"disconnected"`
}

// gatewayHealthResponse summarizes the state of the connection pool.
type gatewayHealthResponse struct {
	// Status is healthy, degraded, or unhealthy.
	Status string `json:"status"`
	// TotalConnections counts pool entries in any state.
	TotalConnections int `json:"total_connections"`
	// ActiveServers counts entries with a live connection.
	ActiveServers int `json:"active_servers"`
	// Connections lists the per-server statuses.
	Connections []client.Status `json:"connections"`
}
