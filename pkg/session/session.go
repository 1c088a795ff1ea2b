// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session implements the JSON-RPC 2.0 client session mcphub holds
// with one backend MCP server: request correlation, the initialize
// handshake, typed operations, and cancellation relay. A session owns its
// transport from Start to Close.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/jsonrpc2"

	"github.com/stacklok/mcphub/pkg/logger"
	"github.com/stacklok/mcphub/pkg/mcp"
	"github.com/stacklok/mcphub/pkg/transport"
	"github.com/stacklok/mcphub/pkg/versions"
)

const clientName = "mcphub"

// NotificationHandler receives backend notifications that are not part of
// any request cycle.
type NotificationHandler func(method string, params json.RawMessage)

// Option configures a Session.
type Option func(*Session)

// WithNotificationHandler delivers backend notifications to h instead of
// dropping them with a debug log.
func WithNotificationHandler(h NotificationHandler) Option {
	return func(s *Session) {
		s.notify = h
	}
}

// WithDefaultTimeout overrides the per-operation deadline applied when a
// caller's context has none.
func WithDefaultTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.defaultTimeout = d
	}
}

// result is one settled call: exactly one of resp or err.
type result struct {
	resp *jsonrpc2.Response
	err  error
}

// Session speaks MCP over a transport. All methods are safe for concurrent
// use; operations before Start completes fail with ErrNotInitialized.
type Session struct {
	transport      transport.Transport
	notify         NotificationHandler
	defaultTimeout time.Duration

	nextID  atomic.Int64
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[int64]chan result

	initialized atomic.Bool
	serverInfo  mcp.Implementation

	loopStarted atomic.Bool
	loopDone    chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

// New creates a session over t. The transport is not touched until Start.
func New(t transport.Transport, opts ...Option) *Session {
	s := &Session{
		transport:      t,
		defaultTimeout: mcp.OperationTimeout,
		pending:        make(map[int64]chan result),
		loopDone:       make(chan struct{}),
		closed:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the transport, runs the initialize handshake, and confirms it
// with notifications/initialized. On failure the transport is closed and the
// session is unusable.
func (s *Session) Start(ctx context.Context) (*mcp.InitializeResult, error) {
	if err := s.transport.Open(ctx); err != nil {
		return nil, fmt.Errorf("opening transport: %w", err)
	}

	s.loopStarted.Store(true)
	go s.readLoop()

	params := mcp.InitializeParams{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities:    mcp.ClientCapabilities{},
		ClientInfo: mcp.Implementation{
			Name:    clientName,
			Version: versions.GetVersionInfo().Version,
		},
	}

	var init mcp.InitializeResult
	if err := s.call(ctx, mcp.MethodInitialize, params, &init); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("initializing session: %w", err)
	}

	confirm, err := jsonrpc2.NewNotification(mcp.NotificationInitialized, nil)
	if err == nil {
		err = s.write(ctx, confirm)
	}
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("confirming initialization: %w", err)
	}

	s.serverInfo = init.ServerInfo
	if init.ProtocolVersion != mcp.ProtocolVersion {
		logger.Debugf("Backend %q negotiated protocol %s", init.ServerInfo.Name, init.ProtocolVersion)
	}
	s.initialized.Store(true)

	return &init, nil
}

// ServerInfo returns the backend identity captured during the handshake.
func (s *Session) ServerInfo() mcp.Implementation {
	return s.serverInfo
}

// ListTools fetches the backend's tool listing, first page only.
func (s *Session) ListTools(ctx context.Context) (mcp.ListToolsResult, error) {
	var out mcp.ListToolsResult
	err := s.op(ctx, mcp.MethodToolsList, nil, &out)
	return out, err
}

// ListResources fetches the backend's resource listing, first page only.
func (s *Session) ListResources(ctx context.Context) (mcp.ListResourcesResult, error) {
	var out mcp.ListResourcesResult
	err := s.op(ctx, mcp.MethodResourcesList, nil, &out)
	return out, err
}

// ListPrompts fetches the backend's prompt listing, first page only.
func (s *Session) ListPrompts(ctx context.Context) (mcp.ListPromptsResult, error) {
	var out mcp.ListPromptsResult
	err := s.op(ctx, mcp.MethodPromptsList, nil, &out)
	return out, err
}

// CallTool invokes a tool by name.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (mcp.CallToolResult, error) {
	var out mcp.CallToolResult
	err := s.op(ctx, mcp.MethodToolsCall, mcp.CallToolParams{Name: name, Arguments: args}, &out)
	return out, err
}

// ReadResource reads a resource by URI.
func (s *Session) ReadResource(ctx context.Context, uri string) (mcp.ReadResourceResult, error) {
	var out mcp.ReadResourceResult
	err := s.op(ctx, mcp.MethodResourcesRead, mcp.ReadResourceParams{URI: uri}, &out)
	return out, err
}

// GetPrompt renders a prompt template by name.
func (s *Session) GetPrompt(ctx context.Context, name string, args map[string]string) (mcp.GetPromptResult, error) {
	var out mcp.GetPromptResult
	err := s.op(ctx, mcp.MethodPromptsGet, mcp.GetPromptParams{Name: name, Arguments: args}, &out)
	return out, err
}

// Ping checks that the backend still answers.
func (s *Session) Ping(ctx context.Context) error {
	return s.op(ctx, mcp.MethodPing, nil, nil)
}

// Close rejects new operations, fails pending calls, and tears down the
// transport. Idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.initialized.Store(false)
		close(s.closed)
		_ = s.transport.Close()
		if s.loopStarted.Load() {
			<-s.loopDone
		}
	})
	return nil
}

// op gates a typed operation on handshake completion.
func (s *Session) op(ctx context.Context, method string, params, out any) error {
	if !s.initialized.Load() {
		return ErrNotInitialized
	}
	return s.call(ctx, method, params, out)
}

// call sends one request and waits for its response. A context without a
// deadline gets the session's default.
func (s *Session) call(ctx context.Context, method string, params, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.defaultTimeout)
		defer cancel()
	}

	select {
	case <-s.closed:
		return ErrClosed
	default:
	}

	id := s.nextID.Add(1)
	req, err := jsonrpc2.NewCall(jsonrpc2.Int64ID(id), method, params)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	ch := make(chan result, 1)
	s.mu.Lock()
	s.pending[id] = ch
	s.mu.Unlock()

	if err := s.write(ctx, req); err != nil {
		s.forget(id)
		return fmt.Errorf("sending %s request: %w", method, err)
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return fmt.Errorf("awaiting %s response: %w", method, res.err)
		}
		if perr := mcp.ResponseError(res.resp); perr != nil {
			return perr
		}
		if out != nil && len(res.resp.Result) > 0 {
			if err := json.Unmarshal(res.resp.Result, out); err != nil {
				return fmt.Errorf("decoding %s result: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		s.forget(id)
		s.cancelRemote(id, ctx.Err())
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrTimeout, method)
		}
		return fmt.Errorf("%w: %s", ErrCancelled, method)
	case <-s.closed:
		s.forget(id)
		return ErrClosed
	}
}

// write serializes all outbound messages through one mutex so frames from
// concurrent calls never interleave.
func (s *Session) write(ctx context.Context, msg jsonrpc2.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.transport.WriteMessage(ctx, msg)
}

func (s *Session) forget(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// cancelRemote tells the backend, best-effort, to abandon an in-flight
// request the caller gave up on.
func (s *Session) cancelRemote(id int64, cause error) {
	note, err := jsonrpc2.NewNotification(mcp.NotificationCancelled, mcp.CancelledParams{
		RequestID: id,
		Reason:    cause.Error(),
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.write(ctx, note)
}

// readLoop is the only reader of the transport. It runs until the transport
// fails or closes, then fails whatever is still pending.
func (s *Session) readLoop() {
	defer close(s.loopDone)

	for {
		msg, err := s.transport.ReadMessage(context.Background())
		if err != nil {
			s.failPending(err)
			return
		}

		switch m := msg.(type) {
		case *jsonrpc2.Response:
			s.dispatch(m)
		case *jsonrpc2.Request:
			s.handleBackendRequest(m)
		}
	}
}

// dispatch settles the pending call matching the response id.
func (s *Session) dispatch(resp *jsonrpc2.Response) {
	id, ok := resp.ID.Raw().(int64)
	if !ok {
		logger.Debugf("Dropping response with unexpected id type %T", resp.ID.Raw())
		return
	}

	s.mu.Lock()
	ch, found := s.pending[id]
	if found {
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if !found {
		logger.Debugf("Dropping unmatched response id %d", id)
		return
	}
	ch <- result{resp: resp}
}

// handleBackendRequest fields server-initiated traffic. The hub is a pure
// client: notifications go to the sink, calls are refused.
func (s *Session) handleBackendRequest(req *jsonrpc2.Request) {
	if !req.IsCall() {
		if s.notify != nil {
			s.notify(req.Method, req.Params)
			return
		}
		logger.Debugf("Ignoring backend notification %s", req.Method)
		return
	}

	resp, err := jsonrpc2.NewResponse(req.ID, nil,
		jsonrpc2.NewError(mcp.CodeMethodNotFound, "client does not serve requests"))
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.write(ctx, resp)
}

// failPending settles every in-flight call with err. A transport that was
// closed underneath us reads as a closed session.
func (s *Session) failPending(err error) {
	if errors.Is(err, transport.ErrClosed) {
		err = ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.pending {
		ch <- result{err: err}
		delete(s.pending, id)
	}
}
