// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stacklok/mcphub/pkg/logger"
	"github.com/stacklok/mcphub/pkg/mcp"
	"github.com/stacklok/mcphub/pkg/registry"
	"github.com/stacklok/mcphub/pkg/session"
	"github.com/stacklok/mcphub/pkg/storage"
	"github.com/stacklok/mcphub/pkg/transport"
)

// Connection states reported by Status.
const (
	StatusConnected    = "connected"
	StatusError        = "error"
	StatusDisconnected = "disconnected"
)

// Backend is the slice of session behavior the manager pools.
// *session.Session implements it.
type Backend interface {
	ListTools(ctx context.Context) (mcp.ListToolsResult, error)
	ListResources(ctx context.Context) (mcp.ListResourcesResult, error)
	ListPrompts(ctx context.Context) (mcp.ListPromptsResult, error)
	CallTool(ctx context.Context, name string, args map[string]any) (mcp.CallToolResult, error)
	ReadResource(ctx context.Context, uri string) (mcp.ReadResourceResult, error)
	GetPrompt(ctx context.Context, name string, args map[string]string) (mcp.GetPromptResult, error)
	Ping(ctx context.Context) error
	Close() error
}

// OpenFunc opens a live backend session for a server record. Abstracted as a
// field on the Manager so tests can substitute fake backends.
type OpenFunc func(ctx context.Context, record registry.ServerRecord) (Backend, error)

// Status describes one pooled connection.
type Status struct {
	ServerID     string     `json:"server_id"`
	Status       string     `json:"status"`
	ConnectedAt  *time.Time `json:"connected_at,omitempty"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
	RequestCount int64      `json:"request_count"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

type entry struct {
	backend      Backend
	connectedAt  time.Time
	lastActivity time.Time
	requestCount int64
	healthy      bool
	lastError    string
}

// Manager pools live sessions keyed by server id. The map is guarded by one
// lock; per-server locks serialize opens so at most one connect per server
// is ever in flight. An idle janitor closes sessions that sit unused.
type Manager struct {
	store storage.Store
	open  OpenFunc

	idleTimeout time.Duration
	sweepEvery  time.Duration

	mu      sync.RWMutex
	entries map[string]*entry
	locks   map[string]*sync.Mutex

	closed      atomic.Bool
	janitorStop context.CancelFunc
	janitorDone chan struct{}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithIdleTimeout overrides how long a pooled session may sit unused before
// the janitor closes it.
func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.idleTimeout = d
	}
}

// WithSweepInterval overrides how often the janitor looks for idle sessions.
func WithSweepInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.sweepEvery = d
	}
}

// WithOpener replaces how the manager opens backend sessions.
func WithOpener(open OpenFunc) ManagerOption {
	return func(m *Manager) {
		m.open = open
	}
}

// NewManager creates a connection manager over store and starts its idle
// janitor. Call CloseAll to stop it.
func NewManager(store storage.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:       store,
		open:        openSession,
		idleTimeout: mcp.IdleTimeout,
		sweepEvery:  mcp.IdleSweepInterval,
		entries:     make(map[string]*entry),
		locks:       make(map[string]*sync.Mutex),
		janitorDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.janitorStop = cancel
	go m.janitor(ctx)

	return m
}

// openSession is the production OpenFunc: a transport for the record's type
// with a session started over it.
func openSession(ctx context.Context, record registry.ServerRecord) (Backend, error) {
	tr, err := transport.New(record.Type, record.Config)
	if err != nil {
		return nil, err
	}
	sess := session.New(tr)
	if _, err := sess.Start(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

// Acquire returns a healthy pooled session for serverID, opening one if
// needed. An unknown server id surfaces the repository's not-found error; a
// backend that cannot be reached surfaces ErrUnavailable and leaves the pool
// unchanged.
func (m *Manager) Acquire(ctx context.Context, serverID string) (Backend, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	if backend := m.tryPooled(serverID); backend != nil {
		return backend, nil
	}

	lock := m.keyLock(serverID)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have connected while we waited for the key lock.
	if backend := m.tryPooled(serverID); backend != nil {
		return backend, nil
	}

	record, err := m.store.GetServer(ctx, serverID)
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, mcp.OperationTimeout)
		defer cancel()
	}

	backend, err := m.open(ctx, record)
	if err != nil {
		return nil, wrapBackendError(err, serverID, "connect")
	}

	now := time.Now()
	m.mu.Lock()
	if m.closed.Load() {
		m.mu.Unlock()
		_ = backend.Close()
		return nil, ErrClosed
	}
	m.entries[serverID] = &entry{
		backend:      backend,
		connectedAt:  now,
		lastActivity: now,
		healthy:      true,
	}
	m.mu.Unlock()

	logger.Infof("Connected to server %s", serverID)
	return backend, nil
}

// tryPooled returns the pooled session when present and healthy, bumping its
// counters. A present but unhealthy entry is removed and closed outside the
// lock so the caller falls through to a reconnect.
func (m *Manager) tryPooled(serverID string) Backend {
	m.mu.Lock()
	e, ok := m.entries[serverID]
	if ok && e.healthy {
		e.lastActivity = time.Now()
		e.requestCount++
		backend := e.backend
		m.mu.Unlock()
		return backend
	}
	if ok {
		delete(m.entries, serverID)
	}
	m.mu.Unlock()

	if ok {
		_ = e.backend.Close()
		logger.Debugf("Discarded unhealthy session for server %s", serverID)
	}
	return nil
}

// keyLock returns the per-server open lock, creating it on first use.
func (m *Manager) keyLock(serverID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[serverID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[serverID] = lock
	}
	return lock
}

// Health probes the pooled session for serverID with a cheap listing and
// updates its health flag. Servers without a pooled session report false.
func (m *Manager) Health(ctx context.Context, serverID string) bool {
	m.mu.RLock()
	e, ok := m.entries[serverID]
	var backend Backend
	if ok {
		backend = e.backend
	}
	m.mu.RUnlock()
	if !ok {
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, mcp.HealthCheckTimeout)
	defer cancel()
	_, err := backend.ListTools(probeCtx)

	m.mu.Lock()
	if cur, still := m.entries[serverID]; still && cur.backend == backend {
		cur.healthy = err == nil
		cur.lastError = ""
		if err != nil {
			cur.lastError = err.Error()
		}
	}
	m.mu.Unlock()

	return err == nil
}

func (m *Manager) markUnhealthy(serverID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[serverID]; ok {
		e.healthy = false
		e.lastError = err.Error()
	}
}

// Disconnect closes and removes the pooled session for serverID. Reports
// whether one existed.
func (m *Manager) Disconnect(serverID string) bool {
	m.mu.Lock()
	e, ok := m.entries[serverID]
	if ok {
		delete(m.entries, serverID)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	_ = e.backend.Close()
	logger.Infof("Disconnected server %s", serverID)
	return true
}

// Status reports the pooled connection for serverID, or a synthetic
// disconnected record when none exists.
func (m *Manager) Status(serverID string) Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[serverID]
	if !ok {
		return Status{ServerID: serverID, Status: StatusDisconnected}
	}
	return statusOf(serverID, e)
}

// Statuses reports every pooled connection, ordered by server id.
func (m *Manager) Statuses() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Status, 0, len(m.entries))
	for id, e := range m.entries {
		out = append(out, statusOf(id, e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServerID < out[j].ServerID })
	return out
}

func statusOf(serverID string, e *entry) Status {
	connectedAt := e.connectedAt
	lastActivity := e.lastActivity
	s := Status{
		ServerID:     serverID,
		Status:       StatusConnected,
		ConnectedAt:  &connectedAt,
		LastActivity: &lastActivity,
		RequestCount: e.requestCount,
	}
	if !e.healthy {
		s.Status = StatusError
		s.ErrorMessage = e.lastError
	}
	return s
}

// CloseAll shuts the pool down: the janitor is stopped and awaited, then
// every session is closed. Subsequent acquisitions fail with ErrClosed.
func (m *Manager) CloseAll(ctx context.Context) {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}

	m.janitorStop()
	<-m.janitorDone

	m.mu.Lock()
	snapshot := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	for id, e := range snapshot {
		select {
		case <-ctx.Done():
			logger.Warnf("Pool shutdown interrupted: %v", ctx.Err())
			return
		default:
		}
		_ = e.backend.Close()
		logger.Debugf("Closed session for server %s", id)
	}
}

func (m *Manager) janitor(ctx context.Context) {
	defer close(m.janitorDone)

	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepIdle(time.Now())
		}
	}
}

// sweepIdle closes sessions idle past the threshold. The map lock is never
// held across a close, so the sweep cannot stall acquisitions.
func (m *Manager) sweepIdle(now time.Time) {
	cutoff := now.Add(-m.idleTimeout)

	m.mu.RLock()
	var stale []string
	for id, e := range m.entries {
		if e.lastActivity.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.mu.Lock()
		e, ok := m.entries[id]
		if ok && e.lastActivity.Before(cutoff) {
			delete(m.entries, id)
		} else {
			// Bumped since the scan; leave it pooled.
			e = nil
		}
		m.mu.Unlock()

		if e != nil {
			_ = e.backend.Close()
			logger.Debugf("Closed idle session for server %s", id)
		}
	}
}

// Gateway operations. Each acquires a pooled session for the server and runs
// the call under the default operation budget.

// ListTools lists the server's tools through its pooled session.
func (m *Manager) ListTools(ctx context.Context, serverID string) (mcp.ListToolsResult, error) {
	var out mcp.ListToolsResult
	err := m.do(ctx, serverID, "list tools", func(ctx context.Context, b Backend) error {
		var err error
		out, err = b.ListTools(ctx)
		return err
	})
	return out, err
}

// ListResources lists the server's resources through its pooled session.
func (m *Manager) ListResources(ctx context.Context, serverID string) (mcp.ListResourcesResult, error) {
	var out mcp.ListResourcesResult
	err := m.do(ctx, serverID, "list resources", func(ctx context.Context, b Backend) error {
		var err error
		out, err = b.ListResources(ctx)
		return err
	})
	return out, err
}

// ListPrompts lists the server's prompts through its pooled session.
func (m *Manager) ListPrompts(ctx context.Context, serverID string) (mcp.ListPromptsResult, error) {
	var out mcp.ListPromptsResult
	err := m.do(ctx, serverID, "list prompts", func(ctx context.Context, b Backend) error {
		var err error
		out, err = b.ListPrompts(ctx)
		return err
	})
	return out, err
}

// CallTool invokes a tool on the server through its pooled session.
func (m *Manager) CallTool(ctx context.Context, serverID, name string, args map[string]any) (mcp.CallToolResult, error) {
	var out mcp.CallToolResult
	err := m.do(ctx, serverID, "call tool", func(ctx context.Context, b Backend) error {
		var err error
		out, err = b.CallTool(ctx, name, args)
		return err
	})
	return out, err
}

// ReadResource reads a resource from the server through its pooled session.
func (m *Manager) ReadResource(ctx context.Context, serverID, uri string) (mcp.ReadResourceResult, error) {
	var out mcp.ReadResourceResult
	err := m.do(ctx, serverID, "read resource", func(ctx context.Context, b Backend) error {
		var err error
		out, err = b.ReadResource(ctx, uri)
		return err
	})
	return out, err
}

// GetPrompt renders a prompt on the server through its pooled session.
func (m *Manager) GetPrompt(ctx context.Context, serverID, name string, args map[string]string) (mcp.GetPromptResult, error) {
	var out mcp.GetPromptResult
	err := m.do(ctx, serverID, "get prompt", func(ctx context.Context, b Backend) error {
		var err error
		out, err = b.GetPrompt(ctx, name, args)
		return err
	})
	return out, err
}

// do runs one gateway operation against the pooled session. Failures that
// read as a lost backend flip the entry unhealthy so the next acquire
// reconnects; structured JSON-RPC errors pass through untouched.
func (m *Manager) do(ctx context.Context, serverID, operation string, fn func(context.Context, Backend) error) error {
	backend, err := m.Acquire(ctx, serverID)
	if err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, mcp.OperationTimeout)
		defer cancel()
	}

	if err := fn(ctx, backend); err != nil {
		wrapped := wrapBackendError(err, serverID, operation)
		if errors.Is(wrapped, ErrUnavailable) {
			m.markUnhealthy(serverID, wrapped)
		}
		return wrapped
	}
	return nil
}