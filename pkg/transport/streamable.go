// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/jsonrpc2"

	"github.com/stacklok/mcphub/pkg/logger"
)

// Streamable speaks streamable HTTP: every message is a POST to the single
// MCP endpoint, and the reply arrives in the response body either as one JSON
// message or as a short event stream. The Mcp-Session-Id header issued by the
// server is replayed on every subsequent request.
type Streamable struct {
	endpoint string
	headers  map[string]string
	client   *http.Client

	mu        sync.Mutex
	sessionID string

	inbound chan jsonrpc2.Message

	closeOnce sync.Once
	closed    chan struct{}
}

// NewStreamable creates a streamable HTTP transport for the given endpoint.
// The extra headers are sent with every request.
func NewStreamable(endpoint string, headers map[string]string) *Streamable {
	return &Streamable{
		endpoint: endpoint,
		headers:  headers,
		client:   &http.Client{},
		inbound:  make(chan jsonrpc2.Message, 32),
		closed:   make(chan struct{}),
	}
}

// Open validates the endpoint. The connection itself is per-request;
// reachability surfaces on the first write.
func (t *Streamable) Open(_ context.Context) error {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return fmt.Errorf("%w: invalid endpoint %q: %w", ErrTransport, t.endpoint, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: endpoint %q must be absolute", ErrTransport, t.endpoint)
	}
	return nil
}

// ReadMessage blocks for the next message delivered by a response body.
func (t *Streamable) ReadMessage(ctx context.Context) (jsonrpc2.Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.closed:
		return nil, ErrClosed
	case msg := <-t.inbound:
		return msg, nil
	}
}

// WriteMessage POSTs one message and consumes the reply. JSON replies and
// event-stream replies both land in the inbound queue; 202 and 204 responses
// carry nothing.
func (t *Streamable) WriteMessage(ctx context.Context, msg jsonrpc2.Message) error {
	select {
	case <-t.closed:
		return ErrClosed
	default:
	}

	data, err := jsonrpc2.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	if sid := t.currentSession(); sid != "" {
		req.Header.Set("Mcp-Session-Id", sid)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: posting to %s: %w", ErrTransport, t.endpoint, err)
	}
	defer resp.Body.Close()

	if sid := resp.Header.Get("Mcp-Session-Id"); sid != "" {
		t.setSession(sid)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status %d from %s", ErrTransport, resp.StatusCode, t.endpoint)
	}
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		return t.consumeJSON(resp.Body)
	case strings.HasPrefix(contentType, "text/event-stream"):
		return t.consumeEventStream(resp.Body)
	default:
		return nil
	}
}

// Close ends the server-side session best-effort and releases the transport.
func (t *Streamable) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)

		sid := t.currentSession()
		if sid == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, t.endpoint, nil)
		if err != nil {
			return
		}
		req.Header.Set("Mcp-Session-Id", sid)
		for k, v := range t.headers {
			req.Header.Set(k, v)
		}
		if resp, err := t.client.Do(req); err == nil {
			_ = resp.Body.Close()
		}
	})
	return nil
}

func (t *Streamable) consumeJSON(body io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(body, maxMessageSize))
	if err != nil {
		return fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	msg, err := jsonrpc2.DecodeMessage(data)
	if err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrTransport, err)
	}
	t.deliver(msg)
	return nil
}

// consumeEventStream drains a response's event stream. The stream ends when
// the server has said everything it wants to about the posted message, so
// reading it synchronously keeps WriteMessage bounded by the caller's
// context.
func (t *Streamable) consumeEventStream(body io.Reader) error {
	err := forEachSSEEvent(body, func(event, data string) bool {
		if event != "message" {
			return true
		}
		msg, err := jsonrpc2.DecodeMessage([]byte(data))
		if err != nil {
			logger.Debugf("Dropping undecodable event stream frame: %v", err)
			return true
		}
		return t.deliver(msg)
	})
	if err != nil {
		return fmt.Errorf("%w: reading event stream: %w", ErrTransport, err)
	}
	return nil
}

func (t *Streamable) deliver(msg jsonrpc2.Message) bool {
	select {
	case t.inbound <- msg:
		return true
	case <-t.closed:
		return false
	}
}

func (t *Streamable) currentSession() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

func (t *Streamable) setSession(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionID = id
}
