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

	"golang.org/x/exp/jsonrpc2"

	"github.com/stacklok/mcphub/pkg/logger"
)

// SSE speaks the legacy HTTP+SSE pairing: a long-lived GET stream carries
// messages from the server, and an endpoint event on that stream announces
// the URL that client messages are POSTed to. Open does not return until the
// endpoint event has arrived.
type SSE struct {
	endpoint string
	headers  map[string]string
	client   *http.Client

	mu      sync.Mutex
	postURL string

	inbound chan jsonrpc2.Message
	readErr error

	readyOnce sync.Once
	readyCh   chan struct{}

	streamCancel context.CancelFunc
	streamDone   chan struct{}
	wg           sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

// NewSSE creates an SSE transport for the given stream endpoint. The extra
// headers are sent with the stream request and every POST.
func NewSSE(endpoint string, headers map[string]string) *SSE {
	return &SSE{
		endpoint:   endpoint,
		headers:    headers,
		client:     &http.Client{},
		inbound:    make(chan jsonrpc2.Message, 32),
		readyCh:    make(chan struct{}),
		streamDone: make(chan struct{}),
		closed:     make(chan struct{}),
	}
}

// Open connects the event stream and waits for the server to announce its
// message endpoint. The stream itself outlives ctx; ctx only bounds the wait.
func (t *SSE) Open(ctx context.Context) error {
	streamCtx, cancel := context.WithCancel(context.Background())
	t.streamCancel = cancel

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, t.endpoint, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("creating stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		cancel()
		return fmt.Errorf("%w: connecting to %s: %w", ErrTransport, t.endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		cancel()
		return fmt.Errorf("%w: unexpected status %d from %s", ErrTransport, resp.StatusCode, t.endpoint)
	}

	t.wg.Add(1)
	go t.readStream(resp.Body)

	select {
	case <-t.readyCh:
		return nil
	case <-t.streamDone:
		cancel()
		if t.readErr != nil {
			return t.readErr
		}
		return fmt.Errorf("%w: stream closed before the endpoint event", ErrTransport)
	case <-ctx.Done():
		cancel()
		return fmt.Errorf("%w: waiting for endpoint event: %w", ErrTransport, ctx.Err())
	}
}

// ReadMessage blocks for the next message from the event stream.
func (t *SSE) ReadMessage(ctx context.Context) (jsonrpc2.Message, error) {
	// Drain delivered messages before reporting a stream teardown.
	select {
	case msg := <-t.inbound:
		return msg, nil
	default:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.closed:
		return nil, ErrClosed
	case msg := <-t.inbound:
		return msg, nil
	case <-t.streamDone:
		if t.readErr != nil {
			return nil, t.readErr
		}
		return nil, ErrClosed
	}
}

// WriteMessage POSTs one message to the announced endpoint. Replies normally
// arrive on the stream; a JSON response body is delivered too for servers
// that answer inline.
func (t *SSE) WriteMessage(ctx context.Context, msg jsonrpc2.Message) error {
	select {
	case <-t.closed:
		return ErrClosed
	default:
	}

	postURL := t.currentPostURL()
	if postURL == "" {
		return fmt.Errorf("%w: no message endpoint announced", ErrTransport)
	}

	data, err := jsonrpc2.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: posting to %s: %w", ErrTransport, postURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status %d from %s", ErrTransport, resp.StatusCode, postURL)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxMessageSize))
		if err != nil {
			return nil
		}
		if body = bytes.TrimSpace(body); len(body) > 0 {
			if reply, err := jsonrpc2.DecodeMessage(body); err == nil {
				t.deliver(reply)
			}
		}
	}
	return nil
}

// Close tears down the event stream. Idempotent; waits for the reader to
// finish.
func (t *SSE) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		if t.streamCancel != nil {
			t.streamCancel()
		}
		t.wg.Wait()
	})
	return nil
}

// readStream consumes the long-lived GET stream until it ends.
func (t *SSE) readStream(body io.ReadCloser) {
	defer t.wg.Done()
	defer body.Close()

	err := forEachSSEEvent(body, func(event, data string) bool {
		switch event {
		case "endpoint":
			if err := t.resolvePostURL(data); err != nil {
				logger.Debugf("Ignoring invalid endpoint event %q: %v", data, err)
				return true
			}
			t.readyOnce.Do(func() { close(t.readyCh) })
			return true
		case "message":
			msg, err := jsonrpc2.DecodeMessage([]byte(data))
			if err != nil {
				logger.Debugf("Dropping undecodable event stream frame: %v", err)
				return true
			}
			return t.deliver(msg)
		default:
			return true
		}
	})

	select {
	case <-t.closed:
	default:
		if err != nil {
			t.readErr = fmt.Errorf("%w: reading event stream: %w", ErrTransport, err)
		} else {
			t.readErr = fmt.Errorf("%w: server closed the event stream", ErrTransport)
		}
	}
	close(t.streamDone)
}

// resolvePostURL turns an endpoint event payload into an absolute POST URL.
// Relative endpoints resolve against the stream URL's scheme and host.
func (t *SSE) resolvePostURL(endpoint string) error {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		t.setPostURL(endpoint)
		return nil
	}

	base, err := url.Parse(t.endpoint)
	if err != nil {
		return fmt.Errorf("parsing stream url: %w", err)
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	t.setPostURL(base.Scheme + "://" + base.Host + endpoint)
	return nil
}

func (t *SSE) deliver(msg jsonrpc2.Message) bool {
	select {
	case t.inbound <- msg:
		return true
	case <-t.closed:
		return false
	}
}

func (t *SSE) currentPostURL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.postURL
}

func (t *SSE) setPostURL(u string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.postURL = u
}
