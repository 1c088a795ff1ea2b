// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/jsonrpc2"
)

// sseStreamHandler serves the long-lived GET stream: it announces the
// endpoint, then forwards pushed messages until the client disconnects.
func sseStreamHandler(t *testing.T, endpoint *atomic.Value, push <-chan jsonrpc2.Message) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !assert.True(t, ok) {
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", endpoint.Load())
		flusher.Flush()

		for {
			select {
			case msg := <-push:
				data, err := jsonrpc2.EncodeMessage(msg)
				if !assert.NoError(t, err) {
					return
				}
				fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	}
}

// sseMessageHandler accepts POSTed messages and pushes the echo response onto
// the stream, the way legacy SSE servers answer.
func sseMessageHandler(t *testing.T, push chan<- jsonrpc2.Message, wantQuery string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if wantQuery != "" {
			assert.Equal(t, wantQuery, r.URL.RawQuery)
		}

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		msg, err := jsonrpc2.DecodeMessage(body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if req, ok := msg.(*jsonrpc2.Request); ok && req.IsCall() {
			resp, err := jsonrpc2.NewResponse(req.ID, map[string]string{"echo": req.Method}, nil)
			if assert.NoError(t, err) {
				push <- resp
			}
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func TestSSERoundTrip(t *testing.T) {
	t.Parallel()

	push := make(chan jsonrpc2.Message, 4)
	var endpoint atomic.Value
	endpoint.Store("/messages?session=abc")

	mux := http.NewServeMux()
	mux.HandleFunc("/sse", sseStreamHandler(t, &endpoint, push))
	mux.HandleFunc("/messages", sseMessageHandler(t, push, "session=abc"))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tr := NewSSE(srv.URL+"/sse", nil)
	require.NoError(t, tr.Open(readCtx(t)))
	t.Cleanup(func() { _ = tr.Close() })

	call, err := jsonrpc2.NewCall(jsonrpc2.Int64ID(1), "tools/list", nil)
	require.NoError(t, err)
	require.NoError(t, tr.WriteMessage(t.Context(), call))

	msg, err := tr.ReadMessage(readCtx(t))
	require.NoError(t, err)

	resp, ok := msg.(*jsonrpc2.Response)
	require.True(t, ok)
	assert.Equal(t, call.ID, resp.ID)
	assert.Contains(t, string(resp.Result), "tools/list")

	// Server-initiated notifications arrive outside any request cycle.
	note, err := jsonrpc2.NewNotification("notifications/resources/updated", nil)
	require.NoError(t, err)
	push <- note

	msg, err = tr.ReadMessage(readCtx(t))
	require.NoError(t, err)

	recv, ok := msg.(*jsonrpc2.Request)
	require.True(t, ok)
	assert.Equal(t, "notifications/resources/updated", recv.Method)
}

func TestSSEAbsoluteEndpointEvent(t *testing.T) {
	t.Parallel()

	push := make(chan jsonrpc2.Message, 4)
	var endpoint atomic.Value

	mux := http.NewServeMux()
	mux.HandleFunc("/sse", sseStreamHandler(t, &endpoint, push))
	mux.HandleFunc("/messages", sseMessageHandler(t, push, "session=xyz"))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	endpoint.Store(srv.URL + "/messages?session=xyz")

	tr := NewSSE(srv.URL+"/sse", nil)
	require.NoError(t, tr.Open(readCtx(t)))
	t.Cleanup(func() { _ = tr.Close() })

	call, err := jsonrpc2.NewCall(jsonrpc2.Int64ID(2), "ping", nil)
	require.NoError(t, err)
	require.NoError(t, tr.WriteMessage(t.Context(), call))

	msg, err := tr.ReadMessage(readCtx(t))
	require.NoError(t, err)

	resp, ok := msg.(*jsonrpc2.Response)
	require.True(t, ok)
	assert.Equal(t, call.ID, resp.ID)
}

func TestSSEOpenTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	tr := NewSSE(srv.URL, nil)
	ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()

	err := tr.Open(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSSEStreamEndsBeforeEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
	}))
	t.Cleanup(srv.Close)

	tr := NewSSE(srv.URL, nil)

	err := tr.Open(readCtx(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "closed the event stream")
}

func TestSSEInitialRequestRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	tr := NewSSE(srv.URL, nil)

	err := tr.Open(readCtx(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "status 404")
}
