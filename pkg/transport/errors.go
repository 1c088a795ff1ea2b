// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"net/http"

	"github.com/stacklok/toolhive-core/httperr"
)

var (
	// ErrTransport indicates a channel-level failure: cannot dial, non-2xx
	// response, truncated stream. Checked using errors.Is().
	ErrTransport = httperr.WithCode(
		errors.New("transport failure"),
		http.StatusServiceUnavailable,
	)

	// ErrSpawn indicates the backend process could not be started.
	// Checked using errors.Is().
	ErrSpawn = httperr.WithCode(
		errors.New("spawn failure"),
		http.StatusServiceUnavailable,
	)

	// ErrClosed is returned for operations on a closed transport.
	ErrClosed = errors.New("transport closed")
)
