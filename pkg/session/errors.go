// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"net/http"

	"github.com/stacklok/toolhive-core/httperr"
)

var (
	// ErrNotInitialized is returned for operations attempted before the
	// initialize handshake completed. Checked using errors.Is().
	ErrNotInitialized = errors.New("session not initialized")

	// ErrClosed is returned for operations on a closed session and fails
	// calls that were in flight when the session closed.
	// Checked using errors.Is().
	ErrClosed = httperr.WithCode(
		errors.New("session closed"),
		http.StatusServiceUnavailable,
	)

	// ErrTimeout indicates the backend did not answer within the operation
	// deadline. Checked using errors.Is().
	ErrTimeout = httperr.WithCode(
		errors.New("operation timed out"),
		http.StatusGatewayTimeout,
	)

	// ErrCancelled indicates the caller abandoned the operation before the
	// backend answered. Checked using errors.Is().
	ErrCancelled = errors.New("operation cancelled")
)
