// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"errors"
	"net/http"

	"github.com/stacklok/toolhive-core/httperr"
)

var (
	// ErrUnavailable indicates a backend server could not be reached,
	// refused the connection, or dropped it mid-operation.
	// Checked using errors.Is().
	ErrUnavailable = httperr.WithCode(
		errors.New("server unavailable"),
		http.StatusServiceUnavailable,
	)

	// ErrClosed is returned for acquisitions after the connection manager
	// shut down. Checked using errors.Is().
	ErrClosed = httperr.WithCode(
		errors.New("connection manager closed"),
		http.StatusServiceUnavailable,
	)
)