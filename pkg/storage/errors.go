// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"errors"
	"net/http"

	"github.com/stacklok/toolhive-core/httperr"
)

var (
	// ErrNotFound is returned when a requested server or agent does not exist.
	// Checked using errors.Is().
	ErrNotFound = httperr.WithCode(
		errors.New("not found"),
		http.StatusNotFound,
	)

	// ErrAlreadyExists is returned when a record with the same identifier is
	// already registered. Checked using errors.Is().
	ErrAlreadyExists = httperr.WithCode(
		errors.New("already exists"),
		http.StatusConflict,
	)
)
