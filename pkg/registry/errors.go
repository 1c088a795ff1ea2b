// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"net/http"

	"github.com/stacklok/toolhive-core/httperr"
)

var (
	// ErrInvalidConfig indicates a server registration that violates the
	// transport-specific schema. Checked using errors.Is().
	ErrInvalidConfig = httperr.WithCode(
		errors.New("invalid server configuration"),
		http.StatusUnprocessableEntity,
	)

	// ErrInvalidSearch indicates an out-of-range or malformed capability
	// search query. Checked using errors.Is().
	ErrInvalidSearch = httperr.WithCode(
		errors.New("invalid search query"),
		http.StatusUnprocessableEntity,
	)

	// ErrInvalidAgentCard indicates an agent card that fails schema
	// validation. Checked using errors.Is().
	ErrInvalidAgentCard = httperr.WithCode(
		errors.New("invalid agent card"),
		http.StatusUnprocessableEntity,
	)
)
