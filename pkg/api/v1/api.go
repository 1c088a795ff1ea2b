// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package v1 provides version 1 of the mcphub API.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/stacklok/toolhive-core/httperr"

	"github.com/stacklok/mcphub/pkg/logger"
)

// respondJSON writes v as a JSON response with the given status code. The nil
// return lets handlers end with it directly.
func respondJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// The status line is already written; nothing is left but logging.
		logger.Errorf("Failed to encode response: %v", err)
	}
	return nil
}

// decodeBody decodes a JSON request body into out. An empty body leaves out
// at its zero value rather than failing, so endpoints with all-optional
// fields accept bare POSTs.
func decodeBody(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return httperr.WithCode(fmt.Errorf("invalid request body: %v", err), http.StatusUnprocessableEntity)
	}
	return nil
}

// readBody reads the raw request body for endpoints that store the submitted
// document verbatim.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, httperr.WithCode(fmt.Errorf("reading request body: %v", err), http.StatusUnprocessableEntity)
	}
	return body, nil
}
