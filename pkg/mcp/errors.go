// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/jsonrpc2"
)

// JSON-RPC 2.0 error codes used on the gateway wire.
const (
	CodeParseError     int64 = -32700
	CodeInvalidRequest int64 = -32600
	CodeMethodNotFound int64 = -32601
	CodeInvalidParams  int64 = -32602
	CodeInternalError  int64 = -32603
)

// ProtocolError is a structured JSON-RPC error returned by a backend. It is
// surfaced through errors.As so callers can branch on the code.
type ProtocolError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// ResponseError extracts the structured error from a JSON-RPC response, or
// nil when the response succeeded. The jsonrpc2 wire error type is not
// exported, so the code and message are recovered from the encoded form.
func ResponseError(resp *jsonrpc2.Response) *ProtocolError {
	if resp == nil || resp.Error == nil {
		return nil
	}

	data, err := jsonrpc2.EncodeMessage(resp)
	if err != nil {
		return &ProtocolError{Code: CodeInternalError, Message: resp.Error.Error()}
	}

	var envelope struct {
		Error *ProtocolError `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error == nil {
		return &ProtocolError{Code: CodeInternalError, Message: resp.Error.Error()}
	}

	return envelope.Error
}
