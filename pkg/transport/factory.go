// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"

	"github.com/stacklok/mcphub/pkg/registry"
)

var (
	_ Transport = (*Stdio)(nil)
	_ Transport = (*Streamable)(nil)
	_ Transport = (*SSE)(nil)
)

// New builds the transport that reaches a server of the given type. The
// config is expected to have passed registry validation.
func New(serverType registry.ServerType, config registry.ServerConfig) (Transport, error) {
	switch serverType {
	case registry.ServerTypeStdio:
		return NewStdio(config.Command, config.Args, config.Env), nil
	case registry.ServerTypeHTTP:
		return NewStreamable(config.URL, config.Headers), nil
	case registry.ServerTypeSSE:
		return NewSSE(config.URL, config.Headers), nil
	default:
		return nil, fmt.Errorf("unsupported server type %q", serverType)
	}
}
