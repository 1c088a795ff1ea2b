// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"
	"strings"

	"github.com/stacklok/mcphub/pkg/mcp"
)

// CapabilityKind selects which capability tables a search inspects.
type CapabilityKind string

const (
	// KindTool matches against registered tools.
	KindTool CapabilityKind = "tool"
	// KindResource matches against registered resources, including their URIs.
	KindResource CapabilityKind = "resource"
	// KindPrompt matches against registered prompts.
	KindPrompt CapabilityKind = "prompt"
)

// AllCapabilityKinds is the search order when no kind filter is given.
// The order is fixed: it determines the first-encounter ordering of matches.
var AllCapabilityKinds = []CapabilityKind{KindTool, KindResource, KindPrompt}

// ParseCapabilityKind converts a string to a CapabilityKind.
func ParseCapabilityKind(s string) (CapabilityKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(KindTool), "tools":
		return KindTool, nil
	case string(KindResource), "resources":
		return KindResource, nil
	case string(KindPrompt), "prompts":
		return KindPrompt, nil
	default:
		return "", fmt.Errorf("%w: unknown capability kind %q", ErrInvalidSearch, s)
	}
}

// Search result size bounds.
const (
	SearchLimitDefault = 10
	SearchLimitMax     = 1000
)

// SearchQuery describes a capability search across active servers.
type SearchQuery struct {
	// Query is matched case-insensitively as a substring against capability
	// names, descriptions, and resource URIs. Empty matches everything.
	Query string
	// Kinds restricts the capability kinds searched. Empty means all kinds.
	Kinds []CapabilityKind
	// Type restricts matches to servers of one transport type. Empty means
	// all types.
	Type ServerType
	// Limit caps the number of matched servers returned.
	Limit int
}

// Normalize lowercases the query text and searches all kinds when none
// given. The limit is left untouched: defaulting happens at ingress, where
// an absent parameter can be told apart from an explicit zero, so Validate
// still rejects a caller-supplied limit of 0.
func (q *SearchQuery) Normalize() {
	q.Query = strings.ToLower(strings.TrimSpace(q.Query))
	if len(q.Kinds) == 0 {
		q.Kinds = AllCapabilityKinds
	}
}

// Validate checks limit bounds after normalization.
func (q SearchQuery) Validate() error {
	if q.Limit < 1 || q.Limit > SearchLimitMax {
		return fmt.Errorf("%w: limit must be between 1 and %d, got %d",
			ErrInvalidSearch, SearchLimitMax, q.Limit)
	}
	return nil
}

// SearchMatch groups every matched capability of one server into a single
// entry, carrying enough transport info for the caller to connect.
type SearchMatch struct {
	ServerID          string         `json:"server_id"`
	ServerType        ServerType     `json:"server_type"`
	ServerDescription string         `json:"server_description,omitempty"`
	ServerConfig      ServerConfig   `json:"server_config"`
	MatchedTools      []mcp.Tool     `json:"matched_tools"`
	MatchedResources  []mcp.Resource `json:"matched_resources"`
	MatchedPrompts    []mcp.Prompt   `json:"matched_prompts"`
}
