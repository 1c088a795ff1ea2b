// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stacklok/mcphub/pkg/mcp"
	"github.com/stacklok/mcphub/pkg/registry"
)

// capabilityHit is one candidate capability row joined with its server.
type capabilityHit struct {
	serverID    string
	serverType  string
	serverDesc  string
	configBlob  []byte
	name        string
	uri         string
	description string
	detail      []byte
}

// SearchCapabilities returns capability matches grouped per server. The query
// is assumed normalized: lowercased text, explicit kinds, bounded limit.
// Match entries appear in the order their server is first encountered while
// scanning kinds (tools, then resources, then prompts); within a server,
// capabilities keep their stored order. The limit caps the number of server
// entries returned.
func (s *Store) SearchCapabilities(ctx context.Context, query registry.SearchQuery) ([]registry.SearchMatch, error) {
	matches := []registry.SearchMatch{}
	byServer := map[string]int{}

	for _, kind := range query.Kinds {
		// Each kind's rows are collected fully before the next query runs;
		// the pool is limited to a single connection.
		hits, err := s.searchKind(ctx, kind, query)
		if err != nil {
			return nil, err
		}

		for _, hit := range hits {
			if !hit.matches(kind, query.Query) {
				continue
			}

			idx, ok := byServer[hit.serverID]
			if !ok {
				var config registry.ServerConfig
				if err := json.Unmarshal(hit.configBlob, &config); err != nil {
					return nil, fmt.Errorf("decoding config: %w", err)
				}
				matches = append(matches, registry.SearchMatch{
					ServerID:          hit.serverID,
					ServerType:        registry.ServerType(hit.serverType),
					ServerDescription: hit.serverDesc,
					ServerConfig:      config,
					MatchedTools:      []mcp.Tool{},
					MatchedResources:  []mcp.Resource{},
					MatchedPrompts:    []mcp.Prompt{},
				})
				idx = len(matches) - 1
				byServer[hit.serverID] = idx
			}

			if err := appendMatch(&matches[idx], kind, hit.detail); err != nil {
				return nil, err
			}
		}
	}

	if len(matches) > query.Limit {
		matches = matches[:query.Limit]
	}

	return matches, nil
}

// searchKind fetches candidate rows of one kind for active servers.
func (s *Store) searchKind(
	ctx context.Context, kind registry.CapabilityKind, query registry.SearchQuery,
) ([]capabilityHit, error) {
	sqlQuery := `
		SELECT c.server_id, s.server_type, s.description, json(s.config),
		       c.name, c.uri, c.description, json(c.detail)
		FROM capabilities c
		JOIN servers s ON s.id = c.server_id
		WHERE s.status = ? AND c.kind = ?`
	args := []any{string(registry.ServerStatusActive), string(kind)}

	if query.Type != "" {
		sqlQuery += ` AND s.server_type = ?`
		args = append(args, string(query.Type))
	}
	if query.Query != "" {
		// Broad LIKE prefilter. The exact substring check happens in
		// matches(): LIKE wildcards inside the query text would overmatch
		// here, never undermatch.
		pattern := "%" + query.Query + "%"
		sqlQuery += ` AND (c.name LIKE ? OR c.description LIKE ? OR c.uri LIKE ?)`
		args = append(args, pattern, pattern, pattern)
	}

	sqlQuery += ` ORDER BY c.id`

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s capabilities: %w", kind, err)
	}
	defer func() { _ = rows.Close() }()

	var hits []capabilityHit
	for rows.Next() {
		var hit capabilityHit
		if err := rows.Scan(
			&hit.serverID, &hit.serverType, &hit.serverDesc, &hit.configBlob,
			&hit.name, &hit.uri, &hit.description, &hit.detail,
		); err != nil {
			return nil, fmt.Errorf("scanning capability row: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating capability rows: %w", err)
	}

	return hits, nil
}

// matches applies the exact case-insensitive substring check. The uri field
// only counts for resources.
func (h *capabilityHit) matches(kind registry.CapabilityKind, query string) bool {
	if query == "" {
		return true
	}
	if containsFold(h.name, query) || containsFold(h.description, query) {
		return true
	}
	return kind == registry.KindResource && containsFold(h.uri, query)
}

// containsFold reports whether s contains the already-lowercased substr,
// ignoring case in s.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

// appendMatch decodes a matched capability row into the match entry.
func appendMatch(match *registry.SearchMatch, kind registry.CapabilityKind, detail []byte) error {
	switch kind {
	case registry.KindTool:
		var tool mcp.Tool
		if err := json.Unmarshal(detail, &tool); err != nil {
			return fmt.Errorf("decoding tool: %w", err)
		}
		match.MatchedTools = append(match.MatchedTools, tool)
	case registry.KindResource:
		var resource mcp.Resource
		if err := json.Unmarshal(detail, &resource); err != nil {
			return fmt.Errorf("decoding resource: %w", err)
		}
		match.MatchedResources = append(match.MatchedResources, resource)
	case registry.KindPrompt:
		var prompt mcp.Prompt
		if err := json.Unmarshal(detail, &prompt); err != nil {
			return fmt.Errorf("decoding prompt: %w", err)
		}
		match.MatchedPrompts = append(match.MatchedPrompts, prompt)
	default:
		return fmt.Errorf("unknown capability kind %q", kind)
	}

	return nil
}
