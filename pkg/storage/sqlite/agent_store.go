// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stacklok/mcphub/pkg/registry"
	"github.com/stacklok/mcphub/pkg/storage"
)

// agentColumns is the SELECT column list shared by agent queries.
const agentColumns = `a.id, a.name, a.description, a.url, a.version, a.owner,
			json(a.card), a.created_at, a.updated_at, a.last_heartbeat`

// CreateAgent stores a new agent card record.
func (s *Store) CreateAgent(ctx context.Context, agent registry.Agent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agents (
			id, name, description, url, version, owner, card,
			created_at, updated_at, last_heartbeat
		) VALUES (?, ?, ?, ?, ?, ?, jsonb(?), ?, ?, ?)`,
		agent.ID,
		agent.Name,
		agent.Description,
		agent.URL,
		agent.Version,
		agent.Owner,
		string(agent.Card),
		formatTime(agent.CreatedAt),
		formatTime(agent.UpdatedAt),
		formatNullableTime(agent.LastHeartbeat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("inserting agent: %w", err)
	}

	return nil
}

// GetAgent retrieves an agent by id.
func (s *Store) GetAgent(ctx context.Context, id string) (registry.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents a WHERE a.id = ?`,
		id,
	)
	return scanAgentFields(row)
}

// ListAgents returns all agents matching the given filter, newest
// registration first.
func (s *Store) ListAgents(ctx context.Context, filter storage.AgentFilter) ([]registry.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents a`

	var args []any
	var conditions []string

	if filter.Owner != "" {
		conditions = append(conditions, `a.owner = ?`)
		args = append(args, filter.Owner)
	}
	if filter.Name != "" {
		// Prefilter only; the case-insensitive substring check happens in
		// agentMatches.
		conditions = append(conditions, `a.name LIKE ?`)
		args = append(args, "%"+filter.Name+"%")
	}
	if filter.Skill != "" {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM json_each(a.card, '$.skills')
			WHERE json_extract(value, '$.id') = ?)`)
		args = append(args, filter.Skill)
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}

	query += ` ORDER BY a.created_at DESC, a.rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	agents := []registry.Agent{}
	for rows.Next() {
		agent, scanErr := scanAgentFields(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		if agentMatches(agent, filter) {
			agents = append(agents, agent)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating agent rows: %w", err)
	}

	return agents, nil
}

// UpdateAgent replaces an agent's card and indexed fields.
func (s *Store) UpdateAgent(ctx context.Context, agent registry.Agent) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE agents SET name = ?, description = ?, url = ?, version = ?,
			owner = ?, card = jsonb(?), updated_at = ?
		WHERE id = ?`,
		agent.Name,
		agent.Description,
		agent.URL,
		agent.Version,
		agent.Owner,
		string(agent.Card),
		formatTime(agent.UpdatedAt),
		agent.ID,
	)
	if err != nil {
		return fmt.Errorf("updating agent: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// TouchAgent records a heartbeat for an agent.
func (s *Store) TouchAgent(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE agents SET last_heartbeat = ? WHERE id = ?`,
		formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("updating heartbeat: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// DeleteAgent removes an agent by id.
func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting agent: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// agentMatches applies the filters that need the parsed card.
func agentMatches(agent registry.Agent, filter storage.AgentFilter) bool {
	if filter.Name != "" && !containsFold(agent.Name, strings.ToLower(filter.Name)) {
		return false
	}
	if filter.Skill != "" && !agent.HasSkill(filter.Skill) {
		return false
	}

	caps := agent.CapabilityFlags()
	if filter.Streaming && !caps.Streaming {
		return false
	}
	if filter.PushNotifications && !caps.PushNotifications {
		return false
	}
	if filter.StateTransitionHistory && !caps.StateTransitionHistory {
		return false
	}

	if !filter.AliveAfter.IsZero() {
		if agent.LastHeartbeat == nil || agent.LastHeartbeat.Before(filter.AliveAfter) {
			return false
		}
	}

	return true
}

// scanAgentFields scans an agent row into an Agent record.
func scanAgentFields(sc scanner) (registry.Agent, error) {
	var (
		id            string
		name          string
		description   string
		url           string
		version       string
		owner         string
		cardBlob      []byte
		createdAtStr  string
		updatedAtStr  string
		lastHeartbeat sql.NullString
	)

	err := sc.Scan(
		&id, &name, &description, &url, &version, &owner,
		&cardBlob, &createdAtStr, &updatedAtStr, &lastHeartbeat,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return registry.Agent{}, storage.ErrNotFound
		}
		return registry.Agent{}, fmt.Errorf("scanning agent row: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return registry.Agent{}, fmt.Errorf("parsing created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updatedAtStr)
	if err != nil {
		return registry.Agent{}, fmt.Errorf("parsing updated_at: %w", err)
	}

	var view struct {
		Capabilities json.RawMessage `json:"capabilities"`
		Skills       json.RawMessage `json:"skills"`
	}
	if err := json.Unmarshal(cardBlob, &view); err != nil {
		return registry.Agent{}, fmt.Errorf("decoding agent card: %w", err)
	}

	agent := registry.Agent{
		ID:           id,
		Name:         name,
		Description:  description,
		URL:          url,
		Version:      version,
		Owner:        owner,
		Capabilities: view.Capabilities,
		Skills:       view.Skills,
		Card:         json.RawMessage(cardBlob),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}

	if lastHeartbeat.Valid {
		beat, parseErr := time.Parse(time.RFC3339Nano, lastHeartbeat.String)
		if parseErr != nil {
			return registry.Agent{}, fmt.Errorf("parsing last_heartbeat: %w", parseErr)
		}
		agent.LastHeartbeat = &beat
	}

	return agent, nil
}
