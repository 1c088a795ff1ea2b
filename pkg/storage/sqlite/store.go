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

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/stacklok/mcphub/pkg/mcp"
	"github.com/stacklok/mcphub/pkg/registry"
	"github.com/stacklok/mcphub/pkg/storage"
)

// Store implements storage.Store using SQLite.
type Store struct {
	wrapper *DB
	db      *sql.DB
}

// NewStore creates a new SQLite-backed Store.
func NewStore(db *DB) *Store {
	return &Store{wrapper: db, db: db.DB()}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.wrapper.Close()
}

var _ storage.Store = (*Store)(nil)

// serverColumns is the SELECT column list shared by server queries.
const serverColumns = `s.id, s.server_type, s.description, json(s.config), s.status,
			s.created_at, s.updated_at, s.last_verified`

// CreateServer stores a new server record together with its capability snapshot.
func (s *Store) CreateServer(ctx context.Context, record registry.ServerRecord, caps mcp.Capabilities) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(tx)

	configJSON, err := json.Marshal(record.Config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO servers (
			id, server_type, description, config, status,
			created_at, updated_at, last_verified
		) VALUES (?, ?, ?, jsonb(?), ?, ?, ?, ?)`,
		record.ID,
		string(record.Type),
		record.Description,
		string(configJSON),
		string(record.Status),
		formatTime(record.CreatedAt),
		formatTime(record.UpdatedAt),
		formatNullableTime(record.LastVerified),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("inserting server: %w", err)
	}

	if err := insertCapabilities(ctx, tx, record.ID, caps); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// GetServer retrieves a server record by id.
func (s *Store) GetServer(ctx context.Context, id string) (registry.ServerRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+serverColumns+` FROM servers s WHERE s.id = ?`,
		id,
	)
	return scanServerFields(row)
}

// GetCapabilities retrieves the stored capability snapshot for a server.
func (s *Store) GetCapabilities(ctx context.Context, id string) (mcp.Capabilities, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM servers WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return emptyCapabilities(), storage.ErrNotFound
	}
	if err != nil {
		return emptyCapabilities(), fmt.Errorf("looking up server: %w", err)
	}

	return fetchCapabilities(ctx, s.db, id)
}

// ListServers returns all server records matching the given filter,
// newest registration first.
func (s *Store) ListServers(ctx context.Context, filter storage.ServerFilter) ([]registry.ServerRecord, error) {
	query := `SELECT ` + serverColumns + ` FROM servers s`

	var args []any
	var conditions []string

	if filter.Type != "" {
		conditions = append(conditions, `s.server_type = ?`)
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		conditions = append(conditions, `s.status = ?`)
		args = append(args, string(filter.Status))
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}

	query += ` ORDER BY s.created_at DESC, s.rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying servers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	servers := []registry.ServerRecord{}
	for rows.Next() {
		record, scanErr := scanServerFields(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		servers = append(servers, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating server rows: %w", err)
	}

	return servers, nil
}

// UpdateServerStatus sets a server's status and, when lastVerified is
// non-nil, its last verification time.
func (s *Store) UpdateServerStatus(
	ctx context.Context, id string, status registry.ServerStatus, lastVerified *time.Time,
) error {
	query := `UPDATE servers SET status = ?, updated_at = ?`
	args := []any{string(status), formatTime(time.Now())}

	if lastVerified != nil {
		query += `, last_verified = ?`
		args = append(args, formatTime(*lastVerified))
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating server status: %w", err)
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

// RecordVerification sets the server's status and verification time and
// replaces its capability snapshot wholesale.
func (s *Store) RecordVerification(
	ctx context.Context, id string, status registry.ServerStatus, verifiedAt time.Time, caps mcp.Capabilities,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx,
		`UPDATE servers SET status = ?, last_verified = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(verifiedAt), formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("updating server: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM capabilities WHERE server_id = ?`, id); err != nil {
		return fmt.Errorf("clearing capabilities: %w", err)
	}
	if err := insertCapabilities(ctx, tx, id, caps); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// DeleteServer removes a server and its capability rows in one transaction.
// The capability rows are deleted explicitly so the operation does not depend
// on the foreign_keys pragma being enabled on the connection.
func (s *Store) DeleteServer(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx, `DELETE FROM capabilities WHERE server_id = ?`, id); err != nil {
		return fmt.Errorf("clearing capabilities: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM servers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting server: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// scanner is an interface satisfied by both *sql.Row and *sql.Rows.
type scanner interface{ Scan(dest ...any) error }

// scanServerFields scans a server row into a ServerRecord.
func scanServerFields(sc scanner) (registry.ServerRecord, error) {
	var (
		id           string
		serverType   string
		description  string
		configBlob   []byte
		status       string
		createdAtStr string
		updatedAtStr string
		lastVerified sql.NullString
	)

	err := sc.Scan(
		&id, &serverType, &description, &configBlob, &status,
		&createdAtStr, &updatedAtStr, &lastVerified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return registry.ServerRecord{}, storage.ErrNotFound
		}
		return registry.ServerRecord{}, fmt.Errorf("scanning server row: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return registry.ServerRecord{}, fmt.Errorf("parsing created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updatedAtStr)
	if err != nil {
		return registry.ServerRecord{}, fmt.Errorf("parsing updated_at: %w", err)
	}

	var config registry.ServerConfig
	if err := json.Unmarshal(configBlob, &config); err != nil {
		return registry.ServerRecord{}, fmt.Errorf("decoding config: %w", err)
	}

	record := registry.ServerRecord{
		ID:          id,
		Type:        registry.ServerType(serverType),
		Description: description,
		Config:      config,
		Status:      registry.ServerStatus(status),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}

	if lastVerified.Valid {
		verified, parseErr := time.Parse(time.RFC3339Nano, lastVerified.String)
		if parseErr != nil {
			return registry.ServerRecord{}, fmt.Errorf("parsing last_verified: %w", parseErr)
		}
		record.LastVerified = &verified
	}

	return record, nil
}

// insertCapabilities inserts a capability snapshot within a transaction.
func insertCapabilities(ctx context.Context, tx *sql.Tx, serverID string, caps mcp.Capabilities) error {
	for _, tool := range caps.Tools {
		if err := insertCapabilityRow(ctx, tx, serverID, registry.KindTool, tool.Name, "", tool.Description, tool); err != nil {
			return err
		}
	}
	for _, resource := range caps.Resources {
		if err := insertCapabilityRow(
			ctx, tx, serverID, registry.KindResource, resource.Name, resource.URI, resource.Description, resource,
		); err != nil {
			return err
		}
	}
	for _, prompt := range caps.Prompts {
		if err := insertCapabilityRow(ctx, tx, serverID, registry.KindPrompt, prompt.Name, "", prompt.Description, prompt); err != nil {
			return err
		}
	}

	return nil
}

// insertCapabilityRow inserts one capability with its full JSON detail.
func insertCapabilityRow(
	ctx context.Context, tx *sql.Tx, serverID string,
	kind registry.CapabilityKind, name, uri, description string, capability any,
) error {
	detail, err := json.Marshal(capability)
	if err != nil {
		return fmt.Errorf("encoding %s %q: %w", kind, name, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO capabilities (server_id, kind, name, uri, description, detail)
		VALUES (?, ?, ?, ?, ?, jsonb(?))`,
		serverID, string(kind), name, uri, description, string(detail),
	); err != nil {
		return fmt.Errorf("inserting %s %q: %w", kind, name, err)
	}

	return nil
}

// fetchCapabilities reads the stored capability snapshot for a server.
func fetchCapabilities(ctx context.Context, db *sql.DB, serverID string) (mcp.Capabilities, error) {
	caps := emptyCapabilities()

	rows, err := db.QueryContext(ctx,
		`SELECT kind, json(detail) FROM capabilities WHERE server_id = ? ORDER BY id`,
		serverID,
	)
	if err != nil {
		return caps, fmt.Errorf("querying capabilities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var kind string
		var detail []byte
		if err := rows.Scan(&kind, &detail); err != nil {
			return caps, fmt.Errorf("scanning capability row: %w", err)
		}
		if err := appendCapability(&caps, registry.CapabilityKind(kind), detail); err != nil {
			return caps, err
		}
	}
	if err := rows.Err(); err != nil {
		return caps, fmt.Errorf("iterating capability rows: %w", err)
	}

	return caps, nil
}

// appendCapability decodes a stored capability row into the snapshot.
func appendCapability(caps *mcp.Capabilities, kind registry.CapabilityKind, detail []byte) error {
	switch kind {
	case registry.KindTool:
		var tool mcp.Tool
		if err := json.Unmarshal(detail, &tool); err != nil {
			return fmt.Errorf("decoding tool: %w", err)
		}
		caps.Tools = append(caps.Tools, tool)
	case registry.KindResource:
		var resource mcp.Resource
		if err := json.Unmarshal(detail, &resource); err != nil {
			return fmt.Errorf("decoding resource: %w", err)
		}
		caps.Resources = append(caps.Resources, resource)
	case registry.KindPrompt:
		var prompt mcp.Prompt
		if err := json.Unmarshal(detail, &prompt); err != nil {
			return fmt.Errorf("decoding prompt: %w", err)
		}
		caps.Prompts = append(caps.Prompts, prompt)
	default:
		return fmt.Errorf("unknown capability kind %q", kind)
	}

	return nil
}

// emptyCapabilities returns a snapshot with initialized slices so the triple
// always serializes as arrays.
func emptyCapabilities() mcp.Capabilities {
	return mcp.Capabilities{
		Tools:     []mcp.Tool{},
		Resources: []mcp.Resource{},
		Prompts:   []mcp.Prompt{},
	}
}

// formatTime renders a timestamp for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// formatNullableTime renders an optional timestamp for storage.
func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// isUniqueViolation checks for a SQLite uniqueness violation. Primary key
// conflicts surface with their own extended code.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// rollback rolls back tx, ignoring errors (tx may already be committed).
func rollback(tx *sql.Tx) { _ = tx.Rollback() }
