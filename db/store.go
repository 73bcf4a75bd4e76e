// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/listgen/models"
	"github.com/danielhkuo/listgen/session"
)

// Supported database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

const stateRowID = 1

// Open connects to the database and creates the schema
func Open(ctx context.Context, dbType, url string) (*sql.DB, error) {
	if url == "" {
		return nil, errors.New("database URL is required")
	}

	var driver string
	switch dbType {
	case TypeSQLite, "":
		driver = "sqlite"
	case TypePostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if driver == "sqlite" {
		// single writer
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if err := CreateSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

// StateStore is a session.Persister backed by a SQL table
type StateStore struct {
	db       *sql.DB
	postgres bool
}

var _ session.Persister = (*StateStore)(nil)

func NewStateStore(db *sql.DB, dbType string) *StateStore {
	return &StateStore{db: db, postgres: dbType == TypePostgres}
}

// Load reads the state row. An empty table yields session.ErrNoState.
func (s *StateStore) Load(ctx context.Context) (models.PersistedState, error) {
	var ps models.PersistedState
	var payload string

	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT payload FROM session_state WHERE id = ?"), stateRowID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return ps, session.ErrNoState
	}
	if err != nil {
		return ps, fmt.Errorf("failed to query session state: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &ps); err != nil {
		return models.PersistedState{}, fmt.Errorf("failed to parse session state: %w", err)
	}
	return ps, nil
}

// Save replaces the state row in a single statement
func (s *StateStore) Save(ctx context.Context, state models.PersistedState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO session_state (id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET payload = excluded.payload, updated_at = excluded.updated_at
	`), stateRowID, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	return nil
}

// rebind turns ? placeholders into $n for postgres
func (s *StateStore) rebind(query string) string {
	if !s.postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
