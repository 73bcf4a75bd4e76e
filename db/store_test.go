// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/danielhkuo/listgen/models"
	"github.com/danielhkuo/listgen/session"
)

func setupTestDB(t *testing.T) *StateStore {
	t.Helper()

	conn, err := Open(context.Background(), TypeSQLite, filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return NewStateStore(conn, TypeSQLite)
}

func TestStateStore_EmptyTable(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.Load(context.Background())
	if !errors.Is(err, session.ErrNoState) {
		t.Errorf("Expected ErrNoState, got %v", err)
	}
}

func TestStateStore_SaveOverwrites(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := "user"
	first := models.PersistedState{
		LoggedIn: true,
		Username: &user,
		ListingHistory: models.HistoryStore{
			"user": {{ChatID: "1", Title: "Blue Mug", Description: "A mug", Attributes: "{}"}},
		},
	}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := first
	second.LoggedIn = false
	second.Username = nil
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.LoggedIn || got.Username != nil {
		t.Errorf("Expected logged out state, got logged_in=%v username=%v", got.LoggedIn, got.Username)
	}
	if len(got.ListingHistory["user"]) != 1 || got.ListingHistory["user"][0].Title != "Blue Mug" {
		t.Errorf("History not preserved: %+v", got.ListingHistory)
	}

	var rows int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM session_state").Scan(&rows); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if rows != 1 {
		t.Errorf("Expected a single state row, got %d", rows)
	}
}

func TestStateStore_WithManager(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	mgr := session.NewManager(store)

	out, err := mgr.Login(ctx, session.NewState(), "admin")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	out, err = mgr.AppendEntry(ctx, out.State, "admin", models.ListingEntry{ChatID: "abc", Title: "Lamp"})
	if err != nil {
		t.Fatalf("AppendEntry() error = %v", err)
	}

	loaded, err := session.NewManager(store).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Session.CurrentUser != "admin" || !loaded.Session.Authenticated {
		t.Errorf("Unexpected session: %+v", loaded.Session)
	}
	if entries := loaded.Entries("admin"); len(entries) != 1 || entries[0].ChatID != "abc" {
		t.Errorf("Unexpected entries: %+v", entries)
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := Open(ctx, TypeSQLite, ""); err == nil {
		t.Error("Expected error for empty URL")
	}
	if _, err := Open(ctx, "mysql", "whatever"); err == nil {
		t.Error("Expected error for unsupported type")
	}
}

func TestRebind(t *testing.T) {
	pg := &StateStore{postgres: true}
	lite := &StateStore{}

	query := "SELECT a FROM t WHERE x = ? AND y = ?"
	if got := pg.rebind(query); got != "SELECT a FROM t WHERE x = $1 AND y = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	if got := lite.rebind(query); got != query {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
}
