// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db stores the session document in SQLite or PostgreSQL as an
alternative to the JSON state file.

# Opening

Open picks the driver from the database type and creates the schema:

	conn, err := db.Open(ctx, "sqlite", "state.db")
	conn, err := db.Open(ctx, "postgres", "postgres://...")

SQLite connections are limited to one open connection.

# Schema

CreateSchema is safe to call multiple times - uses IF NOT EXISTS.

  - session_state: one row (id = 1) holding the JSON document and updated_at

# State Store

StateStore implements session.Persister:

	store := db.NewStateStore(conn, cfg.DatabaseType)
	mgr := session.NewManager(store)

Save is a single upsert, so the row always holds either the old or the new
document.
*/
package db
