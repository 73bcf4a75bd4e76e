// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session holds login state and listing history and writes every
change through to a Persister.

# State

State pairs the models.Session with the models.HistoryStore. Transitions take
a State and return an Outcome with the next State; the input is never
modified, so a handler that fails half way still holds a consistent value.

	out, err := mgr.Login(ctx, state, "user")
	out, err = mgr.AppendEntry(ctx, out.State, "user", entry)
	out, err = mgr.Logout(ctx, out.State)

Outcome.Refresh tells the presentation layer that the state changed and the
view should be rebuilt.

# Persistence

Persister loads and saves the whole document. FileStore writes JSON to a
temp file and renames it over the target. The db package provides a SQL
implementation.

Persistence failures are warnings. Load returns the default logged-out state
with a *PersistenceError; transitions return the new in-memory state with a
*PersistenceError. Callers surface the message and keep going.

# Concurrency

Holder serializes transitions within one process. Separate processes sharing
a state file are not coordinated: the last writer wins.
*/
package session
