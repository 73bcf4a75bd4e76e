// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package history looks up stored listings by chat id.
//
// Lookups only ever search one user's list; there is no cross-user search.
// Scans are linear since histories stay small.
package history

import (
	"errors"

	"github.com/danielhkuo/listgen/models"
)

var ErrNotFound = errors.New("listing not found")

// Find returns the first entry whose chat id equals id
func Find(entries []models.ListingEntry, id string) (models.ListingEntry, error) {
	if id == "" {
		return models.ListingEntry{}, ErrNotFound
	}
	for _, e := range entries {
		if e.ChatID == id {
			return e, nil
		}
	}
	return models.ListingEntry{}, ErrNotFound
}

// FindForUser searches only username's own history
func FindForUser(h models.HistoryStore, username, id string) (models.ListingEntry, error) {
	return Find(h[username], id)
}

// Recent returns a newest-first copy of entries
func Recent(entries []models.ListingEntry) []models.ListingEntry {
	out := make([]models.ListingEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
