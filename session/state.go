// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"github.com/danielhkuo/listgen/models"
)

// State is the session plus the history it guards. Operations treat it as a
// value: they return a new State and never modify the maps or slices of the
// State they were given.
type State struct {
	Session models.Session
	History models.HistoryStore
}

// NewState returns the logged-out state with an empty history
func NewState() State {
	return State{History: models.HistoryStore{}}
}

// Entries returns the history of username, oldest first
func (s State) Entries(username string) []models.ListingEntry {
	return s.History[username]
}

// CurrentEntries returns the history of the logged-in user, or nil
func (s State) CurrentEntries() []models.ListingEntry {
	if !s.Session.LoggedIn() {
		return nil
	}
	return s.History[s.Session.CurrentUser]
}

// withHistory copies the outer map so the caller's State stays untouched.
// Entry slices are shared until a write replaces them.
func (s State) withHistory() State {
	h := make(models.HistoryStore, len(s.History)+1)
	for user, entries := range s.History {
		h[user] = entries
	}
	s.History = h
	return s
}

// ToPersisted converts the state to the on-disk document
func (s State) ToPersisted() models.PersistedState {
	ps := models.PersistedState{
		LoggedIn:       s.Session.Authenticated,
		ListingHistory: s.History,
	}
	if s.Session.CurrentUser != "" {
		user := s.Session.CurrentUser
		ps.Username = &user
	}
	if ps.ListingHistory == nil {
		ps.ListingHistory = models.HistoryStore{}
	}
	return ps
}

// FromPersisted restores a state from the on-disk document
func FromPersisted(ps models.PersistedState) State {
	s := State{
		Session: models.Session{Authenticated: ps.LoggedIn},
		History: ps.ListingHistory,
	}
	if ps.Username != nil {
		s.Session.CurrentUser = *ps.Username
	}
	if s.History == nil {
		s.History = models.HistoryStore{}
	}
	return s
}

// Outcome is returned by every state transition. Refresh tells the
// presentation layer to re-render from State.
type Outcome struct {
	State   State
	Refresh bool
}
