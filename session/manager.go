// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/danielhkuo/listgen/models"
)

var (
	ErrEmptyUsername = errors.New("username is required")
	ErrEmptyChatID   = errors.New("entry chat_id is required")
	ErrNoHistory     = errors.New("user has no history")
)

// Manager applies session transitions and writes every change through to
// its Persister.
type Manager struct {
	p Persister
}

func NewManager(p Persister) *Manager {
	return &Manager{p: p}
}

// Load restores the persisted state. When nothing was saved yet it returns
// the default state and no error. When the store is unreadable it returns
// the default state together with a *PersistenceError.
func (m *Manager) Load(ctx context.Context) (State, error) {
	ps, err := m.p.Load(ctx)
	if errors.Is(err, ErrNoState) {
		return NewState(), nil
	}
	if err != nil {
		return NewState(), &PersistenceError{Op: "load", Err: err}
	}
	return FromPersisted(ps), nil
}

// Save writes the whole state. Failures come back as *PersistenceError.
func (m *Manager) Save(ctx context.Context, s State) error {
	if err := m.p.Save(ctx, s.ToPersisted()); err != nil {
		slog.Warn("failed to save session state", "error", err)
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// Login marks username as authenticated and makes sure it has a history
// list. Credentials must be checked by the caller.
func (m *Manager) Login(ctx context.Context, s State, username string) (Outcome, error) {
	if username == "" {
		return Outcome{State: s}, ErrEmptyUsername
	}

	next := s.withHistory()
	next.Session = models.Session{Authenticated: true, CurrentUser: username}
	if _, ok := next.History[username]; !ok {
		next.History[username] = []models.ListingEntry{}
	}

	return Outcome{State: next, Refresh: true}, m.Save(ctx, next)
}

// Logout clears the session. History is kept.
func (m *Manager) Logout(ctx context.Context, s State) (Outcome, error) {
	next := s
	next.Session = models.Session{}
	return Outcome{State: next, Refresh: true}, m.Save(ctx, next)
}

// AppendEntry adds entry to the end of username's history and persists
// immediately. The user must have logged in at least once, or be the
// current user.
func (m *Manager) AppendEntry(ctx context.Context, s State, username string, entry models.ListingEntry) (Outcome, error) {
	if username == "" {
		return Outcome{State: s}, ErrEmptyUsername
	}
	if entry.ChatID == "" {
		return Outcome{State: s}, ErrEmptyChatID
	}

	prev, ok := s.History[username]
	if !ok && !(s.Session.LoggedIn() && s.Session.CurrentUser == username) {
		return Outcome{State: s}, ErrNoHistory
	}

	entries := make([]models.ListingEntry, len(prev), len(prev)+1)
	copy(entries, prev)
	entries = append(entries, entry)

	next := s.withHistory()
	next.History[username] = entries

	return Outcome{State: next, Refresh: true}, m.Save(ctx, next)
}

// Holder owns the live State of the process and serializes transitions.
type Holder struct {
	mu    sync.Mutex
	state State
}

func NewHolder(initial State) *Holder {
	return &Holder{state: initial}
}

// Current returns a snapshot of the live state
func (h *Holder) Current() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Apply runs one transition against the live state. A refreshing outcome
// replaces the live state even when err reports a persistence failure.
func (h *Holder) Apply(fn func(State) (Outcome, error)) (Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out, err := fn(h.state)
	if out.Refresh {
		h.state = out.State
	}
	return out, err
}
