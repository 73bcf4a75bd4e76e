// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/listgen/auth"
	"github.com/danielhkuo/listgen/cliparse"
	"github.com/danielhkuo/listgen/middleware"
	"github.com/danielhkuo/listgen/models"
	"github.com/danielhkuo/listgen/session"
)

const invalidCredentialsMessage = "Invalid credentials!"

type SessionHandler struct {
	svc Services
	cfg cliparse.Config
}

func NewSessionHandler(svc Services, cfg cliparse.Config) *SessionHandler {
	return &SessionHandler{svc: svc, cfg: cfg}
}

// Login handles POST /login (form fields username, password)
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	out, err := h.login(r, username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		data := newPageData(h.svc.State.Current(), h.cfg)
		data.LoginName = username
		data.Error = invalidCredentialsMessage
		renderPage(w, http.StatusUnauthorized, data)
		return
	}
	if !h.afterTransition(w, out, err) {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.State.Apply(func(s session.State) (session.Outcome, error) {
		return h.svc.Sessions.Logout(saveContext(r), s)
	})
	if !h.afterTransition(w, out, err) {
		return
	}
	slog.Info("user logged out")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// afterTransition renders the page itself when the transition needs a
// warning or failed, and reports whether the caller should redirect.
func (h *SessionHandler) afterTransition(w http.ResponseWriter, out session.Outcome, err error) bool {
	if err == nil {
		return true
	}

	var perr *session.PersistenceError
	if errors.As(err, &perr) {
		data := newPageData(out.State, h.cfg)
		data.Warning = warningText(err)
		renderPage(w, http.StatusOK, data)
		return false
	}

	slog.Error("session transition failed", "error", err)
	data := newPageData(h.svc.State.Current(), h.cfg)
	data.Error = err.Error()
	renderPage(w, http.StatusBadRequest, data)
	return false
}

// APILogin handles POST /api/login
func (h *SessionHandler) APILogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	out, err := h.login(r, req.Username, req.Password)
	h.respondSession(w, out, err)
}

// APILogout handles POST /api/logout
func (h *SessionHandler) APILogout(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.State.Apply(func(s session.State) (session.Outcome, error) {
		return h.svc.Sessions.Logout(saveContext(r), s)
	})
	h.respondSession(w, out, err)
}

// APISession handles GET /api/session
func (h *SessionHandler) APISession(w http.ResponseWriter, r *http.Request) {
	s := h.svc.State.Current().Session
	middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{
		LoggedIn: s.LoggedIn(),
		Username: s.CurrentUser,
	})
}

func (h *SessionHandler) login(r *http.Request, username, password string) (session.Outcome, error) {
	if err := auth.Check(h.svc.Credentials, username, password); err != nil {
		slog.Warn("login rejected", "username", username, "remote", middleware.GetClientIP(r))
		return session.Outcome{}, err
	}

	out, err := h.svc.State.Apply(func(s session.State) (session.Outcome, error) {
		return h.svc.Sessions.Login(saveContext(r), s, username)
	})
	if out.Refresh {
		slog.Info("user logged in", "username", username)
	}
	return out, err
}

func (h *SessionHandler) respondSession(w http.ResponseWriter, out session.Outcome, err error) {
	var perr *session.PersistenceError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		middleware.ErrorResponse(w, http.StatusUnauthorized, invalidCredentialsMessage)
		return
	case err != nil && !errors.As(err, &perr):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{
		LoggedIn: out.State.Session.LoggedIn(),
		Username: out.State.Session.CurrentUser,
		Warning:  warningText(err),
	})
}
