// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"github.com/danielhkuo/listgen/history"
	"github.com/danielhkuo/listgen/middleware"
	"github.com/danielhkuo/listgen/models"
)

type HistoryHandler struct {
	svc Services
}

func NewHistoryHandler(svc Services) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// List handles GET /api/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	state := h.svc.State.Current()
	if !state.Session.LoggedIn() {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Login required")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.HistoryResponse{
		Username: state.Session.CurrentUser,
		Entries:  history.Recent(state.CurrentEntries()),
	})
}

// Get handles GET /api/history/{chat_id}
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("chat_id")

	state := h.svc.State.Current()
	if !state.Session.LoggedIn() {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Login required")
		return
	}

	entry, err := history.FindForUser(state.History, state.Session.CurrentUser, chatID)
	if errors.Is(err, history.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Listing not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, entry)
}
