// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/listgen/cliparse"
	"github.com/danielhkuo/listgen/history"
)

type PageHandler struct {
	svc Services
	cfg cliparse.Config
}

func NewPageHandler(svc Services, cfg cliparse.Config) *PageHandler {
	return &PageHandler{svc: svc, cfg: cfg}
}

// Index handles GET /
// With ?chat_id= it shows that entry of the logged-in user. Unknown ids and
// guests fall through to the upload form.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	state := h.svc.State.Current()
	data := newPageData(state, h.cfg)

	if chatID := r.URL.Query().Get("chat_id"); chatID != "" && data.LoggedIn {
		if entry, err := history.FindForUser(state.History, data.Username, chatID); err == nil {
			data.Entry = &entry
		}
	}

	renderPage(w, http.StatusOK, data)
}
