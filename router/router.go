// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/listgen/cliparse"
	"github.com/danielhkuo/listgen/handlers"
	"github.com/danielhkuo/listgen/middleware"
)

func NewRouter(svc handlers.Services, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	pageHandler := handlers.NewPageHandler(svc, cfg)
	sessionHandler := handlers.NewSessionHandler(svc, cfg)
	listingHandler := handlers.NewListingHandler(svc, cfg)
	historyHandler := handlers.NewHistoryHandler(svc)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Page and forms
	mux.HandleFunc("GET /{$}", middleware.WithLogging(pageHandler.Index))
	mux.HandleFunc("POST /login", middleware.WithLogging(sessionHandler.Login))
	mux.HandleFunc("POST /logout", middleware.WithLogging(sessionHandler.Logout))
	mux.HandleFunc("POST /listings", middleware.WithLogging(listingHandler.Generate))

	// JSON API (cross-origin)
	api := func(h http.HandlerFunc) http.Handler {
		return middleware.CORS(middleware.WithLogging(h))
	}
	mux.Handle("GET /api/session", api(sessionHandler.APISession))
	mux.Handle("POST /api/login", api(sessionHandler.APILogin))
	mux.Handle("POST /api/logout", api(sessionHandler.APILogout))
	mux.Handle("POST /api/listings", api(listingHandler.APIGenerate))
	mux.Handle("GET /api/history", api(historyHandler.List))
	mux.Handle("GET /api/history/{chat_id}", api(historyHandler.Get))

	// Preflight
	mux.Handle("OPTIONS /api/", middleware.CORS(http.NotFoundHandler()))

	return mux
}
