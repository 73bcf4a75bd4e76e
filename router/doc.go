// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the listing generator.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(svc, cfg)

main wraps the mux in middleware.Recover.

# Endpoints

Health:

	GET /health

Page and forms:

	GET  /          - Page, optional ?chat_id=
	POST /login     - Form login
	POST /logout    - Form logout
	POST /listings  - Upload images, generate a listing

JSON API (CORS enabled, OPTIONS preflight answered):

	GET  /api/session            - Current session
	POST /api/login              - Login
	POST /api/logout             - Logout
	POST /api/listings           - Upload images, JSON listing
	GET  /api/history            - History, newest first
	GET  /api/history/{chat_id}  - One entry

Any other path returns 404.
*/
package router
