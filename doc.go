// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the listing generator server.

The server takes product photos, sends them to an external image-analysis
service and shows the returned product listing. Logged-in users keep a
history of their listings; guests can generate listings without saving.

# Starting the Server

Point the server at the analysis service and run it:

	LLAVA_API_URL=https://example.ngrok.app go run .

Or with flags:

	go run . -p 3318 -api https://example.ngrok.app -state session_state.json

A .env file in the working directory is loaded first.

# Configuration

  - LLAVA_API_URL (-api): analysis service base URL, also read from secrets.yaml
  - API_TIMEOUT (-timeout): analysis request timeout (default: 30s)
  - STATE_FILE (-state): JSON session file (default: session_state.json)
  - DATABASE_URL (-d), DATABASE_TYPE (-t): keep session state in sqlite or postgres instead
  - USERS_FILE (-users): YAML map of username to bcrypt hash
  - -hash-password: read a password from stdin, print its bcrypt hash and exit
  - PORT (-p): server port (default: 3318)
  - LOG_LEVEL (-log-level), LOG_FORMAT (-log-format): logging

Without a users file the demo accounts admin/password123 and user/testpass
are accepted.

# Architecture

  - handlers: HTML page and JSON API
  - router: route definitions using Go 1.22+ routing
  - middleware: logging, panic recovery, CORS, JSON helpers
  - session: session state, transitions and file persistence
  - db: SQL persistence backend
  - listing: analysis client, listing formatting and rendering
  - history: lookup of stored listings
  - auth: credential providers
  - models: domain and response types
  - cliparse: configuration parsing
  - logging: slog setup

See package documentation for each component.
*/
package main
