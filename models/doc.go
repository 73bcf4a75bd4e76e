// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, persistence, and response types.

# Domain Types

  - User: username and password of an allow-listed account
  - Session: authenticated flag and current user
  - ListingEntry: one stored listing (chat_id, title, description, attributes)
  - HistoryStore: username → entries, oldest first

# Persistence

PersistedState mirrors the state file byte for byte:

	{
	  "logged_in": true,
	  "username": "user",
	  "listing_history": {
	    "user": [
	      {"chat_id": "...", "title": "Blue Mug", "description": "A mug", "attributes": "{}"}
	    ]
	  }
	}

A logged-out session stores "username": null.

# Request Types

  - LoginRequest: username, password

# Response Types

  - HistoryResponse: username, entries (newest first)
  - GenerateListingResponse: ordered sections, entry (only when logged in), warning
  - SessionResponse: logged_in, username, warning
  - ErrorResponse: error, message
*/
package models
