// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers for the listing generator: the
HTML page and its forms, plus a small JSON API over the same state.

# Handler Types

Each handler is a struct built from the shared Services and the Config:

  - PageHandler: the single page (login form or history sidebar, upload form, stored entry)
  - SessionHandler: login and logout, as forms and as JSON
  - ListingHandler: image upload and listing generation
  - HistoryHandler: JSON access to the logged-in user's history

Handlers are created via constructor functions:

	listingHandler := handlers.NewListingHandler(svc, cfg)

# State

All handlers share one session.Holder. Every transition (login, logout,
append) runs through Holder.Apply, so requests inside one process never
lose each other's updates. The analysis call itself runs outside the lock.

A failed save is a warning: the page or JSON response carries
"Error saving session: ..." and the in-memory state keeps the change.

# Generating a Listing

	POST /listings     - multipart "images" (jpg, jpeg, png)
	POST /api/listings - same upload, JSON response

Logged-in users get a new history entry and are redirected to
/?chat_id=<id>. Guests see the listing inline with image previews and
nothing is saved.

Analysis failures map to status codes:

  - no images, bad file type: 400
  - service error, bad body, missing listing_section: 502
  - timeout: 504
  - endpoint not configured: 503

# History

	GET /?chat_id=<id>          - show a stored entry; unknown ids show the upload form
	GET /api/history            - entries, newest first
	GET /api/history/{chat_id}  - one entry, 404 when not in the user's own list
*/
package handlers
