package models

import "encoding/json"

// Placeholder shown when the analysis service omits a title
const DefaultListingTitle = "New Listing"

// Domain types

type User struct {
	Username string `json:"username"`
	Password string `json:"-"` // Never expose in JSON
}

// Session is the process-wide login state
type Session struct {
	Authenticated bool
	CurrentUser   string // empty when logged out
}

// LoggedIn reports whether a user is authenticated
func (s Session) LoggedIn() bool {
	return s.Authenticated && s.CurrentUser != ""
}

type ListingEntry struct {
	ChatID      string `json:"chat_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Attributes  string `json:"attributes"` // JSON-encoded attribute map
}

// username -> entries in chronological order
type HistoryStore map[string][]ListingEntry

// PersistedState is the on-disk document, rewritten wholesale on every save
type PersistedState struct {
	LoggedIn       bool         `json:"logged_in"`
	Username       *string      `json:"username"`
	ListingHistory HistoryStore `json:"listing_history"`
}

// Request types

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Response types

type HistoryResponse struct {
	Username string         `json:"username"`
	Entries  []ListingEntry `json:"entries"`
}

// Sections keeps the order the analysis service returned them in
type GenerateListingResponse struct {
	Sections json.RawMessage `json:"sections"`
	Raw      bool            `json:"raw,omitempty"`
	Entry    *ListingEntry   `json:"entry,omitempty"`
	Warning  string          `json:"warning,omitempty"`
}

type SessionResponse struct {
	LoggedIn bool   `json:"logged_in"`
	Username string `json:"username,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
