// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/listgen/auth"
	"github.com/danielhkuo/listgen/cliparse"
	"github.com/danielhkuo/listgen/history"
	"github.com/danielhkuo/listgen/listing"
	"github.com/danielhkuo/listgen/models"
	"github.com/danielhkuo/listgen/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Analyzer sends product images to the analysis service
type Analyzer interface {
	Analyze(ctx context.Context, images []listing.Image) (json.RawMessage, error)
}

// Services bundles what the handlers share
type Services struct {
	Sessions    *session.Manager
	State       *session.Holder
	Credentials auth.CredentialProvider
	Analyzer    Analyzer
}

type preview struct {
	Name string
	Src  template.URL
}

// pageData is everything index.html renders
type pageData struct {
	LoggedIn      bool
	Username      string
	LoginName     string
	History       []models.ListingEntry
	APIConfigured bool

	Entry    *models.ListingEntry
	Sections []listing.Section
	Previews []preview

	Error   string
	Warning string
	Success string
}

func newPageData(s session.State, cfg cliparse.Config) pageData {
	data := pageData{
		LoggedIn:      s.Session.LoggedIn(),
		Username:      s.Session.CurrentUser,
		APIConfigured: cfg.APIConfigured(),
	}
	if data.LoggedIn {
		data.History = history.Recent(s.CurrentEntries())
	}
	return data
}

// renderPage buffers the template so a failure never leaves half a page
func renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		slog.Error("failed to render page", "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func imagePreviews(images []listing.Image) []preview {
	out := make([]preview, 0, len(images))
	for _, img := range images {
		src := "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
		out = append(out, preview{Name: img.Filename, Src: template.URL(src)})
	}
	return out
}

// warningText turns a persistence failure into the message shown to users
func warningText(err error) string {
	if err == nil {
		return ""
	}
	return "Error saving session: " + err.Error()
}

// saveContext is used for state writes. Once the state is committed in
// memory the write must finish even if the client has gone away.
func saveContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}
