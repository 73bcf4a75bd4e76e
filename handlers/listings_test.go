// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielhkuo/listgen/cliparse"
	"github.com/danielhkuo/listgen/history"
	"github.com/danielhkuo/listgen/listing"
	"github.com/danielhkuo/listgen/models"
	"github.com/danielhkuo/listgen/session"
	"github.com/danielhkuo/listgen/testutil"
)

const blueMug = `{"title":"Blue Mug","product_description":"A mug"}`

func mugUpload(t *testing.T, path string) *http.Request {
	return testutil.MakeUploadRequest(t, path, testutil.UploadFile{Name: "mug.png", Data: testutil.PNGBytes})
}

// TestGenerate_EndToEnd covers the whole flow for a logged-in user:
// 1. Login
// 2. Upload one image
// 3. Entry appended and persisted
// 4. Entry found by its chat id and shown on the page
func TestGenerate_EndToEnd(t *testing.T) {
	var gotFiles []string
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/analyze-product" && r.ParseMultipartForm(1<<20) == nil {
			for _, fh := range r.MultipartForm.File["images"] {
				gotFiles = append(gotFiles, fh.Filename+" "+fh.Header.Get("Content-Type"))
			}
		}
		testutil.ListingSection(blueMug)(w, r)
	})

	// Step 1
	testutil.AssertStatus(t, env.login(t, "user", "testpass"), http.StatusSeeOther)

	// Step 2
	w := httptest.NewRecorder()
	NewListingHandler(env.svc, env.cfg).Generate(w, mugUpload(t, "/listings"))

	testutil.AssertStatus(t, w, http.StatusSeeOther)
	if len(gotFiles) != 1 || gotFiles[0] != "mug.png image/png" {
		t.Errorf("Unexpected upload at analysis service: %v", gotFiles)
	}

	// Step 3
	ps := testutil.ReadState(t, env.statePath)
	entries := ps.ListingHistory["user"]
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Title != "Blue Mug" || entry.Description != "A mug" || entry.Attributes != "{}" {
		t.Errorf("Unexpected entry %+v", entry)
	}
	if loc := w.Header().Get("Location"); loc != "/?chat_id="+entry.ChatID {
		t.Errorf("Expected redirect to new entry, got %s", loc)
	}

	// Step 4
	found, err := history.Find(env.svc.State.Current().CurrentEntries(), entry.ChatID)
	if err != nil || found != entry {
		t.Errorf("Find returned %+v, %v", found, err)
	}

	w = httptest.NewRecorder()
	NewPageHandler(env.svc, env.cfg).Index(w, httptest.NewRequest("GET", "/?chat_id="+entry.ChatID, nil))
	body := w.Body.String()
	if !strings.Contains(body, "📝 Blue Mug") || !strings.Contains(body, "A mug") {
		t.Error("Expected the stored entry on the page")
	}
	if strings.Contains(body, `action="/listings"`) {
		t.Error("Stored entry view should not show the upload form")
	}
}

func TestIndex_UnknownChatIDFallsThrough(t *testing.T) {
	env := newTestEnv(t, testutil.ListingSection(blueMug))
	env.login(t, "user", "testpass")

	w := httptest.NewRecorder()
	NewPageHandler(env.svc, env.cfg).Index(w, httptest.NewRequest("GET", "/?chat_id=nope", nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `action="/listings"`) {
		t.Error("Unknown chat id should show the upload form")
	}
}

func TestGenerate_ServiceErrorCreatesNoEntry(t *testing.T) {
	env := newTestEnv(t, testutil.StatusResponse(http.StatusInternalServerError, "model crashed"))
	env.login(t, "user", "testpass")

	w := httptest.NewRecorder()
	NewListingHandler(env.svc, env.cfg).Generate(w, mugUpload(t, "/listings"))

	testutil.AssertStatus(t, w, http.StatusBadGateway)
	if !strings.Contains(w.Body.String(), "500") {
		t.Error("Expected the service status in the message")
	}
	if env.api.Calls() != 1 {
		t.Errorf("Expected exactly one call, got %d", env.api.Calls())
	}
	if n := len(env.svc.State.Current().CurrentEntries()); n != 0 {
		t.Errorf("Expected no entries, got %d", n)
	}
	if n := len(testutil.ReadState(t, env.statePath).ListingHistory["user"]); n != 0 {
		t.Errorf("Expected no persisted entries, got %d", n)
	}
}

func TestGenerate_RejectsBeforeCalling(t *testing.T) {
	testCases := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
		msg    string
	}{
		{
			name: "no files",
			req: func(t *testing.T) *http.Request {
				return testutil.MakeUploadRequest(t, "/listings")
			},
			status: http.StatusBadRequest,
			msg:    "Please upload at least one product image.",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest("POST", "/listings", nil)
			},
			status: http.StatusBadRequest,
			msg:    "Please upload at least one product image.",
		},
		{
			name: "unsupported type",
			req: func(t *testing.T) *http.Request {
				return testutil.MakeUploadRequest(t, "/listings",
					testutil.UploadFile{Name: "mug.png", Data: testutil.PNGBytes},
					testutil.UploadFile{Name: "mug.gif", Data: []byte("GIF89a")})
			},
			status: http.StatusBadRequest,
			msg:    "Unsupported file type",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, testutil.ListingSection(blueMug))

			w := httptest.NewRecorder()
			NewListingHandler(env.svc, env.cfg).Generate(w, tc.req(t))

			testutil.AssertStatus(t, w, tc.status)
			if !strings.Contains(w.Body.String(), tc.msg) {
				t.Errorf("Expected %q in page", tc.msg)
			}
			if env.api.Calls() != 0 {
				t.Errorf("Analysis service should not be called, got %d calls", env.api.Calls())
			}
		})
	}
}

func TestGenerate_UppercaseExtensionAccepted(t *testing.T) {
	env := newTestEnv(t, testutil.ListingSection(blueMug))

	w := httptest.NewRecorder()
	NewListingHandler(env.svc, env.cfg).Generate(w, testutil.MakeUploadRequest(t, "/listings",
		testutil.UploadFile{Name: "MUG.JPEG", Data: []byte{0xff, 0xd8, 0xff}}))

	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestGenerate_APINotConfigured(t *testing.T) {
	env := newTestEnv(t, testutil.ListingSection(blueMug))
	env.cfg.APIURL = cliparse.PlaceholderAPIURL

	w := httptest.NewRecorder()
	NewListingHandler(env.svc, env.cfg).Generate(w, mugUpload(t, "/listings"))

	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
	if env.api.Calls() != 0 {
		t.Error("Analysis service should not be called")
	}
}

func TestGenerate_Guest(t *testing.T) {
	env := newTestEnv(t, testutil.ListingSection(`{"title":"Blue Mug","features":["Dishwasher safe","12 oz"],"attributes":{"color":"blue"}}`))

	w := httptest.NewRecorder()
	NewListingHandler(env.svc, env.cfg).Generate(w, mugUpload(t, "/listings"))

	testutil.AssertStatus(t, w, http.StatusOK)
	body := w.Body.String()
	for _, want := range []string{
		"Listing generated successfully!",
		"Blue Mug",
		"<li>Dishwasher safe</li>",
		"<strong>Color:</strong> blue",
		`src="data:image/png;base64,`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in page", want)
		}
	}

	if _, err := os.Stat(env.statePath); !os.IsNotExist(err) {
		t.Error("Guest listings must not be persisted")
	}
}

func TestGenerate_RawListingFallback(t *testing.T) {
	env := newTestEnv(t, testutil.ListingSection("A lovely blue mug."))

	w := httptest.NewRecorder()
	NewListingHandler(env.svc, env.cfg).Generate(w, mugUpload(t, "/listings"))

	testutil.AssertStatus(t, w, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, "Raw Listing") || !strings.Contains(body, "A lovely blue mug.") {
		t.Error("Expected the raw text section")
	}
}

func TestGenerate_PersistenceWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "session_state.json")
	mgr := session.NewManager(session.NewFileStore(path))
	env := newTestEnvWithManager(t, mgr, path, testutil.ListingSection(blueMug))
	env.login(t, "user", "testpass")

	w := httptest.NewRecorder()
	NewListingHandler(env.svc, env.cfg).Generate(w, mugUpload(t, "/listings"))

	testutil.AssertStatus(t, w, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, "Error saving session") || !strings.Contains(body, "Blue Mug") {
		t.Error("Expected the listing together with a save warning")
	}
	if n := len(env.svc.State.Current().CurrentEntries()); n != 1 {
		t.Errorf("Entry should be kept in memory, got %d", n)
	}
}

// cancelingAnalyzer ends the request's context as soon as it has answered,
// as if the client disconnected while the entry was being saved
type cancelingAnalyzer struct {
	listing json.RawMessage
	cancel  context.CancelFunc
}

func (a *cancelingAnalyzer) Analyze(ctx context.Context, images []listing.Image) (json.RawMessage, error) {
	a.cancel()
	return a.listing, nil
}

func TestGenerate_ClientGoneStillSaves(t *testing.T) {
	env := newTestEnv(t, testutil.ListingSection(blueMug))
	env.login(t, "user", "testpass")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.svc.Analyzer = &cancelingAnalyzer{listing: json.RawMessage(blueMug), cancel: cancel}

	w := httptest.NewRecorder()
	NewListingHandler(env.svc, env.cfg).Generate(w, mugUpload(t, "/listings").WithContext(ctx))

	testutil.AssertStatus(t, w, http.StatusSeeOther)
	mem := env.svc.State.Current().CurrentEntries()
	disk := testutil.ReadState(t, env.statePath).ListingHistory["user"]
	if len(mem) != 1 || len(disk) != 1 {
		t.Fatalf("Expected the entry in memory and on disk, got %d and %d", len(mem), len(disk))
	}
	if disk[0] != mem[0] {
		t.Errorf("Disk entry %+v differs from memory %+v", disk[0], mem[0])
	}
}

// logoutAnalyzer logs the user out while the analysis is in flight
type logoutAnalyzer struct {
	svc *Services
}

func (a logoutAnalyzer) Analyze(ctx context.Context, images []listing.Image) (json.RawMessage, error) {
	_, err := a.svc.State.Apply(func(s session.State) (session.Outcome, error) {
		return a.svc.Sessions.Logout(ctx, s)
	})
	return json.RawMessage(blueMug), err
}

func TestGenerate_LogoutDuringAnalysisSavesForUploader(t *testing.T) {
	env := newTestEnv(t, testutil.ListingSection(blueMug))
	env.login(t, "user", "testpass")
	env.svc.Analyzer = logoutAnalyzer{svc: &env.svc}

	w := httptest.NewRecorder()
	NewListingHandler(env.svc, env.cfg).Generate(w, mugUpload(t, "/listings"))

	testutil.AssertStatus(t, w, http.StatusSeeOther)
	ps := testutil.ReadState(t, env.statePath)
	if ps.LoggedIn {
		t.Error("Expected the logout to stick")
	}
	if n := len(ps.ListingHistory["user"]); n != 1 {
		t.Errorf("Entry should go to the user who uploaded, got %d entries", n)
	}
}

func TestGenerate_AttributesKeepServiceOrder(t *testing.T) {
	payload := `{"title":"Shirt","attributes":{"size":"L","color":"red"}}`
	env := newTestEnv(t, testutil.ListingSection(payload))
	env.login(t, "user", "testpass")

	w := httptest.NewRecorder()
	NewListingHandler(env.svc, env.cfg).Generate(w, mugUpload(t, "/listings"))

	testutil.AssertStatus(t, w, http.StatusSeeOther)
	entries := testutil.ReadState(t, env.statePath).ListingHistory["user"]
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Attributes != `{"size":"L","color":"red"}` {
		t.Errorf("Attributes reordered: %s", entries[0].Attributes)
	}

	// Guests see the attributes as bullets
	guest := newTestEnv(t, testutil.ListingSection(payload))
	w = httptest.NewRecorder()
	NewListingHandler(guest.svc, guest.cfg).Generate(w, mugUpload(t, "/listings"))
	testutil.AssertStatus(t, w, http.StatusOK)
	body := w.Body.String()
	size, color := strings.Index(body, "Size"), strings.Index(body, "Color")
	if size < 0 || color < 0 || size > color {
		t.Errorf("Expected Size before Color on the page (at %d and %d)", size, color)
	}
}

func TestAPIGenerate(t *testing.T) {
	payload := `{"title":"Blue Mug","product_description":"A mug","attributes":{"color":"blue"}}`
	env := newTestEnv(t, testutil.ListingSection(payload))
	h := NewListingHandler(env.svc, env.cfg)

	t.Run("guest", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.APIGenerate(w, mugUpload(t, "/api/listings"))

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.GenerateListingResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Entry != nil {
			t.Error("Guests should not get an entry")
		}
		if string(resp.Sections) != payload {
			t.Errorf("Sections should keep service order, got %s", resp.Sections)
		}
	})

	t.Run("logged in", func(t *testing.T) {
		env.login(t, "user", "testpass")

		w := httptest.NewRecorder()
		h.APIGenerate(w, mugUpload(t, "/api/listings"))

		testutil.AssertStatus(t, w, http.StatusCreated)
		var resp models.GenerateListingResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Entry == nil || resp.Entry.Title != "Blue Mug" || resp.Entry.Attributes != `{"color":"blue"}` {
			t.Fatalf("Unexpected entry %+v", resp.Entry)
		}
		if _, err := history.Find(env.svc.State.Current().CurrentEntries(), resp.Entry.ChatID); err != nil {
			t.Errorf("Entry should be in history: %v", err)
		}
	})

	t.Run("raw listing", func(t *testing.T) {
		raw := newTestEnv(t, testutil.ListingSection("A lovely blue mug."))

		w := httptest.NewRecorder()
		NewListingHandler(raw.svc, raw.cfg).APIGenerate(w, mugUpload(t, "/api/listings"))

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.GenerateListingResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.Raw {
			t.Error("Expected raw to be set for unstructured text")
		}
	})

	t.Run("schema error", func(t *testing.T) {
		bad := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"other":"x"}`)
		})

		w := httptest.NewRecorder()
		NewListingHandler(bad.svc, bad.cfg).APIGenerate(w, mugUpload(t, "/api/listings"))

		testutil.AssertStatus(t, w, http.StatusBadGateway)
		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if !strings.Contains(resp.Message, "listing_section") {
			t.Errorf("Unexpected message %q", resp.Message)
		}
	})
}

func TestAnalysisError(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"no images", &listing.ValidationError{Err: listing.ErrNoImages}, http.StatusBadRequest, "Please upload at least one product image."},
		{"timeout", &listing.NetworkError{Err: errors.New("deadline"), Timeout: true}, http.StatusGatewayTimeout, "timed out"},
		{"unreachable", &listing.NetworkError{Err: errors.New("refused")}, http.StatusBadGateway, "unreachable"},
		{"service", &listing.ServiceError{StatusCode: 503, Body: "busy"}, http.StatusBadGateway, "503"},
		{"decode", &listing.DecodeError{Err: errors.New("bad")}, http.StatusBadGateway, "Invalid response from API server"},
		{"schema", &listing.SchemaError{Field: "listing_section"}, http.StatusBadGateway, "missing 'listing_section'"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "Failed to generate listing"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var rerr *requestError
			if !errors.As(analysisError(tc.err), &rerr) {
				t.Fatal("Expected a requestError")
			}
			if rerr.Status != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, rerr.Status)
			}
			if !strings.Contains(rerr.Message, tc.msg) {
				t.Errorf("Expected %q in %q", tc.msg, rerr.Message)
			}
		})
	}
}
