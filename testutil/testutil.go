// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/listgen/cliparse"
	"github.com/danielhkuo/listgen/listing"
	"github.com/danielhkuo/listgen/models"
	"github.com/danielhkuo/listgen/session"
)

// PNGBytes is a tiny valid PNG header used as upload content
var PNGBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// SetupTestState returns a manager backed by a state file in a temp dir
func SetupTestState(t *testing.T) (*session.Manager, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "session_state.json")
	return session.NewManager(session.NewFileStore(path)), path
}

// ReadState decodes the state file at path
func ReadState(t *testing.T, path string) models.PersistedState {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read state file: %v", err)
	}
	var ps models.PersistedState
	if err := json.Unmarshal(data, &ps); err != nil {
		t.Fatalf("Failed to parse state file: %v", err)
	}
	return ps
}

// GetTestConfig returns a standard test configuration pointing at apiURL
func GetTestConfig(apiURL string) cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		APIURL:       apiURL,
		APITimeout:   2 * time.Second,
		StateFile:    cliparse.DefaultStateFile,
		DatabaseType: "sqlite",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// AnalysisServer is a fake analysis service that counts its calls
type AnalysisServer struct {
	*httptest.Server
	Client *listing.Client
	calls  atomic.Int32
}

// Calls returns how many requests reached the server
func (s *AnalysisServer) Calls() int {
	return int(s.calls.Load())
}

// NewAnalysisServer starts a fake analysis service with handler and a
// client bound to it. Both are closed when the test ends.
func NewAnalysisServer(t *testing.T, handler http.HandlerFunc) *AnalysisServer {
	t.Helper()

	s := &AnalysisServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		handler(w, r)
	}))
	s.Client = listing.NewClient(s.URL, 2*time.Second)
	t.Cleanup(func() {
		s.Client.Close()
		s.Close()
	})
	return s
}

// ListingSection answers every request with {"listing_section": value}
func ListingSection(value any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"listing_section": value})
	}
}

// StatusResponse answers every request with status and body
func StatusResponse(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

// UploadFile is one file in a multipart upload
type UploadFile struct {
	Name string
	Data []byte
}

// MakeUploadRequest builds a multipart request with each file under "images"
func MakeUploadRequest(t *testing.T, path string, files ...UploadFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile("images", f.Name)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		part.Write(f.Data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// MakeFormRequest creates a urlencoded POST request
func MakeFormRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
