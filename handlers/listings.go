// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/danielhkuo/listgen/cliparse"
	"github.com/danielhkuo/listgen/listing"
	"github.com/danielhkuo/listgen/middleware"
	"github.com/danielhkuo/listgen/models"
	"github.com/danielhkuo/listgen/session"
)

const (
	imagesField    = "images"
	maxUploadBytes = 32 << 20

	noImagesMessage = "Please upload at least one product image."
	successMessage  = "Listing generated successfully!"
)

// Accepted upload extensions and the content type sent for each
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// requestError carries the status and message a failed generation maps to
type requestError struct {
	Status  int
	Message string
}

func (e *requestError) Error() string { return e.Message }

// generation is the result of one upload
type generation struct {
	images  []listing.Image
	listing *listing.Listing
	entry   *models.ListingEntry
	warning string
}

type ListingHandler struct {
	svc Services
	cfg cliparse.Config
}

func NewListingHandler(svc Services, cfg cliparse.Config) *ListingHandler {
	return &ListingHandler{svc: svc, cfg: cfg}
}

// Generate handles POST /listings
// Logged-in users are redirected to the stored entry. Guests get the
// listing rendered inline and nothing is saved.
func (h *ListingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	gen, err := h.generate(w, r)
	if err != nil {
		var rerr *requestError
		errors.As(err, &rerr)
		data := newPageData(h.svc.State.Current(), h.cfg)
		data.Error = rerr.Message
		renderPage(w, rerr.Status, data)
		return
	}

	if gen.entry != nil && gen.warning == "" {
		http.Redirect(w, r, "/?chat_id="+url.QueryEscape(gen.entry.ChatID), http.StatusSeeOther)
		return
	}

	data := newPageData(h.svc.State.Current(), h.cfg)
	data.Previews = imagePreviews(gen.images)
	data.Sections = listing.Render(gen.listing)
	data.Success = successMessage
	data.Warning = gen.warning
	renderPage(w, http.StatusOK, data)
}

// APIGenerate handles POST /api/listings
func (h *ListingHandler) APIGenerate(w http.ResponseWriter, r *http.Request) {
	gen, err := h.generate(w, r)
	if err != nil {
		var rerr *requestError
		errors.As(err, &rerr)
		middleware.ErrorResponse(w, rerr.Status, rerr.Message)
		return
	}

	sections, err := gen.listing.MarshalJSON()
	if err != nil {
		slog.Error("failed to encode listing", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to encode listing")
		return
	}

	status := http.StatusOK
	if gen.entry != nil {
		status = http.StatusCreated
	}
	middleware.JSONResponse(w, status, models.GenerateListingResponse{
		Sections: sections,
		Raw:      gen.listing.IsRaw(),
		Entry:    gen.entry,
		Warning:  gen.warning,
	})
}

// generate reads the upload, calls the analysis service and, for a
// logged-in user, appends the new entry. Errors are always *requestError.
func (h *ListingHandler) generate(w http.ResponseWriter, r *http.Request) (*generation, error) {
	if !h.cfg.APIConfigured() {
		return nil, &requestError{http.StatusServiceUnavailable, "The analysis service URL is not configured."}
	}

	images, err := readImages(w, r)
	if err != nil {
		return nil, err
	}

	// Who to save for is decided before the slow call
	username := ""
	if s := h.svc.State.Current().Session; s.LoggedIn() {
		username = s.CurrentUser
	}

	// The analysis call runs outside the state lock
	raw, err := h.svc.Analyzer.Analyze(r.Context(), images)
	if err != nil {
		return nil, analysisError(err)
	}

	gen := &generation{images: images, listing: listing.Format(raw)}
	if gen.listing.IsRaw() {
		slog.Warn("analysis service returned an unstructured listing", "bytes", len(raw))
	}
	if username == "" {
		return gen, nil
	}

	entry, err := listing.NewEntry(gen.listing)
	if err != nil {
		slog.Error("failed to build history entry", "error", err)
		return nil, &requestError{http.StatusInternalServerError, "Failed to save listing"}
	}

	_, err = h.svc.State.Apply(func(s session.State) (session.Outcome, error) {
		return h.svc.Sessions.AppendEntry(saveContext(r), s, username, entry)
	})
	var perr *session.PersistenceError
	switch {
	case errors.As(err, &perr):
		gen.warning = warningText(err)
	case err != nil:
		slog.Error("failed to append history entry", "username", username, "error", err)
		return nil, &requestError{http.StatusInternalServerError, "Failed to save listing"}
	}

	slog.Info("listing saved", "username", username, "chat_id", entry.ChatID, "title", entry.Title)
	gen.entry = &entry
	return gen, nil
}

// readImages collects the uploaded images in form order
func readImages(w http.ResponseWriter, r *http.Request) ([]listing.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, &requestError{http.StatusBadRequest, noImagesMessage}
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, &requestError{http.StatusRequestEntityTooLarge, "Upload is too large"}
		}
		return nil, &requestError{http.StatusBadRequest, "Invalid upload"}
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File[imagesField]
	if len(files) == 0 {
		return nil, &requestError{http.StatusBadRequest, noImagesMessage}
	}

	images := make([]listing.Image, 0, len(files))
	for _, fh := range files {
		img, err := readImage(fh)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func readImage(fh *multipart.FileHeader) (listing.Image, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	contentType, ok := imageTypes[ext]
	if !ok {
		return listing.Image{}, &requestError{
			http.StatusBadRequest,
			fmt.Sprintf("Unsupported file type %q: use jpg, jpeg or png", fh.Filename),
		}
	}
	if ct := fh.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") {
		contentType = ct
	}

	f, err := fh.Open()
	if err != nil {
		return listing.Image{}, &requestError{http.StatusBadRequest, "Invalid upload"}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return listing.Image{}, &requestError{http.StatusBadRequest, "Invalid upload"}
	}

	return listing.Image{Filename: fh.Filename, Data: data, ContentType: contentType}, nil
}

// analysisError maps the listing error taxonomy onto HTTP
func analysisError(err error) error {
	slog.Warn("listing generation failed", "error", err)

	var (
		verr  *listing.ValidationError
		nerr  *listing.NetworkError
		serr  *listing.ServiceError
		derr  *listing.DecodeError
		scerr *listing.SchemaError
	)
	switch {
	case errors.As(err, &verr):
		if errors.Is(err, listing.ErrNoImages) {
			return &requestError{http.StatusBadRequest, noImagesMessage}
		}
		return &requestError{http.StatusBadRequest, err.Error()}
	case errors.As(err, &nerr):
		if nerr.Timeout {
			return &requestError{http.StatusGatewayTimeout, "API request failed: " + err.Error() + ". Please try again."}
		}
		return &requestError{http.StatusBadGateway, "API request failed: " + err.Error() + ". Please try again."}
	case errors.As(err, &serr):
		return &requestError{http.StatusBadGateway, "API request failed: " + err.Error()}
	case errors.As(err, &derr):
		return &requestError{http.StatusBadGateway, "Invalid response from API server"}
	case errors.As(err, &scerr):
		return &requestError{http.StatusBadGateway, "Failed to generate listing - missing 'listing_section' in API response"}
	}
	return &requestError{http.StatusInternalServerError, "Failed to generate listing"}
}
