// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second

	analyzePath  = "/analyze-product"
	imagesField  = "images"
	listingField = "listing_section"

	maxResponseBytes = 10 << 20
	maxErrorBody     = 4 << 10
)

// Image is one uploaded product photo
type Image struct {
	Filename    string
	Data        []byte
	ContentType string
}

// Client talks to the external image-analysis service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for baseURL. Every call is bounded by timeout;
// zero means DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the URL that Analyze posts to
func (c *Client) Endpoint() string {
	return c.baseURL + analyzePath
}

// Close releases idle connections to the service
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Analyze uploads images in one request and returns the raw listing_section
// value. It makes at most one attempt.
func (c *Client) Analyze(ctx context.Context, images []Image) (json.RawMessage, error) {
	if len(images) == 0 {
		return nil, &ValidationError{Err: ErrNoImages}
	}

	body, contentType, err := encodeImages(images)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("analysis request failed", "endpoint", c.Endpoint(), "error", err)
		return nil, &NetworkError{Err: err, Timeout: isTimeout(err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &NetworkError{Err: err, Timeout: isTimeout(err)}
	}

	slog.Info("analysis request completed",
		"status", resp.StatusCode,
		"images", len(images),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: truncate(string(data), maxErrorBody)}
	}

	return extractListing(data)
}

// extractListing pulls the listing field out of a success body
func extractListing(data []byte) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if fields == nil {
		return nil, &DecodeError{Err: errors.New("response body is null")}
	}

	raw, ok := fields[listingField]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return nil, &SchemaError{Field: listingField}
	}
	return raw, nil
}

func encodeImages(images []Image) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for i, img := range images {
		if img.Filename == "" {
			return nil, "", fmt.Errorf("image %d has no filename", i)
		}
		ct := img.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			imagesField, quoteEscaper.Replace(img.Filename)))
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part: %w", err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
