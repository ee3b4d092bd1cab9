// Package apiclient talks to the Prima Scholar REST backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PabloGalante/prima-scholar/internal/app/documents"
	"github.com/PabloGalante/prima-scholar/internal/domain"
)

const (
	DefaultBase = "/api"
	DefaultHost = "http://localhost:8080"

	EnvBase = "PRIMA_API_BASE"
	EnvHost = "PRIMA_API_HOST"
)

// APIError is a non-2xx answer of the backend.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Health struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// Upload is one document sent to the backend.
type Upload struct {
	StudentID domain.StudentID
	Title     string
	Filename  string
	Content   io.Reader
}

type Client struct {
	base       string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP timeout of the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a client for base, the URL every path is appended to
// (e.g. "http://localhost:8080/api").
func New(base string, opts ...Option) *Client {
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromEnv creates a client for BaseURL(os.Getenv).
func NewFromEnv(opts ...Option) (*Client, error) {
	base, err := BaseURL(os.Getenv)
	if err != nil {
		return nil, err
	}
	return New(base, opts...), nil
}

// BaseURL resolves PRIMA_API_BASE (default "/api"). A relative base is
// resolved against PRIMA_API_HOST (default "http://localhost:8080").
func BaseURL(getenv func(string) string) (string, error) {
	base := strings.TrimSpace(getenv(EnvBase))
	if base == "" {
		base = DefaultBase
	}
	ref, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", EnvBase, err)
	}
	if ref.IsAbs() {
		return strings.TrimRight(ref.String(), "/"), nil
	}

	host := strings.TrimSpace(getenv(EnvHost))
	if host == "" {
		host = DefaultHost
	}
	hostURL, err := url.Parse(host)
	if err != nil || !hostURL.IsAbs() {
		return "", fmt.Errorf("%s must be an absolute URL, got %q", EnvHost, host)
	}
	return strings.TrimRight(hostURL.ResolveReference(ref).String(), "/"), nil
}

// Base returns the resolved base URL.
func (c *Client) Base() string { return c.base }

// Health runs the liveness check.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, "", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// UploadDocument sends a multipart form with file, title and student_id.
func (c *Client) UploadDocument(ctx context.Context, u Upload) (*documents.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("student_id", string(u.StudentID)); err != nil {
		return nil, err
	}
	if err := mw.WriteField("title", u.Title); err != nil {
		return nil, err
	}
	fw, err := mw.CreateFormFile("file", u.Filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, u.Content); err != nil {
		return nil, fmt.Errorf("reading %s: %w", u.Filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var res documents.UploadResult
	if err := c.do(ctx, http.MethodPost, "/documents/upload", &buf, mw.FormDataContentType(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListDocuments lists the documents of a student, or of everyone when id is
// empty.
func (c *Client) ListDocuments(ctx context.Context, id domain.StudentID) ([]domain.DocumentSummary, error) {
	path := "/documents"
	if id != "" {
		path += "?student_id=" + url.QueryEscape(string(id))
	}

	var out struct {
		Documents []domain.DocumentSummary `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// Summarize asks for a summary of at most maxSentences sentences.
func (c *Client) Summarize(ctx context.Context, text string, maxSentences int) (*documents.Summary, error) {
	body, err := json.Marshal(map[string]any{
		"text":          text,
		"max_sentences": maxSentences,
	})
	if err != nil {
		return nil, err
	}

	var out documents.Summary
	if err := c.do(ctx, http.MethodPost, "/summarize", bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func parseError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Detail = body.Message
		return apiErr
	}

	apiErr.Message = http.StatusText(resp.StatusCode)
	if text := strings.TrimSpace(string(raw)); text != "" {
		apiErr.Detail = text
	}
	return apiErr
}
