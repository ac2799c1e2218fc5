// Package backend is the HTTP client for the external admissions REST API.
//
// Resource stores live in the sub-packages (student, enquiry, staff, auth);
// this package holds the shared transport, request helpers and error type.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"admissions/internal/adapters/http/perf"
	"admissions/internal/domain/rejection"
)

// DefaultTimeout bounds every backend call when the caller sets none.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// RequestIDHeader carries a per-call id the backend can log.
const RequestIDHeader = "X-Request-ID"

// ScopeParam is the query parameter that scopes results to one staff member.
const ScopeParam = "staff_id"

// ErrUnavailable wraps transport failures (refused, reset, timed out).
var ErrUnavailable = errors.New("admissions backend unavailable")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method    string
	Path      string
	Status    int
	Rejection *rejection.Rejection
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Rejection.Error())
}

// IsNotFound reports whether the backend answered 404.
func (e *APIError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// Options configures a Client.
type Options struct {
	Timeout   time.Duration
	Collector *perf.Collector
	SlowCall  time.Duration
	Transport http.RoundTripper
}

// Client calls the admissions backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New creates a Client for the given base URL.
// PRE: baseURL is an absolute http(s) URL
// POST: Returns a Client whose calls time out and are recorded to the collector
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q must be http or https", baseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: newTimingTransport(base, opts.Collector, opts.SlowCall),
		},
	}, nil
}

// Scope builds the query for a staff-scoped request. An empty staff id
// means unscoped (administrator).
func Scope(staffID string) url.Values {
	q := url.Values{}
	if staffID != "" {
		q.Set(ScopeParam, staffID)
	}
	return q
}

// Do sends one request and decodes a JSON answer into out (when non-nil).
// PRE: path starts with "/"; body is JSON-encodable or nil
// POST: Returns nil on 2xx; *APIError on other statuses; ErrUnavailable-wrapped errors on transport failure
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %w", ErrUnavailable, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Method:    method,
			Path:      path,
			Status:    resp.StatusCode,
			Rejection: rejection.Parse(resp.StatusCode, raw),
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// RejectionOf extracts the backend rejection from an error chain.
// Transport and decode failures yield a generic rejection.
func RejectionOf(err error) *rejection.Rejection {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Rejection != nil {
		return apiErr.Rejection
	}
	var rej *rejection.Rejection
	if errors.As(err, &rej) {
		return rej
	}
	return &rejection.Rejection{Fields: rejection.FieldErrors{}}
}

// ItemPath joins a collection path and an id: "/api/submit/" + 4 -> "/api/submit/4/".
func ItemPath(collection string, id int64) string {
	return fmt.Sprintf("%s%d/", collection, id)
}
