package backend

import (
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"admissions/internal/adapters/http/perf"
)

// DefaultSlowCall is the default threshold for slow backend call warnings.
const DefaultSlowCall = time.Second

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// timingTransport logs every backend call and records it to the collector.
type timingTransport struct {
	next      http.RoundTripper
	collector *perf.Collector
	slow      time.Duration
}

func newTimingTransport(next http.RoundTripper, collector *perf.Collector, slow time.Duration) *timingTransport {
	if slow <= 0 {
		slow = DefaultSlowCall
	}
	return &timingTransport{next: next, collector: collector, slow: slow}
}

// RoundTrip implements http.RoundTripper.
func (t *timingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	elapsed := time.Since(start)
	durationMs := float64(elapsed.Microseconds()) / 1000.0

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	path := req.Method + " " + routePattern(req.URL.Path)
	attrs := []any{
		"request_id", req.Header.Get(RequestIDHeader),
		"call", path,
		"status", status,
		"duration_ms", durationMs,
	}
	switch {
	case err != nil:
		slog.Warn("backend_call_failed", append(attrs, "error", err)...)
	case elapsed >= t.slow:
		slog.Warn("slow_backend_call", attrs...)
	default:
		slog.Debug("backend_call", attrs...)
	}

	t.collector.Record(perf.Entry{
		Kind:       perf.KindBackend,
		Path:       path,
		StatusCode: status,
		DurationMs: durationMs,
		Timestamp:  start,
	})
	return resp, err
}

// routePattern replaces numeric path segments so calls aggregate per route.
func routePattern(p string) string {
	return numericSegment.ReplaceAllString(p, "/{id}$1")
}
