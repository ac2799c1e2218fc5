package web

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/blake2b"

	"admissions/internal/adapters/backend/auth"
	enquiryStore "admissions/internal/adapters/backend/enquiry"
	staffStore "admissions/internal/adapters/backend/staff"
	studentStore "admissions/internal/adapters/backend/student"
	"admissions/internal/adapters/email"
	"admissions/internal/adapters/http/middleware"
	"admissions/internal/adapters/http/perf"
	"admissions/internal/adapters/storage/formtoken"
	sessionStore "admissions/internal/adapters/storage/session"
)

// Stores holds all backend and cache dependencies.
type Stores struct {
	Students   studentStore.Store
	Enquiries  enquiryStore.Store
	Staff      staffStore.Store
	Auth       auth.Gateway
	Sessions   sessionStore.Store
	FormTokens formtoken.Store
}

// Options configures NewMux.
type Options struct {
	StaticDir      string
	CSRFKey        []byte
	Secure         bool // production: Secure cookies and strict CSRF origin checks
	TrustedOrigins []string
	SlowRequest    time.Duration
	Collector      *perf.Collector
	Email          email.Sender // nil disables assignment notices
	PortalURL      string
	Limiter        *middleware.RateLimiter // nil builds one from RateLimitPerSecond
}

// LoadCSRFKey turns the configured secret into a 32-byte key.
// An empty secret outside production gets a random key per start-up.
// PRE: production secrets were length-checked by config.Load
// POST: Returns exactly 32 bytes
func LoadCSRFKey(raw string, production bool) ([]byte, error) {
	switch {
	case len(raw) == 32:
		return []byte(raw), nil
	case raw != "":
		sum := blake2b.Sum256([]byte(raw))
		return sum[:], nil
	case production:
		return nil, fmt.Errorf("ADMISSIONS_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate CSRF key: %w", err)
	}
	slog.Warn("csrf_key_random", "hint", "set ADMISSIONS_CSRF_KEY so forms survive a restart")
	return key, nil
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global flash codec (set by NewMux)
var flasher *middleware.Flasher

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global email sender and portal URL for assignment notices (set by NewMux)
var (
	emailSender email.Sender
	portalURL   string
)

// secureCookies mirrors Options.Secure for the session cookie.
var secureCookies bool

// RateLimitPerSecond controls the per-IP limit on form posts. Tests can increase this.
var RateLimitPerSecond = 10

// NewMux wires HTTP handlers for the portal.
func NewMux(s *Stores, opts Options) http.Handler {
	stores = s
	perfCollector = opts.Collector
	emailSender = opts.Email
	portalURL = opts.PortalURL
	secureCookies = opts.Secure

	// The flash codec gets its own key derived from the CSRF secret.
	flashKey := blake2b.Sum256(append([]byte("flash:"), opts.CSRFKey...))
	flasher = middleware.NewFlasher(flashKey[:], opts.Secure)

	mux := http.NewServeMux()
	staticDir := opts.StaticDir
	if staticDir == "" {
		staticDir = "static"
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	registerRoutes(mux)

	limiter := opts.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	}

	// Timing wraps everything; the mux sees SecurityHeaders last.
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, middleware.CSRFOptions{Secure: opts.Secure, TrustedOrigins: opts.TrustedOrigins}),
		middleware.Auth(s.Sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(opts.Collector, opts.SlowRequest),
	)
}

// registerRoutes maps every portal path to its handler. Role checks that
// apply to a whole path happen here; per-method checks stay in the handlers.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", handleHome)
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/logout", handleLogout)

	authed := func(path string, h http.HandlerFunc) {
		mux.Handle(path, middleware.RequireAuth(h))
	}
	admin := func(path string, h http.HandlerFunc) {
		mux.Handle(path, middleware.RequireAdmin(h))
	}

	authed("/students", studentPages.handleList)
	authed("/students/update", studentPages.handleUpdate)
	authed("/students/delete", studentPages.handleDelete)
	authed("/students/bulk-delete", studentPages.handleBulkDelete)

	authed("/enquiries", enquiryPages.handleList)
	authed("/enquiries/update", enquiryPages.handleUpdate)
	authed("/enquiries/delete", enquiryPages.handleDelete)
	authed("/enquiries/bulk-delete", enquiryPages.handleBulkDelete)

	admin("/staff", handleStaff)
	admin("/staff/update", handleStaffUpdate)
	admin("/staff/delete", handleStaffDelete)
	admin("/staff/links/add", handleStaffLinkAdd)
	admin("/staff/links/remove", handleStaffLinkRemove)

	admin("/admin/perf", handleAdminPerf)
}
