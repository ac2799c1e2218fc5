package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sessionStore "admissions/internal/adapters/storage/session"
	"admissions/internal/domain/session"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "admissions_session"

// Session is the authenticated identity attached to a request.
type Session struct {
	session.Context
	Token string
}

// SessionReader resolves a cookie token to a live session.
type SessionReader interface {
	Get(ctx context.Context, token string, now time.Time) (session.Context, error)
}

// now is a variable for testability.
var now = time.Now

// Auth returns middleware that resolves the session cookie and puts the
// session in the request context. It does NOT block unauthenticated
// requests; use RequireAuth or RequireAdmin for that.
func Auth(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err == nil && cookie.Value != "" {
				sc, err := sessions.Get(r.Context(), cookie.Value, now())
				switch {
				case err == nil:
					r = r.WithContext(ContextWithSession(r.Context(), Session{Context: sc, Token: cookie.Value}))
				case errors.Is(err, sessionStore.ErrNotFound):
					// expired or logged out elsewhere
				default:
					slog.Error("session_lookup_failed", "path", r.URL.Path, "error", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth returns middleware that redirects unauthenticated requests to the login page.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns middleware that only lets administrators through.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login?role=admin", http.StatusSeeOther)
			return
		}
		if !sess.IsAdmin() {
			slog.Warn("auth_denied", "path", r.URL.Path, "role", string(sess.Role), "required", "admin")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(Session)
	return sess, ok
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// IsAdmin checks if the current session is an admin.
func IsAdmin(ctx context.Context) bool {
	sess, ok := GetSessionFromContext(ctx)
	return ok && sess.IsAdmin()
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(session.TTL / time.Second),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
