package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"admissions/internal/adapters/backend"
	"admissions/internal/adapters/http/middleware"
	"admissions/internal/adapters/storage/formtoken"
	sessionStore "admissions/internal/adapters/storage/session"
	"admissions/internal/application/orchestrators"
	"admissions/internal/domain/record"
	"admissions/internal/domain/rejection"
	"admissions/internal/domain/selection"
	"admissions/internal/domain/session"
	"admissions/internal/domain/staff"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// templatesDir is relative to the working directory; tests point it elsewhere.
var templatesDir = "internal/adapters/http/templates"

// Form field names shared by every mutation form.
const (
	formTokenField = "form_token"
	backField      = "back" // list query string to return to
)

// errMissingFormToken is returned for a post without its one-time token.
var errMissingFormToken = errors.New("form token missing")

// userErrors carry messages that are safe to show as they are.
var userErrors = []error{
	orchestrators.ErrNoScope,
	orchestrators.ErrRecordNotFound,
	orchestrators.ErrNotAdmin,
	orchestrators.ErrEmptySelection,
	orchestrators.ErrSelectionTooLarge,
	orchestrators.ErrMissingCredentials,
	session.ErrAdminPortalOnly,
	session.ErrStaffPortalOnly,
	session.ErrUnknownRole,
	staff.ErrEmptyLinkLabel,
	staff.ErrLinkLabelLength,
	staff.ErrInvalidLinkURL,
	staff.ErrLinkNotFound,
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// noticeFor returns the text shown to the user for a failed mutation.
// Backend rejections keep their message; anything unexpected becomes the
// generic notice and is logged.
func noticeFor(err error) string {
	if known, ok := userError(err); ok {
		return known.Error()
	}
	var apiErr *backend.APIError
	var rej *rejection.Rejection
	if errors.As(err, &apiErr) || errors.As(err, &rej) {
		return backend.RejectionOf(err).Error()
	}
	if !errors.Is(err, backend.ErrUnavailable) {
		slog.Error("mutation_failed", "error", err)
	}
	return rejection.GenericMessage
}

// userError finds the displayable sentinel in err's chain.
func userError(err error) (error, bool) {
	for _, known := range userErrors {
		if errors.Is(err, known) {
			return known, true
		}
	}
	return nil, false
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}

// pageMeta is what the layout needs from every page.
type pageMeta struct {
	Title    string
	Flash    middleware.Flash
	HasFlash bool
	Notice   string // inline error above a re-rendered form
}

// newMeta takes the pending flash for the page being rendered.
func newMeta(w http.ResponseWriter, r *http.Request, title string) pageMeta {
	m := pageMeta{Title: title}
	m.Flash, m.HasFlash = flasher.Take(w, r)
	return m
}

func renderTemplate(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	sess, ok := middleware.GetSessionFromContext(r.Context())

	funcMap := template.FuncMap{
		"currentRole":     func() string { return string(sess.Role) },
		"displayName":     func() string { return sess.DisplayName() },
		"isLoggedIn":      func() bool { return ok },
		"isAdmin":         func() bool { return ok && sess.IsAdmin() },
		"csrfToken":       func() string { return csrf.Token(r) },
		"csrfField":       func() template.HTML { return csrf.TemplateField(r) },
		"longPressMillis": func() int { return selection.LongPressMillis },
		"initial":         record.Initial,
		"dict": func(kv ...any) map[string]any {
			m := make(map[string]any, len(kv)/2)
			for i := 0; i+1 < len(kv); i += 2 {
				if k, isKey := kv[i].(string); isKey {
					m[k] = kv[i+1]
				}
			}
			return m
		},
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"selectedIf": func(cond bool) template.HTMLAttr {
			if cond {
				return "selected"
			}
			return ""
		},
		"checkedIf": func(cond bool) template.HTMLAttr {
			if cond {
				return "checked"
			}
			return ""
		},
	}

	layoutPath := filepath.Join(templatesDir, "layout.html")
	pagePath := filepath.Join(templatesDir, templateName)
	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFiles(layoutPath, pagePath)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// newFormToken issues the one-time token for the next form render.
func newFormToken() string {
	return uuid.NewString()
}

// claimFormToken consumes the token posted with a mutation form, so a
// double submit of the same form is applied once.
func claimFormToken(r *http.Request, sess middleware.Session) error {
	token := strings.TrimSpace(r.PostFormValue(formTokenField))
	if token == "" {
		return errMissingFormToken
	}
	return stores.FormTokens.Consume(r.Context(), token, sessionStore.HashToken(sess.Token), timeNow())
}

// releaseFormToken un-consumes a token whose submission changed nothing,
// so the browser may retry it.
func releaseFormToken(r *http.Request) {
	token := strings.TrimSpace(r.PostFormValue(formTokenField))
	if token == "" {
		return
	}
	if err := stores.FormTokens.Release(r.Context(), token); err != nil {
		slog.Warn("form_token_release_failed", "error", err)
	}
}

// rejectReplay answers a post whose form token was missing or already used.
// It returns true when the request has been handled.
func rejectReplay(w http.ResponseWriter, r *http.Request, sess middleware.Session, back string) bool {
	err := claimFormToken(r, sess)
	switch {
	case err == nil:
		return false
	case errors.Is(err, formtoken.ErrAlreadyUsed):
		slog.Info("form_replayed", "path", r.URL.Path)
		flasher.Error(w, "This form was already submitted.")
	case errors.Is(err, errMissingFormToken):
		flasher.Error(w, "The form has expired. Please try again.")
	default:
		slog.Error("form_token_failed", "path", r.URL.Path, "error", err)
		flasher.Error(w, rejection.GenericMessage)
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
	return true
}

// backQuery reads the list state a form was posted from.
func backQuery(r *http.Request) url.Values {
	q, err := url.ParseQuery(r.PostFormValue(backField))
	if err != nil {
		return url.Values{}
	}
	return q
}

// withQuery joins a path with query fragments; later fragments win.
func withQuery(path string, parts ...url.Values) string {
	q := url.Values{}
	for _, p := range parts {
		for k, v := range p {
			q[k] = v
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// homePage is the landing page data.
type homePage struct {
	pageMeta
}

// handleHome serves GET /: the portal chooser, or the lists once logged in.
func handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, record.KindStudents.Path(), http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, http.StatusOK, "home.html", homePage{pageMeta: newMeta(w, r, "Admissions Portal")})
}

// loginPage is the login form data.
type loginPage struct {
	pageMeta
	Portal  session.Portal
	LoginID string
	Error   string
}

// handleLogin handles GET (form) and POST (authenticate) for /login?role=
func handleLogin(w http.ResponseWriter, r *http.Request) {
	portal := session.ParsePortal(r.URL.Query().Get("role"))

	if r.Method == http.MethodGet {
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, record.KindStudents.Path(), http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, http.StatusOK, "login.html", loginPage{
			pageMeta: newMeta(w, r, portal.Title()),
			Portal:   portal,
		})
		return
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input := orchestrators.LoginInput{
			LoginID:  r.PostFormValue("login_id"),
			Password: r.PostFormValue("password"),
			Portal:   portal,
		}
		result, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{
			Gateway:  stores.Auth,
			Sessions: stores.Sessions,
			Now:      timeNow,
		})
		if err != nil {
			var rej *rejection.Rejection
			if _, ok := userError(err); !ok && !errors.As(err, &rej) {
				internalError(w, err)
				return
			}
			renderTemplate(w, r, http.StatusUnauthorized, "login.html", loginPage{
				pageMeta: pageMeta{Title: portal.Title()},
				Portal:   portal,
				LoginID:  input.LoginID,
				Error:    err.Error(),
			})
			return
		}

		middleware.SetSessionCookie(w, result.Token, secureCookies)
		flasher.Success(w, "Welcome, "+result.Session.DisplayName()+".")
		http.Redirect(w, r, record.KindStudents.Path(), http.StatusSeeOther)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	next := "/login"
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		if sess.IsAdmin() {
			next = "/login?role=admin"
		}
		err := orchestrators.ExecuteLogout(r.Context(), sess.Token, orchestrators.LoginDeps{Sessions: stores.Sessions})
		if err != nil {
			slog.Error("logout_failed", "error", err)
		}
	}

	middleware.ClearSessionCookie(w, secureCookies)
	http.Redirect(w, r, next, http.StatusSeeOther)
}
