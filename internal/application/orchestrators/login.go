package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"admissions/internal/adapters/backend"
	"admissions/internal/adapters/backend/auth"
	"admissions/internal/domain/rejection"
	"admissions/internal/domain/session"
)

// SessionStoreForLogin defines the session store interface needed by Login and Logout.
type SessionStoreForLogin interface {
	Create(ctx context.Context, sc session.Context) (string, error)
	Delete(ctx context.Context, token string) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	LoginID  string
	Password string
	Portal   session.Portal
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	Token   string
	Session session.Context
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Gateway  auth.Gateway
	Sessions SessionStoreForLogin
	Now      func() time.Time
}

// ErrMissingCredentials is returned before any backend call when a field is blank.
var ErrMissingCredentials = errors.New("Please enter your login ID and password.")

// ExecuteLogin authenticates once against the backend, enforces the portal
// and persists the session.
// PRE: input.Portal was parsed with session.ParsePortal
// POST: On success a session row exists for the returned token
// INVARIANT: The backend is called at most once; a portal mismatch is
// rejected locally with a fixed message
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	loginID := strings.TrimSpace(input.LoginID)
	if loginID == "" || input.Password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	identity, err := deps.Gateway.Login(ctx, loginID, input.Password)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "login_id", loginID, "portal", string(input.Portal), "error", err)
		return LoginResult{}, loginRejection(err)
	}

	role := session.ParseRole(identity.Role)
	if err := session.CheckPortal(input.Portal, role); err != nil {
		slog.Info("auth_event", "event", "login_rejected", "login_id", loginID, "portal", string(input.Portal), "role", identity.Role)
		return LoginResult{}, err
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	sc := session.Context{
		Role:      role,
		StaffID:   strings.TrimSpace(identity.StaffID),
		StaffName: strings.TrimSpace(identity.Name),
		Portal:    input.Portal,
		CreatedAt: now(),
	}
	if !sc.IsAdmin() && !session.UsableStaffID(sc.StaffID) {
		// The session is still created; list views stay empty for it.
		slog.Warn("auth_event", "event", "login_without_staff_id", "login_id", loginID)
	}

	token, err := deps.Sessions.Create(ctx, sc)
	if err != nil {
		return LoginResult{}, err
	}

	slog.Info("auth_event", "event", "login_success", "login_id", loginID, "role", string(role), "staff_id", sc.StaffID)
	return LoginResult{Token: token, Session: sc}, nil
}

// loginRejection turns a gateway failure into the message the login page shows.
func loginRejection(err error) error {
	if errors.Is(err, backend.ErrUnavailable) {
		return &rejection.Rejection{Status: http.StatusBadGateway, Message: rejection.GenericMessage}
	}
	rej := backend.RejectionOf(err)
	msg := rej.Message
	if msg == "" {
		msg = session.ErrUnknownRole.Error()
	}
	return &rejection.Rejection{Status: rej.Status, Message: msg}
}

// ExecuteLogout deletes the session behind token.
// POST: The token no longer resolves to a session
func ExecuteLogout(ctx context.Context, token string, deps LoginDeps) error {
	if token == "" {
		return nil
	}
	if err := deps.Sessions.Delete(ctx, token); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "logout")
	return nil
}
