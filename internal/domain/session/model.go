package session

import (
	"errors"
	"strings"
	"time"
)

// Role is the closed set of portal roles returned by the backend login.
type Role string

// Role constants
const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RoleUnknown Role = ""
)

// Portal identifies which login page the user came through.
type Portal string

// Portal constants
const (
	PortalAdmin   Portal = "admin"
	PortalStaff   Portal = "staff"
	PortalGeneric Portal = ""
)

// TTL is how long a portal session stays valid after login.
const TTL = 24 * time.Hour

// Domain errors
var (
	ErrAdminPortalOnly = errors.New("Access Denied: Only Admins can login here.")
	ErrStaffPortalOnly = errors.New("Access Denied: Admins must use the Admin Login portal.")
	ErrUnknownRole     = errors.New("Login failed. Please check credentials.")
)

// ParseRole normalises a role string from the backend or the session cache.
// Comparison is case-insensitive; anything unrecognised is RoleUnknown.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleStaff:
		return RoleStaff
	}
	return RoleUnknown
}

// ParsePortal normalises the ?role= parameter of the login page.
func ParsePortal(s string) Portal {
	switch Portal(strings.ToLower(strings.TrimSpace(s))) {
	case PortalAdmin:
		return PortalAdmin
	case PortalStaff:
		return PortalStaff
	}
	return PortalGeneric
}

// Title returns the heading shown on the login page for the portal.
func (p Portal) Title() string {
	switch p {
	case PortalAdmin:
		return "Admin Login"
	case PortalStaff:
		return "Staff Login"
	}
	return "Portal Login"
}

// CheckPortal enforces that the authenticated role matches the portal used.
// PRE: role was parsed with ParseRole
// POST: Returns nil if the role may use the portal, a fixed user-facing error otherwise
func CheckPortal(portal Portal, role Role) error {
	switch portal {
	case PortalAdmin:
		if role != RoleAdmin {
			return ErrAdminPortalOnly
		}
	case PortalStaff:
		if role != RoleStaff {
			return ErrStaffPortalOnly
		}
	}
	if role == RoleUnknown {
		return ErrUnknownRole
	}
	return nil
}

// Context is the identity cached for a logged-in user.
type Context struct {
	Role      Role
	StaffID   string
	StaffName string
	Portal    Portal
	CreatedAt time.Time
}

// IsAdmin returns true if the session belongs to an administrator.
// INVARIANT: Context fields are not mutated
func (c Context) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// IsExpired reports whether the session is older than TTL.
func (c Context) IsExpired(now time.Time) bool {
	return now.Sub(c.CreatedAt) > TTL
}

// DisplayName returns the cached staff name, or a neutral fallback.
func (c Context) DisplayName() string {
	if strings.TrimSpace(c.StaffName) == "" {
		return "User"
	}
	return c.StaffName
}

// Scope returns the staff filter to send with record requests.
// Admins are unscoped. A non-admin whose cached staff id is missing or a
// stringified null must not fetch at all, so ok is false for them.
// INVARIANT: Context fields are not mutated
func (c Context) Scope() (staffID string, ok bool) {
	if c.IsAdmin() {
		return "", true
	}
	if !UsableStaffID(c.StaffID) {
		return "", false
	}
	return strings.TrimSpace(c.StaffID), true
}

// UsableStaffID reports whether a cached staff identifier can scope a request.
func UsableStaffID(id string) bool {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "", "null", "undefined", "none":
		return false
	}
	return true
}
