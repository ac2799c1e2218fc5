// Package auth calls the backend login endpoint.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"admissions/internal/adapters/backend"
)

// LoginPath is the backend login endpoint.
const LoginPath = "/api/staff-login/"

// Identity is what a successful login returns.
type Identity struct {
	Role    string
	StaffID string
	Name    string
}

// Gateway authenticates credentials against the backend.
type Gateway interface {
	Login(ctx context.Context, loginID, password string) (Identity, error)
}

// HTTPGateway implements Gateway against the admissions REST API.
type HTTPGateway struct {
	client *backend.Client
}

// NewHTTPGateway creates a new HTTPGateway.
func NewHTTPGateway(client *backend.Client) *HTTPGateway {
	return &HTTPGateway{client: client}
}

type loginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

type loginResponse struct {
	Role    string          `json:"role"`
	StaffID json.RawMessage `json:"staff_id"`
	Name    string          `json:"name"`
}

// Login posts the credentials once.
// PRE: loginID and password are non-empty
// POST: Returns the identity on 2xx; *backend.APIError carrying {error} otherwise
func (g *HTTPGateway) Login(ctx context.Context, loginID, password string) (Identity, error) {
	var resp loginResponse
	body := loginRequest{LoginID: loginID, Password: password}
	if err := g.client.Do(ctx, http.MethodPost, LoginPath, nil, body, &resp); err != nil {
		return Identity{}, fmt.Errorf("login: %w", err)
	}
	return Identity{
		Role:    resp.Role,
		StaffID: staffIDText(resp.StaffID),
		Name:    resp.Name,
	}, nil
}

// staffIDText turns a JSON number, string or null into the cached id text.
// A missing or null id becomes "", which the session guard rejects.
func staffIDText(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return s
}
