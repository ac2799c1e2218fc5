package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"admissions/internal/adapters/backend"
	"admissions/internal/adapters/backend/auth"
)

func newGateway(t *testing.T, h http.HandlerFunc) *auth.HTTPGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := backend.New(srv.URL, backend.Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	return auth.NewHTTPGateway(c)
}

func TestLogin_Success(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  auth.Identity
	}{
		{name: "numeric id", reply: `{"role":"staff","staff_id":7,"name":"Ravi"}`, want: auth.Identity{Role: "staff", StaffID: "7", Name: "Ravi"}},
		{name: "string id", reply: `{"role":"Admin","staff_id":"1","name":"Head"}`, want: auth.Identity{Role: "Admin", StaffID: "1", Name: "Head"}},
		{name: "null id", reply: `{"role":"staff","staff_id":null,"name":"Ghost"}`, want: auth.Identity{Role: "staff", Name: "Ghost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]string
			g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewDecoder(r.Body).Decode(&got)
				w.Write([]byte(tt.reply))
			})
			id, err := g.Login(context.Background(), "ravi", "pw")
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if id != tt.want {
				t.Errorf("Login = %+v, want %+v", id, tt.want)
			}
			if got["login_id"] != "ravi" || got["password"] != "pw" {
				t.Errorf("unexpected body %v", got)
			}
		})
	}
}

func TestLogin_Rejected(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid credentials"}`))
	})
	_, err := g.Login(context.Background(), "ravi", "bad")
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Rejection.Notice() != "Invalid credentials" {
		t.Errorf("Notice = %q", apiErr.Rejection.Notice())
	}
}
