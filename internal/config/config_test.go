package config_test

import (
	"log/slog"
	"testing"
	"time"

	"admissions/internal/config"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := config.FromLookup(lookupFrom(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Env != config.EnvDevelopment {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.BackendTimeout != 15*time.Second {
		t.Errorf("BackendTimeout = %v", cfg.BackendTimeout)
	}
	if cfg.SlowRequest != 500*time.Millisecond {
		t.Errorf("SlowRequest = %v", cfg.SlowRequest)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := config.FromLookup(lookupFrom(map[string]string{
		"ADMISSIONS_BACKEND_URL":     "https://api.example.com/",
		"ADMISSIONS_BACKEND_TIMEOUT": "3s",
		"ADMISSIONS_LOG_LEVEL":       "debug",
		"ADMISSIONS_ENV":             "Staging",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BackendURL != "https://api.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.BackendURL)
	}
	if cfg.BackendTimeout != 3*time.Second || cfg.LogLevel != slog.LevelDebug || cfg.Env != "staging" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestFromLookup_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad timeout", env: map[string]string{"ADMISSIONS_BACKEND_TIMEOUT": "soon"}},
		{name: "negative slow ms", env: map[string]string{"ADMISSIONS_SLOW_REQUEST_MS": "-5"}},
		{name: "bad log level", env: map[string]string{"ADMISSIONS_LOG_LEVEL": "loud"}},
		{name: "production without backend", env: map[string]string{
			"ADMISSIONS_ENV": "production", "ADMISSIONS_CSRF_KEY": "0123456789abcdef0123456789abcdef",
		}},
		{name: "production short csrf key", env: map[string]string{
			"ADMISSIONS_ENV": "production", "ADMISSIONS_BACKEND_URL": "https://api.example.com", "ADMISSIONS_CSRF_KEY": "short",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := config.FromLookup(lookupFrom(tt.env)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
