// Package config loads portal settings from the environment.
//
// Every setting is an ADMISSIONS_* variable. A .env file in the working
// directory, if present, is loaded first; variables already set in the
// process environment win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name.
const Prefix = "ADMISSIONS_"

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ErrMissingBackendURL is returned when the backend base URL is not set in production.
var ErrMissingBackendURL = errors.New("ADMISSIONS_BACKEND_URL is required in production")

// ErrWeakCSRFKey is returned when the CSRF key is not 32 bytes in production.
var ErrWeakCSRFKey = errors.New("ADMISSIONS_CSRF_KEY must be 32 bytes in production")

// Config is the typed view of the environment.
type Config struct {
	Addr           string
	Env            string
	BackendURL     string
	BackendTimeout time.Duration
	DBPath         string
	CSRFKey        string
	SlowRequest    time.Duration
	SlowBackend    time.Duration
	LogLevel       slog.Level
	ResendKey      string
	EmailFrom      string
	ReplyTo        string
	StaticDir      string
	// PortalURL is linked from assignment emails; empty omits the link.
	PortalURL      string
}

// IsProduction reports whether the portal runs in production.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads .env (when present) and the process environment.
// PRE: none
// POST: Returns a Config with defaults filled in, or an error for invalid values
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from any variable source.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(Prefix + key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	cfg := Config{
		Addr:       get("ADDR", ":8080"),
		Env:        strings.ToLower(get("ENV", EnvDevelopment)),
		BackendURL: strings.TrimRight(get("BACKEND_URL", "http://localhost:8000"), "/"),
		DBPath:     get("DB_PATH", "admissions.db"),
		CSRFKey:    get("CSRF_KEY", ""),
		ResendKey:  get("RESEND_KEY", ""),
		EmailFrom:  get("EMAIL_FROM", "Admissions Portal <noreply@admissions.local>"),
		ReplyTo:    get("REPLY_TO", ""),
		StaticDir:  get("STATIC_DIR", "static"),
		PortalURL:  strings.TrimRight(get("PORTAL_URL", ""), "/"),
	}

	var err error
	if cfg.BackendTimeout, err = duration(get("BACKEND_TIMEOUT", "15s")); err != nil {
		return Config{}, fmt.Errorf("ADMISSIONS_BACKEND_TIMEOUT: %w", err)
	}
	if cfg.SlowRequest, err = millis(get("SLOW_REQUEST_MS", "500")); err != nil {
		return Config{}, fmt.Errorf("ADMISSIONS_SLOW_REQUEST_MS: %w", err)
	}
	if cfg.SlowBackend, err = millis(get("SLOW_BACKEND_MS", "1000")); err != nil {
		return Config{}, fmt.Errorf("ADMISSIONS_SLOW_BACKEND_MS: %w", err)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("ADMISSIONS_LOG_LEVEL: %w", err)
	}

	if cfg.IsProduction() {
		if _, ok := lookup(Prefix + "BACKEND_URL"); !ok {
			return Config{}, ErrMissingBackendURL
		}
		if len(cfg.CSRFKey) != 32 {
			return Config{}, ErrWeakCSRFKey
		}
	}
	return cfg, nil
}

func duration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}

func millis(s string) (time.Duration, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return time.Duration(n) * time.Millisecond, nil
}
