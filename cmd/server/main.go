package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"admissions/internal/adapters/backend"
	"admissions/internal/adapters/backend/auth"
	enquiryStore "admissions/internal/adapters/backend/enquiry"
	staffStore "admissions/internal/adapters/backend/staff"
	studentStore "admissions/internal/adapters/backend/student"
	emailPkg "admissions/internal/adapters/email"
	web "admissions/internal/adapters/http"
	"admissions/internal/adapters/http/middleware"
	"admissions/internal/adapters/http/perf"
	"admissions/internal/adapters/storage"
	"admissions/internal/adapters/storage/formtoken"
	sessionStore "admissions/internal/adapters/storage/session"
	"admissions/internal/application/orchestrators"
	"admissions/internal/config"
	"admissions/internal/domain/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// purgeInterval is how often expired sessions, form tokens and idle rate
// limiter entries are dropped.
const purgeInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// WAL mode, busy timeout and relaxed sync for the session cache
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowRequest)
	sessions := sessionStore.NewSQLiteStore(timedDB)
	formTokens := formtoken.NewSQLiteStore(timedDB)

	client, err := backend.New(cfg.BackendURL, backend.Options{
		Timeout:   cfg.BackendTimeout,
		Collector: collector,
		SlowCall:  cfg.SlowBackend,
	})
	if err != nil {
		log.Fatalf("invalid backend url: %v", err)
	}

	stores := &web.Stores{
		Students:   studentStore.NewHTTPStore(client),
		Enquiries:  enquiryStore.NewHTTPStore(client),
		Staff:      staffStore.NewHTTPStore(client),
		Auth:       auth.NewHTTPGateway(client),
		Sessions:   sessions,
		FormTokens: formTokens,
	}

	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.ReplyTo)
		slog.Info("email_configured", "provider", "resend")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_disabled", "reason", "ADMISSIONS_RESEND_KEY is not set")
		}
	}

	csrfKey, err := web.LoadCSRFKey(cfg.CSRFKey, cfg.IsProduction())
	if err != nil {
		log.Fatalf("csrf key: %v", err)
	}

	limiter := middleware.NewRateLimiter(web.RateLimitPerSecond, time.Second)
	handler := web.NewMux(stores, web.Options{
		StaticDir:   cfg.StaticDir,
		CSRFKey:     csrfKey,
		Secure:      cfg.IsProduction(),
		SlowRequest: cfg.SlowRequest,
		Collector:   collector,
		Email:       sender,
		PortalURL:   cfg.PortalURL,
		Limiter:     limiter,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go purgeLoop(ctx, sessions, formTokens, limiter)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// a full bulk delete plus the session lookup must finish before the deadline
		WriteTimeout: orchestrators.BulkDeleteBudget(cfg.BackendTimeout) + cfg.BackendTimeout,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env,
			"backend", cfg.BackendURL, "schema", storage.LatestSchemaVersion())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown_failed", "error", err)
	}
}

// purgeLoop drops expired sessions and stale form tokens until ctx ends.
func purgeLoop(ctx context.Context, sessions sessionStore.Store, tokens formtoken.Store, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		now := time.Now()
		expired, err := sessions.DeleteExpired(ctx, now)
		if err != nil {
			slog.Error("session_purge_failed", "error", err)
		}
		// tokens only matter while their session can still post
		used, err := tokens.DeleteBefore(ctx, now.Add(-session.TTL))
		if err != nil {
			slog.Error("form_token_purge_failed", "error", err)
		}
		idle := limiter.Sweep(purgeInterval)
		if expired > 0 || used > 0 || idle > 0 {
			slog.Info("purge_complete", "sessions", expired, "form_tokens", used, "visitors", idle)
		}
	}
}
