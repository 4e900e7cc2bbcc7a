// cmd/server/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mike-Sabalan-Automation/workorders/internal/auth"
	"github.com/Mike-Sabalan-Automation/workorders/internal/config"
	"github.com/Mike-Sabalan-Automation/workorders/internal/handlers"
	"github.com/Mike-Sabalan-Automation/workorders/internal/logging"
	"github.com/Mike-Sabalan-Automation/workorders/internal/metrics"
	"github.com/Mike-Sabalan-Automation/workorders/internal/middleware"
	"github.com/Mike-Sabalan-Automation/workorders/internal/repo"
	"github.com/Mike-Sabalan-Automation/workorders/internal/session"
	"github.com/Mike-Sabalan-Automation/workorders/internal/storage"
	"github.com/Mike-Sabalan-Automation/workorders/internal/store"
)

func main() {
	// --- Load config (config.yaml + env overrides) ---
	cfg := config.Load()

	// --- Logger ---
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format == "json")

	// Configure session cookie security (dev often needs Secure=false)
	auth.SetCookieSecurity(cfg.Security.Session.CookieSecure)
	auth.SetCookieSameSite(cfg.Security.Session.SameSite)

	// --- Background session sweeper ---
	interval := cfg.Security.Session.SweeperInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	session.DefaultStore.StartSweeper(context.Background(), interval)

	ctx := context.Background()

	// --- Local store (SQLite-backed key/value) ---
	kv, err := storage.OpenSQLiteKV(cfg.Local.Path)
	if err != nil {
		slog.Error("local store open error", "path", cfg.Local.Path, "err", err)
		os.Exit(1)
	}
	defer kv.Close()
	local := storage.NewLocal(kv)

	// --- Remote backend (optional: empty DATABASE_URL means local-only) ---
	var (
		r      repo.Repo
		remote storage.Remote
	)
	if cfg.Database.URL != "" {
		slog.Debug("connecting to database")
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			slog.Error("db connect error", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			slog.Error("db ping error", "err", err)
			os.Exit(1)
		}
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			slog.Error("schema error", "err", err)
			os.Exit(1)
		}
		r = repo.New(pool)
		remote = r
		slog.Debug("database connection ready")
	} else {
		slog.Info("no database configured, running local-only")
	}

	// --- Record store and persistence adapter ---
	st := store.New()
	adapter := storage.NewAdapter(st, local, remote)
	if res := adapter.Load(ctx, nil); res.Reason != "" {
		slog.Info("initial load", "source", res.Source, "count", res.Count, "reason", res.Reason)
	} else {
		slog.Info("initial load", "source", res.Source, "count", res.Count)
	}

	// --- Setup OIDC provider (optional) ---
	var provider *auth.Provider
	if cfg.OIDC.Issuer != "" {
		provider = auth.SetupProvider(cfg)
	}

	// --- Metrics ---
	m := metrics.New()

	// --- Router ---
	mux := chi.NewRouter()

	// Ensure request ID, resolve session, then log requests with slog
	mux.Use(middleware.RequestID(cfg.Security.RequestID.TrustHeader))
	mux.Use(middleware.SessionContext)
	mux.Use(middleware.SlogRequestLogger)
	mux.Use(m.Middleware)
	if cfg.Security.RateLimit.Enabled {
		mux.Use(middleware.RateLimitWith(cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst, cfg.Security.RateLimit.TTL))
	}

	// --- CORS middleware ---
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5500", "http://localhost:3000", "http://127.0.0.1:5500", "http://127.0.0.1:3000", "http://127.0.0.1:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by browsers
	}))

	handlers.RegisterRoutes(mux, handlers.Deps{
		Repo:     r,
		Store:    st,
		Adapter:  adapter,
		Metrics:  m,
		Provider: provider,
	})

	// --- Start server ---
	addr := "127.0.0.1:8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}
	slog.Info("listening", "addr", addr, "base_url", cfg.BaseURL)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
