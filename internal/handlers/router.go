// internal/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mike-Sabalan-Automation/workorders/internal/auth"
	"github.com/Mike-Sabalan-Automation/workorders/internal/handlers/admin"
	"github.com/Mike-Sabalan-Automation/workorders/internal/handlers/workorders"
	"github.com/Mike-Sabalan-Automation/workorders/internal/metrics"
	"github.com/Mike-Sabalan-Automation/workorders/internal/middleware"
	"github.com/Mike-Sabalan-Automation/workorders/internal/repo"
	"github.com/Mike-Sabalan-Automation/workorders/internal/storage"
	"github.com/Mike-Sabalan-Automation/workorders/internal/store"
)

// Deps are the wired components the routes close over. Repo and Provider
// are nil in local-only mode and their routes are simply not mounted.
type Deps struct {
	Repo     repo.Repo
	Store    *store.Store
	Adapter  *storage.Adapter
	Metrics  *metrics.Metrics
	Provider *auth.Provider
}

func RegisterRoutes(mux *chi.Mux, d Deps) {
	wo := workorders.New(d.Store, d.Adapter, d.Metrics)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	mux.Route("/auth", func(sr chi.Router) {
		sr.Get("/me", auth.MeHandler())
		sr.Post("/logout", auth.LogoutHandler())
		if d.Repo != nil {
			sr.Post("/signup", auth.SignupHandler(d.Repo))
			sr.Post("/login", auth.LoginHandler(d.Repo))
			sr.Post("/totp/setup/begin", auth.TOTPSetupBeginHandler(d.Repo))
			sr.Post("/totp/setup/verify", auth.TOTPSetupVerifyHandler(d.Repo))
		}
		if d.Provider != nil && d.Repo != nil {
			sr.Get("/sso", auth.StartHandler(d.Provider))
			sr.Get("/sso/callback", auth.CallbackHandler(d.Provider, d.Repo))
		}
	})

	if d.Repo != nil {
		mux.Route("/admin", func(sr chi.Router) {
			sr.Use(middleware.RequireSession, middleware.RequireAdmin)
			sr.Get("/sessions", admin.ListSessionsHandler())
		})
	}

	mux.Route("/api/workorders", func(sr chi.Router) {
		// Local-only deployments run unauthenticated; once a remote backend
		// exists the API requires a session.
		if d.Repo != nil {
			sr.Use(middleware.RequireSession)
		}
		sr.Get("/", wo.List)
		sr.Post("/", wo.Create)
		sr.Get("/stats", wo.Stats)
		sr.Post("/refresh", wo.Refresh)
		sr.Get("/export.csv", wo.ExportCSV)
		sr.Get("/export.json", wo.ExportJSON)
		sr.Post("/import", wo.Import)
		sr.Get("/{id}", wo.Get)
		sr.Put("/{id}", wo.Update)
		sr.Delete("/{id}", wo.Delete)
	})
}
