package middleware

import (
	"net/http"

	"github.com/Mike-Sabalan-Automation/workorders/internal/auth"
	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
)

// SessionContext resolves the session cookie when present and injects it
// into the request context. No session is not an error: downstream
// components treat a nil session as local-only mode.
func SessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if s := auth.ReadSession(req); s != nil {
			req = req.WithContext(auth.WithSession(req.Context(), s))
		}
		next.ServeHTTP(w, req)
	})
}

// RequireSession rejects requests without an authenticated session. Mounted
// on the API only when a remote backend is configured; in local-only mode
// the app runs unauthenticated by design.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if _, ok := auth.SessionFromContext(req.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// RequireAdmin guards endpoints only admins may reach, like assignment.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		sess, ok := auth.SessionFromContext(req.Context())
		if !ok || sess.Role != models.RoleAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, req)
	})
}
