package admin

import (
	"net/http"
	"time"

	"github.com/Mike-Sabalan-Automation/workorders/internal/httpserver"
	"github.com/Mike-Sabalan-Automation/workorders/internal/session"
)

// ListSessionsHandler returns JSON of active sessions.
// Access: admin only; the route group applies the guard.
func ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		type item struct {
			ID        string    `json:"id"`
			UserID    string    `json:"user_id"`
			Email     string    `json:"email"`
			OrgID     string    `json:"org_id"`
			Role      string    `json:"role"`
			Provider  string    `json:"provider"`
			ExpiresAt time.Time `json:"expires_at"`
		}
		entries := session.DefaultStore.List()
		out := make([]item, 0, len(entries))
		for _, e := range entries {
			out = append(out, item{
				ID:        e.ID,
				UserID:    e.Session.UserID.String(),
				Email:     e.Session.Email,
				OrgID:     e.Session.OrgID,
				Role:      string(e.Session.Role),
				Provider:  e.Session.Provider,
				ExpiresAt: e.Session.Expiry,
			})
		}
		httpserver.JSON(w, http.StatusOK, out)
	}
}
