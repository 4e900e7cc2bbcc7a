// internal/query/filter.go
package query

import (
	"sort"
	"strings"

	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
)

// ViewScope is the admin-only "all vs mine" toggle.
type ViewScope string

const (
	ViewAll  ViewScope = "all"
	ViewMine ViewScope = "mine"
)

// Filters are the active criteria. Zero values mean "no restriction".
type Filters struct {
	View     ViewScope
	Status   models.Status
	Priority models.Priority
	Search   string
}

// RoleContext scopes visibility. Technicians only ever see their own
// assignments; the remote backend enforces the same server-side, this is a
// view concern, not a security boundary.
type RoleContext struct {
	Role    models.Role
	UserRef string
}

// FilteredView derives the visible, ordered slice from the full set. Pure:
// the input slice is never mutated and repeated calls with equal inputs
// yield equal output.
func FilteredView(orders []models.WorkOrder, f Filters, rc RoleContext) []models.WorkOrder {
	out := make([]models.WorkOrder, 0, len(orders))

	restrictToSelf := rc.Role == models.RoleTechnician ||
		(rc.Role == models.RoleAdmin && f.View == ViewMine)

	term := strings.ToLower(strings.TrimSpace(f.Search))
	for _, wo := range orders {
		if restrictToSelf && wo.AssignedTo != rc.UserRef {
			continue
		}
		if f.Status != "" && wo.Status != f.Status {
			continue
		}
		if f.Priority != "" && wo.Priority != f.Priority {
			continue
		}
		if term != "" && !matchesSearch(wo, term) {
			continue
		}
		out = append(out, wo)
	}

	// Newest first; stable so equal timestamps keep insertion order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// matchesSearch checks the case-insensitive substring across the text
// fields; any one field containing the term is a match.
func matchesSearch(wo models.WorkOrder, term string) bool {
	return strings.Contains(strings.ToLower(wo.Title), term) ||
		strings.Contains(strings.ToLower(wo.Description), term) ||
		strings.Contains(strings.ToLower(wo.AssignedTo), term)
}

// Stats are the status counts over an already-filtered view.
type Stats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
}

func ComputeStats(orders []models.WorkOrder) Stats {
	s := Stats{Total: len(orders)}
	for _, wo := range orders {
		switch wo.Status {
		case models.StatusOpen:
			s.Open++
		case models.StatusInProgress:
			s.InProgress++
		case models.StatusCompleted:
			s.Completed++
		}
	}
	return s
}
