package workorders

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Mike-Sabalan-Automation/workorders/internal/auth"
	"github.com/Mike-Sabalan-Automation/workorders/internal/httpserver"
	"github.com/Mike-Sabalan-Automation/workorders/internal/impex"
	"github.com/Mike-Sabalan-Automation/workorders/internal/metrics"
	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
	"github.com/Mike-Sabalan-Automation/workorders/internal/policy"
	"github.com/Mike-Sabalan-Automation/workorders/internal/query"
	"github.com/Mike-Sabalan-Automation/workorders/internal/storage"
	"github.com/Mike-Sabalan-Automation/workorders/internal/store"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	store   *store.Store
	adapter *storage.Adapter
	metrics *metrics.Metrics
}

func New(st *store.Store, ad *storage.Adapter, m *metrics.Metrics) *Handler {
	return &Handler{store: st, adapter: ad, metrics: m}
}

// roleContext derives the visibility scope for the request. Without a
// session the app runs local-only and single-user, which is full access.
func roleContext(r *http.Request) (*models.Session, query.RoleContext) {
	if sess, ok := auth.SessionFromContext(r.Context()); ok {
		return sess, query.RoleContext{Role: sess.Role, UserRef: sess.UserRef}
	}
	return nil, query.RoleContext{Role: models.RoleAdmin}
}

func filtersFromQuery(r *http.Request) query.Filters {
	q := r.URL.Query()
	return query.Filters{
		View:     query.ViewScope(q.Get("view")),
		Status:   models.Status(q.Get("status")),
		Priority: models.Priority(q.Get("priority")),
		Search:   q.Get("q"),
	}
}

func (h *Handler) visible(r *http.Request, f query.Filters) []models.WorkOrder {
	_, rc := roleContext(r)
	return query.FilteredView(h.store.List(), f, rc)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func decodeWorkOrder(w http.ResponseWriter, r *http.Request) (models.WorkOrder, error) {
	defer r.Body.Close()
	var wo models.WorkOrder
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&wo); err != nil {
		return models.WorkOrder{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return wo, nil
}

func validate(wo models.WorkOrder) error {
	if strings.TrimSpace(wo.Title) == "" {
		return models.ErrEmptyTitle
	}
	if !models.ValidPriority(wo.Priority) {
		return models.ErrBadPriority
	}
	if !models.ValidStatus(wo.Status) {
		return models.ErrBadStatus
	}
	return nil
}

// List handles GET /api/workorders with view/status/priority/q filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	httpserver.JSON(w, http.StatusOK, h.visible(r, filtersFromQuery(r)))
}

// Get handles GET /api/workorders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	wo, ok := h.store.Get(id)
	if !ok {
		httpserver.Error(w, http.StatusNotFound, models.ErrNotFound.Error())
		return
	}
	_, rc := roleContext(r)
	if rc.Role == models.RoleTechnician && wo.AssignedTo != rc.UserRef {
		httpserver.Error(w, http.StatusNotFound, models.ErrNotFound.Error())
		return
	}
	httpserver.JSON(w, http.StatusOK, wo)
}

// Create handles POST /api/workorders. The record is stored under a
// temporary negative id, written locally, then pushed to the remote when
// one is configured; the response carries the possibly-reconciled id.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	wo, err := decodeWorkOrder(w, r)
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	wo.Normalize()
	if err := validate(wo); err != nil {
		httpserver.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := roleContext(r)
	if sess != nil {
		wo.CreatedBy = sess.UserRef
		if !policy.CanAssign(sess.Role) {
			// Technicians cannot route work to someone else.
			wo.AssignedTo = sess.UserRef
		}
	}

	wo = h.store.Create(wo)
	res := h.adapter.Save(r.Context(), sess, wo)
	h.metrics.RecordSave(res.Synced)
	if res.ID != wo.ID {
		wo, _ = h.store.Get(res.ID)
	}
	httpserver.JSON(w, http.StatusCreated, map[string]any{
		"workOrder": wo,
		"synced":    res.Synced,
		"reason":    res.Reason,
	})
}

// Update handles PUT /api/workorders/{id}. Role rules are applied
// server-side: fields outside the role's editable set keep their stored
// values regardless of what the payload carries.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, ok := h.store.Get(id)
	if !ok {
		httpserver.Error(w, http.StatusNotFound, models.ErrNotFound.Error())
		return
	}

	submitted, err := decodeWorkOrder(w, r)
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	submitted.Normalize()

	sess, _ := roleContext(r)
	role := models.RoleAdmin
	userRef := ""
	if sess != nil {
		role = sess.Role
		userRef = sess.UserRef
	}
	if !policy.CanEdit(role, userRef, existing) {
		httpserver.Error(w, http.StatusForbidden, "not allowed to edit this work order")
		return
	}

	merged := policy.ApplyEdit(existing, submitted, role)
	if err := validate(merged); err != nil {
		httpserver.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	wo, ok := h.store.Update(merged)
	if !ok {
		httpserver.Error(w, http.StatusNotFound, models.ErrNotFound.Error())
		return
	}
	res := h.adapter.Save(r.Context(), sess, wo)
	h.metrics.RecordSave(res.Synced)
	if res.ID != wo.ID {
		wo, _ = h.store.Get(res.ID)
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"workOrder": wo,
		"synced":    res.Synced,
		"reason":    res.Reason,
	})
}

// Delete handles DELETE /api/workorders/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, ok := h.store.Get(id)
	if !ok {
		httpserver.Error(w, http.StatusNotFound, models.ErrNotFound.Error())
		return
	}

	sess, _ := roleContext(r)
	role := models.RoleAdmin
	userRef := ""
	if sess != nil {
		role = sess.Role
		userRef = sess.UserRef
	}
	if !policy.CanEdit(role, userRef, existing) {
		httpserver.Error(w, http.StatusForbidden, "not allowed to delete this work order")
		return
	}

	h.store.Delete(id)
	res := h.adapter.Delete(r.Context(), sess, id)
	h.metrics.RecordDelete()
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"deleted": id,
		"synced":  res.Synced,
		"reason":  res.Reason,
	})
}

// Stats handles GET /api/workorders/stats over the role-visible set.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	visible := h.visible(r, query.Filters{})
	httpserver.JSON(w, http.StatusOK, query.ComputeStats(visible))
}

// Refresh handles POST /api/workorders/refresh: re-run the load policy
// (remote preferred with a session, local fallback otherwise).
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	sess, _ := roleContext(r)
	res := h.adapter.Load(r.Context(), sess)
	h.metrics.RecordLoad(string(res.Source))
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"source": res.Source,
		"count":  res.Count,
		"reason": res.Reason,
	})
}

// ExportCSV handles GET /api/workorders/export.csv.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	visible := h.visible(r, query.Filters{})
	if len(visible) == 0 {
		httpserver.Error(w, http.StatusBadRequest, "no work orders to export")
		return
	}
	name := fmt.Sprintf("work_orders_export_%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := impex.ExportCSV(w, visible); err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "export failed")
	}
}

// ExportJSON handles GET /api/workorders/export.json.
func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	visible := h.visible(r, query.Filters{})
	name := fmt.Sprintf("work_orders_export_%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := impex.ExportJSON(w, visible); err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "export failed")
	}
}

// Import handles POST /api/workorders/import?format=csv|json. The upload
// replaces the current set: CSV rows get fresh temporary ids, JSON keeps
// the ids it carries, and the id counter is advanced past the highest
// positive id so later local sequencing cannot collide.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body := http.MaxBytesReader(w, r.Body, 8<<20)

	format := r.URL.Query().Get("format")
	if format == "" {
		if ct := r.Header.Get("Content-Type"); strings.Contains(ct, "csv") {
			format = "csv"
		} else {
			format = "json"
		}
	}

	var (
		orders []models.WorkOrder
		err    error
	)
	switch format {
	case "csv":
		orders, err = impex.ImportCSV(body, time.Now().UTC())
		if err == nil {
			base := -time.Now().UnixMilli()
			for i := range orders {
				orders[i].ID = base - int64(i)
			}
		}
	case "json":
		orders, err = impex.ImportJSON(body)
	default:
		httpserver.Error(w, http.StatusBadRequest, "unknown import format")
		return
	}
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	h.store.ReplaceAll(orders, h.store.NextID())
	h.adapter.Flush()
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"imported": len(orders),
	})
}
