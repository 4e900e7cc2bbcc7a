package workorders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Mike-Sabalan-Automation/workorders/internal/auth"
	"github.com/Mike-Sabalan-Automation/workorders/internal/metrics"
	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
	"github.com/Mike-Sabalan-Automation/workorders/internal/storage"
	"github.com/Mike-Sabalan-Automation/workorders/internal/store"
)

// newTestServer wires the handler in local-only mode (no remote backend).
func newTestServer(t *testing.T) (*store.Store, *httptest.Server) {
	t.Helper()
	st := store.New()
	local := storage.NewLocal(storage.NewMemoryKV())
	adapter := storage.NewAdapter(st, local, nil)
	h := New(st, adapter, metrics.New())

	mux := chi.NewRouter()
	mux.Route("/api/workorders", func(sr chi.Router) {
		sr.Get("/", h.List)
		sr.Post("/", h.Create)
		sr.Get("/stats", h.Stats)
		sr.Post("/refresh", h.Refresh)
		sr.Get("/export.csv", h.ExportCSV)
		sr.Get("/export.json", h.ExportJSON)
		sr.Post("/import", h.Import)
		sr.Get("/{id}", h.Get)
		sr.Put("/{id}", h.Update)
		sr.Delete("/{id}", h.Delete)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return st, srv
}

type saveResponse struct {
	WorkOrder models.WorkOrder `json:"workOrder"`
	Synced    bool             `json:"synced"`
	Reason    string           `json:"reason"`
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestCreateLocalOnly(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/workorders/", `{"title":"Pump check","priority":"high"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	got := decode[saveResponse](t, resp)
	if got.WorkOrder.ID >= 0 {
		t.Fatalf("expected temporary negative id, got %d", got.WorkOrder.ID)
	}
	if got.Synced {
		t.Fatal("local-only mode must not claim a sync")
	}
	if got.WorkOrder.Status != models.StatusOpen {
		t.Fatalf("status default: %+v", got.WorkOrder)
	}
}

func TestCreateRejectsEmptyTitle(t *testing.T) {
	_, srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/workorders/", `{"title":"   "}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestCreateRejectsBadEnums(t *testing.T) {
	_, srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/workorders/", `{"title":"x","priority":"urgent"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestUpdateAndGet(t *testing.T) {
	_, srv := newTestServer(t)

	created := decode[saveResponse](t, doJSON(t, http.MethodPost, srv.URL+"/api/workorders/", `{"title":"orig"}`))
	id := strconv.FormatInt(created.WorkOrder.ID, 10)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/workorders/"+id, `{"title":"renamed","status":"in-progress"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status: %d", resp.StatusCode)
	}
	updated := decode[saveResponse](t, resp)
	if updated.WorkOrder.Title != "renamed" || updated.WorkOrder.Status != models.StatusInProgress {
		t.Fatalf("update not applied: %+v", updated.WorkOrder)
	}
	if !updated.WorkOrder.CreatedAt.Equal(created.WorkOrder.CreatedAt) {
		t.Fatal("update must not touch CreatedAt")
	}

	got := decode[models.WorkOrder](t, doJSON(t, http.MethodGet, srv.URL+"/api/workorders/"+id, ""))
	if got.Title != "renamed" {
		t.Fatalf("get after update: %+v", got)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	_, srv := newTestServer(t)
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/workorders/12345", `{"title":"x"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestDeleteThenGone(t *testing.T) {
	_, srv := newTestServer(t)
	created := decode[saveResponse](t, doJSON(t, http.MethodPost, srv.URL+"/api/workorders/", `{"title":"doomed"}`))
	id := strconv.FormatInt(created.WorkOrder.ID, 10)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/workorders/"+id, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status: %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/workorders/"+id, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: %d", resp.StatusCode)
	}
}

func TestListFilters(t *testing.T) {
	st, srv := newTestServer(t)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	st.ReplaceAll([]models.WorkOrder{
		{ID: 1, Title: "Fix pump", Priority: models.PriorityHigh, Status: models.StatusOpen, CreatedAt: base},
		{ID: 2, Title: "Oil change", Priority: models.PriorityLow, Status: models.StatusCompleted, CreatedAt: base.Add(time.Hour)},
		{ID: 3, Title: "Fix belt", Priority: models.PriorityHigh, Status: models.StatusOpen, CreatedAt: base.Add(2 * time.Hour)},
	}, 4)

	got := decode[[]models.WorkOrder](t, doJSON(t, http.MethodGet, srv.URL+"/api/workorders/?status=open&priority=high&q=fix", ""))
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != 3 || got[1].ID != 1 {
		t.Fatalf("newest first expected: %+v", got)
	}
}

func TestStats(t *testing.T) {
	st, srv := newTestServer(t)
	st.ReplaceAll([]models.WorkOrder{
		{ID: 1, Title: "a", Status: models.StatusOpen},
		{ID: 2, Title: "b", Status: models.StatusInProgress},
		{ID: 3, Title: "c", Status: models.StatusCompleted},
		{ID: 4, Title: "d", Status: models.StatusOpen},
	}, 5)

	got := decode[map[string]int](t, doJSON(t, http.MethodGet, srv.URL+"/api/workorders/stats", ""))
	if got["total"] != 4 || got["open"] != 2 || got["inProgress"] != 1 || got["completed"] != 1 {
		t.Fatalf("stats: %v", got)
	}
}

func TestTechnicianScope(t *testing.T) {
	st := store.New()
	local := storage.NewLocal(storage.NewMemoryKV())
	adapter := storage.NewAdapter(st, local, nil)
	h := New(st, adapter, metrics.New())

	st.ReplaceAll([]models.WorkOrder{
		{ID: 1, Title: "mine", AssignedTo: "tech-1"},
		{ID: 2, Title: "theirs", AssignedTo: "tech-2"},
	}, 3)

	sess := &models.Session{
		UserID:  uuid.New(),
		UserRef: "tech-1",
		Role:    models.RoleTechnician,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/workorders/", nil)
	req = req.WithContext(auth.WithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	h.List(rec, req)

	var got []models.WorkOrder
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].AssignedTo != "tech-1" {
		t.Fatalf("technician must only see own assignments: %+v", got)
	}
}

func TestTechnicianUpdatePreservesLockedFields(t *testing.T) {
	st := store.New()
	local := storage.NewLocal(storage.NewMemoryKV())
	adapter := storage.NewAdapter(st, local, nil)
	h := New(st, adapter, metrics.New())

	st.ReplaceAll([]models.WorkOrder{{
		ID: 1, Title: "Keep me", AssignedTo: "tech-1",
		Priority: models.PriorityHigh, Status: models.StatusOpen, DueDate: "2025-07-01",
	}}, 2)

	sess := &models.Session{UserID: uuid.New(), UserRef: "tech-1", Role: models.RoleTechnician}

	body := `{"title":"hacked","priority":"low","dueDate":"","status":"in-progress","description":"notes","estimatedHours":3}`
	req := httptest.NewRequest(http.MethodPut, "/api/workorders/1", strings.NewReader(body))
	req = req.WithContext(auth.WithSession(req.Context(), sess))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.Update(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", rec.Code, rec.Body.String())
	}

	got, _ := st.Get(1)
	if got.Title != "Keep me" || got.Priority != models.PriorityHigh || got.DueDate != "2025-07-01" {
		t.Fatalf("locked fields changed: %+v", got)
	}
	if got.Status != models.StatusInProgress || got.Description != "notes" || got.EstimatedHours != 3 {
		t.Fatalf("editable fields not applied: %+v", got)
	}
}

func TestTechnicianCannotTouchForeignOrder(t *testing.T) {
	st := store.New()
	local := storage.NewLocal(storage.NewMemoryKV())
	adapter := storage.NewAdapter(st, local, nil)
	h := New(st, adapter, metrics.New())

	st.ReplaceAll([]models.WorkOrder{{ID: 1, Title: "foreign", AssignedTo: "tech-2"}}, 2)

	sess := &models.Session{UserID: uuid.New(), UserRef: "tech-1", Role: models.RoleTechnician}
	req := httptest.NewRequest(http.MethodDelete, "/api/workorders/1", nil)
	req = req.WithContext(auth.WithSession(req.Context(), sess))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.Delete(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: %d", rec.Code)
	}
	if _, ok := st.Get(1); !ok {
		t.Fatal("record must survive a forbidden delete")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	st, srv := newTestServer(t)
	st.ReplaceAll([]models.WorkOrder{
		{ID: 1, Title: "First", Priority: models.PriorityHigh, Status: models.StatusOpen},
		{ID: 2, Title: "Second", Priority: models.PriorityLow, Status: models.StatusCompleted},
	}, 3)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/workorders/export.csv", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Fatalf("content type: %q", ct)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	csvBody := string(raw)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/workorders/import?format=csv", csvBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import status: %d", resp.StatusCode)
	}
	got := decode[map[string]int](t, resp)
	if got["imported"] != 2 {
		t.Fatalf("imported count: %v", got)
	}

	// Imported rows replace the set under fresh temporary ids.
	list := st.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 records after import, got %d", len(list))
	}
	for _, wo := range list {
		if wo.ID >= 0 {
			t.Fatalf("imported rows must carry temporary ids: %+v", wo)
		}
	}
}

func TestImportJSONAdvancesCounter(t *testing.T) {
	st, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/workorders/import?format=json",
		`[{"id": 50, "title": "a"}, {"id": 7, "title": "b"}]`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	if st.NextID() != 51 {
		t.Fatalf("counter must pass highest imported id: %d", st.NextID())
	}
}

func TestExportEmptyRejected(t *testing.T) {
	_, srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/workorders/export.csv", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty export must be rejected: %d", resp.StatusCode)
	}
}

func TestRefreshLocalOnly(t *testing.T) {
	st, srv := newTestServer(t)
	st.ReplaceAll([]models.WorkOrder{{ID: 1, Title: "x"}}, 2)
	// Persist so the reload has something to read back.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/workorders/", `{"title":"y"}`)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/workorders/refresh", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	got := decode[map[string]any](t, resp)
	if got["source"] != "local" {
		t.Fatalf("local-only refresh must come from local: %v", got)
	}
}
