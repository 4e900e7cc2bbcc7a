package query

import (
	"reflect"
	"testing"
	"time"

	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
)

func sampleOrders() []models.WorkOrder {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return []models.WorkOrder{
		{ID: 1, Title: "Fix leaking pipe", Description: "Basement", AssignedTo: "tech-1", Priority: models.PriorityHigh, Status: models.StatusOpen, CreatedAt: base},
		{ID: 2, Title: "Lubricate bearings", Description: "Motor room", AssignedTo: "tech-2", Priority: models.PriorityLow, Status: models.StatusInProgress, CreatedAt: base.Add(time.Hour)},
		{ID: 3, Title: "Inspect boiler", Description: "Needs a fix soon", AssignedTo: "tech-1", Priority: models.PriorityMedium, Status: models.StatusCompleted, CreatedAt: base.Add(2 * time.Hour)},
		{ID: 4, Title: "Replace FIXTURE", Description: "Hallway", AssignedTo: "admin-1", Priority: models.PriorityHigh, Status: models.StatusOpen, CreatedAt: base.Add(3 * time.Hour)},
	}
}

func ids(orders []models.WorkOrder) []int64 {
	out := make([]int64, len(orders))
	for i, wo := range orders {
		out[i] = wo.ID
	}
	return out
}

func TestFilteredViewSortsNewestFirst(t *testing.T) {
	got := FilteredView(sampleOrders(), Filters{}, RoleContext{Role: models.RoleAdmin})
	want := []int64{4, 3, 2, 1}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("order: got %v, want %v", ids(got), want)
	}
}

func TestFilteredViewStableOnEqualTimestamps(t *testing.T) {
	ts := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	orders := []models.WorkOrder{
		{ID: 10, Title: "a", CreatedAt: ts},
		{ID: 11, Title: "b", CreatedAt: ts},
		{ID: 12, Title: "c", CreatedAt: ts},
	}
	got := FilteredView(orders, Filters{}, RoleContext{Role: models.RoleAdmin})
	want := []int64{10, 11, 12}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("equal timestamps must keep input order: got %v", ids(got))
	}
}

func TestFilteredViewTechnicianSeesOnlyOwn(t *testing.T) {
	got := FilteredView(sampleOrders(), Filters{}, RoleContext{Role: models.RoleTechnician, UserRef: "tech-1"})
	if len(got) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(got))
	}
	for _, wo := range got {
		if wo.AssignedTo != "tech-1" {
			t.Fatalf("foreign record visible: %+v", wo)
		}
	}
}

func TestFilteredViewAdminMineToggle(t *testing.T) {
	got := FilteredView(sampleOrders(), Filters{View: ViewMine}, RoleContext{Role: models.RoleAdmin, UserRef: "admin-1"})
	if len(got) != 1 || got[0].ID != 4 {
		t.Fatalf("mine view: got %v", ids(got))
	}
}

func TestFilteredViewStatusAndPriority(t *testing.T) {
	got := FilteredView(sampleOrders(), Filters{Status: models.StatusOpen, Priority: models.PriorityHigh}, RoleContext{Role: models.RoleAdmin})
	if !reflect.DeepEqual(ids(got), []int64{4, 1}) {
		t.Fatalf("combined filters: got %v", ids(got))
	}
}

func TestFilteredViewSearchCaseInsensitive(t *testing.T) {
	got := FilteredView(sampleOrders(), Filters{Search: "fix"}, RoleContext{Role: models.RoleAdmin})
	// Matches title "Fix leaking pipe", description "Needs a fix soon" and
	// title "Replace FIXTURE".
	if !reflect.DeepEqual(ids(got), []int64{4, 3, 1}) {
		t.Fatalf("search: got %v", ids(got))
	}
}

func TestFilteredViewSearchAssignee(t *testing.T) {
	got := FilteredView(sampleOrders(), Filters{Search: "tech-2"}, RoleContext{Role: models.RoleAdmin})
	if !reflect.DeepEqual(ids(got), []int64{2}) {
		t.Fatalf("assignee search: got %v", ids(got))
	}
}

func TestFilteredViewPure(t *testing.T) {
	orders := sampleOrders()
	before := make([]models.WorkOrder, len(orders))
	copy(before, orders)

	first := FilteredView(orders, Filters{Search: "fix"}, RoleContext{Role: models.RoleAdmin})
	second := FilteredView(orders, Filters{Search: "fix"}, RoleContext{Role: models.RoleAdmin})

	if !reflect.DeepEqual(orders, before) {
		t.Fatal("input slice was mutated")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated calls with equal inputs must agree")
	}
}

func TestComputeStats(t *testing.T) {
	got := ComputeStats(sampleOrders())
	want := Stats{Total: 4, Open: 2, InProgress: 1, Completed: 1}
	if got != want {
		t.Fatalf("stats: got %+v, want %+v", got, want)
	}
}
