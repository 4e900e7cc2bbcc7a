package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
)

func TestLocalRoundTrip(t *testing.T) {
	l := NewLocal(NewMemoryKV())

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	orders := []models.WorkOrder{
		{ID: 1, Title: "Replace filter", Priority: models.PriorityHigh, Status: models.StatusOpen, CreatedAt: now, UpdatedAt: now},
		{ID: -1700000000000, Title: "Offline order", Priority: models.PriorityMedium, Status: models.StatusInProgress, AssignedTo: "tech-7", EstimatedHours: 2.5, CreatedAt: now, UpdatedAt: now},
	}
	l.Save(orders, 17)

	got, nextID, err := l.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if nextID != 17 {
		t.Fatalf("nextId round trip: got %d", nextID)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(got))
	}
	if got[1].ID != orders[1].ID || got[1].EstimatedHours != 2.5 || got[1].AssignedTo != "tech-7" {
		t.Fatalf("record mangled: %+v", got[1])
	}
}

func TestLocalLoadEmpty(t *testing.T) {
	l := NewLocal(NewMemoryKV())
	orders, nextID, err := l.Load()
	if err != nil {
		t.Fatalf("empty load must not error: %v", err)
	}
	if len(orders) != 0 || nextID != 1 {
		t.Fatalf("expected empty set and counter 1, got %d orders, nextId %d", len(orders), nextID)
	}
}

func TestLocalLoadCorrupt(t *testing.T) {
	kv := NewMemoryKV()
	_ = kv.SetItem("workOrders", "{not json")
	l := NewLocal(kv)
	if _, _, err := l.Load(); err == nil {
		t.Fatal("corrupt payload must surface an error")
	}
}

func TestLocalLoadBadCounterFallsBack(t *testing.T) {
	kv := NewMemoryKV()
	_ = kv.SetItem("workOrders", "[]")
	_ = kv.SetItem("nextId", "banana")
	l := NewLocal(kv)
	_, nextID, err := l.Load()
	if err != nil {
		t.Fatalf("bad counter must not be fatal: %v", err)
	}
	if nextID != 1 {
		t.Fatalf("expected counter fallback to 1, got %d", nextID)
	}
}

func TestLocalLegacyAssigneeKey(t *testing.T) {
	kv := NewMemoryKV()
	_ = kv.SetItem("workOrders", `[{"id":1,"title":"old","assignee":"mike","priority":"low","status":"open"}]`)
	l := NewLocal(kv)
	orders, _, err := l.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(orders) != 1 || orders[0].AssignedTo != "mike" {
		t.Fatalf("legacy assignee key not migrated: %+v", orders)
	}
}

func TestLocalClear(t *testing.T) {
	kv := NewMemoryKV()
	l := NewLocal(kv)
	l.Save([]models.WorkOrder{{ID: 1, Title: "x"}}, 2)
	l.Clear()
	orders, nextID, err := l.Load()
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if len(orders) != 0 || nextID != 1 {
		t.Fatal("clear must reset to empty state")
	}
}

func TestSQLiteKVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")
	kv, err := OpenSQLiteKV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer kv.Close()

	if err := kv.SetItem("workOrders", `[{"id":1,"title":"a"}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	// Upsert path
	if err := kv.SetItem("workOrders", `[{"id":1,"title":"b"}]`); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	v, ok, err := kv.GetItem("workOrders")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if v != `[{"id":1,"title":"b"}]` {
		t.Fatalf("upsert did not replace value: %q", v)
	}

	if err := kv.RemoveItem("workOrders"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := kv.GetItem("workOrders"); ok {
		t.Fatal("key still present after remove")
	}
}

func TestSQLiteKVPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")
	kv, err := OpenSQLiteKV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := kv.SetItem("nextId", "42"); err != nil {
		t.Fatalf("set: %v", err)
	}
	kv.Close()

	kv2, err := OpenSQLiteKV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv2.Close()
	v, ok, err := kv2.GetItem("nextId")
	if err != nil || !ok || v != "42" {
		t.Fatalf("value lost across reopen: %q ok=%v err=%v", v, ok, err)
	}
}
