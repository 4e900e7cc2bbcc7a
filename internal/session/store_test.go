package session

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
)

func TestCreateAndGet(t *testing.T) {
	s := NewStore()
	sess := models.Session{
		UserID: uuid.New(),
		Email:  "tech@example.test",
		Role:   models.RoleTechnician,
		Expiry: time.Now().Add(time.Hour),
	}
	id := s.Create(sess)
	if id == "" {
		t.Fatal("empty session id")
	}
	got, ok := s.Get(id)
	if !ok || got.Email != sess.Email {
		t.Fatalf("get: ok=%v got=%+v", ok, got)
	}
}

func TestGetExpired(t *testing.T) {
	s := NewStore()
	id := s.Create(models.Session{
		UserID: uuid.New(),
		Expiry: time.Now().Add(-time.Minute),
	})
	if _, ok := s.Get(id); ok {
		t.Fatal("expired session must not resolve")
	}
	// Lazy delete means a second lookup misses too.
	if _, ok := s.Get(id); ok {
		t.Fatal("expired session must have been removed")
	}
}

func TestDelete(t *testing.T) {
	s := NewStore()
	id := s.Create(models.Session{UserID: uuid.New(), Expiry: time.Now().Add(time.Hour)})
	s.Delete(id)
	if _, ok := s.Get(id); ok {
		t.Fatal("deleted session still resolves")
	}
}

func TestList(t *testing.T) {
	s := NewStore()
	s.Create(models.Session{UserID: uuid.New(), Expiry: time.Now().Add(time.Hour)})
	s.Create(models.Session{UserID: uuid.New(), Expiry: time.Now().Add(time.Hour)})
	if got := s.List(); len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
}
