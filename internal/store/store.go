// internal/store/store.go
package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
)

// Store is the single owner of the in-memory work-order set. All mutation
// goes through its entry points; consumers get copies, never references
// into the map. Guarded by a mutex because HTTP handlers run concurrently.
type Store struct {
	mu     sync.RWMutex
	orders map[int64]models.WorkOrder
	order  []int64 // insertion order, for stable listing
	nextID int64
	now    func() time.Time
}

func New() *Store {
	return &Store{
		orders: make(map[int64]models.WorkOrder),
		nextID: 1,
		now:    time.Now,
	}
}

// Create mints a temporary negative identifier and stamps both timestamps.
// The id stays negative until the remote backend confirms the insert and
// ReconcileAfterInsert rewrites it.
func (s *Store) Create(wo models.WorkOrder) models.WorkOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := -s.now().UnixMilli()
	// Two creates in the same millisecond would collide; walk down.
	for {
		if _, taken := s.orders[id]; !taken {
			break
		}
		id--
	}
	wo.ID = id
	now := s.now().UTC()
	wo.CreatedAt = now
	wo.UpdatedAt = now
	wo.Normalize()

	s.orders[id] = wo
	s.order = append(s.order, id)
	return wo
}

// Update replaces the stored record, keeping the original id and CreatedAt
// and refreshing UpdatedAt. An unknown id is a logged no-op.
func (s *Store) Update(wo models.WorkOrder) (models.WorkOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.orders[wo.ID]
	if !ok {
		slog.Debug("store: update for missing work order", "id", wo.ID)
		return models.WorkOrder{}, false
	}
	wo.CreatedAt = cur.CreatedAt
	wo.CreatedBy = cur.CreatedBy
	wo.UpdatedAt = s.now().UTC()
	if wo.UpdatedAt.Before(wo.CreatedAt) {
		wo.UpdatedAt = wo.CreatedAt
	}
	wo.Normalize()
	s.orders[wo.ID] = wo
	return wo, true
}

// Delete removes the record. An unknown id is a logged no-op.
func (s *Store) Delete(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		slog.Debug("store: delete for missing work order", "id", id)
		return false
	}
	delete(s.orders, id)
	s.dropFromOrder(id)
	return true
}

func (s *Store) Get(id int64) (models.WorkOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wo, ok := s.orders[id]
	return wo, ok
}

// List returns a snapshot in insertion order.
func (s *Store) List() []models.WorkOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.WorkOrder, 0, len(s.order))
	for _, id := range s.order {
		if wo, ok := s.orders[id]; ok {
			out = append(out, wo)
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// NextID returns the local sequencing counter.
func (s *Store) NextID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

// ReconcileAfterInsert rewrites a temporary id to the server-assigned one,
// in place: same entry, same position, no delete+reinsert. The counter is
// advanced past the server id so local sequencing stays consistent if the
// remote goes away later.
func (s *Store) ReconcileAfterInsert(tempID, serverID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	wo, ok := s.orders[tempID]
	if !ok {
		slog.Debug("store: reconcile for missing work order", "temp_id", tempID)
		return false
	}
	if _, clash := s.orders[serverID]; clash {
		slog.Warn("store: reconcile target id already present", "id", serverID)
		return false
	}
	delete(s.orders, tempID)
	wo.ID = serverID
	s.orders[serverID] = wo
	for i, id := range s.order {
		if id == tempID {
			s.order[i] = serverID
			break
		}
	}
	if serverID+1 > s.nextID {
		s.nextID = serverID + 1
	}
	return true
}

// ReplaceAll swaps the whole set, e.g. after an import. The counter is
// advanced past the highest positive id.
func (s *Store) ReplaceAll(orders []models.WorkOrder, nextID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = make(map[int64]models.WorkOrder, len(orders))
	s.order = s.order[:0]
	for _, wo := range orders {
		if _, dup := s.orders[wo.ID]; dup {
			slog.Warn("store: dropping duplicate id on replace", "id", wo.ID)
			continue
		}
		s.orders[wo.ID] = wo
		s.order = append(s.order, wo.ID)
	}
	s.nextID = nextID
	s.bumpNextIDLocked()
}

// MergeRemote unions remote rows into the set. Remote wins on conflicting
// ids; local-only records (still-temporary negative ids among them) are
// kept rather than dropped, so an offline-created record survives a load.
func (s *Store) MergeRemote(remote []models.WorkOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, wo := range remote {
		if _, known := s.orders[wo.ID]; !known {
			s.order = append(s.order, wo.ID)
		}
		s.orders[wo.ID] = wo
	}
	s.bumpNextIDLocked()
}

// Snapshot returns the set and counter for persistence.
func (s *Store) Snapshot() ([]models.WorkOrder, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.WorkOrder, 0, len(s.order))
	for _, id := range s.order {
		if wo, ok := s.orders[id]; ok {
			out = append(out, wo)
		}
	}
	return out, s.nextID
}

// bumpNextIDLocked keeps the invariant nextID > every positive id.
func (s *Store) bumpNextIDLocked() {
	for id := range s.orders {
		if id > 0 && id+1 > s.nextID {
			s.nextID = id + 1
		}
	}
	if s.nextID < 1 {
		s.nextID = 1
	}
}

func (s *Store) dropFromOrder(id int64) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
