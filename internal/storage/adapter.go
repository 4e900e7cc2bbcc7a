// internal/storage/adapter.go
package storage

import (
	"context"
	"log/slog"

	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
	"github.com/Mike-Sabalan-Automation/workorders/internal/store"
)

// Source names where a load was ultimately served from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// SaveResult is the explicit outcome of a mutation: no raw backend error
// crosses this boundary. Synced is false whenever the change only reached
// the local store, with Reason as the human-readable explanation.
type SaveResult struct {
	ID     int64
	Synced bool
	Reason string
}

// LoadResult reports where the data came from after fallback.
type LoadResult struct {
	Source Source
	Count  int
	Reason string
}

// Adapter routes every mutation through the local store first and then
// best-effort to the remote backend. It owns the fallback policy; the
// record store owns the data.
type Adapter struct {
	store  *store.Store
	local  *Local
	remote Remote // nil in local-only mode
}

func NewAdapter(st *store.Store, local *Local, remote Remote) *Adapter {
	return &Adapter{store: st, local: local, remote: remote}
}

// RemoteConfigured reports whether a remote backend exists at all.
func (a *Adapter) RemoteConfigured() bool { return a.remote != nil }

// useRemote: remote writes need both a configured backend and a session.
func (a *Adapter) useRemote(sess *models.Session) bool {
	return a.remote != nil && sess != nil
}

// Load populates the record store. With a session the remote is preferred;
// an error or empty result falls back to local content. A non-empty remote
// result is merged by id rather than replacing the set, so records created
// while offline are not dropped.
func (a *Adapter) Load(ctx context.Context, sess *models.Session) LoadResult {
	if a.useRemote(sess) {
		scope := Scope{OrgID: sess.OrgID}
		if sess.Role == models.RoleTechnician {
			scope.AssignedTo = sess.UserRef
		}
		rows, err := a.remote.SelectWorkOrders(ctx, scope)
		if err != nil {
			slog.Warn("adapter: remote load failed, using local data", "err", err)
			return a.loadLocal("remote error, using local data")
		}
		if len(rows) == 0 {
			return a.loadLocal("remote empty, using local data")
		}
		res := a.loadLocal("")
		a.store.MergeRemote(rows)
		a.persistLocal()
		slog.Info("adapter: loaded from remote", "remote_rows", len(rows), "local_rows", res.Count)
		return LoadResult{Source: SourceRemote, Count: a.store.Len()}
	}
	return a.loadLocal("")
}

func (a *Adapter) loadLocal(reason string) LoadResult {
	orders, nextID, err := a.local.Load()
	if err != nil {
		slog.Warn("adapter: local load failed, starting empty", "err", err)
		a.store.ReplaceAll(nil, 1)
		return LoadResult{Source: SourceLocal, Reason: "local data unreadable"}
	}
	a.store.ReplaceAll(orders, nextID)
	return LoadResult{Source: SourceLocal, Count: len(orders), Reason: reason}
}

// Save persists a record that is already in the store. The local write
// happens unconditionally and completes before any remote attempt, so a
// durable copy always exists. Remote failure never rolls it back.
func (a *Adapter) Save(ctx context.Context, sess *models.Session, wo models.WorkOrder) SaveResult {
	a.persistLocal()

	if !a.useRemote(sess) {
		return SaveResult{ID: wo.ID, Synced: false, Reason: "saved locally"}
	}

	// Temporary ids always insert: the remote has no row to update yet.
	if wo.Temporary() {
		return a.insertRemote(ctx, sess, wo)
	}

	existed, err := a.remote.UpdateWorkOrder(ctx, wo, *sess)
	if err != nil {
		slog.Warn("adapter: remote update failed", "id", wo.ID, "err", err)
		return SaveResult{ID: wo.ID, Synced: false, Reason: "saved locally only"}
	}
	if !existed {
		// Positive id but no remote row, e.g. imported data. Insert and
		// take whatever id the server assigns.
		return a.insertRemote(ctx, sess, wo)
	}
	return SaveResult{ID: wo.ID, Synced: true}
}

func (a *Adapter) insertRemote(ctx context.Context, sess *models.Session, wo models.WorkOrder) SaveResult {
	serverID, err := a.remote.InsertWorkOrder(ctx, wo, *sess)
	if err != nil {
		slog.Warn("adapter: remote insert failed", "id", wo.ID, "err", err)
		return SaveResult{ID: wo.ID, Synced: false, Reason: "saved locally only"}
	}
	id := wo.ID
	if a.store.ReconcileAfterInsert(wo.ID, serverID) {
		id = serverID
		a.persistLocal()
	}
	return SaveResult{ID: id, Synced: true}
}

// Delete persists the removal locally and issues a best-effort remote
// delete. A still-temporary id never reaches the remote: no row exists
// under it.
func (a *Adapter) Delete(ctx context.Context, sess *models.Session, id int64) SaveResult {
	a.persistLocal()

	if !a.useRemote(sess) || id < 0 {
		return SaveResult{ID: id, Synced: false, Reason: "deleted locally"}
	}
	if err := a.remote.DeleteWorkOrder(ctx, id, *sess); err != nil {
		slog.Warn("adapter: remote delete failed", "id", id, "err", err)
		return SaveResult{ID: id, Synced: false, Reason: "deleted locally only"}
	}
	return SaveResult{ID: id, Synced: true}
}

// Flush writes the current snapshot to the local store, e.g. after imports.
func (a *Adapter) Flush() { a.persistLocal() }

func (a *Adapter) persistLocal() {
	orders, nextID := a.store.Snapshot()
	a.local.Save(orders, nextID)
}
