// internal/storage/remote.go
package storage

import (
	"context"

	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
)

// Scope narrows a remote select the way row-level security would: equality
// filters on owner fields. Zero values mean no restriction (the backend
// still scopes by organisation).
type Scope struct {
	OrgID      string
	AssignedTo string
	CreatedBy  string
}

// Remote is what the persistence adapter needs from the backend: row-level
// select/insert/update/delete on the work-orders collection. Insert returns
// the server-generated identifier; Update reports whether a row existed.
type Remote interface {
	SelectWorkOrders(ctx context.Context, scope Scope) ([]models.WorkOrder, error)
	InsertWorkOrder(ctx context.Context, wo models.WorkOrder, sess models.Session) (int64, error)
	UpdateWorkOrder(ctx context.Context, wo models.WorkOrder, sess models.Session) (bool, error)
	DeleteWorkOrder(ctx context.Context, id int64, sess models.Session) error
}
