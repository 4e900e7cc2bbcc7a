// internal/repo/workorders.go
package repo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
	"github.com/Mike-Sabalan-Automation/workorders/internal/storage"
)

const workOrderCols = `id, title, description, assigned_to, priority, status,
	due_date, estimated_hours, created_by, created_date, updated_date`

// SelectWorkOrders reads the rows visible under the scope. Equality filters
// on org and assignee mirror what row-level security enforces server-side.
func (p *pgRepo) SelectWorkOrders(ctx context.Context, scope storage.Scope) ([]models.WorkOrder, error) {
	slog.DebugContext(ctx, "SelectWorkOrders", "org_id", scope.OrgID, "assigned_to", scope.AssignedTo)

	q := `SELECT ` + workOrderCols + ` FROM work_orders WHERE org_id = $1`
	args := []any{scope.OrgID}
	if scope.AssignedTo != "" {
		args = append(args, scope.AssignedTo)
		q += fmt.Sprintf(` AND assigned_to = $%d`, len(args))
	}
	if scope.CreatedBy != "" {
		args = append(args, scope.CreatedBy)
		q += fmt.Sprintf(` AND created_by = $%d`, len(args))
	}
	q += ` ORDER BY id`

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		slog.ErrorContext(ctx, "SelectWorkOrders failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]models.WorkOrder, 0, 16)
	for rows.Next() {
		var wo models.WorkOrder
		if err := rows.Scan(
			&wo.ID, &wo.Title, &wo.Description, &wo.AssignedTo,
			&wo.Priority, &wo.Status, &wo.DueDate, &wo.EstimatedHours,
			&wo.CreatedBy, &wo.CreatedAt, &wo.UpdatedAt,
		); err != nil {
			slog.ErrorContext(ctx, "SelectWorkOrders scan failed", "err", err)
			return nil, err
		}
		wo.Normalize()
		out = append(out, wo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "SelectWorkOrders ok", "count", len(out))
	return out, nil
}

// InsertWorkOrder creates the row and returns the generated identifier.
// The client-side temporary id never reaches the database.
func (p *pgRepo) InsertWorkOrder(ctx context.Context, wo models.WorkOrder, sess models.Session) (int64, error) {
	slog.DebugContext(ctx, "InsertWorkOrder", "title", wo.Title)

	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO work_orders
			(org_id, title, description, assigned_to, priority, status,
			 due_date, estimated_hours, created_by, created_date, updated_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id`,
		sess.OrgID, wo.Title, wo.Description, wo.AssignedTo,
		string(wo.Priority), string(wo.Status), wo.DueDate, wo.EstimatedHours,
		sess.UserRef, wo.CreatedAt, wo.UpdatedAt,
	).Scan(&id)
	if err != nil {
		slog.ErrorContext(ctx, "InsertWorkOrder failed", "err", err)
		return 0, err
	}
	return id, nil
}

// UpdateWorkOrder rewrites the row, scoped to the session's organisation.
// Returns false when no row matched so the caller can route to insert.
func (p *pgRepo) UpdateWorkOrder(ctx context.Context, wo models.WorkOrder, sess models.Session) (bool, error) {
	slog.DebugContext(ctx, "UpdateWorkOrder", "id", wo.ID)

	tag, err := p.pool.Exec(ctx, `
		UPDATE work_orders SET
			title = $1, description = $2, assigned_to = $3, priority = $4,
			status = $5, due_date = $6, estimated_hours = $7, updated_date = $8
		WHERE id = $9 AND org_id = $10`,
		wo.Title, wo.Description, wo.AssignedTo, string(wo.Priority),
		string(wo.Status), wo.DueDate, wo.EstimatedHours, wo.UpdatedAt,
		wo.ID, sess.OrgID,
	)
	if err != nil {
		slog.ErrorContext(ctx, "UpdateWorkOrder failed", "id", wo.ID, "err", err)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteWorkOrder removes the row, scoped to the session's organisation.
func (p *pgRepo) DeleteWorkOrder(ctx context.Context, id int64, sess models.Session) error {
	slog.DebugContext(ctx, "DeleteWorkOrder", "id", id)

	_, err := p.pool.Exec(ctx,
		`DELETE FROM work_orders WHERE id = $1 AND org_id = $2`, id, sess.OrgID)
	if err != nil {
		slog.ErrorContext(ctx, "DeleteWorkOrder failed", "id", id, "err", err)
	}
	return err
}
