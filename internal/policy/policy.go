// internal/policy/policy.go
package policy

import (
	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
)

// CanAssign reports whether the role may set AssignedTo.
func CanAssign(role models.Role) bool { return role == models.RoleAdmin }

// EditableFields returns the field names the role may change on an
// existing record. Admins may change everything.
func EditableFields(role models.Role) map[string]bool {
	if role == models.RoleAdmin {
		return map[string]bool{
			"title": true, "description": true, "assignedTo": true,
			"priority": true, "status": true, "dueDate": true,
			"estimatedHours": true,
		}
	}
	return map[string]bool{
		"description": true, "status": true, "estimatedHours": true,
	}
}

// CanEdit reports whether the role may touch the record at all.
// Technicians only edit records already assigned to them.
func CanEdit(role models.Role, userRef string, wo models.WorkOrder) bool {
	if role == models.RoleAdmin {
		return true
	}
	return wo.AssignedTo == userRef
}

// ApplyEdit merges a submitted record onto the existing one under the
// role's rules. Fields the role cannot edit keep the existing value even
// when the submission carries something else, so a disabled form field can
// never blank out the original.
func ApplyEdit(existing, submitted models.WorkOrder, role models.Role) models.WorkOrder {
	if role == models.RoleAdmin {
		submitted.ID = existing.ID
		submitted.CreatedBy = existing.CreatedBy
		submitted.CreatedAt = existing.CreatedAt
		return submitted
	}

	out := existing
	out.Description = submitted.Description
	out.Status = submitted.Status
	out.EstimatedHours = submitted.EstimatedHours
	return out
}
