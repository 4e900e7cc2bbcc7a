// internal/models/types.go
package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Priority levels for a work order.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status values a work order moves through.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Role of the session user. Admins see the whole organisation and may
// assign; technicians are scoped to their own assignments.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
)

// WorkOrder is the central record. IDs are negative while the record is
// only known locally and become positive once the remote backend has
// assigned one. AssignedTo holds a user reference in multi-user mode or
// free text in local-only mode; CreatedBy is empty in local-only mode.
type WorkOrder struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	AssignedTo     string    `json:"assignedTo,omitempty"`
	Priority       Priority  `json:"priority"`
	Status         Status    `json:"status"`
	DueDate        string    `json:"dueDate,omitempty"`
	EstimatedHours float64   `json:"estimatedHours"`
	CreatedBy      string    `json:"createdBy,omitempty"`
	CreatedAt      time.Time `json:"createdDate"`
	UpdatedAt      time.Time `json:"updatedDate"`
}

// Temporary reports whether the record has not yet been confirmed by the
// remote backend.
func (w WorkOrder) Temporary() bool { return w.ID < 0 }

// Normalize fills enum defaults the way older payloads relied on.
func (w *WorkOrder) Normalize() {
	if w.Priority == "" {
		w.Priority = PriorityMedium
	}
	if w.Status == "" {
		w.Status = StatusOpen
	}
	if w.EstimatedHours < 0 {
		w.EstimatedHours = 0
	}
}

// UnmarshalJSON accepts both the current field names and the legacy
// "assignee" key some deployments wrote.
func (w *WorkOrder) UnmarshalJSON(data []byte) error {
	type alias WorkOrder
	aux := struct {
		*alias
		Assignee string `json:"assignee,omitempty"`
	}{alias: (*alias)(w)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if w.AssignedTo == "" && aux.Assignee != "" {
		w.AssignedTo = aux.Assignee
	}
	w.Normalize()
	return nil
}

// ValidPriority reports whether p is one of the known priority levels.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type User struct {
	ID    uuid.UUID
	Email string
	Name  string
}

type LocalCredential struct {
	UserID       uuid.UUID
	Username     string
	PasswordHash string
}

// Session is the role context attached to authenticated requests. UserRef
// is the string form of the user id and is what AssignedTo/CreatedBy carry
// in multi-user mode.
type Session struct {
	UserID   uuid.UUID
	UserRef  string
	Email    string
	OrgID    string
	Role     Role
	Provider string
	Expiry   time.Time
}

// Admin reports whether the session carries the admin role.
func (s Session) Admin() bool { return s.Role == RoleAdmin }

var (
	ErrNotFound      = errors.New("work order not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrEmptyTitle    = errors.New("title must not be empty")
	ErrBadPriority   = errors.New("unknown priority")
	ErrBadStatus     = errors.New("unknown status")
	ErrRemoteOffline = errors.New("remote backend not configured")
)
