// Package workflow is the approval-task inbox: permission changes and other
// administrative actions can be routed through a pending task that a
// supervisor profile approves or rejects.
package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates task states.
type Status string

const (
	// StatusPending marks a task waiting for a decision.
	StatusPending Status = "pending"
	// StatusApproved marks an accepted task.
	StatusApproved Status = "approved"
	// StatusRejected marks a declined task.
	StatusRejected Status = "rejected"
)

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Task is one inbox entry. RefID is the stable reference approval logs hang
// off; AssigneeProfileID scopes the task to the profile whose members may
// decide it.
type Task struct {
	ID                int64
	RefID             uuid.UUID
	Module            string
	Title             string
	Payload           map[string]any
	AssigneeProfileID int64
	RequestedBy       int64
	Status            Status
	DecidedBy         int64
	DecisionNote      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ListFilters narrows the inbox listing.
type ListFilters struct {
	Status            Status
	AssigneeProfileID int64
}
