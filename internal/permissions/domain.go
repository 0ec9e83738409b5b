// Package permissions is the write-path around the menu tree engine: it loads
// menu and assignment snapshots, computes grant/revoke deltas and applies them
// against storage one member at a time.
package permissions

import "github.com/meridian-admin/meridian-admin/internal/menutree"

// TreeRow is one display row of a profile's permission tree.
type TreeRow struct {
	MenuID       int64  `json:"menu_id"`
	Title        string `json:"title"`
	Number       string `json:"number"`
	Depth        int    `json:"depth"`
	HasChildren  bool   `json:"has_children"`
	Expanded     bool   `json:"expanded"`
	Assigned     bool   `json:"assigned"`
	AssignmentID int64  `json:"assignment_id,omitempty"`
	Access       string `json:"access,omitempty"`
}

// TreeView is the rendered permission tree for one profile.
type TreeView struct {
	ProfileID int64     `json:"profile_id"`
	Rows      []TreeRow `json:"rows"`
}

// BatchResult reports what a grant or revoke actually changed.
type BatchResult struct {
	Outcome menutree.Outcome
	Created []menutree.Assignment
	Deleted []int64
}

// Violation is one hole found by the integrity scan: an assignment whose
// ancestor chain is incomplete.
type Violation struct {
	ProfileID      int64   `json:"profile_id"`
	MenuID         int64   `json:"menu_id"`
	MissingMenuIDs []int64 `json:"missing_menu_ids"`
}

// IntegrityReport summarises a full scan over every profile's assignments.
type IntegrityReport struct {
	ProfilesScanned    int         `json:"profiles_scanned"`
	AssignmentsChecked int         `json:"assignments_checked"`
	Violations         []Violation `json:"violations"`
}
