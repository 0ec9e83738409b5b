package menus

import "time"

// Menu is one catalog entry of the navigable menu tree. ParentID zero marks a
// root. Slug is the stable permission key RBAC checks against; the tree
// engine itself never reads it.
type Menu struct {
	ID        int64
	ParentID  int64
	Title     string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
