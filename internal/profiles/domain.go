// Package profiles manages the access profiles users are grouped under.
// Menu assignments hang off a profile, never off an individual user.
package profiles

import "time"

// Profile is a named bundle of menu assignments.
type Profile struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListFilters narrows and pages the profile listing.
type ListFilters struct {
	Query   string
	Page    int
	PerPage int
}
