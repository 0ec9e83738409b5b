package users

import "time"

// User is an admin account. ProfileID links the account to the profile whose
// menu assignments drive authorization; zero means no profile yet.
type User struct {
	ID           int64
	Email        string
	Name         string
	ProfileID    int64
	Active       bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ListFilters narrows and pages the user listing.
type ListFilters struct {
	Query   string
	Page    int
	PerPage int
}
