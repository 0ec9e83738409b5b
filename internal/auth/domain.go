package auth

import "time"

// Credentials is the slice of a user account the login flow needs.
type Credentials struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Active       bool
}

// SessionRecord mirrors one persisted login session, kept for auditing.
type SessionRecord struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}
