// Package rbac authorizes HTTP requests against the menu slugs a user's
// profile is assigned to.
package rbac

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Service resolves a user's effective permission slugs. A slug is effective
// when the user's profile holds the menu at a granting level; structural
// AccessNone assignments confer nothing.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs a Service backed by the provided pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// EffectivePermissions returns the menu slugs the user may act on.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT m.slug
FROM users u
JOIN profile_menu_assignments a ON a.profile_id = u.profile_id
JOIN menus m ON m.id = a.menu_id
WHERE u.id = $1 AND u.active AND a.access_level > 0`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slugs, nil
}
