package permissions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-admin/meridian-admin/internal/menutree"
	"github.com/meridian-admin/meridian-admin/internal/shared"
)

// Repository persists profile menu assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LoadAssignments returns the full assignment snapshot for one profile.
func (r *Repository) LoadAssignments(ctx context.Context, profileID int64) ([]menutree.Assignment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, menu_id, profile_id, access_level
FROM profile_menu_assignments WHERE profile_id=$1 ORDER BY id`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []menutree.Assignment
	for rows.Next() {
		var a menutree.Assignment
		if err := rows.Scan(&a.ID, &a.MenuID, &a.ProfileID, &a.Level); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAssignedProfiles returns every profile id that holds at least one
// assignment.
func (r *Repository) ListAssignedProfiles(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT profile_id FROM profile_menu_assignments ORDER BY profile_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertAssignment persists one create instruction and returns the stored
// record with its database id.
func (r *Repository) InsertAssignment(ctx context.Context, c menutree.Create) (menutree.Assignment, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO profile_menu_assignments (menu_id, profile_id, access_level, created_at)
VALUES ($1, $2, $3, NOW()) RETURNING id`, c.MenuID, c.ProfileID, int(c.Level)).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return menutree.Assignment{}, shared.ErrDuplicate
		}
		return menutree.Assignment{}, err
	}
	return menutree.Assignment{ID: id, MenuID: c.MenuID, ProfileID: c.ProfileID, Level: c.Level}, nil
}

// DeleteAssignment removes one assignment by id.
func (r *Repository) DeleteAssignment(ctx context.Context, assignmentID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profile_menu_assignments WHERE id=$1`, assignmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateAssignmentLevel stores a new access level on an existing assignment.
func (r *Repository) UpdateAssignmentLevel(ctx context.Context, assignmentID int64, level menutree.AccessLevel) error {
	tag, err := r.pool.Exec(ctx, `UPDATE profile_menu_assignments SET access_level=$2, updated_at=NOW() WHERE id=$1`,
		assignmentID, int(level))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
