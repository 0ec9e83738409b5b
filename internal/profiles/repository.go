package profiles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-admin/meridian-admin/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListProfiles returns one page of profiles plus the unpaged total.
func (r *Repository) ListProfiles(ctx context.Context, filters ListFilters) ([]Profile, int, error) {
	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * perPage
	pattern := "%" + filters.Query + "%"

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at
FROM profiles WHERE name ILIKE $1 ORDER BY name LIMIT $2 OFFSET $3`, pattern, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetProfile fetches one profile.
func (r *Repository) GetProfile(ctx context.Context, id int64) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at FROM profiles WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, shared.ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

// CreateProfile inserts a new profile.
func (r *Repository) CreateProfile(ctx context.Context, name, description string) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `INSERT INTO profiles (name, description, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
RETURNING id, name, description, created_at, updated_at`, name, description).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Profile{}, shared.ErrDuplicate
		}
		return Profile{}, err
	}
	return p, nil
}

// UpdateProfile updates name and description.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, name, description string) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `UPDATE profiles SET name=$2, description=$3, updated_at=NOW() WHERE id=$1
RETURNING id, name, description, created_at, updated_at`, id, name, description).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, shared.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Profile{}, shared.ErrDuplicate
		}
		return Profile{}, err
	}
	return p, nil
}

// DeleteProfile removes a profile.
func (r *Repository) DeleteProfile(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountMembers reports how many users reference the profile.
func (r *Repository) CountMembers(ctx context.Context, id int64) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE profile_id=$1`, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
