package menus

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-admin/meridian-admin/internal/platform/db"
	"github.com/meridian-admin/meridian-admin/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the menu catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListMenus returns the full catalog ordered by id.
func (r *Repository) ListMenus(ctx context.Context) ([]Menu, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, parent_id, title, slug, created_at, updated_at FROM menus ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var menus []Menu
	for rows.Next() {
		menu, err := scanMenu(rows)
		if err != nil {
			return nil, err
		}
		menus = append(menus, menu)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return menus, nil
}

// GetMenu fetches one catalog entry.
func (r *Repository) GetMenu(ctx context.Context, id int64) (Menu, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, parent_id, title, slug, created_at, updated_at FROM menus WHERE id=$1`, id)
	menu, err := scanMenu(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Menu{}, shared.ErrNotFound
		}
		return Menu{}, err
	}
	return menu, nil
}

// CreateMenu inserts a catalog entry. The database assigns the id.
func (r *Repository) CreateMenu(ctx context.Context, parentID int64, title, slug string) (Menu, error) {
	var parent pgtype.Int8
	if parentID != 0 {
		parent = pgtype.Int8{Int64: parentID, Valid: true}
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO menus (parent_id, title, slug, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
RETURNING id, parent_id, title, slug, created_at, updated_at`, parent, title, slug)
	menu, err := scanMenu(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_menus_slug" {
			return Menu{}, shared.ErrDuplicate
		}
		return Menu{}, err
	}
	return menu, nil
}

// UpdateMenu updates title and slug of an existing entry. Reparenting is not
// supported; moving a subtree would silently rewrite every profile's
// effective permissions.
func (r *Repository) UpdateMenu(ctx context.Context, id int64, title, slug string) (Menu, error) {
	row := r.pool.QueryRow(ctx, `UPDATE menus SET title=$2, slug=$3, updated_at=NOW() WHERE id=$1
RETURNING id, parent_id, title, slug, created_at, updated_at`, id, title, slug)
	menu, err := scanMenu(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Menu{}, shared.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_menus_slug" {
			return Menu{}, shared.ErrDuplicate
		}
		return Menu{}, err
	}
	return menu, nil
}

// DeleteMenu removes a catalog entry. The child recheck runs in the same
// transaction as the delete so a concurrently inserted child cannot be
// orphaned. Returns shared.ErrNotFound when nothing was deleted.
func (r *Repository) DeleteMenu(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var children int64
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM menus WHERE parent_id=$1`, id).Scan(&children); err != nil {
			return err
		}
		if children > 0 {
			return ErrHasChildren
		}
		tag, err := tx.Exec(ctx, `DELETE FROM menus WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// CountChildren reports how many catalog entries reference id as parent.
func (r *Repository) CountChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM menus WHERE parent_id=$1`, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanMenu(row pgx.Row) (Menu, error) {
	var menu Menu
	var parent pgtype.Int8
	if err := row.Scan(&menu.ID, &parent, &menu.Title, &menu.Slug, &menu.CreatedAt, &menu.UpdatedAt); err != nil {
		return Menu{}, err
	}
	if parent.Valid {
		menu.ParentID = parent.Int64
	}
	return menu, nil
}
