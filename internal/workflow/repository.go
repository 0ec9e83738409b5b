package workflow

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-admin/meridian-admin/internal/shared"
)

// Repository persists workflow tasks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, ref_id, module, title, payload, assignee_profile_id, requested_by, status, decided_by, decision_note, created_at, updated_at`

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	var payload []byte
	var decidedBy pgtype.Int8
	var note pgtype.Text
	if err := row.Scan(&t.ID, &t.RefID, &t.Module, &t.Title, &payload, &t.AssigneeProfileID,
		&t.RequestedBy, &t.Status, &decidedBy, &note, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Task{}, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &t.Payload); err != nil {
			return Task{}, err
		}
	}
	if decidedBy.Valid {
		t.DecidedBy = decidedBy.Int64
	}
	if note.Valid {
		t.DecisionNote = note.String
	}
	return t, nil
}

// ListTasks returns inbox entries, newest first.
func (r *Repository) ListTasks(ctx context.Context, filters ListFilters) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM workflow_tasks WHERE 1=1`
	args := []any{}
	if filters.Status != "" {
		args = append(args, string(filters.Status))
		query += ` AND status=$1`
	}
	if filters.AssigneeProfileID != 0 {
		args = append(args, filters.AssigneeProfileID)
		if len(args) == 1 {
			query += ` AND assignee_profile_id=$1`
		} else {
			query += ` AND assignee_profile_id=$2`
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTask fetches one task by id.
func (r *Repository) GetTask(ctx context.Context, id int64) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM workflow_tasks WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, shared.ErrNotFound
		}
		return Task{}, err
	}
	return t, nil
}

// CreateTask inserts a pending task.
func (r *Repository) CreateTask(ctx context.Context, t Task) (Task, error) {
	payload, err := json.Marshal(t.Payload)
	if err != nil {
		return Task{}, err
	}
	stored, err := scanTask(r.pool.QueryRow(ctx, `INSERT INTO workflow_tasks
(ref_id, module, title, payload, assignee_profile_id, requested_by, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING `+taskColumns,
		t.RefID, t.Module, t.Title, payload, t.AssigneeProfileID, t.RequestedBy, string(StatusPending)))
	if err != nil {
		return Task{}, err
	}
	return stored, nil
}

// DecideTask flips a pending task to its final status. Returns
// shared.ErrNotFound when the task is missing or already decided.
func (r *Repository) DecideTask(ctx context.Context, id int64, status Status, decidedBy int64, note string) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `UPDATE workflow_tasks
SET status=$2, decided_by=$3, decision_note=$4, updated_at=NOW()
WHERE id=$1 AND status=$5 RETURNING `+taskColumns,
		id, string(status), decidedBy, note, string(StatusPending)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, shared.ErrNotFound
		}
		return Task{}, err
	}
	return t, nil
}

// FindByRef fetches a task by its uuid reference.
func (r *Repository) FindByRef(ctx context.Context, ref uuid.UUID) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM workflow_tasks WHERE ref_id=$1`, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, shared.ErrNotFound
		}
		return Task{}, err
	}
	return t, nil
}
