package workflow

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-admin/meridian-admin/internal/shared"
)

type mockRepository struct {
	tasks  map[int64]Task
	nextID int64
}

func newMockRepository(tasks ...Task) *mockRepository {
	r := &mockRepository{tasks: make(map[int64]Task), nextID: 1}
	for _, t := range tasks {
		r.tasks[t.ID] = t
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
	}
	return r
}

func (r *mockRepository) ListTasks(ctx context.Context, filters ListFilters) ([]Task, error) {
	var out []Task
	for id := int64(0); id < r.nextID; id++ {
		t, ok := r.tasks[id]
		if !ok {
			continue
		}
		if filters.Status != "" && t.Status != filters.Status {
			continue
		}
		if filters.AssigneeProfileID != 0 && t.AssigneeProfileID != filters.AssigneeProfileID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *mockRepository) GetTask(ctx context.Context, id int64) (Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, shared.ErrNotFound
	}
	return t, nil
}

func (r *mockRepository) CreateTask(ctx context.Context, t Task) (Task, error) {
	t.ID = r.nextID
	t.Status = StatusPending
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	r.tasks[t.ID] = t
	r.nextID++
	return t, nil
}

func (r *mockRepository) DecideTask(ctx context.Context, id int64, status Status, decidedBy int64, note string) (Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.Status != StatusPending {
		return Task{}, shared.ErrNotFound
	}
	t.Status = status
	t.DecidedBy = decidedBy
	t.DecisionNote = note
	t.UpdatedAt = time.Now()
	r.tasks[id] = t
	return t, nil
}

func (r *mockRepository) FindByRef(ctx context.Context, ref uuid.UUID) (Task, error) {
	for _, t := range r.tasks {
		if t.RefID == ref {
			return t, nil
		}
	}
	return Task{}, shared.ErrNotFound
}

type mockApprovals struct {
	logs    []shared.ApprovalLog
	submits []uuid.UUID
}

func (m *mockApprovals) Record(ctx context.Context, log shared.ApprovalLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockApprovals) List(ctx context.Context, module string, ref uuid.UUID) ([]shared.ApprovalLog, error) {
	var out []shared.ApprovalLog
	for _, l := range m.logs {
		if l.Module == module && l.RefID == ref {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockApprovals) EnsureSubmit(ctx context.Context, module string, ref uuid.UUID, actorID int64, note string) error {
	m.submits = append(m.submits, ref)
	m.logs = append(m.logs, shared.ApprovalLog{Module: module, RefID: ref, ActorID: actorID, Action: shared.ApprovalSubmit, Note: note})
	return nil
}

func newTestService(repo RepositoryPort, approvals ApprovalSink) *Service {
	return NewService(repo, approvals, slog.New(slog.DiscardHandler))
}

func TestSubmitCreatesPendingTaskWithRef(t *testing.T) {
	repo := newMockRepository()
	approvals := &mockApprovals{}
	svc := newTestService(repo, approvals)

	task, err := svc.Submit(context.Background(), 7, SubmitInput{
		Module:            "permissions",
		Title:             "Grant reports access",
		Payload:           map[string]any{"profile_id": 10, "menu_id": 3},
		AssigneeProfileID: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, task.Status)
	assert.NotEqual(t, uuid.Nil, task.RefID)
	require.Len(t, approvals.submits, 1)
	assert.Equal(t, task.RefID, approvals.submits[0])
}

func TestSubmitValidatesInput(t *testing.T) {
	svc := newTestService(newMockRepository(), &mockApprovals{})

	_, err := svc.Submit(context.Background(), 7, SubmitInput{Module: "", Title: "x", AssigneeProfileID: 2})
	assert.Error(t, err)

	_, err = svc.Submit(context.Background(), 7, SubmitInput{Module: "permissions", Title: "x"})
	assert.Error(t, err)
}

func TestApproveRecordsDecision(t *testing.T) {
	ref := uuid.New()
	repo := newMockRepository(Task{ID: 1, RefID: ref, Module: "permissions", Title: "t", Status: StatusPending})
	approvals := &mockApprovals{}
	svc := newTestService(repo, approvals)

	task, err := svc.Approve(context.Background(), 9, 1, "looks right")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, task.Status)
	assert.Equal(t, int64(9), task.DecidedBy)

	require.Len(t, approvals.logs, 1)
	assert.Equal(t, shared.ApprovalApprove, approvals.logs[0].Action)
	assert.Equal(t, ref, approvals.logs[0].RefID)
}

func TestDecisionOnDecidedTaskConflicts(t *testing.T) {
	repo := newMockRepository(Task{ID: 1, RefID: uuid.New(), Module: "permissions", Status: StatusApproved})
	svc := newTestService(repo, &mockApprovals{})

	_, err := svc.Reject(context.Background(), 9, 1, "")
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestRejectMissingTaskIsNotFound(t *testing.T) {
	svc := newTestService(newMockRepository(), &mockApprovals{})

	_, err := svc.Reject(context.Background(), 9, 42, "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestHistoryReturnsTrail(t *testing.T) {
	repo := newMockRepository()
	approvals := &mockApprovals{}
	svc := newTestService(repo, approvals)

	task, err := svc.Submit(context.Background(), 7, SubmitInput{
		Module:            "permissions",
		Title:             "Grant reports access",
		AssigneeProfileID: 2,
	})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), 9, task.ID, "ok")
	require.NoError(t, err)

	history, err := svc.History(context.Background(), task.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, shared.ApprovalSubmit, history[0].Action)
	assert.Equal(t, shared.ApprovalApprove, history[1].Action)
}

func TestListFiltersByStatus(t *testing.T) {
	repo := newMockRepository(
		Task{ID: 1, Status: StatusPending, AssigneeProfileID: 2},
		Task{ID: 2, Status: StatusApproved, AssigneeProfileID: 2},
		Task{ID: 3, Status: StatusPending, AssigneeProfileID: 5},
	)
	svc := newTestService(repo, &mockApprovals{})

	pending, err := svc.List(context.Background(), ListFilters{Status: StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	scoped, err := svc.List(context.Background(), ListFilters{Status: StatusPending, AssigneeProfileID: 2})
	require.NoError(t, err)
	assert.Len(t, scoped, 1)

	_, err = svc.List(context.Background(), ListFilters{Status: "bogus"})
	assert.Error(t, err)
}
