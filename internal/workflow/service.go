package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-admin/meridian-admin/internal/platform/httpx"
	"github.com/meridian-admin/meridian-admin/internal/shared"
)

// ErrAlreadyDecided rejects a second decision on a task.
var ErrAlreadyDecided = fmt.Errorf("task was already decided: %w", httpx.ErrConflict)

// RepositoryPort defines data access methods for workflow tasks.
type RepositoryPort interface {
	ListTasks(ctx context.Context, filters ListFilters) ([]Task, error)
	GetTask(ctx context.Context, id int64) (Task, error)
	CreateTask(ctx context.Context, t Task) (Task, error)
	DecideTask(ctx context.Context, id int64, status Status, decidedBy int64, note string) (Task, error)
	FindByRef(ctx context.Context, ref uuid.UUID) (Task, error)
}

// ApprovalSink records the approval history of a task.
type ApprovalSink interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
	List(ctx context.Context, module string, ref uuid.UUID) ([]shared.ApprovalLog, error)
	EnsureSubmit(ctx context.Context, module string, ref uuid.UUID, actorID int64, note string) error
}

// Service handles the approval inbox.
type Service struct {
	repo      RepositoryPort
	approvals ApprovalSink
	logger    *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, approvals ApprovalSink, logger *slog.Logger) *Service {
	return &Service{repo: repo, approvals: approvals, logger: logger}
}

// SubmitInput carries the fields of a new task.
type SubmitInput struct {
	Module            string
	Title             string
	Payload           map[string]any
	AssigneeProfileID int64
}

// List returns inbox entries matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Task, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", filters.Status, httpx.ErrValidation)
	}
	return s.repo.ListTasks(ctx, filters)
}

// Get fetches one task.
func (s *Service) Get(ctx context.Context, id int64) (Task, error) {
	return s.repo.GetTask(ctx, id)
}

// Submit opens a pending task and records the SUBMIT approval entry.
func (s *Service) Submit(ctx context.Context, actorID int64, in SubmitInput) (Task, error) {
	module := strings.TrimSpace(in.Module)
	title := strings.TrimSpace(in.Title)
	if module == "" || title == "" {
		return Task{}, fmt.Errorf("module and title are required: %w", httpx.ErrValidation)
	}
	if in.AssigneeProfileID <= 0 {
		return Task{}, fmt.Errorf("assignee profile is required: %w", httpx.ErrValidation)
	}

	task, err := s.repo.CreateTask(ctx, Task{
		RefID:             uuid.New(),
		Module:            module,
		Title:             title,
		Payload:           in.Payload,
		AssigneeProfileID: in.AssigneeProfileID,
		RequestedBy:       actorID,
	})
	if err != nil {
		return Task{}, err
	}
	if err := s.approvals.EnsureSubmit(ctx, task.Module, task.RefID, actorID, task.Title); err != nil {
		s.logger.Warn("record submit approval", slog.Any("error", err))
	}
	return task, nil
}

// Approve accepts a pending task.
func (s *Service) Approve(ctx context.Context, actorID, taskID int64, note string) (Task, error) {
	return s.decide(ctx, actorID, taskID, StatusApproved, shared.ApprovalApprove, note)
}

// Reject declines a pending task.
func (s *Service) Reject(ctx context.Context, actorID, taskID int64, note string) (Task, error) {
	return s.decide(ctx, actorID, taskID, StatusRejected, shared.ApprovalReject, note)
}

func (s *Service) decide(ctx context.Context, actorID, taskID int64, status Status, action shared.ApprovalAction, note string) (Task, error) {
	current, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return Task{}, err
	}
	if current.Status != StatusPending {
		return Task{}, ErrAlreadyDecided
	}

	task, err := s.repo.DecideTask(ctx, taskID, status, actorID, note)
	if err != nil {
		return Task{}, err
	}
	err = s.approvals.Record(ctx, shared.ApprovalLog{
		Module:  task.Module,
		RefID:   task.RefID,
		ActorID: actorID,
		Action:  action,
		Note:    note,
	})
	if err != nil {
		s.logger.Warn("record decision approval", slog.Any("error", err))
	}
	return task, nil
}

// History returns the approval trail of a task.
func (s *Service) History(ctx context.Context, taskID int64) ([]shared.ApprovalLog, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.approvals.List(ctx, task.Module, task.RefID)
}
