package profiles

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/meridian-admin/meridian-admin/internal/platform/httpx"
	"github.com/meridian-admin/meridian-admin/internal/shared"
)

// ErrProfileInUse rejects deleting a profile that still has members.
var ErrProfileInUse = fmt.Errorf("profile still has members: %w", httpx.ErrConflict)

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	ListProfiles(ctx context.Context, filters ListFilters) ([]Profile, int, error)
	GetProfile(ctx context.Context, id int64) (Profile, error)
	CreateProfile(ctx context.Context, name, description string) (Profile, error)
	UpdateProfile(ctx context.Context, id int64, name, description string) (Profile, error)
	DeleteProfile(ctx context.Context, id int64) error
	CountMembers(ctx context.Context, id int64) (int64, error)
}

// Service handles profile business logic.
type Service struct {
	repo   RepositoryPort
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List returns one page of profiles with pagination metadata.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Profile, shared.Pagination, error) {
	items, total, err := s.repo.ListProfiles(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// Get fetches one profile.
func (s *Service) Get(ctx context.Context, id int64) (Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

// Create inserts a profile.
func (s *Service) Create(ctx context.Context, actorID int64, name, description string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, fmt.Errorf("name is required: %w", httpx.ErrValidation)
	}
	profile, err := s.repo.CreateProfile(ctx, name, strings.TrimSpace(description))
	if err != nil {
		return Profile{}, err
	}
	s.record(ctx, actorID, "profile.create", profile.ID, map[string]any{"name": profile.Name})
	return profile, nil
}

// Update changes name and description.
func (s *Service) Update(ctx context.Context, actorID, id int64, name, description string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, fmt.Errorf("name is required: %w", httpx.ErrValidation)
	}
	profile, err := s.repo.UpdateProfile(ctx, id, name, strings.TrimSpace(description))
	if err != nil {
		return Profile{}, err
	}
	s.record(ctx, actorID, "profile.update", profile.ID, map[string]any{"name": profile.Name})
	return profile, nil
}

// Delete removes a profile with no members. Assignments cascade in the
// database.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	members, err := s.repo.CountMembers(ctx, id)
	if err != nil {
		return err
	}
	if members > 0 {
		return ErrProfileInUse
	}
	if err := s.repo.DeleteProfile(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "profile.delete", id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, profileID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "profile",
		EntityID: strconv.FormatInt(profileID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit write failed", slog.String("action", action), slog.Any("error", err))
	}
}
