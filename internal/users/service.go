package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-admin/meridian-admin/internal/platform/httpx"
	"github.com/meridian-admin/meridian-admin/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filters ListFilters) ([]User, int, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, u User) (User, error)
	UpdateUser(ctx context.Context, id int64, name string, profileID int64) (User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetPasswordHash(ctx context.Context, id int64, hash string) error
}

// Service handles user account business logic.
type Service struct {
	repo   RepositoryPort
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// CreateInput carries the fields of a new account.
type CreateInput struct {
	Email     string
	Name      string
	ProfileID int64
	Password  string
}

// List returns one page of users with pagination metadata.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]User, shared.Pagination, error) {
	items, total, err := s.repo.ListUsers(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// Get fetches one user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// Create hashes the password and inserts the account, active by default.
func (s *Service) Create(ctx context.Context, actorID int64, in CreateInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" {
		return User{}, fmt.Errorf("email and name are required: %w", httpx.ErrValidation)
	}
	if len(in.Password) < 8 {
		return User{}, fmt.Errorf("password must be at least 8 characters: %w", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, User{
		Email:        email,
		Name:         name,
		ProfileID:    in.ProfileID,
		Active:       true,
		PasswordHash: string(hash),
	})
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actorID, "user.create", user.ID, map[string]any{"email": user.Email})
	return user, nil
}

// Update changes name and profile link.
func (s *Service) Update(ctx context.Context, actorID, id int64, name string, profileID int64) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, fmt.Errorf("name is required: %w", httpx.ErrValidation)
	}
	user, err := s.repo.UpdateUser(ctx, id, name, profileID)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actorID, "user.update", user.ID, map[string]any{"profile_id": profileID})
	return user, nil
}

// SetActive activates or deactivates the account. Deactivated accounts keep
// their profile link but fail authorization.
func (s *Service) SetActive(ctx context.Context, actorID, id int64, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	action := "user.deactivate"
	if active {
		action = "user.activate"
	}
	s.record(ctx, actorID, action, id, nil)
	return nil
}

// ChangePassword replaces the stored hash.
func (s *Service) ChangePassword(ctx context.Context, actorID, id int64, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.SetPasswordHash(ctx, id, string(hash)); err != nil {
		return err
	}
	s.record(ctx, actorID, "user.password", id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit write failed", slog.String("action", action), slog.Any("error", err))
	}
}
