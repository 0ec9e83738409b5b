package menus

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/meridian-admin/meridian-admin/internal/menutree"
	"github.com/meridian-admin/meridian-admin/internal/platform/httpx"
	"github.com/meridian-admin/meridian-admin/internal/shared"
)

// ErrHasChildren rejects deleting a menu that other menus still reference as
// parent.
var ErrHasChildren = fmt.Errorf("menu still has children: %w", httpx.ErrConflict)

// Store is the persistence contract the service depends on.
type Store interface {
	ListMenus(ctx context.Context) ([]Menu, error)
	GetMenu(ctx context.Context, id int64) (Menu, error)
	CreateMenu(ctx context.Context, parentID int64, title, slug string) (Menu, error)
	UpdateMenu(ctx context.Context, id int64, title, slug string) (Menu, error)
	DeleteMenu(ctx context.Context, id int64) error
	CountChildren(ctx context.Context, id int64) (int64, error)
}

// Service owns the menu catalog.
type Service struct {
	store  Store
	cache  *Cache
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService wires the menu service.
func NewService(store Store, cache *Cache, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{store: store, cache: cache, audit: audit, logger: logger}
}

// CreateInput carries the fields for a new catalog entry. An empty Slug is
// derived from the title.
type CreateInput struct {
	ParentID int64
	Title    string
	Slug     string
}

// UpdateInput carries the mutable fields of an entry.
type UpdateInput struct {
	Title string
	Slug  string
}

// List returns the catalog, served from the cache when warm.
func (s *Service) List(ctx context.Context) ([]Menu, error) {
	return s.cache.Catalog(ctx, s.store.ListMenus)
}

// Get fetches one entry, bypassing the cache.
func (s *Service) Get(ctx context.Context, id int64) (Menu, error) {
	return s.store.GetMenu(ctx, id)
}

// Forest builds the tree over the current catalog.
func (s *Service) Forest(ctx context.Context) (*menutree.Forest, error) {
	catalog, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	nodes := make([]menutree.MenuNode, 0, len(catalog))
	for _, m := range catalog {
		nodes = append(nodes, menutree.MenuNode{ID: m.ID, ParentID: m.ParentID, Title: m.Title})
	}
	return menutree.NewForest(nodes), nil
}

// Create inserts a catalog entry and invalidates the snapshot.
func (s *Service) Create(ctx context.Context, actorID int64, in CreateInput) (Menu, error) {
	title := normalizeTitle(in.Title)
	if title == "" {
		return Menu{}, fmt.Errorf("title is required: %w", httpx.ErrValidation)
	}
	slug := in.Slug
	if slug == "" {
		slug = slugify(title)
	}
	if in.ParentID != 0 {
		if _, err := s.store.GetMenu(ctx, in.ParentID); err != nil {
			if err == shared.ErrNotFound {
				return Menu{}, fmt.Errorf("parent menu %d does not exist: %w", in.ParentID, httpx.ErrValidation)
			}
			return Menu{}, err
		}
	}

	menu, err := s.store.CreateMenu(ctx, in.ParentID, title, slug)
	if err != nil {
		return Menu{}, err
	}
	s.invalidate(ctx)
	s.record(ctx, actorID, "menu.create", menu.ID, map[string]any{"title": menu.Title, "slug": menu.Slug})
	return menu, nil
}

// Update changes title and slug of an entry and invalidates the snapshot.
func (s *Service) Update(ctx context.Context, actorID, id int64, in UpdateInput) (Menu, error) {
	title := normalizeTitle(in.Title)
	if title == "" {
		return Menu{}, fmt.Errorf("title is required: %w", httpx.ErrValidation)
	}
	slug := in.Slug
	if slug == "" {
		slug = slugify(title)
	}
	menu, err := s.store.UpdateMenu(ctx, id, title, slug)
	if err != nil {
		return Menu{}, err
	}
	s.invalidate(ctx)
	s.record(ctx, actorID, "menu.update", menu.ID, map[string]any{"title": menu.Title, "slug": menu.Slug})
	return menu, nil
}

// Delete removes a leaf entry. Structural nodes must lose their children
// first.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	children, err := s.store.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return ErrHasChildren
	}
	if err := s.store.DeleteMenu(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.record(ctx, actorID, "menu.delete", id, nil)
	return nil
}

// Refresh drops the cached snapshot and rebuilds it from storage.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx); err != nil {
		return err
	}
	_, err := s.List(ctx)
	return err
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("menu cache invalidation failed", slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, menuID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "menu",
		EntityID: strconv.FormatInt(menuID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit write failed", slog.String("action", action), slog.Any("error", err))
	}
}

var titleCaser = cases.Title(language.English)

func normalizeTitle(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return titleCaser.String(strings.Join(fields, " "))
}

func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
