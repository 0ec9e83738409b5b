package menus

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-admin/meridian-admin/internal/shared"
	_ "github.com/meridian-admin/meridian-admin/internal/testing/guard"
)

type mockStore struct {
	menus     map[int64]Menu
	nextID    int64
	listCalls int
	listErr   error
	deleteErr error
}

func newMockStore(menus ...Menu) *mockStore {
	s := &mockStore{menus: make(map[int64]Menu), nextID: 1}
	for _, m := range menus {
		s.menus[m.ID] = m
		if m.ID >= s.nextID {
			s.nextID = m.ID + 1
		}
	}
	return s
}

func (s *mockStore) ListMenus(ctx context.Context) ([]Menu, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Menu, 0, len(s.menus))
	for id := int64(0); id < s.nextID; id++ {
		if m, ok := s.menus[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *mockStore) GetMenu(ctx context.Context, id int64) (Menu, error) {
	m, ok := s.menus[id]
	if !ok {
		return Menu{}, shared.ErrNotFound
	}
	return m, nil
}

func (s *mockStore) CreateMenu(ctx context.Context, parentID int64, title, slug string) (Menu, error) {
	for _, m := range s.menus {
		if m.Slug == slug {
			return Menu{}, shared.ErrDuplicate
		}
	}
	m := Menu{ID: s.nextID, ParentID: parentID, Title: title, Slug: slug, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.menus[m.ID] = m
	s.nextID++
	return m, nil
}

func (s *mockStore) UpdateMenu(ctx context.Context, id int64, title, slug string) (Menu, error) {
	m, ok := s.menus[id]
	if !ok {
		return Menu{}, shared.ErrNotFound
	}
	m.Title = title
	m.Slug = slug
	m.UpdatedAt = time.Now()
	s.menus[id] = m
	return m, nil
}

func (s *mockStore) DeleteMenu(ctx context.Context, id int64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.menus[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.menus, id)
	return nil
}

func (s *mockStore) CountChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	for _, m := range s.menus {
		if m.ParentID == id {
			count++
		}
	}
	return count, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCreateNormalizesTitleAndDerivesSlug(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, nil, nil, testLogger())

	menu, err := svc.Create(context.Background(), 1, CreateInput{Title: "  user   management "})
	require.NoError(t, err)
	assert.Equal(t, "User Management", menu.Title)
	assert.Equal(t, "user-management", menu.Slug)
}

func TestCreateRejectsMissingParent(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, nil, nil, testLogger())

	_, err := svc.Create(context.Background(), 1, CreateInput{ParentID: 99, Title: "Reports"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parent menu 99")
}

func TestCreateSurfacesDuplicateSlug(t *testing.T) {
	store := newMockStore(Menu{ID: 1, Title: "Reports", Slug: "reports"})
	svc := NewService(store, nil, nil, testLogger())

	_, err := svc.Create(context.Background(), 1, CreateInput{Title: "Reports"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestDeleteRefusesStructuralNode(t *testing.T) {
	store := newMockStore(
		Menu{ID: 1, Title: "Administration", Slug: "administration"},
		Menu{ID: 2, ParentID: 1, Title: "Users", Slug: "users"},
	)
	svc := NewService(store, nil, nil, testLogger())

	err := svc.Delete(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrHasChildren)

	require.NoError(t, svc.Delete(context.Background(), 1, 2))
	require.NoError(t, svc.Delete(context.Background(), 1, 1))
}

func TestListServesFromCacheUntilInvalidated(t *testing.T) {
	store := newMockStore(Menu{ID: 1, Title: "Home", Slug: "home"})
	svc := NewService(store, testCache(t), nil, testLogger())
	ctx := context.Background()

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls, "second list should hit the cache")

	_, err = svc.Create(ctx, 1, CreateInput{Title: "Reports"})
	require.NoError(t, err)

	second, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.Equal(t, 2, store.listCalls, "write should invalidate the snapshot")
}

func TestForestMapsCatalog(t *testing.T) {
	store := newMockStore(
		Menu{ID: 1, Title: "Administration", Slug: "administration"},
		Menu{ID: 2, ParentID: 1, Title: "Users", Slug: "users"},
	)
	svc := NewService(store, nil, nil, testLogger())

	forest, err := svc.Forest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, forest.Len())
	assert.True(t, forest.HasChildren(1))
}

func TestListPropagatesStoreError(t *testing.T) {
	store := newMockStore()
	store.listErr = errors.New("boom")
	svc := NewService(store, nil, nil, testLogger())

	_, err := svc.List(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"User Management":   "user-management",
		"P&L Review":        "p-l-review",
		"  Spaced   Out  ":  "spaced-out",
		"Ünïcode Títle 123": "n-code-t-tle-123",
	}
	for in, want := range cases {
		assert.Equal(t, want, slugify(in), "slugify(%q)", in)
	}
}
