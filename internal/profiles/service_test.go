package profiles

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-admin/meridian-admin/internal/shared"
)

type mockRepository struct {
	profiles map[int64]Profile
	members  map[int64]int64
	nextID   int64
	listErr  error
}

func newMockRepository(profiles ...Profile) *mockRepository {
	r := &mockRepository{profiles: make(map[int64]Profile), members: make(map[int64]int64), nextID: 1}
	for _, p := range profiles {
		r.profiles[p.ID] = p
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
	}
	return r
}

func (r *mockRepository) ListProfiles(ctx context.Context, filters ListFilters) ([]Profile, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var out []Profile
	for id := int64(0); id < r.nextID; id++ {
		p, ok := r.profiles[id]
		if !ok {
			continue
		}
		if filters.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filters.Query)) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *mockRepository) GetProfile(ctx context.Context, id int64) (Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *mockRepository) CreateProfile(ctx context.Context, name, description string) (Profile, error) {
	for _, p := range r.profiles {
		if p.Name == name {
			return Profile{}, shared.ErrDuplicate
		}
	}
	p := Profile{ID: r.nextID, Name: name, Description: description}
	r.profiles[p.ID] = p
	r.nextID++
	return p, nil
}

func (r *mockRepository) UpdateProfile(ctx context.Context, id int64, name, description string) (Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, shared.ErrNotFound
	}
	p.Name = name
	p.Description = description
	r.profiles[id] = p
	return p, nil
}

func (r *mockRepository) DeleteProfile(ctx context.Context, id int64) error {
	if _, ok := r.profiles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.profiles, id)
	return nil
}

func (r *mockRepository) CountMembers(ctx context.Context, id int64) (int64, error) {
	return r.members[id], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestCreateTrimsAndValidatesName(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, testLogger())

	profile, err := svc.Create(context.Background(), 1, "  Operators  ", " Desk staff ")
	require.NoError(t, err)
	assert.Equal(t, "Operators", profile.Name)
	assert.Equal(t, "Desk staff", profile.Description)

	_, err = svc.Create(context.Background(), 1, "   ", "")
	assert.Error(t, err)
}

func TestCreateSurfacesDuplicateName(t *testing.T) {
	repo := newMockRepository(Profile{ID: 1, Name: "Operators"})
	svc := NewService(repo, nil, testLogger())

	_, err := svc.Create(context.Background(), 1, "Operators", "")
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestDeleteRefusesProfileWithMembers(t *testing.T) {
	repo := newMockRepository(Profile{ID: 1, Name: "Operators"})
	repo.members[1] = 3
	svc := NewService(repo, nil, testLogger())

	err := svc.Delete(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrProfileInUse)

	repo.members[1] = 0
	require.NoError(t, svc.Delete(context.Background(), 1, 1))
}

func TestListComputesPagination(t *testing.T) {
	repo := newMockRepository(
		Profile{ID: 1, Name: "Operators"},
		Profile{ID: 2, Name: "Supervisors"},
		Profile{ID: 3, Name: "Auditors"},
	)
	svc := NewService(repo, nil, testLogger())

	items, pagination, err := svc.List(context.Background(), ListFilters{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, 2, pagination.TotalPages)
	assert.Equal(t, 3, pagination.Total)
}

func TestListPropagatesRepositoryError(t *testing.T) {
	repo := newMockRepository()
	repo.listErr = errors.New("boom")
	svc := NewService(repo, nil, testLogger())

	_, _, err := svc.List(context.Background(), ListFilters{})
	assert.EqualError(t, err, "boom")
}
