package users

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-admin/meridian-admin/internal/shared"
)

type mockRepository struct {
	users  map[int64]User
	nextID int64
}

func newMockRepository(users ...User) *mockRepository {
	r := &mockRepository{users: make(map[int64]User), nextID: 1}
	for _, u := range users {
		r.users[u.ID] = u
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
	}
	return r
}

func (r *mockRepository) ListUsers(ctx context.Context, filters ListFilters) ([]User, int, error) {
	var out []User
	for id := int64(0); id < r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (r *mockRepository) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *mockRepository) CreateUser(ctx context.Context, u User) (User, error) {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return User{}, shared.ErrDuplicate
		}
	}
	u.ID = r.nextID
	r.users[u.ID] = u
	r.nextID++
	return u, nil
}

func (r *mockRepository) UpdateUser(ctx context.Context, id int64, name string, profileID int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	u.Name = name
	u.ProfileID = profileID
	r.users[id] = u
	return u, nil
}

func (r *mockRepository) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Active = active
	r.users[id] = u
	return nil
}

func (r *mockRepository) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestCreateHashesPasswordAndNormalizesEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, testLogger())

	user, err := svc.Create(context.Background(), 1, CreateInput{
		Email:    "  Admin@Example.COM ",
		Name:     "Admin",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
}

func TestCreateRejectsShortPassword(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, testLogger())

	_, err := svc.Create(context.Background(), 1, CreateInput{Email: "a@b.c", Name: "A", Password: "short"})
	assert.Error(t, err)
}

func TestCreateSurfacesDuplicateEmail(t *testing.T) {
	repo := newMockRepository(User{ID: 1, Email: "admin@example.com"})
	svc := NewService(repo, nil, testLogger())

	_, err := svc.Create(context.Background(), 1, CreateInput{Email: "admin@example.com", Name: "A", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestSetActiveTogglesFlag(t *testing.T) {
	repo := newMockRepository(User{ID: 1, Email: "admin@example.com", Active: true})
	svc := NewService(repo, nil, testLogger())

	require.NoError(t, svc.SetActive(context.Background(), 1, 1, false))
	assert.False(t, repo.users[1].Active)

	require.NoError(t, svc.SetActive(context.Background(), 1, 1, true))
	assert.True(t, repo.users[1].Active)

	assert.ErrorIs(t, svc.SetActive(context.Background(), 1, 99, false), shared.ErrNotFound)
}

func TestChangePasswordStoresNewHash(t *testing.T) {
	repo := newMockRepository(User{ID: 1, Email: "admin@example.com", PasswordHash: "old"})
	svc := NewService(repo, nil, testLogger())

	require.NoError(t, svc.ChangePassword(context.Background(), 1, 1, "new-password"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[1].PasswordHash), []byte("new-password")))
}

func TestUpdateChangesProfileLink(t *testing.T) {
	repo := newMockRepository(User{ID: 1, Email: "admin@example.com", Name: "Admin"})
	svc := NewService(repo, nil, testLogger())

	user, err := svc.Update(context.Background(), 1, 1, "Administrator", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ProfileID)
	assert.Equal(t, "Administrator", user.Name)
}
