package permissions

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-admin/meridian-admin/internal/menutree"
)

// stubCatalog serves a fixed menu snapshot.
type stubCatalog struct {
	nodes []menutree.MenuNode
	err   error
}

func (c *stubCatalog) Forest(ctx context.Context) (*menutree.Forest, error) {
	if c.err != nil {
		return nil, c.err
	}
	return menutree.NewForest(c.nodes), nil
}

// mockStore keeps assignments in memory with optional error injection.
type mockStore struct {
	assignments map[int64]menutree.Assignment
	nextID      int64

	insertCalls  int
	failInsertAt int // 1-based call index, 0 disables
	deleteCalls  int
	failDeleteAt int
	reloads      int

	insertOrder []int64
	deleteOrder []int64
}

func newMockStore(assignments ...menutree.Assignment) *mockStore {
	s := &mockStore{assignments: make(map[int64]menutree.Assignment), nextID: 100}
	for _, a := range assignments {
		s.assignments[a.ID] = a
		if a.ID >= s.nextID {
			s.nextID = a.ID + 1
		}
	}
	return s
}

func (s *mockStore) LoadAssignments(ctx context.Context, profileID int64) ([]menutree.Assignment, error) {
	s.reloads++
	var out []menutree.Assignment
	for id := int64(0); id < s.nextID; id++ {
		if a, ok := s.assignments[id]; ok && a.ProfileID == profileID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *mockStore) ListAssignedProfiles(ctx context.Context) ([]int64, error) {
	seen := make(map[int64]bool)
	var out []int64
	for id := int64(0); id < s.nextID; id++ {
		if a, ok := s.assignments[id]; ok && !seen[a.ProfileID] {
			seen[a.ProfileID] = true
			out = append(out, a.ProfileID)
		}
	}
	return out, nil
}

func (s *mockStore) InsertAssignment(ctx context.Context, c menutree.Create) (menutree.Assignment, error) {
	s.insertCalls++
	if s.failInsertAt > 0 && s.insertCalls == s.failInsertAt {
		return menutree.Assignment{}, errors.New("insert failed")
	}
	a := menutree.Assignment{ID: s.nextID, MenuID: c.MenuID, ProfileID: c.ProfileID, Level: c.Level}
	s.assignments[a.ID] = a
	s.nextID++
	s.insertOrder = append(s.insertOrder, c.MenuID)
	return a, nil
}

func (s *mockStore) DeleteAssignment(ctx context.Context, assignmentID int64) error {
	s.deleteCalls++
	if s.failDeleteAt > 0 && s.deleteCalls == s.failDeleteAt {
		return errors.New("delete failed")
	}
	delete(s.assignments, assignmentID)
	s.deleteOrder = append(s.deleteOrder, assignmentID)
	return nil
}

func (s *mockStore) UpdateAssignmentLevel(ctx context.Context, assignmentID int64, level menutree.AccessLevel) error {
	a, ok := s.assignments[assignmentID]
	if !ok {
		return errors.New("assignment missing")
	}
	a.Level = level
	s.assignments[assignmentID] = a
	return nil
}

// Administration(1) > Users(2), Roles(3); Home(4) standalone.
func adminCatalog() *stubCatalog {
	return &stubCatalog{nodes: []menutree.MenuNode{
		{ID: 1, Title: "Administration"},
		{ID: 2, ParentID: 1, Title: "Users"},
		{ID: 3, ParentID: 1, Title: "Roles"},
		{ID: 4, Title: "Home"},
	}}
}

func newTestService(store *mockStore, catalog Catalog) *Service {
	return NewService(store, catalog, nil, nil, slog.New(slog.DiscardHandler))
}

func TestGrantCreatesAncestorChainRootFirst(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, adminCatalog())

	result, err := svc.Grant(context.Background(), 1, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, menutree.OutcomeApplied, result.Outcome)
	require.Len(t, result.Created, 2)
	assert.Equal(t, []int64{1, 2}, store.insertOrder)
	assert.Equal(t, menutree.AccessNone, result.Created[0].Level)
	assert.Equal(t, menutree.AccessRead, result.Created[1].Level)
}

func TestGrantAlreadyAssignedIsNoop(t *testing.T) {
	store := newMockStore(
		menutree.Assignment{ID: 100, MenuID: 1, ProfileID: 10, Level: menutree.AccessNone},
		menutree.Assignment{ID: 101, MenuID: 2, ProfileID: 10, Level: menutree.AccessRead},
	)
	svc := newTestService(store, adminCatalog())

	result, err := svc.Grant(context.Background(), 1, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, menutree.OutcomeAlreadyAssigned, result.Outcome)
	assert.Empty(t, result.Created)
	assert.Zero(t, store.insertCalls)
}

func TestGrantUnknownMenuIsNotFound(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, adminCatalog())

	_, err := svc.Grant(context.Background(), 1, 10, 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "menu 99 not in catalog")
}

func TestGrantPartialFailureKeepsAppliedPrefix(t *testing.T) {
	store := newMockStore()
	store.failInsertAt = 2
	svc := newTestService(store, adminCatalog())

	result, err := svc.Grant(context.Background(), 1, 10, 2)
	require.Error(t, err)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, "grant", batchErr.Operation)
	assert.Equal(t, 1, batchErr.Applied)
	assert.Equal(t, 2, batchErr.Total)

	// The root assignment stays; the engine never rolls back.
	require.Len(t, result.Created, 1)
	assert.Equal(t, int64(1), result.Created[0].MenuID)
	assert.GreaterOrEqual(t, store.reloads, 2, "snapshot must be reloaded after the failure")
}

func TestRevokeCascadesChildBeforeParent(t *testing.T) {
	store := newMockStore(
		menutree.Assignment{ID: 100, MenuID: 1, ProfileID: 10, Level: menutree.AccessNone},
		menutree.Assignment{ID: 101, MenuID: 2, ProfileID: 10, Level: menutree.AccessRead},
	)
	svc := newTestService(store, adminCatalog())

	result, err := svc.Revoke(context.Background(), 1, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, menutree.OutcomeApplied, result.Outcome)
	assert.Equal(t, []int64{101, 100}, store.deleteOrder)
}

func TestRevokeKeepsParentWithSurvivingSibling(t *testing.T) {
	store := newMockStore(
		menutree.Assignment{ID: 100, MenuID: 1, ProfileID: 10, Level: menutree.AccessNone},
		menutree.Assignment{ID: 101, MenuID: 2, ProfileID: 10, Level: menutree.AccessRead},
		menutree.Assignment{ID: 102, MenuID: 3, ProfileID: 10, Level: menutree.AccessFull},
	)
	svc := newTestService(store, adminCatalog())

	result, err := svc.Revoke(context.Background(), 1, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{101}, result.Deleted)
	_, hasParent := store.assignments[100]
	assert.True(t, hasParent)
}

func TestRevokeUnassignedIsNoop(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, adminCatalog())

	result, err := svc.Revoke(context.Background(), 1, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, menutree.OutcomeNotAssigned, result.Outcome)
	assert.Zero(t, store.deleteCalls)
}

func TestRevokePartialFailureReloadsSnapshot(t *testing.T) {
	store := newMockStore(
		menutree.Assignment{ID: 100, MenuID: 1, ProfileID: 10, Level: menutree.AccessNone},
		menutree.Assignment{ID: 101, MenuID: 2, ProfileID: 10, Level: menutree.AccessRead},
	)
	store.failDeleteAt = 2
	svc := newTestService(store, adminCatalog())

	_, err := svc.Revoke(context.Background(), 1, 10, 2)
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 1, batchErr.Applied)

	_, leafGone := store.assignments[101]
	assert.False(t, leafGone, "applied delete stays applied")
	_, parentKept := store.assignments[100]
	assert.True(t, parentKept)
}

func TestSetLevelRejectsStructuralAssignment(t *testing.T) {
	store := newMockStore(
		menutree.Assignment{ID: 100, MenuID: 1, ProfileID: 10, Level: menutree.AccessNone},
		menutree.Assignment{ID: 101, MenuID: 2, ProfileID: 10, Level: menutree.AccessRead},
	)
	svc := newTestService(store, adminCatalog())

	_, err := svc.SetLevel(context.Background(), 1, 10, 1, menutree.AccessFull)
	assert.ErrorIs(t, err, menutree.ErrStructuralAssignment)

	updated, err := svc.SetLevel(context.Background(), 1, 10, 2, menutree.AccessFull)
	require.NoError(t, err)
	assert.Equal(t, menutree.AccessFull, updated.Level)
	assert.Equal(t, menutree.AccessFull, store.assignments[101].Level)
}

func TestCycleLevelAdvances(t *testing.T) {
	store := newMockStore(
		menutree.Assignment{ID: 101, MenuID: 4, ProfileID: 10, Level: menutree.AccessFull},
	)
	svc := newTestService(store, adminCatalog())

	updated, err := svc.CycleLevel(context.Background(), 1, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, menutree.AccessRead, updated.Level)
}

func TestTreeRendersNumbersAndLevels(t *testing.T) {
	store := newMockStore(
		menutree.Assignment{ID: 100, MenuID: 1, ProfileID: 10, Level: menutree.AccessNone},
		menutree.Assignment{ID: 101, MenuID: 2, ProfileID: 10, Level: menutree.AccessRestricted},
	)
	svc := newTestService(store, adminCatalog())

	view, err := svc.Tree(context.Background(), 10, map[int64]bool{1: true})
	require.NoError(t, err)
	require.Len(t, view.Rows, 4)

	assert.Equal(t, "1", view.Rows[0].Number)
	assert.Equal(t, "none", view.Rows[0].Access)
	assert.True(t, view.Rows[0].Expanded)

	assert.Equal(t, "1.1", view.Rows[1].Number)
	assert.Equal(t, 1, view.Rows[1].Depth)
	assert.Equal(t, "restricted", view.Rows[1].Access)

	assert.Equal(t, "1.2", view.Rows[2].Number)
	assert.False(t, view.Rows[2].Assigned)

	assert.Equal(t, "2", view.Rows[3].Number)
}

func TestTreeCollapsedHidesDescendants(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, adminCatalog())

	view, err := svc.Tree(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, int64(1), view.Rows[0].MenuID)
	assert.Equal(t, int64(4), view.Rows[1].MenuID)
}

func TestIntegrityScanFlagsMissingAncestors(t *testing.T) {
	store := newMockStore(
		// Leaf assigned without its structural parent.
		menutree.Assignment{ID: 101, MenuID: 2, ProfileID: 10, Level: menutree.AccessRead},
		// Healthy profile.
		menutree.Assignment{ID: 102, MenuID: 4, ProfileID: 11, Level: menutree.AccessRead},
	)
	svc := newTestService(store, adminCatalog())

	report, err := svc.IntegrityScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.ProfilesScanned)
	assert.Equal(t, 2, report.AssignmentsChecked)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, int64(10), report.Violations[0].ProfileID)
	assert.Equal(t, []int64{1}, report.Violations[0].MissingMenuIDs)
}

func TestGrantPropagatesCatalogError(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &stubCatalog{err: errors.New("redis down")})

	_, err := svc.Grant(context.Background(), 1, 10, 2)
	assert.ErrorContains(t, err, "load menu snapshot")
}
