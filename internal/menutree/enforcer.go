package menutree

import "errors"

// Policy errors returned by the write-path operations.
var (
	// ErrStructuralAssignment rejects level changes on structural parent
	// assignments; their level is fully determined by the grant logic.
	ErrStructuralAssignment = errors.New("menutree: structural assignment level is not editable")
	// ErrInvalidLevel rejects level changes to anything but read, restricted
	// or full.
	ErrInvalidLevel = errors.New("menutree: invalid target access level")
	// ErrNotAssigned indicates a level change for a pair without assignment.
	ErrNotAssigned = errors.New("menutree: menu not assigned to profile")
)

// Outcome classifies a grant or revoke computation.
type Outcome int

const (
	// OutcomeApplied means the delta carries work to persist.
	OutcomeApplied Outcome = iota
	// OutcomeAlreadyAssigned means the grant was satisfied beforehand.
	OutcomeAlreadyAssigned
	// OutcomeNotAssigned means the revoke had nothing to remove.
	OutcomeNotAssigned
	// OutcomeUnknownMenu means the menu id is absent from the snapshot.
	OutcomeUnknownMenu
)

// Create instructs the caller to persist one new assignment. The storage
// layer assigns the record id.
type Create struct {
	MenuID    int64
	ProfileID int64
	Level     AccessLevel
}

// Delete instructs the caller to remove an assignment by its storage id.
type Delete struct {
	AssignmentID int64
	MenuID       int64
}

// Delta is the ordered batch a grant or revoke computed. Creates are ordered
// root to leaf; deletes child before ancestor so the store never sees a node
// outlive its subtree. The engine performs no persistence and no rollback: if
// applying part of a delta fails the caller must reload the authoritative
// assignment snapshot.
type Delta struct {
	Outcome Outcome
	Creates []Create
	Deletes []Delete
}

// Empty reports whether the delta carries no work.
func (d Delta) Empty() bool {
	return len(d.Creates) == 0 && len(d.Deletes) == 0
}

// Grant computes the assignments to create so the profile holds menuID with a
// complete ancestor chain. Structural parents receive the AccessNone
// sentinel, leaves default to AccessRead. Granting an already assigned menu
// is a no-op.
func Grant(f *Forest, set AssignmentSet, profileID, menuID int64) Delta {
	if _, ok := f.Node(menuID); !ok {
		return Delta{Outcome: OutcomeUnknownMenu}
	}
	if set.Has(profileID, menuID) {
		return Delta{Outcome: OutcomeAlreadyAssigned}
	}
	missing := MissingAncestors(f, set, profileID, menuID)
	if len(missing) == 0 {
		return Delta{Outcome: OutcomeAlreadyAssigned}
	}
	creates := make([]Create, 0, len(missing))
	for _, node := range missing {
		level := AccessRead
		if f.HasChildren(node.ID) {
			level = AccessNone
		}
		creates = append(creates, Create{MenuID: node.ID, ProfileID: profileID, Level: level})
	}
	return Delta{Outcome: OutcomeApplied, Creates: creates}
}

// Revoke computes the assignments to delete when the profile loses menuID:
// the assignment itself followed by every ancestor orphaned by the removal,
// nearest first. Revoking an unassigned menu is a no-op.
func Revoke(f *Forest, set AssignmentSet, profileID, menuID int64) Delta {
	if _, ok := f.Node(menuID); !ok {
		return Delta{Outcome: OutcomeUnknownMenu}
	}
	target, ok := set.Get(profileID, menuID)
	if !ok {
		return Delta{Outcome: OutcomeNotAssigned}
	}
	deletes := []Delete{{AssignmentID: target.ID, MenuID: target.MenuID}}
	for _, node := range OrphanedAncestors(f, set, profileID, menuID) {
		ancestor, ok := set.Get(profileID, node.ID)
		if !ok {
			continue
		}
		deletes = append(deletes, Delete{AssignmentID: ancestor.ID, MenuID: ancestor.MenuID})
	}
	return Delta{Outcome: OutcomeApplied, Deletes: deletes}
}

// SetAccessLevel validates an in-place level change for an existing leaf
// assignment and returns the updated record. Structural assignments and the
// AccessNone target are rejected before any mutation.
func SetAccessLevel(set AssignmentSet, profileID, menuID int64, level AccessLevel) (Assignment, error) {
	current, ok := set.Get(profileID, menuID)
	if !ok {
		return Assignment{}, ErrNotAssigned
	}
	if current.Level == AccessNone {
		return Assignment{}, ErrStructuralAssignment
	}
	if !level.Grants() {
		return Assignment{}, ErrInvalidLevel
	}
	current.Level = level
	return current, nil
}

// CycleAccessLevel advances an existing leaf assignment to the next level in
// the read/restricted/full cycle.
func CycleAccessLevel(set AssignmentSet, profileID, menuID int64) (Assignment, error) {
	current, ok := set.Get(profileID, menuID)
	if !ok {
		return Assignment{}, ErrNotAssigned
	}
	if current.Level == AccessNone {
		return Assignment{}, ErrStructuralAssignment
	}
	current.Level = current.Level.Next()
	return current, nil
}
