// Package menutree implements the hierarchical menu permission engine: an
// ordered tree view over a flat menu catalog plus the grant/revoke logic that
// keeps a profile's menu assignments closed under ancestry.
//
// The package is pure computation. Snapshots of menus and assignments are
// passed in, deltas are returned; persistence and reconciliation belong to the
// caller.
package menutree

// MenuNode is one entry of the navigable permission tree. ParentID zero marks
// a root node.
type MenuNode struct {
	ID       int64
	ParentID int64
	Title    string
}

// IsRoot reports whether the node has no parent.
func (n MenuNode) IsRoot() bool {
	return n.ParentID == 0
}

// AccessLevel encodes how a profile may use an assigned menu. The integer
// values are a wire contract with the storage backend and must not be
// renumbered.
type AccessLevel int

const (
	// AccessNone marks structural parent assignments that exist only to keep
	// the ancestor chain complete. It carries no permission of its own.
	AccessNone AccessLevel = -1
	// AccessRead is the default level granted to a leaf menu.
	AccessRead AccessLevel = 1
	// AccessRestricted allows limited write operations.
	AccessRestricted AccessLevel = 2
	// AccessFull allows every operation the menu exposes.
	AccessFull AccessLevel = 3
)

// Valid reports whether the level is one of the four known encodings.
func (l AccessLevel) Valid() bool {
	switch l {
	case AccessNone, AccessRead, AccessRestricted, AccessFull:
		return true
	}
	return false
}

// Grants reports whether the level carries an actual permission, i.e. is not
// the structural sentinel.
func (l AccessLevel) Grants() bool {
	return l == AccessRead || l == AccessRestricted || l == AccessFull
}

// Next returns the follow-up level in the Read -> Restricted -> Full -> Read
// cycle. Calling Next on AccessNone returns AccessNone; structural
// assignments are never cycled.
func (l AccessLevel) Next() AccessLevel {
	switch l {
	case AccessRead:
		return AccessRestricted
	case AccessRestricted:
		return AccessFull
	case AccessFull:
		return AccessRead
	}
	return l
}

// String returns a stable name for logging.
func (l AccessLevel) String() string {
	switch l {
	case AccessNone:
		return "none"
	case AccessRead:
		return "read"
	case AccessRestricted:
		return "restricted"
	case AccessFull:
		return "full"
	}
	return "invalid"
}

// Assignment records that a profile can access a menu at a given level. ID is
// assigned by the storage layer; the engine never fabricates it.
type Assignment struct {
	ID        int64
	MenuID    int64
	ProfileID int64
	Level     AccessLevel
}

type assignmentKey struct {
	profileID int64
	menuID    int64
}

// AssignmentSet indexes an assignment snapshot for (profile, menu) lookups.
// The zero value is an empty set.
type AssignmentSet struct {
	byPair map[assignmentKey]Assignment
}

// NewAssignmentSet builds a set from a flat snapshot. When the snapshot holds
// duplicates for one (profile, menu) pair the last record wins; the storage
// layer enforces uniqueness, so this only matters for malformed input.
func NewAssignmentSet(assignments []Assignment) AssignmentSet {
	byPair := make(map[assignmentKey]Assignment, len(assignments))
	for _, a := range assignments {
		byPair[assignmentKey{profileID: a.ProfileID, menuID: a.MenuID}] = a
	}
	return AssignmentSet{byPair: byPair}
}

// Get returns the assignment for the pair, if present.
func (s AssignmentSet) Get(profileID, menuID int64) (Assignment, bool) {
	a, ok := s.byPair[assignmentKey{profileID: profileID, menuID: menuID}]
	return a, ok
}

// Has reports whether the pair is assigned at any level.
func (s AssignmentSet) Has(profileID, menuID int64) bool {
	_, ok := s.Get(profileID, menuID)
	return ok
}

// Len returns the number of indexed assignments.
func (s AssignmentSet) Len() int {
	return len(s.byPair)
}
