package menutree

import "strings"

// Landing-page titles exempt from the orphan cascade. A structural node with
// one of these titles survives even when the revoke leaves it childless, and
// the upward walk stops at it. Hard-coded business rule.
var landingTitles = []string{"home", "dashboard"}

func isLandingTitle(title string) bool {
	for _, t := range landingTitles {
		if strings.EqualFold(strings.TrimSpace(title), t) {
			return true
		}
	}
	return false
}

// MissingAncestors returns, in root-to-leaf order, the menus of the ancestor
// chain of menuID (the menu itself included) that have no assignment yet for
// the profile. An unknown menuID yields an empty result.
func MissingAncestors(f *Forest, set AssignmentSet, profileID, menuID int64) []MenuNode {
	chain := f.AncestorChain(menuID)
	if len(chain) == 0 {
		return nil
	}
	missing := make([]MenuNode, 0, len(chain))
	for _, node := range chain {
		if !set.Has(profileID, node.ID) {
			missing = append(missing, node)
		}
	}
	return missing
}

// OrphanedAncestors returns, nearest ancestor first, the assigned ancestors of
// menuID that would be left without any assigned child for the profile once
// menuID's assignment is removed. The walk simulates the cascade: an ancestor
// that becomes childless joins the removal set before its own parent is
// examined, and it stops at the first ancestor that keeps a child or carries a
// landing-page title.
func OrphanedAncestors(f *Forest, set AssignmentSet, profileID, menuID int64) []MenuNode {
	node, ok := f.Node(menuID)
	if !ok {
		return nil
	}
	removed := map[int64]struct{}{menuID: {}}
	var orphaned []MenuNode
	visited := map[int64]struct{}{menuID: {}}
	for !node.IsRoot() {
		parent, ok := f.Node(node.ParentID)
		if !ok {
			break
		}
		if _, seen := visited[parent.ID]; seen {
			break
		}
		visited[parent.ID] = struct{}{}
		if isLandingTitle(parent.Title) {
			break
		}
		if !set.Has(profileID, parent.ID) {
			break
		}
		if hasAssignedChild(f, set, profileID, parent.ID, removed) {
			break
		}
		orphaned = append(orphaned, parent)
		removed[parent.ID] = struct{}{}
		node = parent
	}
	return orphaned
}

func hasAssignedChild(f *Forest, set AssignmentSet, profileID, parentID int64, removed map[int64]struct{}) bool {
	for _, childID := range f.Children(parentID) {
		if _, gone := removed[childID]; gone {
			continue
		}
		if set.Has(profileID, childID) {
			return true
		}
	}
	return false
}
