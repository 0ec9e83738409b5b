package menutree

import "testing"

func TestMissingAncestorsEmptyProfile(t *testing.T) {
	f := NewForest(adminMenus())
	set := NewAssignmentSet(nil)

	missing := MissingAncestors(f, set, 10, 3)
	if len(missing) != 2 {
		t.Fatalf("expected two missing menus, got %d", len(missing))
	}
	if missing[0].ID != 1 || missing[1].ID != 3 {
		t.Fatalf("expected root-to-leaf order [1 3], got [%d %d]", missing[0].ID, missing[1].ID)
	}
}

func TestMissingAncestorsPartiallyAssigned(t *testing.T) {
	f := NewForest(adminMenus())
	set := NewAssignmentSet([]Assignment{
		{ID: 100, MenuID: 1, ProfileID: 10, Level: AccessNone},
	})

	missing := MissingAncestors(f, set, 10, 3)
	if len(missing) != 1 || missing[0].ID != 3 {
		t.Fatalf("expected only the leaf missing, got %+v", missing)
	}
}

func TestMissingAncestorsFullyAssigned(t *testing.T) {
	f := NewForest(adminMenus())
	set := NewAssignmentSet([]Assignment{
		{ID: 100, MenuID: 1, ProfileID: 10, Level: AccessNone},
		{ID: 101, MenuID: 3, ProfileID: 10, Level: AccessRead},
	})

	if missing := MissingAncestors(f, set, 10, 3); len(missing) != 0 {
		t.Fatalf("expected nothing missing, got %+v", missing)
	}
}

func TestMissingAncestorsUnknownMenu(t *testing.T) {
	f := NewForest(adminMenus())
	if missing := MissingAncestors(f, NewAssignmentSet(nil), 10, 99); missing != nil {
		t.Fatalf("expected nil for unknown menu, got %+v", missing)
	}
}

func TestOrphanedAncestorsLastChild(t *testing.T) {
	f := NewForest(adminMenus())
	set := NewAssignmentSet([]Assignment{
		{ID: 100, MenuID: 1, ProfileID: 10, Level: AccessNone},
		{ID: 101, MenuID: 3, ProfileID: 10, Level: AccessRead},
	})

	orphaned := OrphanedAncestors(f, set, 10, 3)
	if len(orphaned) != 1 || orphaned[0].ID != 1 {
		t.Fatalf("expected menu 1 orphaned, got %+v", orphaned)
	}
}

func TestOrphanedAncestorsSiblingKeepsParent(t *testing.T) {
	f := NewForest(adminMenus())
	set := NewAssignmentSet([]Assignment{
		{ID: 100, MenuID: 1, ProfileID: 10, Level: AccessNone},
		{ID: 101, MenuID: 2, ProfileID: 10, Level: AccessRead},
		{ID: 102, MenuID: 3, ProfileID: 10, Level: AccessRead},
	})

	if orphaned := OrphanedAncestors(f, set, 10, 3); len(orphaned) != 0 {
		t.Fatalf("expected no orphans while sibling stays assigned, got %+v", orphaned)
	}
}

func TestOrphanedAncestorsCascadesUpward(t *testing.T) {
	menus := []MenuNode{
		{ID: 1, Title: "Admin"},
		{ID: 2, ParentID: 1, Title: "Security"},
		{ID: 3, ParentID: 2, Title: "Roles"},
	}
	f := NewForest(menus)
	set := NewAssignmentSet([]Assignment{
		{ID: 100, MenuID: 1, ProfileID: 10, Level: AccessNone},
		{ID: 101, MenuID: 2, ProfileID: 10, Level: AccessNone},
		{ID: 102, MenuID: 3, ProfileID: 10, Level: AccessRead},
	})

	orphaned := OrphanedAncestors(f, set, 10, 3)
	if len(orphaned) != 2 {
		t.Fatalf("expected two orphans, got %+v", orphaned)
	}
	if orphaned[0].ID != 2 || orphaned[1].ID != 1 {
		t.Fatalf("expected nearest-first order [2 1], got [%d %d]", orphaned[0].ID, orphaned[1].ID)
	}
}

func TestOrphanedAncestorsLandingPageExempt(t *testing.T) {
	menus := []MenuNode{
		{ID: 5, Title: "Home"},
		{ID: 6, ParentID: 5, Title: "Shortcuts"},
	}
	f := NewForest(menus)
	set := NewAssignmentSet([]Assignment{
		{ID: 200, MenuID: 5, ProfileID: 10, Level: AccessNone},
		{ID: 201, MenuID: 6, ProfileID: 10, Level: AccessRead},
	})

	if orphaned := OrphanedAncestors(f, set, 10, 6); len(orphaned) != 0 {
		t.Fatalf("home must never be orphan-cascaded, got %+v", orphaned)
	}
}

func TestOrphanedAncestorsDashboardCaseInsensitive(t *testing.T) {
	menus := []MenuNode{
		{ID: 5, Title: "DASHBOARD"},
		{ID: 6, ParentID: 5, Title: "Widgets"},
	}
	f := NewForest(menus)
	set := NewAssignmentSet([]Assignment{
		{ID: 200, MenuID: 5, ProfileID: 10, Level: AccessNone},
		{ID: 201, MenuID: 6, ProfileID: 10, Level: AccessRead},
	})

	if orphaned := OrphanedAncestors(f, set, 10, 6); len(orphaned) != 0 {
		t.Fatalf("dashboard match must be case-insensitive, got %+v", orphaned)
	}
}

func TestOrphanedAncestorsStopsAtLandingPage(t *testing.T) {
	// Exempt node in the middle of the chain halts the cascade even though
	// its own parent would be childless too.
	menus := []MenuNode{
		{ID: 1, Title: "Portal"},
		{ID: 2, ParentID: 1, Title: "Home"},
		{ID: 3, ParentID: 2, Title: "Links"},
	}
	f := NewForest(menus)
	set := NewAssignmentSet([]Assignment{
		{ID: 300, MenuID: 1, ProfileID: 10, Level: AccessNone},
		{ID: 301, MenuID: 2, ProfileID: 10, Level: AccessNone},
		{ID: 302, MenuID: 3, ProfileID: 10, Level: AccessRead},
	})

	if orphaned := OrphanedAncestors(f, set, 10, 3); len(orphaned) != 0 {
		t.Fatalf("cascade must stop at the landing page, got %+v", orphaned)
	}
}

func TestOrphanedAncestorsUnassignedParent(t *testing.T) {
	// Parent never assigned: nothing to cascade-delete above the leaf.
	f := NewForest(adminMenus())
	set := NewAssignmentSet([]Assignment{
		{ID: 101, MenuID: 3, ProfileID: 10, Level: AccessRead},
	})

	if orphaned := OrphanedAncestors(f, set, 10, 3); len(orphaned) != 0 {
		t.Fatalf("expected no orphans for unassigned parent, got %+v", orphaned)
	}
}
