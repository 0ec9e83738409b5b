package permissions

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/meridian-admin/meridian-admin/internal/menutree"
	"github.com/meridian-admin/meridian-admin/internal/observability"
	"github.com/meridian-admin/meridian-admin/internal/platform/httpx"
	"github.com/meridian-admin/meridian-admin/internal/shared"
)

// Store is the persistence contract the service depends on.
type Store interface {
	LoadAssignments(ctx context.Context, profileID int64) ([]menutree.Assignment, error)
	ListAssignedProfiles(ctx context.Context) ([]int64, error)
	InsertAssignment(ctx context.Context, c menutree.Create) (menutree.Assignment, error)
	DeleteAssignment(ctx context.Context, assignmentID int64) error
	UpdateAssignmentLevel(ctx context.Context, assignmentID int64, level menutree.AccessLevel) error
}

// Catalog supplies the menu snapshot the engine runs against.
type Catalog interface {
	Forest(ctx context.Context) (*menutree.Forest, error)
}

// BatchError reports a partially applied delta. Members applied before the
// failure stay applied; the service has already reloaded the authoritative
// snapshot by the time this error surfaces.
type BatchError struct {
	Operation string
	Applied   int
	Total     int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("permission %s batch applied %d of %d members: %v", e.Operation, e.Applied, e.Total, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Service orchestrates permission batches around the engine.
type Service struct {
	store   Store
	catalog Catalog
	audit   *shared.AuditLogger
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewService wires the permission service.
func NewService(store Store, catalog Catalog, audit *shared.AuditLogger, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, catalog: catalog, audit: audit, metrics: metrics, logger: logger}
}

func (s *Service) snapshot(ctx context.Context, profileID int64) (*menutree.Forest, menutree.AssignmentSet, error) {
	forest, err := s.catalog.Forest(ctx)
	if err != nil {
		return nil, menutree.AssignmentSet{}, fmt.Errorf("load menu snapshot: %w", err)
	}
	assignments, err := s.store.LoadAssignments(ctx, profileID)
	if err != nil {
		return nil, menutree.AssignmentSet{}, fmt.Errorf("load assignment snapshot: %w", err)
	}
	return forest, menutree.NewAssignmentSet(assignments), nil
}

// Grant assigns a menu to a profile together with every missing ancestor,
// root first. Each member is persisted on its own; a mid-batch failure leaves
// the applied prefix in place and reloads the snapshot instead of rolling
// back.
func (s *Service) Grant(ctx context.Context, actorID, profileID, menuID int64) (BatchResult, error) {
	forest, set, err := s.snapshot(ctx, profileID)
	if err != nil {
		return BatchResult{}, err
	}

	delta := menutree.Grant(forest, set, profileID, menuID)
	switch delta.Outcome {
	case menutree.OutcomeUnknownMenu:
		s.observe("grant", "unknown_menu")
		return BatchResult{}, fmt.Errorf("menu %d not in catalog: %w", menuID, httpx.ErrNotFound)
	case menutree.OutcomeAlreadyAssigned:
		s.observe("grant", "noop")
		return BatchResult{Outcome: delta.Outcome}, nil
	}

	result := BatchResult{Outcome: delta.Outcome}
	for i, c := range delta.Creates {
		stored, err := s.store.InsertAssignment(ctx, c)
		if err != nil {
			s.reload(ctx, profileID)
			s.observe("grant", "partial")
			return result, &BatchError{Operation: "grant", Applied: i, Total: len(delta.Creates), Err: err}
		}
		result.Created = append(result.Created, stored)
	}

	s.observe("grant", "applied")
	s.record(ctx, actorID, "permission.grant", profileID, menuID, map[string]any{"created": len(result.Created)})
	return result, nil
}

// Revoke removes a menu from a profile together with every ancestor the
// removal orphans, child before parent. Same partial-failure policy as Grant.
func (s *Service) Revoke(ctx context.Context, actorID, profileID, menuID int64) (BatchResult, error) {
	forest, set, err := s.snapshot(ctx, profileID)
	if err != nil {
		return BatchResult{}, err
	}

	delta := menutree.Revoke(forest, set, profileID, menuID)
	switch delta.Outcome {
	case menutree.OutcomeUnknownMenu:
		s.observe("revoke", "unknown_menu")
		return BatchResult{}, fmt.Errorf("menu %d not in catalog: %w", menuID, httpx.ErrNotFound)
	case menutree.OutcomeNotAssigned:
		s.observe("revoke", "noop")
		return BatchResult{Outcome: delta.Outcome}, nil
	}

	result := BatchResult{Outcome: delta.Outcome}
	for i, d := range delta.Deletes {
		if err := s.store.DeleteAssignment(ctx, d.AssignmentID); err != nil {
			s.reload(ctx, profileID)
			s.observe("revoke", "partial")
			return result, &BatchError{Operation: "revoke", Applied: i, Total: len(delta.Deletes), Err: err}
		}
		result.Deleted = append(result.Deleted, d.AssignmentID)
	}

	s.observe("revoke", "applied")
	s.record(ctx, actorID, "permission.revoke", profileID, menuID, map[string]any{"deleted": len(result.Deleted)})
	return result, nil
}

// SetLevel changes the access level of an existing leaf assignment.
func (s *Service) SetLevel(ctx context.Context, actorID, profileID, menuID int64, level menutree.AccessLevel) (menutree.Assignment, error) {
	_, set, err := s.snapshot(ctx, profileID)
	if err != nil {
		return menutree.Assignment{}, err
	}
	updated, err := menutree.SetAccessLevel(set, profileID, menuID, level)
	if err != nil {
		return menutree.Assignment{}, err
	}
	if err := s.store.UpdateAssignmentLevel(ctx, updated.ID, updated.Level); err != nil {
		return menutree.Assignment{}, err
	}
	s.record(ctx, actorID, "permission.level", profileID, menuID, map[string]any{"level": updated.Level.String()})
	return updated, nil
}

// CycleLevel advances an existing leaf assignment to the next level in the
// read/restricted/full cycle.
func (s *Service) CycleLevel(ctx context.Context, actorID, profileID, menuID int64) (menutree.Assignment, error) {
	_, set, err := s.snapshot(ctx, profileID)
	if err != nil {
		return menutree.Assignment{}, err
	}
	updated, err := menutree.CycleAccessLevel(set, profileID, menuID)
	if err != nil {
		return menutree.Assignment{}, err
	}
	if err := s.store.UpdateAssignmentLevel(ctx, updated.ID, updated.Level); err != nil {
		return menutree.Assignment{}, err
	}
	s.record(ctx, actorID, "permission.cycle", profileID, menuID, map[string]any{"level": updated.Level.String()})
	return updated, nil
}

// Tree renders the permission tree view model for one profile: display rows
// in pre-order with dotted numbers and the profile's current levels.
func (s *Service) Tree(ctx context.Context, profileID int64, expanded map[int64]bool) (TreeView, error) {
	forest, set, err := s.snapshot(ctx, profileID)
	if err != nil {
		return TreeView{}, err
	}

	numbers := forest.Numbers()
	treeRows := forest.Rows(expanded)
	view := TreeView{ProfileID: profileID, Rows: make([]TreeRow, 0, len(treeRows))}
	for _, row := range treeRows {
		out := TreeRow{
			MenuID:      row.Node.ID,
			Title:       row.Node.Title,
			Number:      numbers[row.Node.ID],
			Depth:       row.Level,
			HasChildren: row.HasChildren,
			Expanded:    row.Expanded,
		}
		if a, ok := set.Get(profileID, row.Node.ID); ok {
			out.Assigned = true
			out.AssignmentID = a.ID
			out.Access = a.Level.String()
		}
		view.Rows = append(view.Rows, out)
	}
	return view, nil
}

// IntegrityScan walks every profile's assignments and reports chains with
// missing ancestors. The scan only reads; repairs go through Grant.
func (s *Service) IntegrityScan(ctx context.Context) (IntegrityReport, error) {
	forest, err := s.catalog.Forest(ctx)
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("load menu snapshot: %w", err)
	}
	profileIDs, err := s.store.ListAssignedProfiles(ctx)
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("list assigned profiles: %w", err)
	}

	report := IntegrityReport{ProfilesScanned: len(profileIDs)}
	for _, profileID := range profileIDs {
		assignments, err := s.store.LoadAssignments(ctx, profileID)
		if err != nil {
			return report, fmt.Errorf("load assignments for profile %d: %w", profileID, err)
		}
		set := menutree.NewAssignmentSet(assignments)
		for _, a := range assignments {
			report.AssignmentsChecked++
			missing := menutree.MissingAncestors(forest, set, profileID, a.MenuID)
			if len(missing) == 0 {
				continue
			}
			violation := Violation{ProfileID: profileID, MenuID: a.MenuID}
			for _, node := range missing {
				violation.MissingMenuIDs = append(violation.MissingMenuIDs, node.ID)
			}
			report.Violations = append(report.Violations, violation)
		}
	}
	return report, nil
}

func (s *Service) observe(operation, result string) {
	if s.metrics != nil {
		s.metrics.ObservePermissionBatch(operation, result)
	}
}

func (s *Service) reload(ctx context.Context, profileID int64) {
	if _, err := s.store.LoadAssignments(ctx, profileID); err != nil {
		s.logger.Error("assignment snapshot reload failed", slog.Int64("profile_id", profileID), slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, profileID, menuID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["profile_id"] = profileID
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "menu_assignment",
		EntityID: strconv.FormatInt(menuID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit write failed", slog.String("action", action), slog.Any("error", err))
	}
}
