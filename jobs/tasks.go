package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-admin/meridian-admin/internal/jobs"
	"github.com/meridian-admin/meridian-admin/internal/permissions"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPermissionsIntegrityScan walks every profile's assignments and
	// reports incomplete ancestor chains.
	TaskPermissionsIntegrityScan = "permissions:integrity_scan"
	// TaskMenuCacheRefresh rebuilds the cached menu catalog snapshot.
	TaskMenuCacheRefresh = "menus:cache_refresh"
)

// NewPermissionsIntegrityScanTask constructs the scan task.
func NewPermissionsIntegrityScanTask() *asynq.Task {
	return asynq.NewTask(TaskPermissionsIntegrityScan, nil)
}

// NewMenuCacheRefreshTask constructs the cache refresh task.
func NewMenuCacheRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskMenuCacheRefresh, nil)
}

// IntegrityScanner runs the assignment consistency scan.
type IntegrityScanner interface {
	IntegrityScan(ctx context.Context) (permissions.IntegrityReport, error)
}

// HandlePermissionsIntegrityScan builds the handler for scan tasks. The scan
// only reports; repairs stay a deliberate human action through the grant
// endpoint.
func HandlePermissionsIntegrityScan(scanner IntegrityScanner, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("permissions_integrity_scan")
		report, err := scanner.IntegrityScan(ctx)
		if err != nil {
			logger.Error("permission integrity scan failed", slog.Any("error", err))
			return tracker.End(err)
		}
		metrics.AddViolations(len(report.Violations))
		if len(report.Violations) > 0 {
			for _, v := range report.Violations {
				logger.Warn("incomplete ancestor chain",
					slog.Int64("profile_id", v.ProfileID),
					slog.Int64("menu_id", v.MenuID),
					slog.Any("missing_menu_ids", v.MissingMenuIDs))
			}
		} else {
			logger.Info("permission integrity scan clean",
				slog.Int("profiles", report.ProfilesScanned),
				slog.Int("assignments", report.AssignmentsChecked))
		}
		return tracker.End(nil)
	}
}

// CatalogRefresher invalidates and rewarms the cached menu snapshot.
type CatalogRefresher interface {
	Refresh(ctx context.Context) error
}

// HandleMenuCacheRefresh builds the handler for cache refresh tasks.
func HandleMenuCacheRefresh(catalog CatalogRefresher, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("menu_cache_refresh")
		if err := catalog.Refresh(ctx); err != nil {
			logger.Error("menu cache refresh failed", slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("menu cache refreshed")
		return tracker.End(nil)
	}
}
