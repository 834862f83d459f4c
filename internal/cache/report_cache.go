package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/GTDGit/wawi_bi/internal/models"
)

const (
	keyLastReport = "sync:report:last"

	// reportTTL bounds how long per-run reports are kept.
	reportTTL = 7 * 24 * time.Hour
)

// ReportCache keeps finished sync reports for the HTTP surface.
type ReportCache struct {
	store Store
}

// NewReportCache creates a ReportCache on top of store.
func NewReportCache(store Store) *ReportCache {
	return &ReportCache{store: store}
}

func keyReport(runID string) string {
	return fmt.Sprintf("sync:report:%s", runID)
}

// PublishReport stores report under its run ID and as the last report.
// Primary key: sync:report:{runId} (7 days)
// Pointer key: sync:report:last (no expiry)
func (c *ReportCache) PublishReport(ctx context.Context, report *models.SyncReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal sync report: %w", err)
	}

	if err := c.store.Set(ctx, keyReport(report.RunID), string(data), reportTTL); err != nil {
		return fmt.Errorf("failed to set report key: %w", err)
	}
	if err := c.store.Set(ctx, keyLastReport, string(data), 0); err != nil {
		return fmt.Errorf("failed to set last report key: %w", err)
	}
	return nil
}

// LastReport returns the most recently published report or ErrNotFound.
func (c *ReportCache) LastReport(ctx context.Context) (*models.SyncReport, error) {
	return c.get(ctx, keyLastReport)
}

// Report returns the report of a single run or ErrNotFound.
func (c *ReportCache) Report(ctx context.Context, runID string) (*models.SyncReport, error) {
	return c.get(ctx, keyReport(runID))
}

func (c *ReportCache) get(ctx context.Context, key string) (*models.SyncReport, error) {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var report models.SyncReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync report: %w", err)
	}
	return &report, nil
}
