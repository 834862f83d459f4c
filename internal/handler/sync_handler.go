package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/wawi_bi/internal/cache"
	"github.com/GTDGit/wawi_bi/internal/models"
	"github.com/GTDGit/wawi_bi/internal/utils"
)

// SyncRunner runs one WaWi to BI synchronization.
type SyncRunner interface {
	Run(ctx context.Context) (*models.SyncReport, error)
}

// ReportReader returns the last published run report.
type ReportReader interface {
	LastReport(ctx context.Context) (*models.SyncReport, error)
}

// SyncHandler exposes the sync trigger and its last report.
type SyncHandler struct {
	runner  SyncRunner
	reports ReportReader
	timeout time.Duration
}

// NewSyncHandler creates a new SyncHandler. timeout bounds a triggered run;
// 0 leaves it unbounded.
func NewSyncHandler(runner SyncRunner, reports ReportReader, timeout time.Duration) *SyncHandler {
	return &SyncHandler{runner: runner, reports: reports, timeout: timeout}
}

// Trigger handles POST /v1/sync.
// The run is detached from the request so a caller hanging up does not abort it.
func (h *SyncHandler) Trigger(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	log.Info().Str("request_id", c.GetString("request_id")).Msg("Sync triggered via HTTP")

	report, err := h.runner.Run(ctx)
	if err != nil {
		utils.ErrorWithData(c, http.StatusInternalServerError, syncErrorCode(err), err.Error(), report)
		return
	}
	utils.Success(c, http.StatusOK, "Synchronization completed successfully", report)
}

// Last handles GET /v1/sync/last.
func (h *SyncHandler) Last(c *gin.Context) {
	report, err := h.reports.LastReport(c.Request.Context())
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			utils.Error(c, http.StatusNotFound, "NOT_FOUND", "No sync run recorded yet")
			return
		}
		log.Error().Err(err).Msg("Failed to read last sync report")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read last sync report")
		return
	}
	utils.Success(c, http.StatusOK, "Last sync report", report)
}

func syncErrorCode(err error) string {
	switch {
	case errors.Is(err, utils.ErrSourceUnavailable), errors.Is(err, utils.ErrTargetUnavailable):
		return "STORE_UNAVAILABLE"
	case utils.IsCancellation(err):
		return "SYNC_ABORTED"
	default:
		return "SYNC_FAILED"
	}
}
