package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/wawi_bi/internal/models"
)

// SyncRunner runs one WaWi to BI synchronization.
type SyncRunner interface {
	Run(ctx context.Context) (*models.SyncReport, error)
}

// SyncWorker periodically mirrors WaWi into the BI store.
type SyncWorker struct {
	runner     SyncRunner
	interval   time.Duration
	timeout    time.Duration
	runOnStart bool
}

// NewSyncWorker constructs a SyncWorker. An interval of 0 disables the
// periodic loop; a timeout of 0 leaves runs unbounded.
func NewSyncWorker(runner SyncRunner, interval, timeout time.Duration, runOnStart bool) *SyncWorker {
	return &SyncWorker{
		runner:     runner,
		interval:   interval,
		timeout:    timeout,
		runOnStart: runOnStart,
	}
}

// Start begins the periodic sync loop and listens for context cancellation.
func (w *SyncWorker) Start(ctx context.Context) {
	log.Info().
		Dur("interval", w.interval).
		Dur("timeout", w.timeout).
		Bool("run_on_start", w.runOnStart).
		Msg("Starting sync worker")

	if w.runOnStart {
		w.run(ctx)
	}

	if w.interval <= 0 {
		log.Info().Msg("Sync schedule disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Sync worker stopped")
			return
		}
	}
}

func (w *SyncWorker) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	// The service logs run details; only the outcome is logged here.
	report, err := w.runner.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled sync failed")
		return
	}
	log.Info().Str("run_id", report.RunID).Msg("Scheduled sync completed")
}
