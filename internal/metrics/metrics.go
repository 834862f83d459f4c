// Package metrics exposes Prometheus instrumentation for WaWi to BI sync runs.
//
// Metrics are registered on the default registry and served at /metrics:
//   - wawi_sync_runs_total{status}: finished runs (success, failed)
//   - wawi_sync_duration_seconds: wall time of a run
//   - wawi_sync_step_duration_seconds{step}: wall time per step
//   - wawi_sync_rows_total{step}: rows written per step
//   - wawi_sync_rows_skipped_total{reason}: source rows left out
//   - wawi_sync_step_failures_total{step,error_type}: failed or skipped steps
//   - wawi_sync_last_success_timestamp: unix time of the last successful run
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/GTDGit/wawi_bi/internal/models"
)

var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wawi_sync_runs_total",
			Help: "Total number of finished sync runs",
		},
		[]string{"status"},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wawi_sync_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	SyncStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wawi_sync_step_duration_seconds",
			Help:    "Duration of individual sync steps in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"step"},
	)

	SyncRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wawi_sync_rows_total",
			Help: "Total number of rows written to the BI store",
		},
		[]string{"step"},
	)

	SyncRowsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wawi_sync_rows_skipped_total",
			Help: "Total number of source rows skipped",
		},
		[]string{"reason"}, // "unmapped_platform", "unknown_product", "inactive_product"
	)

	SyncStepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wawi_sync_step_failures_total",
			Help: "Total number of failed or skipped sync steps",
		},
		[]string{"step", "error_type"},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wawi_sync_last_success_timestamp",
			Help: "Unix timestamp of last successful sync run",
		},
	)
)

// RecordStep records the outcome of one step. errorType is empty on success.
func RecordStep(result *models.StepResult, errorType string) {
	step := string(result.Step)
	if result.Status != models.StepStatusSkipped {
		SyncStepDuration.WithLabelValues(step).Observe(result.Duration.Seconds())
	}
	SyncRowsTotal.WithLabelValues(step).Add(float64(result.Count))
	for reason, n := range result.Skipped {
		SyncRowsSkipped.WithLabelValues(string(reason)).Add(float64(n))
	}
	if result.Status != models.StepStatusSuccess {
		SyncStepFailures.WithLabelValues(step, errorType).Inc()
	}
}

// RecordRun records a finished run.
func RecordRun(report *models.SyncReport) {
	SyncDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	if report.Success {
		SyncRunsTotal.WithLabelValues("success").Inc()
		SyncLastSuccess.Set(float64(time.Now().Unix()))
		return
	}
	SyncRunsTotal.WithLabelValues("failed").Inc()
}
