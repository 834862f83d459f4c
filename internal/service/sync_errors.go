package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GTDGit/wawi_bi/internal/models"
	"github.com/GTDGit/wawi_bi/internal/utils"
)

// StepError is the failure of a single sync step, or the reason it was skipped.
type StepError struct {
	Step    models.SyncStep
	Skipped bool
	Err     error
}

func (e *StepError) Error() string {
	verb := "failed"
	if e.Skipped {
		verb = "skipped"
	}
	return fmt.Sprintf("%s step %s: %v", e.Step, verb, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// SyncError is returned by a run that did not complete every step.
// Cause is set when the run could not start at all.
type SyncError struct {
	RunID string
	Cause error
	Steps []*StepError
}

func (e *SyncError) Error() string {
	parts := make([]string, 0, len(e.Steps)+1)
	if e.Cause != nil {
		parts = append(parts, "preflight: "+e.Cause.Error())
	}
	for _, s := range e.Steps {
		parts = append(parts, s.Error())
	}
	return fmt.Sprintf("sync run %s failed: %s", e.RunID, strings.Join(parts, "; "))
}

func (e *SyncError) Unwrap() []error {
	errs := make([]error, 0, len(e.Steps)+1)
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	for _, s := range e.Steps {
		errs = append(errs, s)
	}
	return errs
}

// FailedSteps returns the steps that ran and failed, excluding skipped ones.
func (e *SyncError) FailedSteps() []models.SyncStep {
	var steps []models.SyncStep
	for _, s := range e.Steps {
		if !s.Skipped {
			steps = append(steps, s.Step)
		}
	}
	return steps
}

func sourceErr(op string, err error) error {
	return wrapStoreErr(op, utils.ErrSourceUnavailable, err)
}

func targetErr(op string, err error) error {
	return wrapStoreErr(op, utils.ErrTargetUnavailable, err)
}

func wrapStoreErr(op string, unavailable, err error) error {
	if !utils.IsCancellation(err) && utils.IsConnectionError(err) {
		return fmt.Errorf("%s: %w: %w", op, unavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isFatal reports whether err must abort the remaining steps of a run.
func isFatal(err error) bool {
	return utils.IsCancellation(err) ||
		errors.Is(err, utils.ErrSourceUnavailable) ||
		errors.Is(err, utils.ErrTargetUnavailable)
}
