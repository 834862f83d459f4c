package models

import "time"

// SyncStep names one of the five ordered sync steps.
type SyncStep string

const (
	StepPlatforms SyncStep = "platforms"
	StepProducts  SyncStep = "products"
	StepRefPrices SyncStep = "refprice"
	StepShipping  SyncStep = "shipping"
	StepSales     SyncStep = "sales"
)

// SyncSteps lists the steps in execution order.
var SyncSteps = []SyncStep{StepPlatforms, StepProducts, StepRefPrices, StepShipping, StepSales}

// StepStatus is the outcome of a single step.
type StepStatus string

const (
	StepStatusSuccess StepStatus = "success"
	StepStatusFailed  StepStatus = "failed"
	StepStatusSkipped StepStatus = "skipped"
)

// SkipReason explains why a source row was not written.
type SkipReason string

const (
	SkipUnmappedPlatform SkipReason = "unmapped_platform"
	SkipUnknownProduct   SkipReason = "unknown_product"
	SkipInactiveProduct  SkipReason = "inactive_product"
)

// StepResult records what one step did.
type StepResult struct {
	Step     SyncStep           `json:"step"`
	Status   StepStatus         `json:"status"`
	Count    int                `json:"count"`
	Skipped  map[SkipReason]int `json:"skipped,omitempty"`
	Duration time.Duration      `json:"durationNs"`
	Error    string             `json:"error,omitempty"`
}

// SkippedTotal sums skipped rows over all reasons.
func (r *StepResult) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// SyncReport summarizes one WaWi to BI sync run.
type SyncReport struct {
	RunID      string       `json:"runId"`
	Success    bool         `json:"success"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Steps      []StepResult `json:"steps"`
	Error      string       `json:"error,omitempty"`

	PlatformsSynced int `json:"platformsSynced"`
	ProductsSynced  int `json:"productsSynced"`
	RefPricesAdded  int `json:"refPricesAdded"`
	ShippingSynced  int `json:"shippingSynced"`
	SalesSynced     int `json:"salesSynced"`
	SalesSkipped    int `json:"salesSkipped"`
}

// Step returns the result for the named step, or nil if it was not recorded.
func (r *SyncReport) Step(step SyncStep) *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Step == step {
			return &r.Steps[i]
		}
	}
	return nil
}
