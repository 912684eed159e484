package model

import "time"

// RunStatus represents the current state of an estimation run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusResampling  RunStatus = "resampling"
	RunStatusFitting     RunStatus = "fitting"
	RunStatusAggregating RunStatus = "aggregating"
	RunStatusComplete    RunStatus = "complete"
	RunStatusCancelled   RunStatus = "cancelled"
	RunStatusFailed      RunStatus = "failed"
)

// WeightKind selects the weighting estimand.
type WeightKind string

const (
	WeightATE     WeightKind = "ate"
	WeightATT     WeightKind = "att"
	WeightATC     WeightKind = "atc"
	WeightOverlap WeightKind = "overlap"
)

// FailurePolicy controls how per-resample fit failures are handled.
type FailurePolicy string

const (
	// FailAbort stops the whole run on the first fit failure.
	FailAbort FailurePolicy = "abort"
	// FailSkip excludes failed resamples from the distribution and
	// continues, surfacing the skipped count in the result.
	FailSkip FailurePolicy = "skip"
)

// RunSpec is the full configuration of one estimation run.
type RunSpec struct {
	TreatmentVar    string     `json:"treatment_var"`
	OutcomeVar      string     `json:"outcome_var"`
	Covariates      []string   `json:"covariates"`
	Resamples       int        `json:"resamples"`
	IncludeApparent bool       `json:"include_apparent"`
	Estimand        WeightKind `json:"estimand"`
	// PropensityClip bounds fitted probabilities to [clip, 1-clip]
	// before weighting. Must lie in (0, 0.5).
	PropensityClip float64 `json:"propensity_clip"`
	// WeightCap truncates weights above this value; 0 disables capping.
	WeightCap     float64       `json:"weight_cap,omitempty"`
	Seed          uint64        `json:"seed"`
	FailurePolicy FailurePolicy `json:"failure_policy"`
	Concurrency   int           `json:"concurrency,omitempty"`
}

// FitFailure records one excluded resample under the skip policy.
type FitFailure struct {
	ResampleID int    `json:"resample_id"`
	Stage      string `json:"stage"`
	Reason     string `json:"reason"`
}

// RunResult holds the final outcome of a run: the estimate distribution
// plus the metadata a consumer needs to know whether it can trust it.
type RunResult struct {
	Distribution EstimateDistribution `json:"distribution"`
	Attempted    int                  `json:"attempted"`
	Skipped      int                  `json:"skipped"`
	Failures     []FitFailure         `json:"failures,omitempty"`
	Cancelled    bool                 `json:"cancelled,omitempty"`
	Elapsed      time.Duration        `json:"elapsed_ns"`
}

// Run represents a single persisted estimation run.
type Run struct {
	ID        string     `json:"id"`
	Dataset   string     `json:"dataset"`
	Spec      RunSpec    `json:"spec"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
