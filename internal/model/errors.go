package model

import "fmt"

// InvalidInputError reports malformed configuration or an unusable dataset.
// It is fatal and surfaced before any resampling starts.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// FitFailureError reports that a single resample's propensity or outcome
// model failed to fit. Whether it aborts the run or only excludes the
// resample is controlled by the run's failure policy.
type FitFailureError struct {
	ResampleID int
	Stage      string // "propensity" or "outcome"
	Reason     string
}

func (e *FitFailureError) Error() string {
	return fmt.Sprintf("fit failure: resample %d: %s: %s", e.ResampleID, e.Stage, e.Reason)
}

// MissingTermError reports that aggregation found an outcome fit without
// the expected coefficient term. It indicates an internal contract
// violation, not user error, and is always fatal.
type MissingTermError struct {
	ResampleID int
	Term       string
}

func (e *MissingTermError) Error() string {
	return fmt.Sprintf("missing term: resample %d has no coefficient for %q", e.ResampleID, e.Term)
}
