package store

import "time"

// RunStatus is the terminal state of one pipeline run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one row in the run ledger: a single generate or batch run for
// one property, with the diagnostics counts that summarize what the merge
// produced.
type RunRecord struct {
	ID                string    `json:"id"`
	PropertyID        string    `json:"propertyId"`
	Status            RunStatus `json:"status"`
	FailedStage       string    `json:"failedStage,omitempty"`
	AreasMerged       int       `json:"areasMerged"`
	ConflictsFound    int       `json:"conflictsFound"`
	DuplicatesRemoved int       `json:"duplicatesRemoved"`
	ReportPath        string    `json:"reportPath,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// RunStore defines the interface for run-ledger persistence.
type RunStore interface {
	// SaveRun appends one run to the ledger. A blank ID or zero CreatedAt
	// is filled in by the store; the record as stored is returned.
	SaveRun(rec RunRecord) (RunRecord, error)

	// GetRun retrieves a run by its identifier.
	// It returns an error if the run does not exist.
	GetRun(id string) (*RunRecord, error)

	// ListRuns returns the most recent runs, newest first.
	// A limit <= 0 returns every run.
	ListRuns(limit int) ([]RunRecord, error)

	// ListRunsForProperty returns the most recent runs for one property,
	// newest first. A limit <= 0 returns every matching run.
	ListRunsForProperty(propertyID string, limit int) ([]RunRecord, error)

	// Close releases any resources held by the store.
	Close() error
}
