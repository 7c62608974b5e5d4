package pipeline

// ProgressStatus is the state of a stage as seen by a progress listener.
type ProgressStatus string

const (
	ProgressWorking  ProgressStatus = "working"
	ProgressRetrying ProgressStatus = "retrying"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent is emitted to the caller during pipeline execution. Attempt
// is set on retrying events only.
type ProgressEvent struct {
	Stage   Stage
	Status  ProgressStatus
	Message string
	Attempt int
}

// ProgressFunc receives progress events. Callbacks are serialized by the
// pipeline even when stages run concurrently.
type ProgressFunc func(ProgressEvent)
