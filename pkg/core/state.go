package core

import "time"

// RunStatus is the terminal or current state of a pipeline run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is a pipeline run as stored in the local journal.
type RunRecord struct {
	ID          string
	ContainerID string
	Year        int
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// PhaseRecord is a journaled PhaseResult.
type PhaseRecord struct {
	RunID           string
	Number          int
	Name            string
	Created         int
	Skipped         int
	Errors          int
	AlreadyComplete bool
	Error           string
}

// ItemFailure is a journaled per-item error.
type ItemFailure struct {
	RunID string
	Phase int
	Index int
	Label string
	Error string
}

// Journal persists pipeline runs locally. Journal failures are logged by
// callers and never fail a run.
type Journal interface {
	StartRun(containerID string, year int) (*RunRecord, error)
	RecordPhase(runID string, result PhaseResult) error
	RecordFailure(f ItemFailure) error
	RecordTables(runID string, env []EnvEntry) error
	CompleteRun(runID string, status RunStatus, errMsg string) error

	GetRun(id string) (*RunRecord, error)
	ListRuns(limit int) ([]RunRecord, error)
	ListPhases(runID string) ([]PhaseRecord, error)
	ListFailures(runID string) ([]ItemFailure, error)
	ListTables(runID string) ([]EnvEntry, error)

	Close() error
}
