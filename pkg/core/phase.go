package core

// Outcome is the result of processing one phase item.
type Outcome string

// Item outcomes.
const (
	OutcomeCreated Outcome = "created"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "error"
)

// PhaseResult tallies one phase of a pipeline run.
type PhaseResult struct {
	Number int
	Name   string

	Created int
	Skipped int
	Errors  int

	// AlreadyComplete is set when the entry probe short-circuited the phase.
	AlreadyComplete bool

	// Err is a phase-level failure (a missing prerequisite) that stopped the
	// phase before its item loop ran.
	Err error

	// Env is filled by phase 1 only.
	Env []EnvEntry
}

// Total returns the number of items the phase looked at.
func (r PhaseResult) Total() int {
	return r.Created + r.Skipped + r.Errors
}

// Failed reports whether anything in the phase went wrong.
func (r PhaseResult) Failed() bool {
	return r.Err != nil || r.Errors > 0
}
