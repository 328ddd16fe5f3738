// Package engine drives git's interactive rebase without a human in the
// loop. A compiled todo list and the commit messages it needs are handed to
// git through scripted editors, the single git process is watched until it
// exits, and any run that does not finish cleanly is rolled back so the
// repository is left exactly where it started.
package engine

import (
	"time"
)

// Status is the caller-facing result of an apply or reset.
type Status string

const (
	// StatusSuccess means the rewrite completed and HEAD moved.
	StatusSuccess Status = "success"

	// StatusConflictStopped means git stopped and the repository was left
	// mid-rebase. Only produced when KeepStopped is set.
	StatusConflictStopped Status = "conflict-stopped"

	// StatusAborted means the run failed and the repository was restored
	// to its original HEAD.
	StatusAborted Status = "aborted"

	// StatusFailed means the run failed and restoring the original HEAD
	// failed too. The message says what is left to clean up.
	StatusFailed Status = "failed"
)

// Halt is how the git process ended, before any recovery.
type Halt string

const (
	HaltSucceeded Halt = "succeeded"
	HaltConflict  Halt = "conflict-halted"
	HaltCrashed   Halt = "crash-failed"
	HaltCancelled Halt = "cancelled"
)

// State is a step of the executor's state machine, reported through the
// progress callback.
type State string

// A run that never leaves preflight reports no states at all.
const (
	StateStarting       State = "starting"
	StateRunning        State = "running"
	StateSucceeded      State = "succeeded"
	StateConflictHalted State = "conflict-halted"
	StateAborted        State = "aborted"
	StateCrashFailed    State = "crash-failed"
)

// Outcome is the single result of one apply or reset.
type Outcome struct {
	// Status is the final result after recovery.
	Status Status `json:"status"`

	// Halt records how git itself ended.
	Halt Halt `json:"halt"`

	// StoppedAtSha is the commit git was replaying when it stopped.
	StoppedAtSha string `json:"stopped_at_sha,omitempty"`

	// Message is a human readable diagnostic.
	Message string `json:"message,omitempty"`

	// NewHeadSha is HEAD after a successful run.
	NewHeadSha string `json:"new_head_sha,omitempty"`

	// OrigHeadSha is HEAD before the run.
	OrigHeadSha string `json:"orig_head_sha"`

	// InvocationID identifies the run in logs and scratch paths.
	InvocationID string `json:"invocation_id"`

	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration_ns"`

	// Output is git's combined output, kept for diagnostics.
	Output string `json:"output,omitempty"`
}

// Succeeded reports whether the run completed.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// Progress is a state transition of a running apply.
type Progress struct {
	// InvocationID identifies the run.
	InvocationID string

	// State is the state just entered.
	State State

	// Step is the 1-based todo line git is on while Running.
	Step int

	// Total is the number of todo lines.
	Total int
}
