// Package git is the process seam between histedit and the git executable.
// Every git invocation made by the engine goes through a Runner so tests can
// substitute a scripted fake.
package git

import (
	"context"
	"io"
	"strings"
)

// Invocation describes a single git process.
type Invocation struct {
	// Dir is the working directory for the process.
	Dir string

	// Args are the git arguments, without the leading "git".
	Args []string

	// Env holds extra KEY=VALUE pairs layered on top of the inherited
	// environment.
	Env []string

	// Stdin, if set, is connected to the process's standard input.
	Stdin io.Reader
}

// Result is what a finished git process reported.
type Result struct {
	// ExitCode is the process exit status.
	ExitCode int

	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error.
	Stderr string
}

// Success reports whether git exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Output returns stdout followed by stderr, trimmed.
func (r *Result) Output() string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(r.Stdout); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(r.Stderr); s != "" {
		parts = append(parts, s)
	}

	return strings.Join(parts, "\n")
}

// Runner launches git processes.
type Runner interface {
	// Run executes the invocation and waits for it to exit. A non-zero exit
	// status is reported through Result.ExitCode with a nil error. The error
	// is non-nil only when the process could not be started or was
	// terminated by a signal.
	Run(ctx context.Context, inv Invocation) (*Result, error)
}

// RepoStatus represents the current state of the working tree.
type RepoStatus struct {
	// StagedFiles lists files with staged changes.
	StagedFiles []string

	// UnstagedFiles lists files with unstaged changes.
	UnstagedFiles []string

	// UntrackedFiles lists untracked files.
	UntrackedFiles []string

	// ConflictedFiles lists unmerged paths.
	ConflictedFiles []ConflictInfo
}

// Clean reports whether no tracked file has staged or unstaged changes.
// Untracked files do not make a tree dirty.
func (s *RepoStatus) Clean() bool {
	return len(s.StagedFiles) == 0 && len(s.UnstagedFiles) == 0 &&
		len(s.ConflictedFiles) == 0
}

// ConflictInfo describes one unmerged path.
type ConflictInfo struct {
	// Path is the file path relative to the repo root.
	Path string

	// ConflictType is a human readable description of the XY code.
	ConflictType string
}
