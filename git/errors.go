package git

import (
	"fmt"
	"strings"
)

// NotARepositoryError is returned when a directory has no git metadata.
type NotARepositoryError struct {
	// Path is the directory that was probed.
	Path string

	// Detail is git's own explanation, if any.
	Detail string
}

func (e *NotARepositoryError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("not a git repository: %s", e.Path)
	}

	return fmt.Sprintf("not a git repository: %s: %s", e.Path, e.Detail)
}

// ProcessError is returned when git could not be launched or was killed by
// a signal before reporting an exit status.
type ProcessError struct {
	Args []string
	Err  error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// CommandError is returned by the plumbing helpers when git exits non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf(
		"git %s failed: exit status %d: %s",
		strings.Join(e.Args, " "), e.ExitCode, strings.TrimSpace(e.Stderr),
	)
}

// DirtyWorktreeError is returned when tracked files have uncommitted
// changes. Rewriting history would either fail or clobber them.
type DirtyWorktreeError struct {
	Files []string
}

func (e *DirtyWorktreeError) Error() string {
	const maxListed = 5

	files := e.Files
	suffix := ""
	if len(files) > maxListed {
		suffix = fmt.Sprintf(" (and %d more)", len(files)-maxListed)
		files = files[:maxListed]
	}

	return fmt.Sprintf(
		"working tree has uncommitted changes: %s%s",
		strings.Join(files, ", "), suffix,
	)
}

// RebaseInProgressError is returned when the repository is already in the
// middle of a rebase that histedit did not start.
type RebaseInProgressError struct {
	Dir string
}

func (e *RebaseInProgressError) Error() string {
	return fmt.Sprintf(
		"a rebase is already in progress in %s; run 'histedit abort' first",
		e.Dir,
	)
}

// VersionError is returned when the installed git is too old.
type VersionError struct {
	Have Version
	Want Version
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("git %s is too old; histedit requires git >= %s",
		e.Have, e.Want)
}
