package git

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// RebaseKind describes the state of an in-progress rebase.
type RebaseKind string

const (
	// RebaseNone means no rebase is in progress.
	RebaseNone RebaseKind = "none"

	// RebaseConflict means the rebase stopped on unmerged paths.
	RebaseConflict RebaseKind = "conflict"

	// RebaseStopped means the rebase paused without conflicts, for example
	// at an edit step or an empty commit.
	RebaseStopped RebaseKind = "stopped"
)

// RebaseState is a snapshot of git's on-disk rebase bookkeeping.
type RebaseState struct {
	// InProgress is true if any rebase directory exists.
	InProgress bool

	// State is the kind of stop, or RebaseNone.
	State RebaseKind

	// Dir is the rebase-merge or rebase-apply directory in use.
	Dir string

	// OriginalBranch is the ref being rebased, from head-name.
	OriginalBranch string

	// OntoRef is the commit being rebased onto.
	OntoRef string

	// OrigHead is the tip before the rebase started.
	OrigHead string

	// CompletedCount is the number of todo lines processed so far.
	CompletedCount int

	// TotalCount is the total number of todo lines.
	TotalCount int

	// RemainingCount is the number of todo lines left.
	RemainingCount int

	// CurrentAction is the last line in the done file.
	CurrentAction string

	// StoppedSha is the commit git stopped at, if recorded.
	StoppedSha string

	// Conflicts lists unmerged paths.
	Conflicts []ConflictInfo
}

// RebaseMergeDir returns the directory the merge backend keeps its state
// in.
func (r *Repo) RebaseMergeDir() string {
	return filepath.Join(r.GitDir, "rebase-merge")
}

// rebaseDir returns the active rebase directory, or "" if none exists.
func (r *Repo) rebaseDir() string {
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		dir := filepath.Join(r.GitDir, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}

	return ""
}

// RebaseInProgress reports whether a rebase directory exists.
func (r *Repo) RebaseInProgress() bool {
	return r.rebaseDir() != ""
}

// EnsureNoRebase returns a RebaseInProgressError when a rebase is already
// underway.
func (r *Repo) EnsureNoRebase() error {
	if r.RebaseInProgress() {
		return &RebaseInProgressError{Dir: r.Root}
	}

	return nil
}

// RebaseState reads the current rebase bookkeeping.
func (r *Repo) RebaseState(ctx context.Context) (*RebaseState, error) {
	dir := r.rebaseDir()
	if dir == "" {
		return &RebaseState{State: RebaseNone}, nil
	}

	headName := readTrim(dir, "head-name")
	state := &RebaseState{
		InProgress:     true,
		State:          RebaseStopped,
		Dir:            dir,
		OriginalBranch: strings.TrimPrefix(headName, "refs/heads/"),
		OntoRef:        readTrim(dir, "onto"),
		OrigHead:       readTrim(dir, "orig-head"),
		StoppedSha:     readTrim(dir, "stopped-sha"),
		CompletedCount: readInt(dir, "msgnum"),
		TotalCount:     readInt(dir, "end"),
	}

	// The apply backend names its counters differently.
	if state.TotalCount == 0 {
		state.CompletedCount = readInt(dir, "next")
		state.TotalCount = readInt(dir, "last")
	}
	if state.TotalCount >= state.CompletedCount {
		state.RemainingCount = state.TotalCount - state.CompletedCount
	}

	state.CurrentAction = LastDoneLine(
		readFile(filepath.Join(dir, "done")),
	)

	status, err := r.Status(ctx)
	if err != nil {
		return nil, err
	}
	state.Conflicts = status.ConflictedFiles
	if len(state.Conflicts) > 0 {
		state.State = RebaseConflict
	}

	return state, nil
}

// LastDoneLine returns the last instruction line of a done file, skipping
// blank lines and comments.
func LastDoneLine(done string) string {
	lines := strings.Split(done, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return line
	}

	return ""
}

func readFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logrus.WithField("path", path).Debugf(
				"Unable to read rebase state: %v", err,
			)
		}

		return ""
	}

	return string(data)
}

func readTrim(dir, name string) string {
	return strings.TrimSpace(readFile(filepath.Join(dir, name)))
}

func readInt(dir, name string) int {
	n, err := strconv.Atoi(readTrim(dir, name))
	if err != nil {
		return 0
	}

	return n
}
