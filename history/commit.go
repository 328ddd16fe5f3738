// Package history reads the range of commits a plan is built from.
//
// A range is named by a boundary commit: the boundary and every commit
// reachable from HEAD but not from the boundary's first parent. When the
// boundary is a root commit the range is the whole of HEAD's history.
// Commits are always returned oldest first, parents before children.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Commit is an immutable record of a single commit.
type Commit struct {
	// Sha is the full 40 character hex object name.
	Sha string

	// ShortSha is an abbreviated object name.
	ShortSha string

	// ParentShas are the parent object names in order.
	ParentShas []string

	// AuthorName is the author's name.
	AuthorName string

	// AuthorEmail is the author's email address.
	AuthorEmail string

	// AuthorDate is when the commit was authored.
	AuthorDate time.Time

	// Subject is the first paragraph of the message folded onto one line.
	Subject string

	// Body is the rest of the message, without trailing newlines.
	Body string
}

// Message returns the full commit message.
func (c Commit) Message() string {
	if c.Body == "" {
		return c.Subject
	}

	return c.Subject + "\n\n" + c.Body
}

// IsRoot reports whether the commit has no parents.
func (c Commit) IsRoot() bool {
	return len(c.ParentShas) == 0
}

// IsMerge reports whether the commit has more than one parent.
func (c Commit) IsMerge() bool {
	return len(c.ParentShas) > 1
}

// Range is the ordered set of commits between a boundary and HEAD.
type Range struct {
	// Commits are ordered oldest first.
	Commits []Commit

	// Boundary is the full sha of the oldest commit in the range.
	Boundary string

	// Root is true when the boundary has no parent.
	Root bool

	// Upstream is the boundary's first parent, or "" for a root boundary.
	Upstream string

	// Head is the sha HEAD pointed at when the range was read.
	Head string
}

// Len returns the number of commits in the range.
func (r *Range) Len() int {
	return len(r.Commits)
}

// Index returns the position of the commit whose sha starts with prefix,
// or -1 if none or more than one matches.
func (r *Range) Index(prefix string) int {
	if prefix == "" {
		return -1
	}

	found := -1
	for i, c := range r.Commits {
		if !strings.HasPrefix(c.Sha, prefix) {
			continue
		}
		if found >= 0 {
			return -1
		}
		found = i
	}

	return found
}

// Reader enumerates commit ranges.
type Reader interface {
	// ReadRange returns the commits from boundary to HEAD. An empty
	// boundary selects HEAD's root commit, so the whole history is read.
	ReadRange(ctx context.Context, repoPath, boundary string) (*Range, error)

	// Root returns the oldest parentless commit reachable from HEAD.
	Root(ctx context.Context, repoPath string) (string, error)
}

// RangeResolutionError is returned when a boundary does not name a commit
// on HEAD's history.
type RangeResolutionError struct {
	// Boundary is the revision as the caller supplied it.
	Boundary string

	// Reason explains why it could not be used.
	Reason string
}

func (e *RangeResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve range from %q: %s",
		e.Boundary, e.Reason)
}

// Backend names a Reader implementation.
type Backend string

const (
	// BackendCLI reads history through the git executable.
	BackendCLI Backend = "cli"

	// BackendNative reads history in-process with go-git.
	BackendNative Backend = "native"
)
