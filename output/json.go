// Package output renders ranges, plans, rewrite outcomes and change
// summaries for the terminal or as JSON.
package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/roasbeef/histedit/diffstat"
	"github.com/roasbeef/histedit/engine"
	"github.com/roasbeef/histedit/git"
	"github.com/roasbeef/histedit/history"
	"github.com/roasbeef/histedit/rebase"
)

// RangeOutput is the JSON form of a commit range.
type RangeOutput struct {
	Boundary string         `json:"boundary"`
	Root     bool           `json:"root"`
	Upstream string         `json:"upstream,omitempty"`
	Head     string         `json:"head"`
	Commits  []CommitOutput `json:"commits"`
}

// CommitOutput represents a commit in JSON output.
type CommitOutput struct {
	Index       int       `json:"index"`
	Sha         string    `json:"sha"`
	ShortSha    string    `json:"short_sha"`
	Parents     []string  `json:"parents"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	AuthorDate  time.Time `json:"author_date"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body,omitempty"`
}

// PlanOutput is the JSON form of a plan.
type PlanOutput struct {
	Head  string       `json:"head"`
	Steps []StepOutput `json:"steps"`
}

// StepOutput represents a plan step in JSON output.
type StepOutput struct {
	Index   int    `json:"index"`
	Op      string `json:"op"`
	Sha     string `json:"sha"`
	Subject string `json:"subject"`
	Message string `json:"message,omitempty"`
}

// StatOutput is the JSON form of a change summary.
type StatOutput struct {
	Sha     string       `json:"sha,omitempty"`
	Added   int          `json:"added"`
	Deleted int          `json:"deleted"`
	Files   []FileOutput `json:"files"`
}

// FileOutput represents a file in JSON output.
type FileOutput struct {
	Path    string `json:"path"`
	OldPath string `json:"old_path,omitempty"`
	Status  string `json:"status"` // "modified", "new", "deleted", "renamed"
	Binary  bool   `json:"binary,omitempty"`
	Added   int    `json:"added"`
	Deleted int    `json:"deleted"`
}

// RebaseStateOutput is the JSON form of an in-progress rebase.
type RebaseStateOutput struct {
	InProgress bool                 `json:"in_progress"`
	State      string               `json:"state"`
	Branch     string               `json:"branch,omitempty"`
	Onto       string               `json:"onto,omitempty"`
	OrigHead   string               `json:"orig_head,omitempty"`
	Completed  int                  `json:"completed,omitempty"`
	Total      int                  `json:"total,omitempty"`
	Current    string               `json:"current,omitempty"`
	StoppedSha string               `json:"stopped_sha,omitempty"`
	Conflicts  []ConflictFileOutput `json:"conflicts,omitempty"`
}

// ConflictFileOutput represents an unmerged path in JSON output.
type ConflictFileOutput struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// SessionOutput holds a session's saved commits. Empty fields are unset.
type SessionOutput struct {
	Start string `json:"start,omitempty"`
	Best  string `json:"best,omitempty"`
}

// OutcomeOutput wraps an outcome with the policy's verdict.
type OutcomeOutput struct {
	engine.Outcome

	Action string `json:"action"`
	Reason string `json:"reason"`
}

// FormatRangeJSON writes a range as JSON.
func FormatRangeJSON(w io.Writer, rng *history.Range) error {
	out := RangeOutput{
		Boundary: rng.Boundary,
		Root:     rng.Root,
		Upstream: rng.Upstream,
		Head:     rng.Head,
		Commits:  make([]CommitOutput, 0, len(rng.Commits)),
	}

	for i, c := range rng.Commits {
		parents := c.ParentShas
		if parents == nil {
			parents = []string{}
		}

		out.Commits = append(out.Commits, CommitOutput{
			Index:       i,
			Sha:         c.Sha,
			ShortSha:    c.ShortSha,
			Parents:     parents,
			AuthorName:  c.AuthorName,
			AuthorEmail: c.AuthorEmail,
			AuthorDate:  c.AuthorDate,
			Subject:     c.Subject,
			Body:        c.Body,
		})
	}

	return writeJSON(w, out)
}

// FormatPlanJSON writes a plan as JSON.
func FormatPlanJSON(w io.Writer, p rebase.Plan) error {
	out := PlanOutput{
		Head:  p.Head(),
		Steps: make([]StepOutput, 0, p.Len()),
	}

	for i, s := range p.Steps() {
		out.Steps = append(out.Steps, StepOutput{
			Index:   i,
			Op:      string(s.Op),
			Sha:     s.Commit.Sha,
			Subject: s.Commit.Subject,
			Message: s.NewMessage,
		})
	}

	return writeJSON(w, out)
}

// FormatOutcomeJSON writes an outcome and the policy decision as JSON.
func FormatOutcomeJSON(w io.Writer, o engine.Outcome) error {
	d := engine.Decide(o)

	return writeJSON(w, OutcomeOutput{
		Outcome: o,
		Action:  string(d.Action),
		Reason:  d.Reason,
	})
}

// FormatStatJSON writes a change summary as JSON.
func FormatStatJSON(w io.Writer, sha string, stat *diffstat.Stat) error {
	out := StatOutput{
		Sha:   sha,
		Files: make([]FileOutput, 0, stat.FileCount()),
	}
	out.Added, out.Deleted = stat.Totals()

	for _, f := range stat.Files() {
		fo := FileOutput{
			Path:    f.Path,
			OldPath: f.OldPath,
			Status:  fileStatus(f),
			Binary:  f.Binary,
			Added:   f.Added,
			Deleted: f.Deleted,
		}

		if fo.OldPath == fo.Path {
			fo.OldPath = ""
		}

		out.Files = append(out.Files, fo)
	}

	return writeJSON(w, out)
}

// fileStatus returns the status string for a file.
func fileStatus(f diffstat.File) string {
	switch {
	case f.Created:
		return "new"
	case f.Removed:
		return "deleted"
	case f.Renamed():
		return "renamed"
	default:
		return "modified"
	}
}

// FormatRebaseStateJSON writes the state of an in-progress rebase.
func FormatRebaseStateJSON(w io.Writer, state *git.RebaseState) error {
	out := RebaseStateOutput{
		InProgress: state.InProgress,
		State:      string(state.State),
		Branch:     state.OriginalBranch,
		Onto:       state.OntoRef,
		OrigHead:   state.OrigHead,
		Completed:  state.CompletedCount,
		Total:      state.TotalCount,
		Current:    state.CurrentAction,
		StoppedSha: state.StoppedSha,
	}

	for _, c := range state.Conflicts {
		out.Conflicts = append(out.Conflicts, ConflictFileOutput{
			Path: c.Path,
			Type: c.ConflictType,
		})
	}

	return writeJSON(w, out)
}

// FormatSessionJSON writes a session's saved commits.
func FormatSessionJSON(w io.Writer, refs SessionOutput) error {
	return writeJSON(w, refs)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
