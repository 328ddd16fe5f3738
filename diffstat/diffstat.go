// Package diffstat summarises what a commit changed, file by file. It backs
// drop previews and the show command.
package diffstat

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/roasbeef/histedit/diff"
	"github.com/roasbeef/histedit/git"
)

// File is the change summary of one path.
type File struct {
	// Path is the path after the change, or before it for deletions.
	Path string

	// OldPath is the path before the change. It differs from Path only
	// for renames.
	OldPath string

	// Added and Deleted count changed lines.
	Added   int
	Deleted int

	// Binary is true when git reported a binary change.
	Binary bool

	// Created and Removed mark whole-file additions and deletions.
	Created bool
	Removed bool
}

// Renamed reports whether the file moved.
func (f File) Renamed() bool {
	return f.OldPath != "" && f.OldPath != f.Path
}

// Stat is the summary of a whole diff.
type Stat struct {
	files []File
}

// Parse summarises a unified diff as printed by git.
func Parse(diffText string) (*Stat, error) {
	parsed, err := diff.Parse(diffText)
	if err != nil {
		return nil, err
	}

	stat := &Stat{files: make([]File, 0, parsed.FileCount())}
	for _, f := range parsed.Files() {
		stat.files = append(stat.files, summarize(f))
	}

	return stat, nil
}

// ForCommit summarises the change sha introduced relative to its first
// parent.
func ForCommit(ctx context.Context, repo *git.Repo, sha string) (*Stat, error) {
	text, err := repo.CommitDiff(ctx, sha)
	if err != nil {
		return nil, err
	}

	return Parse(text)
}

// Files iterates over the per-file summaries in diff order.
func (s *Stat) Files() iter.Seq2[int, File] {
	return func(yield func(int, File) bool) {
		for i, f := range s.files {
			if !yield(i, f) {
				return
			}
		}
	}
}

// FileCount returns the number of files touched.
func (s *Stat) FileCount() int {
	return len(s.files)
}

// Totals returns the added and deleted line counts across all files.
func (s *Stat) Totals() (added, deleted int) {
	for _, f := range s.files {
		added += f.Added
		deleted += f.Deleted
	}

	return added, deleted
}

// Summary renders git's one-line shortstat form, for example
// "2 files changed, 3 insertions(+), 1 deletion(-)".
func (s *Stat) Summary() string {
	added, deleted := s.Totals()

	parts := []string{plural(len(s.files), "file changed", "files changed")}
	if added > 0 {
		parts = append(parts,
			plural(added, "insertion(+)", "insertions(+)"))
	}
	if deleted > 0 {
		parts = append(parts,
			plural(deleted, "deletion(-)", "deletions(-)"))
	}

	return strings.Join(parts, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}

	return fmt.Sprintf("%d %s", n, many)
}

func summarize(f *diff.FileDiff) File {
	added, deleted := f.Stats()

	return File{
		Path:    f.Path(),
		OldPath: f.OldName,
		Added:   added,
		Deleted: deleted,
		Binary:  f.IsBinary,
		Created: f.IsNew,
		Removed: f.IsDeleted,
	}
}
