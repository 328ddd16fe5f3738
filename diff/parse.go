package diff

import (
	"bytes"
	"fmt"
	"iter"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// ParsedDiff wraps a parsed multi-file diff.
type ParsedDiff struct {
	files []*FileDiff
}

// Parse parses a unified diff string into a structured representation.
func Parse(diffText string) (*ParsedDiff, error) {
	if strings.TrimSpace(diffText) == "" {
		return &ParsedDiff{}, nil
	}

	files, err := godiff.ParseMultiFileDiff([]byte(diffText))
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	parsed := &ParsedDiff{
		files: make([]*FileDiff, 0, len(files)),
	}
	for _, f := range files {
		parsed.files = append(parsed.files, convertFileDiff(f))
	}

	return parsed, nil
}

// Files returns an iterator over all file diffs with their indices.
func (d *ParsedDiff) Files() iter.Seq2[int, *FileDiff] {
	return func(yield func(int, *FileDiff) bool) {
		for i, f := range d.files {
			if !yield(i, f) {
				return
			}
		}
	}
}

// FileCount returns the number of files in the diff.
func (d *ParsedDiff) FileCount() int {
	return len(d.files)
}

// FileByPath finds a file diff by either of its paths.
func (d *ParsedDiff) FileByPath(path string) *FileDiff {
	for _, f := range d.files {
		if f.Path() == path || f.OldName == path || f.NewName == path {
			return f
		}
	}

	return nil
}

// Stats returns total addition and deletion counts across all files.
func (d *ParsedDiff) Stats() (added, deleted int) {
	for _, f := range d.files {
		a, del := f.Stats()
		added += a
		deleted += del
	}

	return added, deleted
}

// convertFileDiff converts from go-diff types to our types.
func convertFileDiff(f *godiff.FileDiff) *FileDiff {
	oldName, newName := stripPrefix(f.OrigName), stripPrefix(f.NewName)

	// Mode-only, empty and binary changes carry no ---/+++ lines; the
	// paths only appear in the "diff --git" header.
	if oldName == "" && newName == "" {
		oldName, newName = headerPaths(f.Extended)
	}

	fd := &FileDiff{
		OldName:   oldName,
		NewName:   newName,
		IsNew:     f.OrigName == "/dev/null",
		IsDeleted: f.NewName == "/dev/null",
	}

	for _, ex := range f.Extended {
		switch {
		case strings.HasPrefix(ex, "new file mode"):
			fd.IsNew = true

		case strings.HasPrefix(ex, "deleted file mode"):
			fd.IsDeleted = true

		case strings.HasPrefix(ex, "old mode"):
			fd.ModeChanged = true

		case strings.HasPrefix(ex, "Binary files"),
			strings.HasPrefix(ex, "GIT binary patch"):

			fd.IsBinary = true
		}
	}

	switch {
	case fd.IsDeleted:
		fd.NewName = fd.OldName

	case fd.IsNew:
		fd.OldName = fd.NewName

	case fd.OldName != fd.NewName:
		fd.IsRenamed = true
	}

	for _, h := range f.Hunks {
		fd.Hunks = append(fd.Hunks, convertHunk(h))
	}

	return fd
}

// convertHunk converts a go-diff Hunk to our Hunk type with line numbers.
func convertHunk(h *godiff.Hunk) *Hunk {
	hunk := &Hunk{
		OldStart: int(h.OrigStartLine),
		OldLines: int(h.OrigLines),
		NewStart: int(h.NewStartLine),
		NewLines: int(h.NewLines),
		Section:  h.Section,
	}

	oldLine := hunk.OldStart
	newLine := hunk.NewStart

	// go-diff drops git's "\ No newline at end of file" markers. It
	// records the old side's as a body offset and leaves the new side's
	// as a body without a final newline.
	offset := 0
	for _, raw := range bytes.SplitAfter(h.Body, []byte("\n")) {
		offset += len(raw)

		lineBytes := bytes.TrimSuffix(raw, []byte("\n"))
		if len(lineBytes) == 0 {
			continue
		}

		content := string(lineBytes[1:])

		var dl Line
		switch lineBytes[0] {
		case ' ':
			dl = Line{
				Op:         OpContext,
				Content:    content,
				OldLineNum: oldLine,
				NewLineNum: newLine,
			}
			oldLine++
			newLine++

		case '+':
			dl = Line{Op: OpAdd, Content: content, NewLineNum: newLine}
			newLine++

		case '-':
			dl = Line{Op: OpDelete, Content: content, OldLineNum: oldLine}
			oldLine++

			if int(h.OrigNoNewlineAt) == offset {
				dl.NoNewline = true
			}

		default:
			continue
		}

		hunk.Lines = append(hunk.Lines, dl)
	}

	body := h.Body
	if n := len(hunk.Lines); n > 0 && len(body) > 0 &&
		body[len(body)-1] != '\n' {

		hunk.Lines[n-1].NoNewline = true
	}

	return hunk
}

// headerPaths pulls the two paths out of a "diff --git a/x b/y" line.
func headerPaths(extended []string) (string, string) {
	for _, ex := range extended {
		rest, ok := strings.CutPrefix(ex, "diff --git ")
		if !ok {
			continue
		}

		// Paths with spaces are ambiguous here; split on " b/".
		if i := strings.Index(rest, " b/"); i >= 0 {
			return stripPrefix(rest[:i]), stripPrefix(rest[i+1:])
		}
	}

	return "", ""
}

// stripPrefix removes the "a/" or "b/" prefix from git diff paths.
func stripPrefix(path string) string {
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}

	return path
}
