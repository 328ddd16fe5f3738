package diff

import (
	"fmt"
	"iter"
)

// Hunk represents a contiguous block of changes in a file.
type Hunk struct {
	// OldStart is the starting line in the original file.
	OldStart int

	// OldLines is the number of lines from the original file.
	OldLines int

	// NewStart is the starting line in the new file.
	NewStart int

	// NewLines is the number of lines in the new file.
	NewLines int

	// Section is the optional section header (e.g., function name).
	Section string

	// Lines contains all lines in this hunk.
	Lines []Line
}

// Header returns the hunk header in unified diff format.
func (h *Hunk) Header() string {
	header := fmt.Sprintf(
		"@@ -%d,%d +%d,%d @@",
		h.OldStart, h.OldLines, h.NewStart, h.NewLines,
	)

	if h.Section != "" {
		header += " " + h.Section
	}

	return header
}

// Changes returns an iterator over only changed lines (add/delete).
func (h *Hunk) Changes() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		for _, line := range h.Lines {
			if line.Op == OpContext {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// Stats returns addition and deletion counts.
func (h *Hunk) Stats() (added, deleted int) {
	for line := range h.Changes() {
		switch line.Op {
		case OpAdd:
			added++
		case OpDelete:
			deleted++
		}
	}

	return added, deleted
}

// RecalculateLineCounts updates OldLines and NewLines based on Lines slice.
func (h *Hunk) RecalculateLineCounts() {
	h.OldLines = 0
	h.NewLines = 0

	for _, line := range h.Lines {
		switch line.Op {
		case OpContext:
			h.OldLines++
			h.NewLines++
		case OpAdd:
			h.NewLines++
		case OpDelete:
			h.OldLines++
		}
	}
}
