// Package diff parses the unified diffs git prints for a commit into files,
// hunks and lines.
package diff

// LineOp represents the type of diff operation for a line.
type LineOp int

const (
	// OpContext indicates an unchanged line (context).
	OpContext LineOp = iota
	// OpAdd indicates an added line.
	OpAdd
	// OpDelete indicates a deleted line.
	OpDelete
)

// String returns the string representation of the operation.
func (op LineOp) String() string {
	switch op {
	case OpContext:
		return "context"
	case OpAdd:
		return "add"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Prefix returns the diff prefix character for the operation.
func (op LineOp) Prefix() byte {
	switch op {
	case OpAdd:
		return '+'
	case OpDelete:
		return '-'
	default:
		return ' '
	}
}

// noNewlineMarker follows a line that ends its file without a newline.
const noNewlineMarker = `\ No newline at end of file`

// Line represents a single line in a diff hunk.
type Line struct {
	// Op is the type of operation (context, add, delete).
	Op LineOp

	// Content is the line content without the prefix (+/-/space).
	Content string

	// OldLineNum is the line number in the original file.
	// Zero if this is an added line.
	OldLineNum int

	// NewLineNum is the line number in the new file.
	// Zero if this is a deleted line.
	NewLineNum int

	// NoNewline is set when the line is the last of its side and has no
	// trailing newline.
	NoNewline bool
}

// String returns the line in unified diff format, including git's marker
// line when the content has no trailing newline.
func (l Line) String() string {
	s := string(l.Op.Prefix()) + l.Content
	if l.NoNewline {
		s += "\n" + noNewlineMarker
	}

	return s
}

// IsChange returns true if this line represents a change (add or delete).
func (l Line) IsChange() bool {
	return l.Op == OpAdd || l.Op == OpDelete
}
