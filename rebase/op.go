// Package rebase models a history rewrite as an immutable plan and compiles
// it into the todo list git's interactive rebase consumes.
package rebase

import "fmt"

// Op is a rebase operation. Its string form is git's literal todo keyword.
type Op string

const (
	OpPick   Op = "pick"
	OpReword Op = "reword"
	OpEdit   Op = "edit"
	OpSquash Op = "squash"
	OpFixup  Op = "fixup"
	OpDrop   Op = "drop"
)

// Valid returns true if the op is recognized.
func (o Op) Valid() bool {
	switch o {
	case OpPick, OpReword, OpEdit, OpSquash, OpFixup, OpDrop:
		return true
	default:
		return false
	}
}

// ShortForm returns the single-letter abbreviation for the op.
func (o Op) ShortForm() string {
	switch o {
	case OpPick:
		return "p"
	case OpReword:
		return "r"
	case OpEdit:
		return "e"
	case OpSquash:
		return "s"
	case OpFixup:
		return "f"
	case OpDrop:
		return "d"
	default:
		return string(o)
	}
}

// Melds reports whether the op folds its commit into the preceding
// retained commit.
func (o Op) Melds() bool {
	return o == OpSquash || o == OpFixup
}

// Retained reports whether the op keeps the commit's changes.
func (o Op) Retained() bool {
	return o != OpDrop
}

// AcceptsMessage reports whether a message override means anything for the
// op. Pick accepts one by becoming a reword.
func (o Op) AcceptsMessage() bool {
	switch o {
	case OpPick, OpReword, OpSquash, OpFixup:
		return true
	default:
		return false
	}
}

// ParseOp parses a todo keyword or its single-letter abbreviation.
func ParseOp(s string) (Op, error) {
	op := expandShortOp(s)
	if !op.Valid() {
		return "", fmt.Errorf("unknown operation: %q", s)
	}

	return op, nil
}

// expandShortOp expands single-letter op abbreviations.
func expandShortOp(s string) Op {
	switch s {
	case "p", "pick":
		return OpPick
	case "r", "reword":
		return OpReword
	case "e", "edit":
		return OpEdit
	case "s", "squash":
		return OpSquash
	case "f", "fixup":
		return OpFixup
	case "d", "drop":
		return OpDrop
	default:
		return Op(s)
	}
}
