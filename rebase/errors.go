package rebase

import "fmt"

// IndexOutOfRangeError is returned when a plan edit names a step that does
// not exist.
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("step index %d out of range [0, %d)", e.Index, e.Len)
}

// NoPredecessorError is returned when a squash or fixup step has no
// retained commit directly before it to fold into.
type NoPredecessorError struct {
	Index int
	Op    Op
}

func (e *NoPredecessorError) Error() string {
	if e.Index == 0 {
		return fmt.Sprintf(
			"step %d: cannot %s the first commit: no previous commit "+
				"to combine with", e.Index, e.Op,
		)
	}

	return fmt.Sprintf(
		"step %d: cannot %s into a dropped commit", e.Index, e.Op,
	)
}

// InvalidStepError is returned when a step's op or message cannot be
// honoured.
type InvalidStepError struct {
	Index  int
	Reason string
}

func (e *InvalidStepError) Error() string {
	return fmt.Sprintf("step %d: %s", e.Index, e.Reason)
}
