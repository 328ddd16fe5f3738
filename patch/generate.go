// Package patch renders pieces of a parsed diff back into patches that
// `git apply --cached` accepts.
package patch

import (
	"bytes"
	"fmt"

	"github.com/roasbeef/histedit/diff"
)

// GenerateForHunk creates a patch for a single hunk, numbered as in the
// original diff.
func GenerateForHunk(file *diff.FileDiff, hunk *diff.Hunk) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, file)
	writeHunk(&buf, hunk)

	return buf.Bytes()
}

// GenerateStacked creates a patch for file.Hunks[index] that applies once
// every earlier hunk of the file has been applied. Only the old side moves:
// each earlier hunk shifts it by the lines it added minus those it removed.
func GenerateStacked(file *diff.FileDiff, index int) ([]byte, error) {
	if index < 0 || index >= len(file.Hunks) {
		return nil, fmt.Errorf("hunk %d out of range for %s (%d hunks)",
			index, file.Path(), len(file.Hunks))
	}

	shift := 0
	for _, h := range file.Hunks[:index] {
		shift += h.NewLines - h.OldLines
	}

	hunk := *file.Hunks[index]
	hunk.OldStart += shift

	var buf bytes.Buffer
	writeHeader(&buf, file)
	writeHunk(&buf, &hunk)

	return buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, file *diff.FileDiff) {
	fmt.Fprintf(buf, "--- a/%s\n", file.OldName)
	fmt.Fprintf(buf, "+++ b/%s\n", file.NewName)
}

func writeHunk(buf *bytes.Buffer, hunk *diff.Hunk) {
	buf.WriteString(hunk.Header())
	buf.WriteByte('\n')

	for _, line := range hunk.Lines {
		buf.WriteString(line.String())
		buf.WriteByte('\n')
	}
}
