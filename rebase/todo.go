package rebase

import (
	"bufio"
	"strings"
)

// TodoEntry represents a single entry in a git rebase todo or done file.
type TodoEntry struct {
	// Op is the rebase operation (pick, squash, etc.).
	Op Op

	// Commit is the commit hash as written in the file.
	Commit string

	// Subject is the commit subject line.
	Subject string
}

// ParseTodoFile parses a git rebase todo file into entries.
// Ignores comments (lines starting with #), empty lines and instructions
// histedit never emits, such as exec or label.
func ParseTodoFile(content string) []TodoEntry {
	var entries []TodoEntry

	scanner := bufio.NewScanner(strings.NewReader(content))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, ok := ParseTodoLine(line)
		if ok {
			entries = append(entries, entry)
		}
	}

	return entries
}

// ParseTodoLine parses a single line like "pick abc1234 commit message".
// Option tokens between the keyword and the sha, as in "fixup -C abc1234",
// are skipped.
func ParseTodoLine(line string) (TodoEntry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return TodoEntry{}, false
	}

	op := expandShortOp(strings.ToLower(fields[0]))
	if !op.Valid() {
		return TodoEntry{}, false
	}

	rest := fields[1:]
	for len(rest) > 0 && strings.HasPrefix(rest[0], "-") {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return TodoEntry{}, false
	}

	return TodoEntry{
		Op:      op,
		Commit:  rest[0],
		Subject: strings.Join(rest[1:], " "),
	}, true
}
