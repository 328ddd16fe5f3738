package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roasbeef/histedit/git"
)

// exit is everything known about how the git process ended.
type exit struct {
	// ctxErr is the context's error after the process returned.
	ctxErr error

	// runErr is a failure to start or wait on the process.
	runErr error

	// splitErr is a failure to break up the commit git stopped at.
	splitErr error

	// result is the process result, nil if it never ran.
	result *git.Result

	// inProgress is whether rebase state is still on disk afterwards.
	inProgress bool
}

// conflictReports are the prefixes of the lines git writes when a pick
// fails to apply. Only line starts are matched: commit summaries such as
// "[detached HEAD abc1234] <subject>" echo user text.
var conflictReports = []string{
	"CONFLICT (",
	"error: could not apply",
	"could not apply",
	"Could not apply",
}

// isConflictReport reports whether a single output line is git's own
// conflict report.
func isConflictReport(line string) bool {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "[") {
		return false
	}
	for _, p := range conflictReports {
		if strings.HasPrefix(line, p) {
			return true
		}
	}

	return false
}

// classify maps a finished process onto a halt. It is pure so every branch
// can be tested without git.
func classify(e exit) Halt {
	switch {
	case e.ctxErr != nil:
		return HaltCancelled

	case e.runErr != nil, e.splitErr != nil:
		return HaltCrashed

	case e.result == nil:
		return HaltCrashed

	case e.result.ExitCode != 0:
		return HaltConflict

	case hasConflictText(e.result.Output()):
		return HaltConflict

	// git exits zero when it stops at an edit step.
	case e.inProgress:
		return HaltConflict

	default:
		return HaltSucceeded
	}
}

func hasConflictText(out string) bool {
	for _, line := range strings.Split(out, "\n") {
		if isConflictReport(line) {
			return true
		}
	}

	return false
}

// describe builds the diagnostic message of an outcome.
func describe(h Halt, e exit, stoppedAt string) string {
	switch h {
	case HaltSucceeded:
		return "rewrite complete"

	case HaltCancelled:
		if errors.Is(e.ctxErr, context.DeadlineExceeded) {
			return "rewrite timed out"
		}

		return "rewrite cancelled"

	case HaltCrashed:
		if e.splitErr != nil {
			return fmt.Sprintf("split failed: %v", e.splitErr)
		}
		if e.runErr != nil {
			return fmt.Sprintf("git could not run: %v", e.runErr)
		}

		return "git could not run"
	}

	out := ""
	if e.result != nil {
		out = e.result.Output()
	}

	var sb strings.Builder
	switch {
	case hasConflictText(out):
		sb.WriteString("conflict while replaying")

	case e.result != nil && e.result.ExitCode != 0:
		fmt.Fprintf(&sb, "git rebase exited with status %d",
			e.result.ExitCode)

	default:
		sb.WriteString("rebase stopped before finishing")
	}
	if stoppedAt != "" {
		fmt.Fprintf(&sb, " at %s", short(stoppedAt))
	}
	if line := firstErrorLine(out); line != "" {
		sb.WriteString(": ")
		sb.WriteString(line)
	}

	return sb.String()
}

// firstErrorLine picks the most useful line of git's output.
func firstErrorLine(out string) string {
	var fallback string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "hint:") {
			continue
		}
		if isConflictReport(line) {
			return line
		}
		if fallback == "" && (strings.HasPrefix(line, "error:") ||
			strings.HasPrefix(line, "fatal:")) {

			fallback = line
		}
	}

	return fallback
}
