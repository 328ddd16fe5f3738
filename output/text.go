package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/roasbeef/histedit/diffstat"
	"github.com/roasbeef/histedit/engine"
	"github.com/roasbeef/histedit/git"
	"github.com/roasbeef/histedit/history"
	"github.com/roasbeef/histedit/rebase"
)

// TextOptions configures text output formatting.
type TextOptions struct {
	// Color enables ANSI color codes.
	Color bool

	// Now anchors relative dates. Zero means the current time.
	Now time.Time
}

// DefaultTextOptions returns default text formatting options.
func DefaultTextOptions() TextOptions {
	return TextOptions{Color: true}
}

// paint returns a Sprintf-style func that colors its output when color is
// enabled.
func (o TextOptions) paint(attrs ...color.Attribute) func(string,
	...interface{}) string {

	c := color.New(attrs...)
	if o.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}

	return c.SprintfFunc()
}

func (o TextOptions) when(t time.Time) string {
	if t.IsZero() {
		return "unknown date"
	}
	if o.Now.IsZero() {
		return humanize.Time(t)
	}

	return humanize.RelTime(t, o.Now, "ago", "from now")
}

// FormatRangeText writes one line per commit, oldest first.
func FormatRangeText(
	w io.Writer, rng *history.Range, opts TextOptions,
) error {

	sha := opts.paint(color.FgYellow)
	dim := opts.paint(color.Faint)

	for i, c := range rng.Commits {
		marker := " "
		if c.IsMerge() {
			marker = "M"
		}

		_, err := fmt.Fprintf(w, "%3d %s %s %s %s\n",
			i, marker, sha("%s", c.ShortSha), c.Subject,
			dim("(%s, %s)", c.AuthorName, opts.when(c.AuthorDate)))
		if err != nil {
			return err
		}
	}

	base := "root"
	if !rng.Root {
		base = shortSha(rng.Upstream)
	}
	_, err := fmt.Fprintf(w, "\n%s on %s\n",
		plural(int64(len(rng.Commits)), "commit", "commits"), base)

	return err
}

// FormatPlanText writes the plan as the todo lines it would compile to,
// marking steps that carry a new message.
func FormatPlanText(w io.Writer, p rebase.Plan, opts TextOptions) error {
	sha := opts.paint(color.FgYellow)

	for i, s := range p.Steps() {
		line := fmt.Sprintf("%3d %s %s %s",
			i, opColor(opts, s.Op)("%-6s", s.Op),
			sha("%s", s.Commit.ShortSha), s.Commit.Subject)
		if s.NewMessage != "" {
			first, _, _ := strings.Cut(s.NewMessage, "\n")
			line += fmt.Sprintf(" -> %q", first)
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

func opColor(opts TextOptions, op rebase.Op) func(string,
	...interface{}) string {

	switch op {
	case rebase.OpDrop:
		return opts.paint(color.FgRed)
	case rebase.OpSquash, rebase.OpFixup:
		return opts.paint(color.FgMagenta)
	case rebase.OpReword, rebase.OpEdit:
		return opts.paint(color.FgCyan)
	default:
		return opts.paint(color.FgGreen)
	}
}

// FormatOutcomeText writes the result of an apply or reset.
func FormatOutcomeText(
	w io.Writer, out engine.Outcome, opts TextOptions,
) error {

	var status string
	switch out.Status {
	case engine.StatusSuccess:
		status = opts.paint(color.FgGreen, color.Bold)("%s", out.Status)
	case engine.StatusConflictStopped:
		status = opts.paint(color.FgYellow, color.Bold)("%s", out.Status)
	default:
		status = opts.paint(color.FgRed, color.Bold)("%s", out.Status)
	}

	fmt.Fprintf(w, "%s: %s\n", status, out.Message)

	switch {
	case out.NewHeadSha != "" && out.NewHeadSha != out.OrigHeadSha:
		fmt.Fprintf(w, "HEAD: %s -> %s\n",
			shortSha(out.OrigHeadSha), shortSha(out.NewHeadSha))

	case out.OrigHeadSha != "":
		fmt.Fprintf(w, "HEAD: %s\n", shortSha(out.OrigHeadSha))
	}

	if out.StoppedAtSha != "" {
		fmt.Fprintf(w, "Stopped at: %s\n", shortSha(out.StoppedAtSha))
	}

	_, err := fmt.Fprintf(w, "Took %s\n",
		out.Duration.Round(time.Millisecond))

	return err
}

// FormatStatText writes a per-file change summary in git's --stat style.
func FormatStatText(w io.Writer, stat *diffstat.Stat, opts TextOptions) error {
	green := opts.paint(color.FgGreen)
	red := opts.paint(color.FgRed)

	width := 0
	for _, f := range stat.Files() {
		width = max(width, len(displayPath(f)))
	}

	for _, f := range stat.Files() {
		var change string
		switch {
		case f.Binary:
			change = "Bin"
		default:
			change = fmt.Sprintf("%s %s",
				green("+%d", f.Added), red("-%d", f.Deleted))
		}

		tag := ""
		switch {
		case f.Created:
			tag = " (new)"
		case f.Removed:
			tag = " (gone)"
		}

		_, err := fmt.Fprintf(w, " %-*s | %s%s\n",
			width, displayPath(f), change, tag)
		if err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, " %s\n", stat.Summary())

	return err
}

func displayPath(f diffstat.File) string {
	if f.Renamed() {
		return f.OldPath + " => " + f.Path
	}

	return f.Path
}

// FormatRebaseStateText writes the state of an in-progress rebase.
func FormatRebaseStateText(
	w io.Writer, state *git.RebaseState, opts TextOptions,
) error {

	if !state.InProgress {
		_, err := fmt.Fprintln(w, "No rebase in progress.")
		return err
	}

	warn := opts.paint(color.FgYellow, color.Bold)
	fmt.Fprintf(w, "%s (%s)\n", warn("Rebase in progress"), state.State)

	if state.OriginalBranch != "" {
		fmt.Fprintf(w, "Branch: %s\n", state.OriginalBranch)
	}
	if state.OntoRef != "" {
		fmt.Fprintf(w, "Onto: %s\n", shortSha(state.OntoRef))
	}
	if state.TotalCount > 0 {
		fmt.Fprintf(w, "Progress: %d/%d\n",
			state.CompletedCount, state.TotalCount)
	}
	if state.CurrentAction != "" {
		fmt.Fprintf(w, "Current: %s\n", state.CurrentAction)
	}

	if len(state.Conflicts) > 0 {
		red := opts.paint(color.FgRed)
		fmt.Fprintln(w, "Conflicts:")
		for _, c := range state.Conflicts {
			fmt.Fprintf(w, "  %s %s\n", red("%s", c.ConflictType), c.Path)
		}
	}

	_, err := fmt.Fprintln(w, "Run 'histedit abort' to restore the "+
		"original branch.")

	return err
}

// FormatSessionText writes a session's saved commits.
func FormatSessionText(w io.Writer, refs SessionOutput, opts TextOptions) error {
	if refs.Start == "" && refs.Best == "" {
		_, err := fmt.Fprintln(w, "No session open.")
		return err
	}

	sha := opts.paint(color.FgYellow)
	for _, r := range []struct{ label, sha string }{
		{"Start", refs.Start},
		{"Best", refs.Best},
	} {
		if r.sha == "" {
			continue
		}
		fmt.Fprintf(w, "%-6s %s\n", r.label+":", sha("%s", r.sha))
	}

	return nil
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%s %s", humanize.Comma(n), one)
	}

	return fmt.Sprintf("%s %s", humanize.Comma(n), many)
}

func shortSha(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}

	return sha
}
