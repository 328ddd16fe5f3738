package engine

import (
	"context"
	"fmt"

	"github.com/roasbeef/histedit/diff"
	"github.com/roasbeef/histedit/git"
	"github.com/roasbeef/histedit/history"
	"github.com/roasbeef/histedit/patch"
	"github.com/roasbeef/histedit/rebase"
)

// Split describes how to break one commit of a plan apart.
type Split struct {
	// Step is the plan index of the commit to split.
	Step int

	// Path, when set, moves that file's changes into a new commit right
	// after the original, which keeps everything else and its message.
	// When empty, every hunk becomes its own commit; files that cannot be
	// patched piecewise go whole.
	Path string
}

// splitJob is the split half of a job.
type splitJob struct {
	commit history.Commit
	path   string
}

// splitPart is one commit of a split: what to stage and the message.
type splitPart struct {
	message string

	// Exactly one of patch and paths is set.
	patch []byte
	paths []string
}

func (p splitPart) stage(ctx context.Context, repo *git.Repo) error {
	if p.patch != nil {
		return repo.ApplyCached(ctx, p.patch)
	}

	return repo.StagePaths(ctx, p.paths...)
}

// preflightSplit validates a split and compiles the plan with the split
// step as an edit stop. Like preflight, it never mutates the repository.
func (e *Executor) preflightSplit(ctx context.Context, repo *git.Repo,
	plan rebase.Plan, split Split) (*job, error) {

	step, err := plan.Step(split.Step)
	if err != nil {
		return nil, err
	}

	invalid := func(reason string) error {
		return &rebase.InvalidStepError{Index: split.Step, Reason: reason}
	}
	switch {
	case step.Op != rebase.OpPick:
		return nil, invalid("only a picked commit can be split")

	case step.Commit.IsRoot():
		return nil, invalid("the root commit cannot be split")
	}
	if next, err := plan.Step(split.Step + 1); err == nil && next.Op.Melds() {
		return nil, invalid("a commit that others fold into cannot be split")
	}
	for i, s := range plan.Steps() {
		if s.Op == rebase.OpEdit {
			return nil, &rebase.InvalidStepError{
				Index:  i,
				Reason: "edit stops cannot be combined with a split",
			}
		}
	}

	edited, err := plan.SetOperation(split.Step, rebase.OpEdit)
	if err != nil {
		return nil, err
	}

	j, err := e.preflight(ctx, repo, edited)
	if err != nil {
		return nil, err
	}

	text, err := repo.CommitDiff(ctx, step.Commit.Sha)
	if err != nil {
		return nil, err
	}
	parsed, err := diff.Parse(text)
	if err != nil {
		return nil, err
	}
	parts, err := splitParts(parsed, step.Commit, split.Path)
	if err != nil {
		return nil, invalid(err.Error())
	}
	if len(parts) < 2 {
		return nil, invalid(fmt.Sprintf(
			"commit %s has a single change", step.Commit.ShortSha,
		))
	}

	j.split = &splitJob{commit: step.Commit, path: split.Path}

	return j, nil
}

// splitParts decides the commits a split produces, oldest first.
func splitParts(parsed *diff.ParsedDiff, c history.Commit,
	path string) ([]splitPart, error) {

	if path != "" {
		moved := parsed.FileByPath(path)
		if moved == nil {
			return nil, fmt.Errorf("commit %s does not change %s",
				c.ShortSha, path)
		}

		var rest []string
		for _, f := range parsed.Files() {
			if f != moved {
				rest = append(rest, f.Paths()...)
			}
		}
		if len(rest) == 0 {
			return nil, fmt.Errorf("%s is the only file commit %s "+
				"changes", path, c.ShortSha)
		}

		return []splitPart{
			{message: c.Message(), paths: rest},
			{
				message: fmt.Sprintf("%s changes moved out of %q",
					moved.Path(), c.Subject),
				paths: moved.Paths(),
			},
		}, nil
	}

	units := parsed.Units()
	parts := make([]splitPart, 0, len(units))
	for i, u := range units {
		part := splitPart{
			message: fmt.Sprintf("%s (%d/%d)", c.Subject, i+1, len(units)),
		}
		if i == 0 && c.Body != "" {
			part.message += "\n\n" + c.Body
		}

		if u.Hunk == nil {
			part.paths = u.File.Paths()
		} else {
			p, err := patch.GenerateStacked(u.File, u.HunkIndex)
			if err != nil {
				return nil, err
			}
			part.patch = p
		}

		parts = append(parts, part)
	}

	return parts, nil
}

// stoppedForSplit reports whether git stopped cleanly at the edit line of
// the split commit.
func stoppedForSplit(j *job, res *git.Result, runErr error) bool {
	if j.split == nil || runErr != nil || res == nil || !res.Success() {
		return false
	}
	if !j.repo.RebaseInProgress() {
		return false
	}

	return stoppedAt(j.repo, j.todo) == j.split.commit.Sha
}

// splitHead replaces the commit at HEAD, which git has just replayed, with
// the split's commits. The last commit's tree always equals the replaced
// commit's tree.
func splitHead(ctx context.Context, j *job) error {
	repo, c := j.repo, j.split.commit

	want, err := repo.TreeOf(ctx, "HEAD")
	if err != nil {
		return err
	}

	// The replayed commit can differ from the original when earlier steps
	// moved, so the parts are cut from its own diff.
	text, err := repo.CommitDiff(ctx, "HEAD")
	if err != nil {
		return err
	}
	parsed, err := diff.Parse(text)
	if err != nil {
		return err
	}
	parts, err := splitParts(parsed, c, j.split.path)
	if err != nil {
		return err
	}

	if err := repo.ResetIndex(ctx, "HEAD~"); err != nil {
		return err
	}

	author := git.Author{
		Name: c.AuthorName, Email: c.AuthorEmail, Date: c.AuthorDate,
	}
	for i, part := range parts {
		if err := part.stage(ctx, repo); err != nil {
			return fmt.Errorf("part %d of %d: %w", i+1, len(parts), err)
		}
		if err := repo.CommitIndex(ctx, part.message, author); err != nil {
			return fmt.Errorf("part %d of %d: %w", i+1, len(parts), err)
		}
	}

	got, err := repo.TreeOf(ctx, "HEAD")
	if err != nil {
		return err
	}
	if got == want {
		return nil
	}

	// Mode changes on patched files are not carried by their hunks.
	j.log.Debug("Folding leftover changes into the last split commit")
	if err := repo.StagePaths(ctx, parsed.Paths()...); err != nil {
		return err
	}
	if err := repo.AmendIndex(ctx); err != nil {
		return err
	}

	got, err = repo.TreeOf(ctx, "HEAD")
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("split commits do not add up to %s",
			short(c.Sha))
	}

	return nil
}
