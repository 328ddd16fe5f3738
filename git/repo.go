package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Repo runs plumbing commands against one repository through a Runner.
type Repo struct {
	runner Runner

	// Root is the absolute path of the working tree top level.
	Root string

	// GitDir is the absolute path of the repository's git directory. For
	// linked worktrees this is the per-worktree directory, which is where
	// rebase state lives.
	GitDir string
}

// Open locates the repository containing path. A path that does not exist
// or that git does not recognise yields a NotARepositoryError.
func Open(ctx context.Context, runner Runner, path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, &NotARepositoryError{Path: abs, Detail: err.Error()}
	}
	if !info.IsDir() {
		return nil, &NotARepositoryError{
			Path: abs, Detail: "not a directory",
		}
	}

	args := []string{"rev-parse", "--show-toplevel", "--absolute-git-dir"}
	res, err := runner.Run(ctx, Invocation{Dir: abs, Args: args})
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, &NotARepositoryError{
			Path: abs, Detail: strings.TrimSpace(res.Stderr),
		}
	}

	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	if len(lines) != 2 {
		// Bare repositories have no top level; histedit needs a worktree.
		return nil, &NotARepositoryError{
			Path: abs, Detail: "no working tree",
		}
	}

	return &Repo{
		runner: runner,
		Root:   strings.TrimSpace(lines[0]),
		GitDir: strings.TrimSpace(lines[1]),
	}, nil
}

// Runner returns the runner the repo was opened with.
func (r *Repo) Runner() Runner {
	return r.runner
}

// Exec runs an arbitrary invocation rooted at the working tree. Non-zero
// exits are returned in the Result rather than as errors.
func (r *Repo) Exec(ctx context.Context, inv Invocation) (*Result, error) {
	if inv.Dir == "" {
		inv.Dir = r.Root
	}

	return r.runner.Run(ctx, inv)
}

// run executes a git command and returns its stdout, treating any non-zero
// exit as an error.
func (r *Repo) run(
	ctx context.Context, stdin io.Reader, args ...string,
) (string, error) {

	res, err := r.Exec(ctx, Invocation{Args: args, Stdin: stdin})
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", &CommandError{
			Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr,
		}
	}

	return res.Stdout, nil
}

// HeadSha returns the full sha HEAD points at.
func (r *Repo) HeadSha(ctx context.Context) (string, error) {
	out, err := r.run(ctx, nil, "rev-parse", "--verify", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	return strings.TrimSpace(out), nil
}

// ResolveCommit resolves rev to a full commit sha. The boolean is false
// when rev does not name a commit.
func (r *Repo) ResolveCommit(
	ctx context.Context, rev string,
) (string, bool, error) {

	args := []string{"rev-parse", "--verify", "--quiet", rev + "^{commit}"}
	res, err := r.Exec(ctx, Invocation{Args: args})
	if err != nil {
		return "", false, err
	}
	if !res.Success() {
		return "", false, nil
	}

	return strings.TrimSpace(res.Stdout), true, nil
}

// IsAncestor reports whether ancestor is reachable from descendant. A
// commit counts as its own ancestor.
func (r *Repo) IsAncestor(
	ctx context.Context, ancestor, descendant string,
) (bool, error) {

	args := []string{"merge-base", "--is-ancestor", ancestor, descendant}
	res, err := r.Exec(ctx, Invocation{Args: args})
	if err != nil {
		return false, err
	}

	switch res.ExitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, &CommandError{
			Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr,
		}
	}
}

// RootCommits returns the parentless commits reachable from HEAD, oldest
// first.
func (r *Repo) RootCommits(ctx context.Context) ([]string, error) {
	out, err := r.run(
		ctx, nil, "rev-list", "--max-parents=0", "--reverse", "HEAD",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list root commits: %w", err)
	}

	return strings.Fields(out), nil
}

// CurrentBranch returns the checked out branch name, or "" when HEAD is
// detached.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, nil, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("failed to read current branch: %w", err)
	}

	return strings.TrimSpace(out), nil
}

// Status returns the current repository status.
func (r *Repo) Status(ctx context.Context) (*RepoStatus, error) {
	out, err := r.run(ctx, nil, "status", "--porcelain", "-z")
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}

	return parseStatus(out), nil
}

// parseStatus decodes `git status --porcelain -z` output.
func parseStatus(out string) *RepoStatus {
	status := &RepoStatus{}

	entries := strings.Split(out, "\x00")
	for i := 0; i < len(entries); i++ {
		entry := entries[i]
		if len(entry) < 4 {
			continue
		}

		x, y := entry[0], entry[1]
		path := entry[3:]

		// Renames and copies carry their source path as the next entry.
		if x == 'R' || x == 'C' {
			i++
		}

		if desc, ok := conflictTypes[entry[:2]]; ok {
			status.ConflictedFiles = append(
				status.ConflictedFiles,
				ConflictInfo{Path: path, ConflictType: desc},
			)

			continue
		}

		switch {
		case x == '?':
			status.UntrackedFiles = append(status.UntrackedFiles, path)

		default:
			if x != ' ' && x != '!' {
				status.StagedFiles = append(status.StagedFiles, path)
			}
			if y != ' ' && y != '!' {
				status.UnstagedFiles = append(
					status.UnstagedFiles, path,
				)
			}
		}
	}

	return status
}

// conflictTypes maps unmerged XY status codes to descriptions.
var conflictTypes = map[string]string{
	"DD": "both deleted",
	"AU": "added by us",
	"UD": "deleted by them",
	"UA": "added by them",
	"DU": "deleted by us",
	"AA": "both added",
	"UU": "both modified",
}

// EnsureClean returns a DirtyWorktreeError when tracked files have staged
// or unstaged changes.
func (r *Repo) EnsureClean(ctx context.Context) error {
	status, err := r.Status(ctx)
	if err != nil {
		return err
	}
	if status.Clean() {
		return nil
	}

	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}
	for _, f := range status.StagedFiles {
		add(f)
	}
	for _, f := range status.UnstagedFiles {
		add(f)
	}
	for _, c := range status.ConflictedFiles {
		add(c.Path)
	}

	return &DirtyWorktreeError{Files: files}
}

// ResetHard moves the current branch and worktree to sha.
func (r *Repo) ResetHard(ctx context.Context, sha string) error {
	_, err := r.run(ctx, nil, "reset", "--hard", "--quiet", sha)
	if err != nil {
		return fmt.Errorf("failed to reset to %s: %w", sha, err)
	}

	return nil
}

// RebaseAbort aborts the in-progress rebase.
func (r *Repo) RebaseAbort(ctx context.Context) error {
	_, err := r.run(ctx, nil, "rebase", "--abort")
	if err != nil {
		return fmt.Errorf("failed to abort rebase: %w", err)
	}

	return nil
}

// RebaseQuit drops the rebase bookkeeping without touching HEAD or the
// worktree.
func (r *Repo) RebaseQuit(ctx context.Context) error {
	_, err := r.run(ctx, nil, "rebase", "--quit")
	if err != nil {
		return fmt.Errorf("failed to quit rebase: %w", err)
	}

	return nil
}

// ForceCheckout switches to branch, discarding worktree changes.
func (r *Repo) ForceCheckout(ctx context.Context, branch string) error {
	_, err := r.run(ctx, nil, "checkout", "--force", "--quiet", branch)
	if err != nil {
		return fmt.Errorf("failed to check out %s: %w", branch, err)
	}

	return nil
}

// CommitDiff returns the patch a commit introduced relative to its first
// parent. Root commits diff against the empty tree.
func (r *Repo) CommitDiff(ctx context.Context, sha string) (string, error) {
	out, err := r.run(
		ctx, nil, "show", "--format=", "--no-color", "--no-ext-diff",
		"--first-parent", "--no-renames", sha,
	)
	if err != nil {
		return "", fmt.Errorf("failed to get diff for %s: %w", sha, err)
	}

	return out, nil
}

// IsNotARepository reports whether err is a NotARepositoryError.
func IsNotARepository(err error) bool {
	var target *NotARepositoryError

	return errors.As(err, &target)
}
