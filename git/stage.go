package git

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
)

// Author is who wrote a commit and when.
type Author struct {
	Name  string
	Email string
	Date  time.Time
}

// env returns the variables that make git record the author.
func (a Author) env() []string {
	if a.Name == "" {
		return nil
	}

	return []string{
		"GIT_AUTHOR_NAME=" + a.Name,
		"GIT_AUTHOR_EMAIL=" + a.Email,
		"GIT_AUTHOR_DATE=" + a.Date.Format(time.RFC3339),
	}
}

// literalPath turns path into a pathspec that matches it exactly, relative
// to the top of the working tree.
func literalPath(path string) string {
	return ":(top,literal)" + path
}

// ResetIndex moves HEAD to rev and resets the index to it, leaving the
// worktree alone.
func (r *Repo) ResetIndex(ctx context.Context, rev string) error {
	_, err := r.run(ctx, nil, "reset", "--quiet", "--mixed", rev)
	if err != nil {
		return fmt.Errorf("failed to reset index to %s: %w", rev, err)
	}

	return nil
}

// StagePaths stages every worktree change under the given paths, additions
// and removals included. Ignore rules do not apply: the paths are named
// explicitly.
func (r *Repo) StagePaths(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	args := []string{"add", "--all", "--force", "--"}
	for _, p := range paths {
		args = append(args, literalPath(p))
	}

	if _, err := r.run(ctx, nil, args...); err != nil {
		return fmt.Errorf("failed to stage %s: %w",
			strings.Join(paths, ", "), err)
	}

	return nil
}

// ApplyCached applies a patch to the index only.
func (r *Repo) ApplyCached(ctx context.Context, patch []byte) error {
	_, err := r.run(
		ctx, bytes.NewReader(patch), "apply", "--cached", "--recount", "-",
	)
	if err != nil {
		return fmt.Errorf("failed to stage patch: %w", err)
	}

	return nil
}

// TreeOf returns the tree a revision points at.
func (r *Repo) TreeOf(ctx context.Context, rev string) (string, error) {
	out, err := r.run(ctx, nil, "rev-parse", "--verify", rev+"^{tree}")
	if err != nil {
		return "", fmt.Errorf("failed to resolve tree of %s: %w", rev, err)
	}

	return strings.TrimSpace(out), nil
}

// CommitIndex records the index as a new commit on HEAD with message and
// author. Hooks are skipped and the message is kept as written apart from
// surrounding whitespace.
func (r *Repo) CommitIndex(
	ctx context.Context, message string, author Author,
) error {

	args := []string{
		"commit", "--quiet", "--no-verify", "--allow-empty",
		"--cleanup=whitespace", "--file=-",
	}
	res, err := r.Exec(ctx, Invocation{
		Args:  args,
		Env:   author.env(),
		Stdin: strings.NewReader(message),
	})
	if err != nil {
		return err
	}
	if !res.Success() {
		return fmt.Errorf("failed to commit: %w", &CommandError{
			Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr,
		})
	}

	return nil
}

// AmendIndex folds the index into HEAD, keeping its message and author.
func (r *Repo) AmendIndex(ctx context.Context) error {
	_, err := r.run(
		ctx, nil, "commit", "--quiet", "--no-verify", "--amend",
		"--no-edit", "--allow-empty",
	)
	if err != nil {
		return fmt.Errorf("failed to amend: %w", err)
	}

	return nil
}
