package git

import (
	"context"
	"fmt"
	"strings"
)

// ReadRef returns the commit ref points at. The boolean is false when the
// ref does not exist.
func (r *Repo) ReadRef(ctx context.Context, ref string) (string, bool, error) {
	args := []string{"rev-parse", "--verify", "--quiet", ref + "^{commit}"}
	res, err := r.Exec(ctx, Invocation{Args: args})
	if err != nil {
		return "", false, err
	}

	switch res.ExitCode {
	case 0:
		return strings.TrimSpace(res.Stdout), true, nil
	case 1:
		return "", false, nil
	default:
		return "", false, &CommandError{
			Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr,
		}
	}
}

// UpdateRef points ref at sha, logging reason in the ref's reflog.
func (r *Repo) UpdateRef(ctx context.Context, ref, sha, reason string) error {
	_, err := r.run(ctx, nil, "update-ref", "-m", reason, ref, sha)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", ref, err)
	}

	return nil
}

// CreateRef points ref at sha only if the ref does not exist yet. It
// reports whether the ref was created.
func (r *Repo) CreateRef(
	ctx context.Context, ref, sha, reason string,
) (bool, error) {

	// An all-zero old value makes update-ref refuse to overwrite.
	args := []string{
		"update-ref", "-m", reason, ref, sha, strings.Repeat("0", 40),
	}
	res, err := r.Exec(ctx, Invocation{Args: args})
	if err != nil {
		return false, err
	}
	if res.Success() {
		return true, nil
	}

	if _, ok, readErr := r.ReadRef(ctx, ref); readErr == nil && ok {
		return false, nil
	}

	return false, fmt.Errorf("failed to create %s: %w", ref, &CommandError{
		Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr,
	})
}

// DeleteRef removes ref. A missing ref is not an error.
func (r *Repo) DeleteRef(ctx context.Context, ref string) error {
	if _, ok, err := r.ReadRef(ctx, ref); err != nil || !ok {
		return err
	}

	_, err := r.run(ctx, nil, "update-ref", "-d", ref)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", ref, err)
	}

	return nil
}
