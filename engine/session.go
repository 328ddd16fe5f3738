package engine

import (
	"context"
	"fmt"

	"github.com/roasbeef/histedit/git"
)

const (
	// StartRef holds HEAD as it was before the first rewrite of a session.
	// It survives across processes until the session is ended.
	StartRef = "refs/histedit/start"

	// BookmarkRef holds a result the user marked as worth returning to.
	BookmarkRef = "refs/histedit/best"
)

// recordStart saves the job's original HEAD as the session start unless a
// session is already open. Failing to record it does not stop the run.
func (e *Executor) recordStart(ctx context.Context, j *job) {
	created, err := j.repo.CreateRef(
		ctx, StartRef, j.orig, "histedit: session start",
	)
	switch {
	case err != nil:
		j.log.Warnf("Unable to record session start: %v", err)

	case created:
		j.log.WithField("sha", short(j.orig)).Debug(
			"Session start recorded",
		)
	}
}

// readRef opens the repository and resolves one of the session refs.
func (e *Engine) readRef(
	ctx context.Context, repoPath, ref string,
) (string, bool, error) {

	repo, err := git.Open(ctx, e.exec.cfg.Runner, repoPath)
	if err != nil {
		return "", false, err
	}

	return repo.ReadRef(ctx, ref)
}

// SessionStart returns HEAD as it was before the first rewrite of the open
// session. The boolean is false when no rewrite has run since the session
// was last ended.
func (e *Engine) SessionStart(
	ctx context.Context, repoPath string,
) (string, bool, error) {

	return e.readRef(ctx, repoPath, StartRef)
}

// RestoreSessionStart hard resets the repository to the session start.
func (e *Engine) RestoreSessionStart(
	ctx context.Context, repoPath string,
) (<-chan Outcome, error) {

	return e.resetToRef(ctx, repoPath, StartRef, "no session start recorded")
}

// Bookmark returns the commit last marked with Mark.
func (e *Engine) Bookmark(
	ctx context.Context, repoPath string,
) (string, bool, error) {

	return e.readRef(ctx, repoPath, BookmarkRef)
}

// Mark bookmarks the current HEAD and returns it.
func (e *Engine) Mark(ctx context.Context, repoPath string) (string, error) {
	repo, err := git.Open(ctx, e.exec.cfg.Runner, repoPath)
	if err != nil {
		return "", err
	}

	head, err := repo.HeadSha(ctx)
	if err != nil {
		return "", err
	}
	err = repo.UpdateRef(ctx, BookmarkRef, head, "histedit: mark")
	if err != nil {
		return "", err
	}

	return head, nil
}

// RestoreBookmark hard resets the repository to the bookmarked commit.
func (e *Engine) RestoreBookmark(
	ctx context.Context, repoPath string,
) (<-chan Outcome, error) {

	return e.resetToRef(ctx, repoPath, BookmarkRef, "no bookmark set")
}

// EndSession forgets the session start and the bookmark. The next rewrite
// opens a new session.
func (e *Engine) EndSession(ctx context.Context, repoPath string) error {
	repo, err := git.Open(ctx, e.exec.cfg.Runner, repoPath)
	if err != nil {
		return err
	}

	for _, ref := range []string{StartRef, BookmarkRef} {
		if err := repo.DeleteRef(ctx, ref); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) resetToRef(
	ctx context.Context, repoPath, ref, missing string,
) (<-chan Outcome, error) {

	_, ok, err := e.readRef(ctx, repoPath, ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s in %s", missing, repoPath)
	}

	return e.Reset(ctx, repoPath, ref)
}
