package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/roasbeef/histedit/git"
)

// shortShaLen is the shortest abbreviation the native backend hands out.
// Longer ones are used when another object shares the prefix.
const shortShaLen = 7

// NativeReader reads ranges in-process with go-git. It never launches git.
// A range with a boundary walks HEAD's history only down to the boundary's
// parent unless a merge reaches below it; the whole history is walked for
// root ranges.
type NativeReader struct{}

// NewNativeReader creates a go-git backed reader.
func NewNativeReader() *NativeReader {
	return &NativeReader{}
}

func openNative(repoPath string) (*gogit.Repository, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", repoPath, err)
	}

	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, &git.NotARepositoryError{Path: abs}
		}

		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return repo, nil
}

// Root returns the oldest parentless commit reachable from HEAD.
func (r *NativeReader) Root(
	ctx context.Context, repoPath string,
) (string, error) {

	repo, err := openNative(repoPath)
	if err != nil {
		return "", err
	}

	head, err := headHash(repo)
	if err != nil {
		return "", err
	}

	commits, err := ancestors(ctx, repo, head, plumbing.ZeroHash)
	if err != nil {
		return "", err
	}

	order := topoSort(commits)
	for _, c := range order {
		if len(c.ParentHashes) == 0 {
			return c.Hash.String(), nil
		}
	}

	return "", &RangeResolutionError{
		Boundary: "HEAD", Reason: "no root commit found",
	}
}

// ReadRange returns the commits from boundary to HEAD, oldest first.
func (r *NativeReader) ReadRange(
	ctx context.Context, repoPath, boundary string,
) (*Range, error) {

	repo, err := openNative(repoPath)
	if err != nil {
		return nil, err
	}

	head, err := headHash(repo)
	if err != nil {
		return nil, err
	}

	var (
		boundaryCommit *object.Commit
		included       map[plumbing.Hash]*object.Commit
	)
	if boundary == "" {
		included, err = ancestors(ctx, repo, head, plumbing.ZeroHash)
		if err != nil {
			return nil, err
		}
		for _, c := range topoSort(included) {
			if len(c.ParentHashes) == 0 {
				boundaryCommit = c
				break
			}
		}
		if boundaryCommit == nil {
			return nil, &RangeResolutionError{
				Boundary: "HEAD", Reason: "no root commit found",
			}
		}
	} else {
		boundaryCommit, included, err = boundedRange(
			ctx, repo, head, boundary,
		)
		if err != nil {
			return nil, err
		}
	}

	rng := &Range{
		Boundary: boundaryCommit.Hash.String(),
		Root:     len(boundaryCommit.ParentHashes) == 0,
		Head:     head.String(),
	}
	if !rng.Root {
		rng.Upstream = boundaryCommit.ParentHashes[0].String()
	}

	for _, c := range topoSort(included) {
		rng.Commits = append(rng.Commits, toCommit(repo, c))
	}

	return rng, nil
}

// boundedRange resolves boundary and returns it together with the commits
// reachable from head but not from the boundary's first parent.
func boundedRange(ctx context.Context, repo *gogit.Repository,
	head plumbing.Hash, boundary string) (*object.Commit,
	map[plumbing.Hash]*object.Commit, error) {

	hash, err := resolveRevision(repo, boundary)
	if err != nil {
		return nil, nil, &RangeResolutionError{
			Boundary: boundary, Reason: err.Error(),
		}
	}

	bc, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, nil, &RangeResolutionError{
			Boundary: boundary, Reason: "not a commit in this repository",
		}
	}

	upstream := plumbing.ZeroHash
	if len(bc.ParentHashes) > 0 {
		upstream = bc.ParentHashes[0]
	}

	walked, err := ancestors(ctx, repo, head, upstream)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := walked[bc.Hash]; !ok {
		return nil, nil, &RangeResolutionError{
			Boundary: boundary, Reason: "not an ancestor of HEAD",
		}
	}
	if upstream.IsZero() {
		return bc, walked, nil
	}

	// Every path that avoids the upstream ends at a root commit. If none
	// was reached, everything walked lies above the upstream.
	escaped := false
	for _, c := range walked {
		if len(c.ParentHashes) == 0 {
			escaped = true
			break
		}
	}
	if !escaped {
		return bc, walked, nil
	}

	excluded, err := ancestors(ctx, repo, upstream, plumbing.ZeroHash)
	if err != nil {
		return nil, nil, err
	}
	for h := range excluded {
		delete(walked, h)
	}

	return bc, walked, nil
}

func headHash(repo *gogit.Repository) (plumbing.Hash, error) {
	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, &RangeResolutionError{
				Boundary: "HEAD", Reason: "repository has no commits",
			}
		}

		return plumbing.ZeroHash, fmt.Errorf("failed to read HEAD: %w", err)
	}

	return ref.Hash(), nil
}

// resolveRevision resolves refs and full hashes with go-git, then falls
// back to a unique abbreviated commit hash.
func resolveRevision(
	repo *gogit.Repository, rev string,
) (*plumbing.Hash, error) {

	rev = strings.TrimSpace(rev)
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err == nil {
		return hash, nil
	}

	if len(rev) < 4 || len(rev) >= 40 {
		return nil, fmt.Errorf("revision %q not found", rev)
	}

	iter, err := repo.CommitObjects()
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	defer iter.Close()

	var (
		match     *plumbing.Hash
		ambiguous bool
	)
	err = iter.ForEach(func(c *object.Commit) error {
		if !strings.HasPrefix(c.Hash.String(), rev) {
			return nil
		}
		if match != nil {
			ambiguous = true
			return storer.ErrStop
		}
		h := c.Hash
		match = &h

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan commits: %w", err)
	}

	switch {
	case ambiguous:
		return nil, fmt.Errorf("short commit hash %q is ambiguous", rev)
	case match == nil:
		return nil, fmt.Errorf("revision %q not found", rev)
	}

	return match, nil
}

// ancestors returns every commit reachable from tip, tip included. The walk
// does not enter stop; a zero stop walks everything.
func ancestors(
	ctx context.Context, repo *gogit.Repository, tip, stop plumbing.Hash,
) (map[plumbing.Hash]*object.Commit, error) {

	seen := make(map[plumbing.Hash]*object.Commit)
	queue := []plumbing.Hash{tip}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		h := queue[0]
		queue = queue[1:]
		if _, ok := seen[h]; ok || h == stop {
			continue
		}

		c, err := repo.CommitObject(h)
		if err != nil {
			return nil, fmt.Errorf("failed to read commit %s: %w", h, err)
		}
		seen[h] = c
		queue = append(queue, c.ParentHashes...)
	}

	return seen, nil
}

// topoSort orders commits parents first. Among commits that are ready at
// the same time the older committer date wins, then the smaller hash, so
// the order is deterministic.
func topoSort(commits map[plumbing.Hash]*object.Commit) []*object.Commit {
	pending := make(map[plumbing.Hash]int, len(commits))
	children := make(map[plumbing.Hash][]plumbing.Hash)
	var ready []*object.Commit

	for h, c := range commits {
		n := 0
		for _, p := range c.ParentHashes {
			if _, ok := commits[p]; ok {
				n++
				children[p] = append(children[p], h)
			}
		}
		pending[h] = n
		if n == 0 {
			ready = append(ready, c)
		}
	}

	less := func(a, b *object.Commit) int {
		if c := a.Committer.When.Compare(b.Committer.When); c != 0 {
			return c
		}

		return strings.Compare(a.Hash.String(), b.Hash.String())
	}

	order := make([]*object.Commit, 0, len(commits))
	for len(ready) > 0 {
		slices.SortFunc(ready, less)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, child := range children[next.Hash] {
			pending[child]--
			if pending[child] == 0 {
				ready = append(ready, commits[child])
			}
		}
	}

	return order
}

func toCommit(repo *gogit.Repository, c *object.Commit) Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}

	subject, body := splitMessage(c.Message)
	sha := c.Hash.String()

	return Commit{
		Sha:         sha,
		ShortSha:    abbreviate(repo, c.Hash),
		ParentShas:  parents,
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		AuthorDate:  c.Author.When,
		Subject:     subject,
		Body:        body,
	}
}

// prefixSearcher is implemented by go-git's filesystem object storage.
type prefixSearcher interface {
	HashesWithPrefix(prefix []byte) ([]plumbing.Hash, error)
}

// abbreviate returns the shortest prefix of h, at least shortShaLen long,
// that no other object in the repository shares. The full sha is used when
// the storage cannot be searched.
func abbreviate(repo *gogit.Repository, h plumbing.Hash) string {
	full := h.String()

	ps, ok := repo.Storer.(prefixSearcher)
	if !ok {
		return full
	}
	candidates, err := ps.HashesWithPrefix(h[:shortShaLen/2])
	if err != nil {
		return full
	}

	for n := shortShaLen; n < len(full); n++ {
		unique := true
		for _, c := range candidates {
			if c != h && strings.HasPrefix(c.String(), full[:n]) {
				unique = false
				break
			}
		}
		if unique {
			return full[:n]
		}
	}

	return full
}

// splitMessage splits a raw message the way git's %s and %b placeholders
// do: the first paragraph folded onto one line, then the remainder.
func splitMessage(msg string) (string, string) {
	msg = strings.TrimLeft(msg, "\n")

	first, rest, _ := strings.Cut(msg, "\n\n")
	lines := strings.Split(strings.TrimSpace(first), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	subject := strings.Join(lines, " ")
	body := strings.TrimRight(strings.TrimLeft(rest, "\n"), "\n")

	return subject, body
}

// Compile-time check that NativeReader implements Reader.
var _ Reader = (*NativeReader)(nil)
