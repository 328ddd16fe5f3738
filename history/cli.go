package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roasbeef/histedit/git"
)

const (
	fieldSep  = "\x00"
	recordSep = "\x1e"
)

// logFormat emits one record per commit: sha, short sha, parents, author
// name, author email, strict ISO author date, subject, body.
var logFormat = "--format=" + strings.Join([]string{
	"%H", "%h", "%P", "%an", "%ae", "%aI", "%s", "%b",
}, "%x00") + "%x1e"

// CLIReader reads ranges by running git log.
type CLIReader struct {
	runner git.Runner
}

// NewCLIReader creates a reader that shells out through runner.
func NewCLIReader(runner git.Runner) *CLIReader {
	return &CLIReader{runner: runner}
}

// Root returns the oldest parentless commit reachable from HEAD.
func (r *CLIReader) Root(ctx context.Context, repoPath string) (string, error) {
	repo, err := git.Open(ctx, r.runner, repoPath)
	if err != nil {
		return "", err
	}

	return rootOf(ctx, repo)
}

func rootOf(ctx context.Context, repo *git.Repo) (string, error) {
	if _, err := repo.HeadSha(ctx); err != nil {
		return "", &RangeResolutionError{
			Boundary: "HEAD", Reason: "repository has no commits",
		}
	}

	roots, err := repo.RootCommits(ctx)
	if err != nil {
		return "", err
	}
	if len(roots) == 0 {
		return "", &RangeResolutionError{
			Boundary: "HEAD", Reason: "no root commit found",
		}
	}

	return roots[0], nil
}

// ReadRange returns the commits from boundary to HEAD, oldest first.
func (r *CLIReader) ReadRange(
	ctx context.Context, repoPath, boundary string,
) (*Range, error) {

	repo, err := git.Open(ctx, r.runner, repoPath)
	if err != nil {
		return nil, err
	}

	head, err := repo.HeadSha(ctx)
	if err != nil {
		return nil, &RangeResolutionError{
			Boundary: boundary, Reason: "repository has no commits",
		}
	}

	if boundary == "" {
		boundary, err = rootOf(ctx, repo)
		if err != nil {
			return nil, err
		}
	}

	sha, ok, err := repo.ResolveCommit(ctx, boundary)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &RangeResolutionError{
			Boundary: boundary, Reason: "not a commit in this repository",
		}
	}

	isAncestor, err := repo.IsAncestor(ctx, sha, head)
	if err != nil {
		return nil, err
	}
	if !isAncestor {
		return nil, &RangeResolutionError{
			Boundary: boundary, Reason: "not an ancestor of HEAD",
		}
	}

	// Pin the walk to the sha we resolved so a concurrent commit cannot
	// slip into the range.
	boundaryCommits, err := r.log(ctx, repo, "-1", sha)
	if err != nil {
		return nil, err
	}
	if len(boundaryCommits) != 1 {
		return nil, fmt.Errorf("failed to read boundary commit %s", sha)
	}
	parents := boundaryCommits[0].ParentShas

	rng := &Range{
		Boundary: sha,
		Root:     len(parents) == 0,
		Head:     head,
	}

	revRange := head
	if !rng.Root {
		rng.Upstream = parents[0]
		revRange = parents[0] + ".." + head
	}

	rng.Commits, err = r.log(ctx, repo, "--topo-order", "--reverse", revRange)
	if err != nil {
		return nil, err
	}

	return rng, nil
}

func (r *CLIReader) log(
	ctx context.Context, repo *git.Repo, args ...string,
) ([]Commit, error) {

	full := append([]string{"log", "--no-color", logFormat}, args...)
	res, err := repo.Exec(ctx, git.Invocation{Args: full})
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, fmt.Errorf("failed to read history: %w",
			&git.CommandError{
				Args: full, ExitCode: res.ExitCode, Stderr: res.Stderr,
			})
	}

	return parseLog(res.Stdout)
}

// parseLog decodes records produced with logFormat.
func parseLog(out string) ([]Commit, error) {
	var commits []Commit
	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}

		fields := strings.Split(record, fieldSep)
		if len(fields) != 8 {
			return nil, fmt.Errorf("malformed log record: %q", record)
		}

		date, err := time.Parse(time.RFC3339, fields[5])
		if err != nil {
			return nil, fmt.Errorf("failed to parse author date: %w", err)
		}

		commits = append(commits, Commit{
			Sha:         fields[0],
			ShortSha:    fields[1],
			ParentShas:  strings.Fields(fields[2]),
			AuthorName:  fields[3],
			AuthorEmail: fields[4],
			AuthorDate:  date,
			Subject:     fields[6],
			Body:        strings.TrimRight(fields[7], "\n"),
		})
	}

	return commits, nil
}

// Compile-time check that CLIReader implements Reader.
var _ Reader = (*CLIReader)(nil)
