// Package testutil provides test helpers for git repository testing.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// GitTestRepo creates a temporary git repository for testing.
type GitTestRepo struct {
	t   *testing.T
	Dir string
}

// NewGitTestRepo creates a new test repo with git initialized on a branch
// named main.
func NewGitTestRepo(t *testing.T) *GitTestRepo {
	t.Helper()

	dir, err := os.MkdirTemp("", "histedit-test-*")
	require.NoError(t, err)

	// Resolve symlinks so paths match what git reports (macOS /private).
	dir, err = filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	repo := &GitTestRepo{t: t, Dir: dir}
	t.Cleanup(repo.cleanup)

	// Initialize git repo with basic config.
	repo.Git("init", "--quiet")
	repo.Git("symbolic-ref", "HEAD", "refs/heads/main")
	repo.Git("config", "user.email", "test@test.com")
	repo.Git("config", "user.name", "Test User")
	repo.Git("config", "commit.gpgsign", "false")

	return repo
}

// NewLinearRepo creates a repo with one commit per subject. Commit i writes
// file<i>.txt so every commit touches a distinct path and reordering never
// conflicts.
func NewLinearRepo(t *testing.T, subjects ...string) *GitTestRepo {
	t.Helper()

	repo := NewGitTestRepo(t)
	for i, subject := range subjects {
		name := "file" + string(rune('a'+i)) + ".txt"
		repo.WriteFile(name, subject+"\n")
		repo.CommitAll(subject)
	}

	return repo
}

func (r *GitTestRepo) cleanup() {
	os.RemoveAll(r.Dir)
}

// Git runs a git command in the test repo.
func (r *GitTestRepo) Git(args ...string) string {
	r.t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}

	return string(out)
}

// GitMayFail runs a git command that may fail, returning the error.
func (r *GitTestRepo) GitMayFail(args ...string) (string, error) {
	r.t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	out, err := cmd.CombinedOutput()

	return string(out), err
}

// WriteFile creates or overwrites a file in the repo.
func (r *GitTestRepo) WriteFile(path, content string) {
	r.t.Helper()

	fullPath := filepath.Join(r.Dir, path)
	dir := filepath.Dir(fullPath)

	err := os.MkdirAll(dir, 0755)
	require.NoError(r.t, err)

	err = os.WriteFile(fullPath, []byte(content), 0644)
	require.NoError(r.t, err)
}

// ReadFile reads a file from the repo.
func (r *GitTestRepo) ReadFile(path string) string {
	r.t.Helper()

	data, err := os.ReadFile(filepath.Join(r.Dir, path))
	require.NoError(r.t, err)

	return string(data)
}

// FileExists checks if a file exists in the repo.
func (r *GitTestRepo) FileExists(path string) bool {
	r.t.Helper()

	_, err := os.Stat(filepath.Join(r.Dir, path))

	return err == nil
}

// CommitAll stages and commits all changes, returning the new HEAD sha.
func (r *GitTestRepo) CommitAll(msg string) string {
	r.t.Helper()

	r.Git("add", "-A")
	r.Git("commit", "--quiet", "-m", msg)

	return r.HeadSha()
}

// HeadSha returns the full sha of HEAD.
func (r *GitTestRepo) HeadSha() string {
	r.t.Helper()

	return r.RevParse("HEAD")
}

// RevParse resolves a revision to a full sha.
func (r *GitTestRepo) RevParse(rev string) string {
	r.t.Helper()

	return strings.TrimSpace(r.Git("rev-parse", "--verify", rev))
}

// GetShortHash returns the seven character abbreviation of a revision.
func (r *GitTestRepo) GetShortHash(rev string) string {
	r.t.Helper()

	return r.RevParse(rev)[:7]
}

// TreeSha returns the tree object a revision points at.
func (r *GitTestRepo) TreeSha(rev string) string {
	r.t.Helper()

	return r.RevParse(rev + "^{tree}")
}

// Subjects returns the commit subjects reachable from HEAD, oldest first.
func (r *GitTestRepo) Subjects() []string {
	r.t.Helper()

	out := strings.TrimSpace(r.Git("log", "--reverse", "--format=%s"))
	if out == "" {
		return nil
	}

	return strings.Split(out, "\n")
}

// Message returns the full message of a revision without the trailing
// newline.
func (r *GitTestRepo) Message(rev string) string {
	r.t.Helper()

	out := r.Git("log", "-1", "--format=%B", rev)

	return strings.TrimRight(out, "\n")
}

// CreateBranch creates a new branch at HEAD without switching to it.
func (r *GitTestRepo) CreateBranch(name string) {
	r.t.Helper()

	r.Git("branch", name)
}

// CheckoutBranch switches to an existing branch.
func (r *GitTestRepo) CheckoutBranch(name string) {
	r.t.Helper()

	r.Git("checkout", "--quiet", name)
}

// RebaseInProgress reports whether git has rebase state on disk.
func (r *GitTestRepo) RebaseInProgress() bool {
	r.t.Helper()

	gitDir := strings.TrimSpace(r.Git("rev-parse", "--absolute-git-dir"))
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		if _, err := os.Stat(filepath.Join(gitDir, name)); err == nil {
			return true
		}
	}

	return false
}

// ComparisonTest represents a comparison between two git operations.
// Used to verify histedit produces the same history as a hand-driven git
// rebase.
type ComparisonTest struct {
	t        *testing.T
	Expected *GitTestRepo
	Actual   *GitTestRepo
}

// NewComparisonTest creates two identical repos for comparison testing.
// The setup function is called on both repos to establish identical state.
func NewComparisonTest(
	t *testing.T, setup func(r *GitTestRepo),
) *ComparisonTest {

	t.Helper()

	expected := NewGitTestRepo(t)
	actual := NewGitTestRepo(t)

	setup(expected)
	setup(actual)

	return &ComparisonTest{
		t:        t,
		Expected: expected,
		Actual:   actual,
	}
}

// AssertSameTree verifies both repos' HEAD commits point at the same tree.
func (c *ComparisonTest) AssertSameTree() {
	c.t.Helper()

	require.Equal(c.t, c.Expected.TreeSha("HEAD"), c.Actual.TreeSha("HEAD"),
		"HEAD trees differ between expected and actual")
}

// AssertSameSubjects verifies both repos have the same commit subjects in
// the same order.
func (c *ComparisonTest) AssertSameSubjects() {
	c.t.Helper()

	require.Equal(c.t, c.Expected.Subjects(), c.Actual.Subjects(),
		"history differs between expected and actual")
}
