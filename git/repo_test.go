package git_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/roasbeef/histedit/git"
	"github.com/roasbeef/histedit/testutil"
	"github.com/stretchr/testify/require"
)

func openRepo(t *testing.T, dir string) *git.Repo {
	t.Helper()

	repo, err := git.Open(
		context.Background(), git.NewShellRunner(""), dir,
	)
	require.NoError(t, err)

	return repo
}

func TestOpen(t *testing.T) {
	tr := testutil.NewLinearRepo(t, "A")

	// Opening from a subdirectory finds the top level.
	tr.WriteFile("sub/dir/x.txt", "x\n")
	repo := openRepo(t, filepath.Join(tr.Dir, "sub", "dir"))
	require.Equal(t, tr.Dir, repo.Root)
	require.Equal(t, filepath.Join(tr.Dir, ".git"), repo.GitDir)
}

func TestOpenNotARepository(t *testing.T) {
	ctx := context.Background()
	runner := git.NewShellRunner("")

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "plain directory",
			path: func(t *testing.T) string {
				dir, err := os.MkdirTemp("", "histedit-norepo-*")
				require.NoError(t, err)
				t.Cleanup(func() { os.RemoveAll(dir) })

				// Stop discovery from walking into an enclosing repo.
				t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

				return dir
			},
		},
		{
			name: "missing directory",
			path: func(t *testing.T) string {
				return filepath.Join(os.TempDir(), "histedit-does-not-exist")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := git.Open(ctx, runner, tc.path(t))
			require.Error(t, err)
			require.True(t, git.IsNotARepository(err), "got %v", err)
		})
	}
}

func TestRepoQueries(t *testing.T) {
	ctx := context.Background()
	tr := testutil.NewLinearRepo(t, "A", "B", "C")
	repo := openRepo(t, tr.Dir)

	head, err := repo.HeadSha(ctx)
	require.NoError(t, err)
	require.Equal(t, tr.HeadSha(), head)

	sha, ok, err := repo.ResolveCommit(ctx, tr.GetShortHash("HEAD~2"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, tr.RevParse("HEAD~2"), sha)

	_, ok, err = repo.ResolveCommit(ctx, "deadbeef")
	require.NoError(t, err)
	require.False(t, ok)

	yes, err := repo.IsAncestor(ctx, tr.RevParse("HEAD~2"), head)
	require.NoError(t, err)
	require.True(t, yes)

	no, err := repo.IsAncestor(ctx, head, tr.RevParse("HEAD~2"))
	require.NoError(t, err)
	require.False(t, no)

	roots, err := repo.RootCommits(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{tr.RevParse("HEAD~2")}, roots)

	branch, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	require.Equal(t, "main", branch)

	diff, err := repo.CommitDiff(ctx, roots[0])
	require.NoError(t, err)
	require.Contains(t, diff, "+++ b/filea.txt")
}

func TestEnsureClean(t *testing.T) {
	ctx := context.Background()
	tr := testutil.NewLinearRepo(t, "A")
	repo := openRepo(t, tr.Dir)

	require.NoError(t, repo.EnsureClean(ctx))

	// Untracked files do not count.
	tr.WriteFile("scratch.txt", "scratch\n")
	require.NoError(t, repo.EnsureClean(ctx))

	tr.WriteFile("filea.txt", "changed\n")
	err := repo.EnsureClean(ctx)

	var dirty *git.DirtyWorktreeError
	require.ErrorAs(t, err, &dirty)
	require.Equal(t, []string{"filea.txt"}, dirty.Files)
}

func TestResetHard(t *testing.T) {
	ctx := context.Background()
	tr := testutil.NewLinearRepo(t, "A", "B")
	repo := openRepo(t, tr.Dir)

	target := tr.RevParse("HEAD~1")
	require.NoError(t, repo.ResetHard(ctx, target))
	require.Equal(t, target, tr.HeadSha())
	require.False(t, tr.FileExists("fileb.txt"))
}

func TestRebaseState(t *testing.T) {
	ctx := context.Background()
	tr := testutil.NewGitTestRepo(t)
	tr.WriteFile("f.txt", "base\n")
	tr.CommitAll("base")
	tr.CreateBranch("side")

	tr.WriteFile("f.txt", "main\n")
	tr.CommitAll("main change")

	tr.CheckoutBranch("side")
	tr.WriteFile("f.txt", "side\n")
	tr.CommitAll("side change")

	repo := openRepo(t, tr.Dir)

	state, err := repo.RebaseState(ctx)
	require.NoError(t, err)
	require.False(t, state.InProgress)
	require.Equal(t, git.RebaseNone, state.State)
	require.NoError(t, repo.EnsureNoRebase())

	_, err = tr.GitMayFail("rebase", "--merge", "main")
	require.Error(t, err)

	state, err = repo.RebaseState(ctx)
	require.NoError(t, err)
	require.True(t, state.InProgress)
	require.Equal(t, git.RebaseConflict, state.State)
	require.Equal(t, "side", state.OriginalBranch)
	require.Len(t, state.Conflicts, 1)
	require.Equal(t, "f.txt", state.Conflicts[0].Path)
	require.Equal(t, "both modified", state.Conflicts[0].ConflictType)

	var inProgress *git.RebaseInProgressError
	require.ErrorAs(t, repo.EnsureNoRebase(), &inProgress)

	require.NoError(t, repo.RebaseAbort(ctx))
	require.False(t, repo.RebaseInProgress())
}

func TestLastDoneLine(t *testing.T) {
	tests := []struct {
		name string
		done string
		want string
	}{
		{name: "empty", done: "", want: ""},
		{
			name: "last instruction",
			done: "pick abc one\nreword def two\n",
			want: "reword def two",
		},
		{
			name: "skips comments and blanks",
			done: "pick abc one\n# comment\n\n",
			want: "pick abc one",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, git.LastDoneLine(tc.done))
		})
	}
}
