package testutil_test

import (
	"testing"

	"github.com/roasbeef/histedit/testutil"
	"github.com/stretchr/testify/require"
)

func TestGitTestRepo(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)

	// Write a file.
	repo.WriteFile("main.go", "package main\n\nfunc main() {}\n")

	// Verify it exists.
	require.True(t, repo.FileExists("main.go"))

	// Read it back.
	content := repo.ReadFile("main.go")
	require.Equal(t, "package main\n\nfunc main() {}\n", content)

	// Commit it and check the reported sha is HEAD.
	sha := repo.CommitAll("initial commit\n\nwith a body")
	require.Equal(t, repo.HeadSha(), sha)
	require.Len(t, sha, 40)
	require.Equal(t, sha[:7], repo.GetShortHash("HEAD"))

	require.Equal(t, "initial commit\n\nwith a body", repo.Message("HEAD"))
	require.Equal(t, []string{"initial commit"}, repo.Subjects())
	require.False(t, repo.RebaseInProgress())
}

func TestNewLinearRepo(t *testing.T) {
	repo := testutil.NewLinearRepo(t, "A", "B", "C")

	require.Equal(t, []string{"A", "B", "C"}, repo.Subjects())
	require.Equal(t, "B\n", repo.ReadFile("fileb.txt"))

	repo.CreateBranch("side")
	repo.CheckoutBranch("side")
	require.Equal(t, "side\n", repo.Git("branch", "--show-current"))
}

func TestComparisonTest(t *testing.T) {
	setup := func(r *testutil.GitTestRepo) {
		r.WriteFile("main.go", "package main\n\nfunc main() {}\n")
		r.CommitAll("initial")
		r.WriteFile("main.go", "package main\n\n// Changed.\nfunc main() {}\n")
		r.CommitAll("second")
	}

	ct := testutil.NewComparisonTest(t, setup)

	// Identical setup yields identical trees even though commit shas
	// differ by timestamp.
	ct.AssertSameTree()
	ct.AssertSameSubjects()
}
