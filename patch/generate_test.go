package patch_test

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/roasbeef/histedit/diff"
	"github.com/roasbeef/histedit/patch"
	"github.com/roasbeef/histedit/testutil"
	"github.com/stretchr/testify/require"
)

const twoHunkDiff = `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
@@ -1,4 +1,6 @@
+zero
+half
 one
 two
 three
 four
@@ -8,3 +10,3 @@ section
 eight
-nine
+NINE
 ten
`

func TestGenerateForHunk(t *testing.T) {
	d, err := diff.Parse(twoHunkDiff)
	require.NoError(t, err)
	f := d.FileByPath("a.txt")
	require.NotNil(t, f)

	got := string(patch.GenerateForHunk(f, f.Hunks[1]))
	require.Equal(t, `--- a/a.txt
+++ b/a.txt
@@ -8,3 +10,3 @@ section
 eight
-nine
+NINE
 ten
`, got)
}

func TestGenerateStacked(t *testing.T) {
	d, err := diff.Parse(twoHunkDiff)
	require.NoError(t, err)
	f := d.FileByPath("a.txt")

	tests := []struct {
		name   string
		index  int
		header string
	}{
		{name: "first hunk unchanged", index: 0, header: "@@ -1,4 +1,6 @@"},
		{
			name:   "second hunk shifted by the first",
			index:  1,
			header: "@@ -10,3 +10,3 @@ section",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := patch.GenerateStacked(f, tt.index)
			require.NoError(t, err)

			lines := strings.Split(string(got), "\n")
			require.Equal(t, tt.header, lines[2])
		})
	}

	_, err = patch.GenerateStacked(f, 2)
	require.Error(t, err)
}

// TestGenerateStackedApplies stages a commit's hunks one at a time with git
// apply and checks the index ends up at the commit's tree.
func TestGenerateStackedApplies(t *testing.T) {
	repo := testutil.NewGitTestRepo(t)

	var before []string
	for i := 1; i <= 30; i++ {
		before = append(before, strings.Repeat("x", i))
	}
	repo.WriteFile("long.txt", strings.Join(before, "\n")+"\n")
	repo.WriteFile("tail.txt", "keep\nlast")
	repo.CommitAll("base")

	after := append([]string{"head"}, before...)
	after[10] = "changed"
	after = append(after[:20], after[22:]...)
	repo.WriteFile("long.txt", strings.Join(after, "\n")+"\n")
	repo.WriteFile("tail.txt", "keep\nlast, still no newline")
	target := repo.CommitAll("edit")

	d, err := diff.Parse(repo.Git(
		"show", "--format=", "--no-color", "--no-renames", target,
	))
	require.NoError(t, err)

	units := d.Units()
	require.Len(t, units, 4)

	repo.Git("reset", "--quiet", "HEAD~")
	for _, u := range units {
		require.NotNil(t, u.Hunk)

		p, err := patch.GenerateStacked(u.File, u.HunkIndex)
		require.NoError(t, err)

		cmd := exec.Command("git", "apply", "--cached", "-")
		cmd.Dir = repo.Dir
		cmd.Stdin = strings.NewReader(string(p))
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "%s\n%s", out, p)
	}

	tree := strings.TrimSpace(repo.Git("write-tree"))
	require.Equal(t, repo.TreeSha(target), tree)
}
