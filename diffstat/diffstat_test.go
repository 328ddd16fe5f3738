package diffstat_test

import (
	"context"
	"testing"

	"github.com/roasbeef/histedit/diffstat"
	"github.com/roasbeef/histedit/git"
	"github.com/roasbeef/histedit/testutil"
	"github.com/stretchr/testify/require"
)

func files(s *diffstat.Stat) []diffstat.File {
	var out []diffstat.File
	for _, f := range s.Files() {
		out = append(out, f)
	}

	return out
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []diffstat.File
		summary string
	}{
		{
			name:    "empty diff",
			input:   "  \n",
			summary: "0 files changed",
		},
		{
			name: "modification",
			input: `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,3 +1,3 @@
 package main

-func main() {}
+func main() { println("hello") }
`,
			want: []diffstat.File{{
				Path: "main.go", OldPath: "main.go", Added: 1, Deleted: 1,
			}},
			summary: "1 file changed, 1 insertion(+), 1 deletion(-)",
		},
		{
			name: "new and deleted files",
			input: `diff --git a/newfile.go b/newfile.go
new file mode 100644
--- /dev/null
+++ b/newfile.go
@@ -0,0 +1,3 @@
+package main
+
+func newFunc() {}
diff --git a/oldfile.go b/oldfile.go
deleted file mode 100644
--- a/oldfile.go
+++ /dev/null
@@ -1,2 +0,0 @@
-package main
-
`,
			want: []diffstat.File{
				{
					Path: "newfile.go", OldPath: "newfile.go",
					Added: 3, Created: true,
				},
				{
					Path: "oldfile.go", OldPath: "oldfile.go",
					Deleted: 2, Removed: true,
				},
			},
			summary: "2 files changed, 3 insertions(+), 2 deletions(-)",
		},
		{
			name: "binary",
			input: `diff --git a/logo.png b/logo.png
index 1111111..2222222 100644
Binary files a/logo.png and b/logo.png differ
`,
			want: []diffstat.File{{
				Path: "logo.png", OldPath: "logo.png", Binary: true,
			}},
			summary: "1 file changed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stat, err := diffstat.Parse(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, files(stat))
			require.Equal(t, tt.summary, stat.Summary())
		})
	}
}

func TestForCommit(t *testing.T) {
	repo := testutil.NewLinearRepo(t, "A")
	repo.WriteFile("filea.txt", "A\nmore\n")
	repo.WriteFile("new.txt", "one\ntwo\n")
	sha := repo.CommitAll("B")

	r, err := git.Open(context.Background(), git.NewShellRunner(""), repo.Dir)
	require.NoError(t, err)

	stat, err := diffstat.ForCommit(context.Background(), r, sha)
	require.NoError(t, err)
	require.Equal(t, 2, stat.FileCount())

	added, deleted := stat.Totals()
	require.Equal(t, 3, added)
	require.Equal(t, 0, deleted)

	got := files(stat)
	require.Equal(t, "filea.txt", got[0].Path)
	require.False(t, got[0].Created)
	require.Equal(t, "new.txt", got[1].Path)
	require.True(t, got[1].Created)
	require.False(t, got[1].Renamed())

	// The root commit diffs against the empty tree.
	root, err := diffstat.ForCommit(
		context.Background(), r, repo.RevParse("HEAD~1"),
	)
	require.NoError(t, err)
	require.Equal(t, "1 file changed, 1 insertion(+)", root.Summary())

	_, err = diffstat.ForCommit(context.Background(), r, "nope")
	require.Error(t, err)
}
