package engine

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roasbeef/histedit/history"
	"github.com/roasbeef/histedit/rebase"
	"github.com/stretchr/testify/require"
)

// testTodo compiles a plan over three fake commits that rewords the first
// and squashes the third into the second.
func testTodo(t *testing.T) *rebase.Todo {
	t.Helper()

	rng := &history.Range{Upstream: strings.Repeat("f", 40)}
	parent := rng.Upstream
	for i, subject := range []string{"A", "B", "C"} {
		sha := strings.Repeat(string(rune('a'+i)), 40)
		rng.Commits = append(rng.Commits, history.Commit{
			Sha:        sha,
			ShortSha:   sha[:7],
			ParentShas: []string{parent},
			Subject:    subject,
		})
		parent = sha
	}
	rng.Head = parent

	p := rebase.NewPlan(rng)
	p, err := p.SetMessage(0, "A reworded")
	require.NoError(t, err)
	p, err = p.SetOperation(2, rebase.OpSquash)
	require.NoError(t, err)
	p, err = p.SetMessage(2, "B and C")
	require.NoError(t, err)

	todo, err := rebase.Compile(p)
	require.NoError(t, err)

	return todo
}

// runEditor runs a hook command the way git does, through sh, on a file
// holding original.
func runEditor(t *testing.T, command, original string) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), "COMMIT_EDITMSG")
	require.NoError(t, os.WriteFile(file, []byte(original), 0o600))

	cmd := exec.Command("sh", "-c", command+` "$@"`, command, file)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	return string(data)
}

func TestScripted(t *testing.T) {
	base := t.TempDir()
	gitDir := t.TempDir()
	mergeDir := filepath.Join(gitDir, "rebase-merge")
	require.NoError(t, os.Mkdir(mergeDir, 0o700))

	todo := testTodo(t)
	s := &Scripted{BaseDir: base}
	hooks, err := s.Prepare(Session{ID: "abc", GitDir: gitDir, Todo: todo})
	require.NoError(t, err)

	scratch := filepath.Join(base, "histedit-abc")
	require.DirExists(t, scratch)

	// The sequence editor replaces git's list with ours.
	got := runEditor(t, hooks.SequenceEditor, "pick 1234567 junk\n")
	require.Equal(t, todo.Text, got)

	setDone := func(lines ...string) {
		done := strings.Join(lines, "\n") + "\n"
		require.NoError(t, os.WriteFile(
			filepath.Join(mergeDir, "done"), []byte(done), 0o600,
		))
	}

	tests := []struct {
		name string
		done []string
		want string
	}{
		{
			name: "reword",
			done: []string{"reword aaaaaaa A"},
			want: "A reworded\n",
		},
		{
			name: "squash at end of group",
			done: []string{
				"reword aaaaaaa A", "pick bbbbbbb B", "squash ccccccc C",
			},
			want: "B and C\n",
		},
		{
			name: "option tokens are skipped",
			done: []string{"# comment", "fixup -C ccccccc C", ""},
			want: "B and C\n",
		},
		{
			name: "step without a message keeps git's text",
			done: []string{"pick bbbbbbb B"},
			want: "original\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setDone(tt.done...)
			got := runEditor(t, hooks.Editor, "original\n")
			require.Equal(t, tt.want, got)
		})
	}

	require.NoError(t, hooks.Release())
	require.NoDirExists(t, scratch)
}

func TestScriptedPathsWithQuotes(t *testing.T) {
	base := filepath.Join(t.TempDir(), "it's here")
	require.NoError(t, os.Mkdir(base, 0o700))

	todo := testTodo(t)
	s := &Scripted{BaseDir: base}
	hooks, err := s.Prepare(Session{ID: "q", GitDir: t.TempDir(), Todo: todo})
	require.NoError(t, err)
	defer hooks.Release()

	got := runEditor(t, hooks.SequenceEditor, "")
	require.Equal(t, todo.Text, got)
}

func TestScriptedUniqueScratch(t *testing.T) {
	base := t.TempDir()
	todo := testTodo(t)
	s := &Scripted{BaseDir: base}

	hooks, err := s.Prepare(Session{ID: "same", GitDir: base, Todo: todo})
	require.NoError(t, err)
	defer hooks.Release()

	// A second run with the same id must not reuse the directory.
	_, err = s.Prepare(Session{ID: "same", GitDir: base, Todo: todo})
	require.Error(t, err)
}

func TestTerminal(t *testing.T) {
	_, err := (&Terminal{}).Prepare(Session{ID: "x", Todo: testTodo(t)})
	require.Error(t, err)

	base := t.TempDir()
	term := &Terminal{Command: "vi", BaseDir: base}
	hooks, err := term.Prepare(Session{ID: "x", Todo: testTodo(t)})
	require.NoError(t, err)

	script, err := os.ReadFile(
		filepath.Join(base, "histedit-x", "terminal-editor.sh"),
	)
	require.NoError(t, err)
	require.Contains(t, string(script), `exec vi "$1" </dev/tty`)

	require.NoError(t, hooks.Release())
	require.NoDirExists(t, filepath.Join(base, "histedit-x"))
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/tmp/a", "'/tmp/a'"},
		{"/tmp/a b", "'/tmp/a b'"},
		{"it's", `'it'\''s'`},
		{"", "''"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, shellQuote(tt.in))
	}
}
