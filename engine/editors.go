package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roasbeef/histedit/rebase"
)

// Session is what an editor strategy needs to know about one run.
type Session struct {
	// ID is the invocation id; scratch paths are named after it.
	ID string

	// GitDir is the repository's absolute git directory.
	GitDir string

	// Todo is the compiled todo list and its messages.
	Todo *rebase.Todo
}

// Hooks are the editor commands handed to git, plus the cleanup that undoes
// whatever Prepare created.
type Hooks struct {
	// SequenceEditor is the GIT_SEQUENCE_EDITOR command.
	SequenceEditor string

	// Editor is the GIT_EDITOR command. Empty leaves git's own choice.
	Editor string

	// Release removes every artifact Prepare created. It must be called
	// exactly once, on every exit path.
	Release func() error
}

// EditorStrategy decides how git's two editor prompts get answered.
type EditorStrategy interface {
	// Prepare creates the hooks for a session.
	Prepare(sess Session) (*Hooks, error)
}

// Scripted answers both prompts with throwaway shell scripts: the sequence
// editor replaces git's todo list with the compiled one, and the message
// editor replaces the commit message with the one resolved for the step git
// is on. No process ever waits on a human.
type Scripted struct {
	// BaseDir holds the per-run scratch directories. Defaults to the
	// system temp dir.
	BaseDir string
}

// Prepare writes the scratch directory for a session.
func (s *Scripted) Prepare(sess Session) (*Hooks, error) {
	dir, err := makeScratch(s.BaseDir, sess.ID)
	if err != nil {
		return nil, err
	}
	release := func() error { return os.RemoveAll(dir) }

	seq, err := writeSequenceEditor(dir, sess.Todo)
	if err != nil {
		return nil, errors.Join(err, release())
	}

	msgDir := filepath.Join(dir, "msg")
	if err := os.Mkdir(msgDir, 0o700); err != nil {
		return nil, errors.Join(err, release())
	}
	for step, msg := range sess.Todo.Messages() {
		line, ok := sess.Todo.Line(step)
		if !ok {
			continue
		}

		path := filepath.Join(msgDir, line.Sha+".msg")
		if err := os.WriteFile(path, []byte(msg+"\n"), 0o600); err != nil {
			return nil, errors.Join(
				fmt.Errorf("failed to write message: %w", err),
				release(),
			)
		}
	}

	doneFile := filepath.Join(sess.GitDir, "rebase-merge", "done")
	editor := filepath.Join(dir, "message-editor.sh")
	script := fmt.Sprintf(
		messageEditorScript, shellQuote(msgDir), shellQuote(doneFile),
	)
	if err := os.WriteFile(editor, []byte(script), 0o700); err != nil {
		return nil, errors.Join(
			fmt.Errorf("failed to write message editor: %w", err),
			release(),
		)
	}

	return &Hooks{
		SequenceEditor: "sh " + shellQuote(seq),
		Editor:         "sh " + shellQuote(editor),
		Release:        release,
	}, nil
}

// Terminal answers the todo prompt with the compiled list like Scripted but
// opens a real editor on the controlling terminal for commit messages. It is
// for interactive CLI use only.
type Terminal struct {
	// Command is the editor command line, for example "vim" or
	// "code --wait".
	Command string

	// BaseDir holds the per-run scratch directories.
	BaseDir string
}

// Prepare writes the sequence editor and a wrapper that attaches the
// message editor to /dev/tty.
func (t *Terminal) Prepare(sess Session) (*Hooks, error) {
	if strings.TrimSpace(t.Command) == "" {
		return nil, fmt.Errorf("no editor configured")
	}

	dir, err := makeScratch(t.BaseDir, sess.ID)
	if err != nil {
		return nil, err
	}
	release := func() error { return os.RemoveAll(dir) }

	seq, err := writeSequenceEditor(dir, sess.Todo)
	if err != nil {
		return nil, errors.Join(err, release())
	}

	editor := filepath.Join(dir, "terminal-editor.sh")
	script := fmt.Sprintf(terminalEditorScript, t.Command)
	if err := os.WriteFile(editor, []byte(script), 0o700); err != nil {
		return nil, errors.Join(
			fmt.Errorf("failed to write editor wrapper: %w", err),
			release(),
		)
	}

	return &Hooks{
		SequenceEditor: "sh " + shellQuote(seq),
		Editor:         "sh " + shellQuote(editor),
		Release:        release,
	}, nil
}

func makeScratch(base, id string) (string, error) {
	if base == "" {
		base = os.TempDir()
	}

	// The id is unique per run, so a directory left behind by a crashed
	// run can never be reused.
	dir := filepath.Join(base, "histedit-"+id)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create scratch dir: %w", err)
	}

	return dir, nil
}

func writeSequenceEditor(dir string, todo *rebase.Todo) (string, error) {
	todoPath := filepath.Join(dir, "todo")
	if err := os.WriteFile(todoPath, []byte(todo.Text), 0o600); err != nil {
		return "", fmt.Errorf("failed to write todo: %w", err)
	}

	path := filepath.Join(dir, "sequence-editor.sh")
	script := fmt.Sprintf(sequenceEditorScript, shellQuote(todoPath))
	if err := os.WriteFile(path, []byte(script), 0o700); err != nil {
		return "", fmt.Errorf("failed to write sequence editor: %w", err)
	}

	return path, nil
}

// shellQuote quotes s for POSIX sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

const sequenceEditorScript = `#!/bin/sh
cat %s > "$1"
`

// messageEditorScript finds the step git is on from the last line of the
// done file, skipping the keyword and any option tokens, and copies the
// matching message file over the commit message. Steps without a message
// file keep git's text.
const messageEditorScript = `#!/bin/sh
msg_dir=%s
done_file=%s
[ -f "$done_file" ] || exit 0
line=$(sed -e '/^#/d' -e '/^[[:space:]]*$/d' "$done_file" | tail -n 1)
set -f
sha=
first=1
for tok in $line; do
	if [ "$first" = 1 ]; then
		first=0
		continue
	fi
	case "$tok" in
	-*) continue ;;
	esac
	sha=$tok
	break
done
[ -n "$sha" ] || exit 0
set +f
for f in "$msg_dir"/*.msg; do
	[ -f "$f" ] || continue
	name=$(basename "$f" .msg)
	case "$name" in
	"$sha"*)
		cat "$f" > "$1"
		exit 0
		;;
	esac
done
exit 0
`

const terminalEditorScript = `#!/bin/sh
exec %s "$1" </dev/tty >/dev/tty 2>&1
`
