package git

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// terminateGrace is how long a cancelled git process gets between SIGTERM
// and the hard kill.
const terminateGrace = 5 * time.Second

// ShellRunner implements Runner by executing the git binary.
type ShellRunner struct {
	// GitPath is the git executable. If empty, "git" is looked up in PATH.
	GitPath string
}

// NewShellRunner creates a new ShellRunner.
func NewShellRunner(gitPath string) *ShellRunner {
	return &ShellRunner{GitPath: gitPath}
}

func (r *ShellRunner) binary() string {
	if r.GitPath == "" {
		return "git"
	}

	return r.GitPath
}

// Run executes a git command and captures its output.
func (r *ShellRunner) Run(
	ctx context.Context, inv Invocation,
) (*Result, error) {

	cmd := exec.CommandContext(ctx, r.binary(), inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdin = inv.Stdin

	// Never let git fall back to asking a human for anything.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, inv.Env...)

	// A cancelled rebase gets a chance to exit on its own before the kill.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = terminateGrace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		res.ExitCode = exitErr.ExitCode()

		return res, nil
	}

	res.ExitCode = -1

	return res, &ProcessError{Args: inv.Args, Err: err}
}

// Compile-time check that ShellRunner implements Runner.
var _ Runner = (*ShellRunner)(nil)
