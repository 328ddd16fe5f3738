package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roasbeef/histedit/git"
	"github.com/roasbeef/histedit/history"
	"github.com/roasbeef/histedit/rebase"
	"github.com/sirupsen/logrus"
)

// Config configures an Executor.
type Config struct {
	// Runner launches git. Defaults to a ShellRunner on $PATH.
	Runner git.Runner

	// Editors answers git's editor prompts. Defaults to Scripted in the
	// system temp dir.
	Editors EditorStrategy

	// KeepStopped leaves a conflicted rebase in place and reports
	// StatusConflictStopped instead of aborting. Only meaningful when a
	// human is around to resolve it.
	KeepStopped bool

	// OnProgress, if set, receives state transitions. It is called from
	// the run's goroutine and must not block.
	OnProgress func(Progress)

	// Log is the base log entry. Defaults to the standard logger.
	Log *logrus.Entry
}

// Executor runs compiled plans against a repository. Each run is one git
// rebase process; whatever happens to it, the repository ends either at the
// rewritten history or back at the HEAD the run started from.
type Executor struct {
	cfg Config

	versionMu  sync.Mutex
	versionOK  bool
	versionErr error
}

// NewExecutor creates an executor, filling in defaults.
func NewExecutor(cfg Config) *Executor {
	if cfg.Runner == nil {
		cfg.Runner = git.NewShellRunner("")
	}
	if cfg.Editors == nil {
		cfg.Editors = &Scripted{}
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	cfg.Log = cfg.Log.WithField("component", "engine")

	return &Executor{cfg: cfg}
}

// job is a preflighted run: everything needed to execute it, computed
// before anything is mutated.
type job struct {
	id   string
	repo *git.Repo
	log  *logrus.Entry

	// orig is HEAD at preflight; branch is the checked out branch or ""
	// when detached.
	orig   string
	branch string

	// todo is nil for resets.
	todo *rebase.Todo

	// split is set when the todo's edit stop breaks a commit apart.
	split *splitJob

	// upstream is the rebase base, or the reset target. Empty with root
	// set means --root.
	upstream string
	root     bool
}

// open locates the repository and checks the git version.
func (e *Executor) open(ctx context.Context, path string) (*git.Repo, error) {
	repo, err := git.Open(ctx, e.cfg.Runner, path)
	if err != nil {
		return nil, err
	}
	if err := e.checkVersion(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

func (e *Executor) checkVersion(ctx context.Context) error {
	e.versionMu.Lock()
	defer e.versionMu.Unlock()

	if e.versionOK {
		return nil
	}
	if e.versionErr != nil {
		return e.versionErr
	}

	v, err := git.CheckVersion(ctx, e.cfg.Runner)
	switch {
	case err == nil:
		e.cfg.Log.Debugf("Using git %s", v)
		e.versionOK = true

	// A cancelled check says nothing about the binary.
	case ctx.Err() == nil:
		e.versionErr = err
	}

	return err
}

// checkWorktree runs the checks shared by applies and resets and returns
// HEAD.
func (e *Executor) checkWorktree(
	ctx context.Context, repo *git.Repo,
) (string, string, error) {

	if err := repo.EnsureNoRebase(); err != nil {
		return "", "", err
	}
	if err := repo.EnsureClean(ctx); err != nil {
		return "", "", err
	}

	head, err := repo.HeadSha(ctx)
	if err != nil {
		return "", "", err
	}
	branch, err := repo.CurrentBranch(ctx)
	if err != nil {
		return "", "", err
	}

	return head, branch, nil
}

// preflight validates a plan against the repository and compiles the part
// of it that has to be replayed. It never mutates the repository.
func (e *Executor) preflight(
	ctx context.Context, repo *git.Repo, plan rebase.Plan,
) (*job, error) {

	head, branch, err := e.checkWorktree(ctx, repo)
	if err != nil {
		return nil, err
	}
	if head != plan.Head() {
		return nil, &StalePlanError{PlanHead: plan.Head(), Head: head}
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	// Leading steps that reproduce history exactly stay in place; the
	// rebase starts from the last of them.
	from := plan.UnchangedPrefix()
	todo, err := rebase.CompileSuffix(plan, from)
	if err != nil {
		return nil, err
	}

	j := e.newJob(repo, head, branch)
	j.todo = todo
	switch {
	case from > 0:
		j.upstream = plan.Commits()[from-1].Sha

	case plan.Root():
		j.root = true
		if todo.OnlyDrops() {
			return nil, &rebase.InvalidStepError{
				Index:  0,
				Reason: "cannot drop every commit down to the root",
			}
		}

	default:
		j.upstream = plan.Upstream()
	}

	return j, nil
}

// preflightReset validates a hard reset to target.
func (e *Executor) preflightReset(
	ctx context.Context, repo *git.Repo, target string,
) (*job, error) {

	head, branch, err := e.checkWorktree(ctx, repo)
	if err != nil {
		return nil, err
	}

	sha, ok, err := repo.ResolveCommit(ctx, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &history.RangeResolutionError{
			Boundary: target, Reason: "does not name a commit",
		}
	}

	j := e.newJob(repo, head, branch)
	j.upstream = sha

	return j, nil
}

func (e *Executor) newJob(repo *git.Repo, head, branch string) *job {
	id := uuid.New().String()

	return &job{
		id:     id,
		repo:   repo,
		orig:   head,
		branch: branch,
		log: e.cfg.Log.WithFields(logrus.Fields{
			"invocation": id,
			"repo":       repo.Root,
		}),
	}
}

// Run preflights and executes a plan synchronously.
func (e *Executor) Run(
	ctx context.Context, repoPath string, plan rebase.Plan,
) (Outcome, error) {

	repo, err := e.open(ctx, repoPath)
	if err != nil {
		return Outcome{}, err
	}
	j, err := e.preflight(ctx, repo, plan)
	if err != nil {
		return Outcome{}, err
	}

	return e.execute(ctx, j), nil
}

func (e *Executor) transition(j *job, state State, step, total int) {
	j.log.WithField("state", state).Debug("Rewrite state changed")

	if e.cfg.OnProgress != nil {
		e.cfg.OnProgress(Progress{
			InvocationID: j.id,
			State:        state,
			Step:         step,
			Total:        total,
		})
	}
}

// execute runs a preflighted plan job to completion. It never returns an
// error: failures come back as outcomes that have already been recovered.
func (e *Executor) execute(ctx context.Context, j *job) Outcome {
	start := time.Now()
	total := len(j.todo.Lines)

	e.transition(j, StateStarting, 0, total)

	out := Outcome{OrigHeadSha: j.orig, InvocationID: j.id}
	finish := func(state State) Outcome {
		out.Duration = time.Since(start)
		e.transition(j, state, 0, total)
		j.log.WithField("status", out.Status).Infof(
			"Rewrite finished in %v", out.Duration,
		)

		return out
	}

	switch {
	case j.todo.Empty():
		out.Status = StatusSuccess
		out.Halt = HaltSucceeded
		out.NewHeadSha = j.orig
		out.Message = "nothing to rewrite"

		return finish(StateSucceeded)

	// Only drops after the unchanged prefix: the result is the upstream
	// commit itself.
	case j.todo.OnlyDrops():
		e.recordStart(ctx, j)

		return finish(e.resetTo(ctx, j, &out))
	}

	e.recordStart(ctx, j)

	hooks, err := e.cfg.Editors.Prepare(Session{
		ID:     j.id,
		GitDir: j.repo.GitDir,
		Todo:   j.todo,
	})
	if err != nil {
		out.Status = StatusAborted
		out.Halt = HaltCrashed
		out.Message = fmt.Sprintf("failed to prepare editors: %v", err)

		return finish(StateCrashFailed)
	}
	defer func() {
		if err := hooks.Release(); err != nil {
			j.log.Warnf("Unable to remove scratch files: %v", err)
		}
	}()

	var watcher *progressWatcher
	if e.cfg.OnProgress != nil {
		watcher, err = watchProgress(
			j.repo.GitDir, j.log, func(step, total int) {
				e.transition(j, StateRunning, step, total)
			},
		)
		if err != nil {
			j.log.Debugf("Progress reporting disabled: %v", err)
		}
	}

	args := []string{
		"-c", "rebase.updateRefs=false",
		"rebase", "-i", "--no-autosquash",
	}
	if j.root {
		args = append(args, "--root")
	} else {
		args = append(args, j.upstream)
	}

	env := []string{
		"GIT_SEQUENCE_EDITOR=" + hooks.SequenceEditor,
		"GIT_TERMINAL_PROMPT=0",
	}
	if hooks.Editor != "" {
		env = append(env, "GIT_EDITOR="+hooks.Editor)
	}

	j.log.Debugf("Running git %s", strings.Join(args, " "))
	res, runErr := j.repo.Exec(ctx, git.Invocation{Args: args, Env: env})

	var splitErr error
	if stoppedForSplit(j, res, runErr) {
		j.log.Debugf("Splitting %s", short(j.split.commit.Sha))

		splitErr = splitHead(ctx, j)
		if splitErr == nil {
			res, runErr = j.repo.Exec(ctx, git.Invocation{
				Args: []string{"rebase", "--continue"},
				Env:  env,
			})
		}
	}

	// No Running report may follow the final state.
	if watcher != nil {
		if err := watcher.Close(); err != nil {
			j.log.Debugf("Unable to close progress watcher: %v", err)
		}
	}

	ex := exit{
		ctxErr:     ctx.Err(),
		runErr:     runErr,
		splitErr:   splitErr,
		result:     res,
		inProgress: j.repo.RebaseInProgress(),
	}
	out.Halt = classify(ex)
	if res != nil {
		out.Output = res.Output()
	}

	// Recovery must run even when the caller's context is gone.
	rctx := context.WithoutCancel(ctx)

	if out.Halt == HaltSucceeded {
		head, err := j.repo.HeadSha(rctx)
		if err != nil {
			out.Status = StatusFailed
			out.Message = fmt.Sprintf(
				"rebase finished but HEAD is unreadable: %v", err,
			)

			return finish(StateCrashFailed)
		}

		out.Status = StatusSuccess
		out.NewHeadSha = head
		out.Message = describe(out.Halt, ex, "")

		return finish(StateSucceeded)
	}

	if ex.inProgress {
		out.StoppedAtSha = stoppedAt(j.repo, j.todo)
	}
	out.Message = describe(out.Halt, ex, out.StoppedAtSha)

	if e.cfg.KeepStopped && out.Halt == HaltConflict && ex.inProgress {
		out.Status = StatusConflictStopped

		return finish(StateConflictHalted)
	}

	return finish(e.restore(rctx, j, &out))
}

// executeReset runs a preflighted reset job.
func (e *Executor) executeReset(ctx context.Context, j *job) Outcome {
	start := time.Now()
	e.transition(j, StateStarting, 0, 0)
	e.recordStart(ctx, j)

	out := Outcome{OrigHeadSha: j.orig, InvocationID: j.id}
	state := e.resetTo(ctx, j, &out)
	out.Duration = time.Since(start)
	e.transition(j, state, 0, 0)

	return out
}

// resetTo hard resets to the job's upstream and fills in the outcome.
func (e *Executor) resetTo(ctx context.Context, j *job, out *Outcome) State {
	err := j.repo.ResetHard(ctx, j.upstream)
	if err == nil {
		out.Status = StatusSuccess
		out.Halt = HaltSucceeded
		out.NewHeadSha = j.upstream
		out.Message = fmt.Sprintf("reset to %s", short(j.upstream))

		return StateSucceeded
	}

	out.Halt = HaltCrashed
	if ctx.Err() != nil {
		out.Halt = HaltCancelled
	}
	out.Message = err.Error()

	return e.restore(context.WithoutCancel(ctx), j, out)
}

// restore puts the repository back at the job's original HEAD and sets the
// outcome's status accordingly.
func (e *Executor) restore(ctx context.Context, j *job, out *Outcome) State {
	err := recoverRepo(ctx, j)
	if err != nil {
		j.log.Errorf("Unable to restore %s: %v", short(j.orig), err)

		out.Status = StatusFailed
		out.Message = fmt.Sprintf(
			"%s; restoring %s failed: %v", out.Message, short(j.orig), err,
		)

		return StateCrashFailed
	}

	out.Status = StatusAborted
	out.Message = fmt.Sprintf(
		"%s; restored %s", out.Message, short(j.orig),
	)

	return StateAborted
}

// recoverRepo aborts any rebase left behind and checks that HEAD is back
// where the job started. If it is not, it falls back to quitting the rebase
// and resetting by hand.
func recoverRepo(ctx context.Context, j *job) error {
	repo := j.repo

	var errs []error
	if repo.RebaseInProgress() {
		if err := repo.RebaseAbort(ctx); err != nil {
			j.log.Warnf("Rebase abort failed: %v", err)
			errs = append(errs, err)
		}
	}

	if restored(ctx, j) {
		return nil
	}

	j.log.Warn("HEAD not restored by abort, resetting by hand")

	if repo.RebaseInProgress() {
		if err := repo.RebaseQuit(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if j.branch != "" {
		current, err := repo.CurrentBranch(ctx)
		if err != nil || current != j.branch {
			if err := repo.ForceCheckout(ctx, j.branch); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := repo.ResetHard(ctx, j.orig); err != nil {
		errs = append(errs, err)
	}

	if restored(ctx, j) {
		return nil
	}

	errs = append(errs, fmt.Errorf("HEAD is not at %s", short(j.orig)))

	return errors.Join(errs...)
}

func restored(ctx context.Context, j *job) bool {
	if j.repo.RebaseInProgress() {
		return false
	}
	head, err := j.repo.HeadSha(ctx)
	if err != nil || head != j.orig {
		return false
	}
	if j.branch == "" {
		return true
	}
	current, err := j.repo.CurrentBranch(ctx)

	return err == nil && current == j.branch
}

// stoppedAt returns the full sha of the commit git was replaying when it
// stopped, taken from the last line of the done file.
func stoppedAt(repo *git.Repo, todo *rebase.Todo) string {
	done := readFileQuiet(filepath.Join(repo.RebaseMergeDir(), "done"))
	entries := rebase.ParseTodoFile(done)
	if len(entries) == 0 {
		return ""
	}
	entry := entries[len(entries)-1]

	for _, l := range todo.Lines {
		if strings.HasPrefix(l.Sha, entry.Commit) {
			return l.Sha
		}
	}

	return entry.Commit
}

func readFileQuiet(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	return string(data)
}
