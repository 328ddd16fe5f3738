package engine

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/roasbeef/histedit/git"
	"github.com/roasbeef/histedit/history"
	"github.com/roasbeef/histedit/rebase"
)

// Engine is the caller-facing API. Reads are synchronous; applies and resets
// run on their own goroutine and deliver one Outcome on a channel. At most
// one rewrite runs per repository at a time.
type Engine struct {
	exec   *Executor
	reader history.Reader

	mu sync.Mutex

	// running maps a repository root to the cancel func of its
	// in-flight rewrite.
	running map[string]context.CancelFunc
}

// New creates an engine. A nil reader uses the CLI backend on the
// executor's runner.
func New(cfg Config, reader history.Reader) *Engine {
	exec := NewExecutor(cfg)
	if reader == nil {
		reader = history.NewCLIReader(exec.cfg.Runner)
	}

	return &Engine{
		exec:    exec,
		reader:  reader,
		running: make(map[string]context.CancelFunc),
	}
}

// LoadRange reads the commits from boundary to HEAD.
func (e *Engine) LoadRange(
	ctx context.Context, repoPath, boundary string,
) (*history.Range, error) {

	repo, err := git.Open(ctx, e.exec.cfg.Runner, repoPath)
	if err != nil {
		return nil, err
	}

	return e.reader.ReadRange(ctx, repo.Root, boundary)
}

// Apply preflights plan and starts rewriting on a new goroutine. Preflight
// failures are returned directly and leave the repository untouched. The
// returned channel yields exactly one Outcome and is then closed.
func (e *Engine) Apply(
	ctx context.Context, repoPath string, plan rebase.Plan,
) (<-chan Outcome, error) {

	return e.start(ctx, repoPath, func(runCtx context.Context,
		repo *git.Repo) (func() Outcome, error) {

		j, err := e.exec.preflight(runCtx, repo, plan)
		if err != nil {
			return nil, err
		}

		return func() Outcome { return e.exec.execute(runCtx, j) }, nil
	})
}

// Reset hard resets the repository to target without compiling a plan.
func (e *Engine) Reset(
	ctx context.Context, repoPath, target string,
) (<-chan Outcome, error) {

	return e.start(ctx, repoPath, func(runCtx context.Context,
		repo *git.Repo) (func() Outcome, error) {

		j, err := e.exec.preflightReset(runCtx, repo, target)
		if err != nil {
			return nil, err
		}

		return func() Outcome { return e.exec.executeReset(runCtx, j) }, nil
	})
}

// Split preflights plan with its split step turned into an edit stop, then
// rewrites on a new goroutine like Apply. Git stops after replaying the
// commit; it is broken into several commits and the rebase continues.
func (e *Engine) Split(
	ctx context.Context, repoPath string, plan rebase.Plan, split Split,
) (<-chan Outcome, error) {

	return e.start(ctx, repoPath, func(runCtx context.Context,
		repo *git.Repo) (func() Outcome, error) {

		j, err := e.exec.preflightSplit(runCtx, repo, plan, split)
		if err != nil {
			return nil, err
		}

		return func() Outcome { return e.exec.execute(runCtx, j) }, nil
	})
}

// Cancel stops the rewrite in flight for the repository. It reports whether
// there was one. The rewrite still delivers its Outcome once git has been
// stopped and the repository restored.
func (e *Engine) Cancel(repoPath string) bool {
	e.mu.Lock()
	cancel, ok := e.running[e.lookupRoot(repoPath)]
	e.mu.Unlock()

	if !ok {
		return false
	}
	cancel()

	return true
}

// Running reports whether a rewrite is in flight for the repository.
func (e *Engine) Running(repoPath string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.running[e.lookupRoot(repoPath)]

	return ok
}

type prepareFunc func(context.Context, *git.Repo) (func() Outcome, error)

// start claims the repository, runs prepare synchronously and the returned
// work on a goroutine.
func (e *Engine) start(
	ctx context.Context, repoPath string, prepare prepareFunc,
) (<-chan Outcome, error) {

	repo, err := e.exec.open(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := e.claim(repo.Root, cancel); err != nil {
		cancel()
		return nil, err
	}

	work, err := prepare(runCtx, repo)
	if err != nil {
		e.release(repo.Root)
		cancel()

		return nil, err
	}

	outcomes := make(chan Outcome, 1)
	go func() {
		defer close(outcomes)

		out := work()

		// Free the repository before delivering, so a caller reacting
		// to the outcome can start the next rewrite.
		e.release(repo.Root)
		cancel()

		outcomes <- out
	}()

	return outcomes, nil
}

func (e *Engine) claim(root string, cancel context.CancelFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.running[root]; ok {
		return &RebaseAlreadyRunningError{Root: root}
	}
	e.running[root] = cancel

	return nil
}

func (e *Engine) release(root string) {
	e.mu.Lock()
	delete(e.running, root)
	e.mu.Unlock()
}

// lookupRoot maps a caller's path to a key of the running map without
// running git. Paths below the root are matched against known roots. Must
// be called with mu held.
func (e *Engine) lookupRoot(repoPath string) string {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return repoPath
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	for dir := abs; ; dir = filepath.Dir(dir) {
		if _, ok := e.running[dir]; ok {
			return dir
		}
		if filepath.Dir(dir) == dir {
			return abs
		}
	}
}
