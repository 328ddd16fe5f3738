package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/roasbeef/histedit/engine"
	"github.com/roasbeef/histedit/git"
	"github.com/roasbeef/histedit/history"
	"github.com/roasbeef/histedit/output"
	"github.com/roasbeef/histedit/rebase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// OutcomeError is returned by rewriting commands whose outcome was not a
// success, after the outcome has been printed.
type OutcomeError struct {
	Outcome engine.Outcome
}

func (e *OutcomeError) Error() string {
	return fmt.Sprintf("rewrite %s: %s", e.Outcome.Status, e.Outcome.Message)
}

// session bundles what a command needs to read and rewrite history.
type session struct {
	cfg    Config
	runner git.Runner
	engine *engine.Engine
	out    io.Writer
	errOut io.Writer
}

// newSession builds an engine from the command's config. A nil strategy
// uses scripted editors in the configured scratch dir.
func newSession(cmd *cobra.Command,
	editors engine.EditorStrategy) (*session, error) {

	cfg := getConfig(cmd.Context())
	runner := git.NewShellRunner(cfg.Settings.GitPath)

	reader, err := history.NewReader(cfg.Settings.Reader, runner)
	if err != nil {
		return nil, err
	}

	if editors == nil {
		editors = &engine.Scripted{BaseDir: cfg.Settings.ScratchDir}
	}

	s := &session{
		cfg:    cfg,
		runner: runner,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}

	engineCfg := engine.Config{
		Runner:  runner,
		Editors: editors,
		Log:     logrus.WithField("component", "engine"),
	}
	if !cfg.JSONOut {
		engineCfg.OnProgress = s.reportProgress
	}
	s.engine = engine.New(engineCfg, reader)

	return s, nil
}

// textOptions returns the text formatting options for this session.
func (s *session) textOptions() output.TextOptions {
	opts := output.DefaultTextOptions()
	opts.Color = !color.NoColor

	return opts
}

func (s *session) reportProgress(p engine.Progress) {
	if p.State != engine.StateRunning {
		return
	}

	fmt.Fprintf(s.errOut, "Replaying %d/%d\r", p.Step, p.Total)
}

// openRepo opens the repository the command runs in.
func (s *session) openRepo(ctx context.Context) (*git.Repo, error) {
	return git.Open(ctx, s.runner, s.cfg.repoDir())
}

// loadPlan reads the range from boundary and wraps it in a fresh plan.
func (s *session) loadPlan(ctx context.Context,
	boundary string) (rebase.Plan, error) {

	rng, err := s.engine.LoadRange(ctx, s.cfg.repoDir(), boundary)
	if err != nil {
		return rebase.Plan{}, err
	}

	return rebase.NewPlan(rng), nil
}

// starter begins a rewrite of the repository at repoPath.
type starter func(ctx context.Context,
	repoPath string) (<-chan engine.Outcome, error)

// run starts a rewrite that Ctrl-C cancels and reports its outcome.
func (s *session) run(ctx context.Context, start starter) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	done, err := start(ctx, s.cfg.repoDir())
	if err != nil {
		return err
	}

	return s.report(<-done)
}

// apply runs plan and reports the outcome.
func (s *session) apply(ctx context.Context, plan rebase.Plan) error {
	return s.run(ctx, func(ctx context.Context,
		repoPath string) (<-chan engine.Outcome, error) {

		return s.engine.Apply(ctx, repoPath, plan)
	})
}

// split breaks one step of plan apart and reports the outcome.
func (s *session) split(ctx context.Context, plan rebase.Plan,
	split engine.Split) error {

	return s.run(ctx, func(ctx context.Context,
		repoPath string) (<-chan engine.Outcome, error) {

		return s.engine.Split(ctx, repoPath, plan, split)
	})
}

// reset hard resets to target and reports the outcome.
func (s *session) reset(ctx context.Context, target string) error {
	return s.run(ctx, func(ctx context.Context,
		repoPath string) (<-chan engine.Outcome, error) {

		return s.engine.Reset(ctx, repoPath, target)
	})
}

// report prints an outcome and turns anything but success into an error.
func (s *session) report(out engine.Outcome) error {
	var err error
	if s.cfg.JSONOut {
		err = output.FormatOutcomeJSON(s.out, out)
	} else {
		err = output.FormatOutcomeText(s.out, out, s.textOptions())
	}
	if err != nil {
		return err
	}

	decision := engine.Decide(out)
	logrus.WithFields(logrus.Fields{
		"action":     decision.Action,
		"invocation": out.InvocationID,
	}).Debug(decision.Reason)

	if decision.Action != engine.ActionCommit {
		return &OutcomeError{Outcome: out}
	}

	return nil
}

// printSession writes the session start and the bookmark, if set.
func (s *session) printSession(ctx context.Context) error {
	var refs output.SessionOutput

	start, _, err := s.engine.SessionStart(ctx, s.cfg.repoDir())
	if err != nil {
		return err
	}
	refs.Start = start

	best, _, err := s.engine.Bookmark(ctx, s.cfg.repoDir())
	if err != nil {
		return err
	}
	refs.Best = best

	if s.cfg.JSONOut {
		return output.FormatSessionJSON(s.out, refs)
	}

	return output.FormatSessionText(s.out, refs, s.textOptions())
}

// printPlan writes a plan without applying it.
func (s *session) printPlan(plan rebase.Plan) error {
	if s.cfg.JSONOut {
		return output.FormatPlanJSON(s.out, plan)
	}

	return output.FormatPlanText(s.out, plan, s.textOptions())
}

// resolveSteps maps each commit argument to its index in plan.
func resolveSteps(plan rebase.Plan, shas []string) ([]int, error) {
	indices := make([]int, 0, len(shas))
	for _, sha := range shas {
		idx := plan.Index(sha)
		if idx < 0 {
			return nil, fmt.Errorf("commit %q not found in range "+
				"(or ambiguous); list the oldest commit first", sha)
		}
		indices = append(indices, idx)
	}

	return indices, nil
}

// messageEditor returns the terminal editor for messages not given on the
// command line, or "" if none is configured.
func messageEditor(cfg Config) string {
	if cfg.Settings.Editor != "" {
		return cfg.Settings.Editor
	}
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}

	return ""
}
