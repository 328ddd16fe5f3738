package commands

import (
	"fmt"

	"github.com/roasbeef/histedit/diffstat"
	"github.com/roasbeef/histedit/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewResetCmd creates the reset command.
func NewResetCmd() *cobra.Command {
	var start, best bool

	cmd := &cobra.Command{
		Use:   "reset [SHA | --start | --best]",
		Short: "Hard reset the current branch to a commit",
		Long: `Move the current branch and the worktree to SHA.

The worktree must be clean. Use this to go back to the HEAD printed by an
earlier rewrite. With --start, go back to where the branch was before the
first rewrite of the session; with --best, to the commit saved by mark.`,
		Example: `  # Undo the last rewrite
  histedit reword abc1234 -m "Oops"
  histedit reset 9fceb02

  # Throw away every rewrite since the session began
  histedit reset --start`,
		Args: cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			switch {
			case start && best:
				return fmt.Errorf("--start and --best are exclusive")

			case (start || best) && len(args) > 0:
				return fmt.Errorf("a commit cannot be given with " +
					"--start or --best")

			case !start && !best && len(args) == 0:
				return fmt.Errorf("give a commit, --start or --best")

			case len(args) > 0:
				target = args[0]
			}

			s, err := newSession(cmd, nil)
			if err != nil {
				return err
			}

			switch {
			case start:
				return s.run(cmd.Context(), s.engine.RestoreSessionStart)

			case best:
				return s.run(cmd.Context(), s.engine.RestoreBookmark)
			}

			return s.reset(cmd.Context(), target)
		},
	}

	cmd.Flags().BoolVar(
		&start, "start", false,
		"reset to HEAD as it was before the session's first rewrite",
	)
	cmd.Flags().BoolVar(
		&best, "best", false, "reset to the commit saved with mark",
	)

	return cmd
}

// NewMarkCmd creates the mark command.
func NewMarkCmd() *cobra.Command {
	var (
		show  bool
		end  bool
	)

	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Remember the current HEAD as the best result so far",
		Long: `Save HEAD so that reset --best can return to it after further
rewrites.

The first rewrite of a session also saves the HEAD it started from, for
reset --start. Both survive between runs until mark --clear ends the
session.`,
		Example: `  histedit mark
  histedit squash abc1234 def5678 -m "Try this"
  histedit reset --best

  # Forget the session start and the mark
  histedit mark --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if show && end {
				return fmt.Errorf("--show and --clear are exclusive")
			}

			s, err := newSession(cmd, nil)
			if err != nil {
				return err
			}
			dir := s.cfg.repoDir()

			switch {
			case end:
				if err := s.engine.EndSession(ctx, dir); err != nil {
					return err
				}
				fmt.Fprintln(s.out, "Session ended.")

				return nil

			case show:
				return s.printSession(ctx)
			}

			sha, err := s.engine.Mark(ctx, dir)
			if err != nil {
				return err
			}
			logrus.WithField("sha", sha).Debug("Bookmark saved")

			if s.cfg.JSONOut {
				return output.FormatSessionJSON(
					s.out, output.SessionOutput{Best: sha},
				)
			}
			fmt.Fprintf(s.out, "Marked %s\n", sha)

			return nil
		},
	}

	cmd.Flags().BoolVar(
		&show, "show", false,
		"print the session start and the mark instead of marking",
	)
	cmd.Flags().BoolVar(
		&end, "clear", false,
		"forget the session start and the mark",
	)

	return cmd
}

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show SHA",
		Short: "Summarize the changes a commit makes",
		Long:  `Show the per-file line counts a commit introduces.`,
		Example: `  histedit show abc1234
  histedit show HEAD --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := newSession(cmd, nil)
			if err != nil {
				return err
			}

			rng, err := s.engine.LoadRange(ctx, s.cfg.repoDir(), args[0])
			if err != nil {
				return err
			}
			commit := rng.Commits[0]

			repo, err := s.openRepo(ctx)
			if err != nil {
				return err
			}

			stat, err := diffstat.ForCommit(ctx, repo, commit.Sha)
			if err != nil {
				return err
			}

			if s.cfg.JSONOut {
				return output.FormatStatJSON(s.out, commit.Sha, stat)
			}

			fmt.Fprintf(s.out, "%s %s\n", commit.ShortSha, commit.Subject)

			return output.FormatStatText(s.out, stat, s.textOptions())
		},
	}

	return cmd
}

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a rebase is in progress",
		Long: `Show git's rebase state for the repository.

A run with histedit never leaves a rebase behind, but an interrupted manual
rebase or a crash can. Use abort to clear it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := newSession(cmd, nil)
			if err != nil {
				return err
			}

			repo, err := s.openRepo(ctx)
			if err != nil {
				return err
			}

			state, err := repo.RebaseState(ctx)
			if err != nil {
				return err
			}

			if s.cfg.JSONOut {
				return output.FormatRebaseStateJSON(s.out, state)
			}

			return output.FormatRebaseStateText(
				s.out, state, s.textOptions(),
			)
		},
	}

	return cmd
}

// NewAbortCmd creates the abort command.
func NewAbortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abort",
		Short: "Abort a rebase left in progress",
		Long: `Run git rebase --abort if a rebase is in progress, restoring the
branch to where it was before that rebase started.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := newSession(cmd, nil)
			if err != nil {
				return err
			}

			repo, err := s.openRepo(ctx)
			if err != nil {
				return err
			}

			if !repo.RebaseInProgress() {
				fmt.Fprintln(s.out, "No rebase in progress.")
				return nil
			}

			if err := repo.RebaseAbort(ctx); err != nil {
				return err
			}

			logrus.WithField("repo", repo.Root).Info("Rebase aborted")
			fmt.Fprintln(s.out, "Rebase aborted.")

			return nil
		},
	}

	return cmd
}
