package commands

import (
	"fmt"
	"slices"

	"github.com/roasbeef/histedit/diffstat"
	"github.com/roasbeef/histedit/engine"
	"github.com/roasbeef/histedit/output"
	"github.com/roasbeef/histedit/rebase"
	"github.com/spf13/cobra"
)

// NewRewordCmd creates the reword command.
func NewRewordCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "reword SHA",
		Short: "Change a commit's message",
		Long: `Replace the message of SHA and replay the commits after it.

Without -m, the configured editor (settings file, then $VISUAL, then
$EDITOR) is opened on the terminal with the current message.`,
		Example: `  # Reword a commit
  histedit reword abc1234 -m "Fix the frobnicator"

  # Edit the message in your editor
  histedit reword abc1234`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())

			var editors engine.EditorStrategy
			if message == "" {
				editor := messageEditor(cfg)
				if editor == "" {
					return fmt.Errorf("no message given: pass -m or " +
						"configure an editor")
				}
				editors = &engine.Terminal{
					Command: editor,
					BaseDir: cfg.Settings.ScratchDir,
				}
			}

			s, err := newSession(cmd, editors)
			if err != nil {
				return err
			}

			plan, err := s.loadPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if message != "" {
				plan, err = plan.SetMessage(0, message)
			} else {
				plan, err = plan.SetOperation(0, rebase.OpReword)
			}
			if err != nil {
				return err
			}

			return s.apply(cmd.Context(), plan)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "new commit message")

	return cmd
}

// NewDropCmd creates the drop command.
func NewDropCmd() *cobra.Command {
	var preview bool

	cmd := &cobra.Command{
		Use:   "drop SHA...",
		Short: "Remove commits from history",
		Long: `Drop one or more commits and replay the commits after them.

The oldest commit must come first. With --preview, the changes that would
be lost are shown and nothing is rewritten.`,
		Example: `  # See what dropping a commit throws away
  histedit drop abc1234 --preview

  # Drop two commits
  histedit drop abc1234 def5678`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, nil)
			if err != nil {
				return err
			}

			plan, err := s.loadPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			indices, err := resolveSteps(plan, args)
			if err != nil {
				return err
			}

			if preview {
				return s.previewDrops(cmd, plan, indices)
			}

			for _, idx := range indices {
				plan, err = plan.SetOperation(idx, rebase.OpDrop)
				if err != nil {
					return err
				}
			}

			return s.apply(cmd.Context(), plan)
		},
	}

	cmd.Flags().BoolVar(
		&preview, "preview", false, "show what would be dropped",
	)

	return cmd
}

// previewDrops prints the diffstat of each commit that would be dropped.
func (s *session) previewDrops(cmd *cobra.Command, plan rebase.Plan,
	indices []int) error {

	ctx := cmd.Context()
	repo, err := s.openRepo(ctx)
	if err != nil {
		return err
	}

	for _, idx := range indices {
		step, err := plan.Step(idx)
		if err != nil {
			return err
		}

		stat, err := diffstat.ForCommit(ctx, repo, step.Commit.Sha)
		if err != nil {
			return err
		}

		if s.cfg.JSONOut {
			err = output.FormatStatJSON(s.out, step.Commit.Sha, stat)
			if err != nil {
				return err
			}

			continue
		}

		fmt.Fprintf(s.out, "drop %s %s\n", step.Commit.ShortSha,
			step.Commit.Subject)
		if err := output.FormatStatText(s.out, stat, s.textOptions()); err != nil {
			return err
		}
	}

	return nil
}

// NewSquashCmd creates the squash command.
func NewSquashCmd() *cobra.Command {
	var (
		message string
		fixup   bool
	)

	cmd := &cobra.Command{
		Use:   "squash SHA SHA...",
		Short: "Combine adjacent commits into the oldest one",
		Long: `Meld two or more adjacent commits into the oldest of them.

The combined commit keeps the oldest commit's message unless -m is given.
With --fixup, the newer messages are discarded and -m is not allowed.`,
		Example: `  # Squash three commits with a new message
  histedit squash abc1234 def5678 0123abc -m "Add the frobnicator"

  # Fold a fixup commit into its parent
  histedit squash abc1234 def5678 --fixup`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fixup && message != "" {
				return fmt.Errorf("--fixup does not take a message")
			}

			s, err := newSession(cmd, nil)
			if err != nil {
				return err
			}

			plan, err := s.loadPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			indices, err := resolveSteps(plan, args)
			if err != nil {
				return err
			}
			slices.Sort(indices)
			for i := 1; i < len(indices); i++ {
				if indices[i] != indices[i-1]+1 {
					return fmt.Errorf("commits to squash must be " +
						"adjacent and distinct")
				}
			}

			op := rebase.OpSquash
			if fixup {
				op = rebase.OpFixup
			}
			for _, idx := range indices[1:] {
				plan, err = plan.SetOperation(idx, op)
				if err != nil {
					return err
				}
			}

			if message != "" {
				plan, err = plan.SetMessage(indices[0], message)
				if err != nil {
					return err
				}
			}

			return s.apply(cmd.Context(), plan)
		},
	}

	cmd.Flags().StringVarP(
		&message, "message", "m", "", "message for the combined commit",
	)
	cmd.Flags().BoolVar(
		&fixup, "fixup", false, "keep only the oldest commit's message",
	)

	return cmd
}

// NewMoveCmd creates the move command.
func NewMoveCmd() *cobra.Command {
	var (
		to   int
		from string
	)

	cmd := &cobra.Command{
		Use:   "move SHA --to INDEX",
		Short: "Move a commit to another position",
		Long: `Move SHA so that it ends up at INDEX, counting from the oldest
commit of the range as 0. The range is the one list prints for the same
--from boundary; by default the whole history.`,
		Example: `  # Make a commit the oldest of the last four
  histedit list HEAD~3
  histedit move def5678 --from HEAD~3 --to 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("to") {
				return fmt.Errorf("--to is required")
			}

			s, err := newSession(cmd, nil)
			if err != nil {
				return err
			}

			plan, err := s.loadPlan(cmd.Context(), from)
			if err != nil {
				return err
			}

			indices, err := resolveSteps(plan, args)
			if err != nil {
				return err
			}

			plan, err = plan.Reorder(indices[0], to)
			if err != nil {
				return err
			}

			return s.apply(cmd.Context(), plan)
		},
	}

	cmd.Flags().IntVar(&to, "to", 0, "target index in the range (required)")
	cmd.Flags().StringVar(
		&from, "from", "", "oldest commit of the range (default root)",
	)

	return cmd
}

// NewSplitCmd creates the split command.
func NewSplitCmd() *cobra.Command {
	var (
		file  string
		hunks bool
	)

	cmd := &cobra.Command{
		Use:   "split SHA (--file PATH | --hunks)",
		Short: "Break a commit into smaller ones",
		Long: `Split SHA in place and replay the commits after it.

With --file, the changes SHA makes to PATH move into a new commit right
after it; the original keeps everything else and its message. With
--hunks, every hunk becomes its own commit, numbered in the subject.
The last commit of a split always has the same tree as SHA had.`,
		Example: `  # Move a stray file out of a commit
  histedit split abc1234 --file go.sum

  # One commit per hunk
  histedit split abc1234 --hunks`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (file == "") == !hunks {
				return fmt.Errorf("give exactly one of --file " +
					"and --hunks")
			}

			s, err := newSession(cmd, nil)
			if err != nil {
				return err
			}

			plan, err := s.loadPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return s.split(cmd.Context(), plan, engine.Split{
				Step: 0,
				Path: file,
			})
		},
	}

	cmd.Flags().StringVar(
		&file, "file", "", "move this file's changes to a new commit",
	)
	cmd.Flags().BoolVar(
		&hunks, "hunks", false, "make one commit per hunk",
	)

	return cmd
}
