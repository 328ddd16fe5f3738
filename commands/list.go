package commands

import (
	"github.com/roasbeef/histedit/output"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [BOUNDARY]",
		Short: "List the commits that can be rewritten",
		Long: `List the commits from BOUNDARY to HEAD, oldest first.

BOUNDARY is any revision on HEAD's history and is itself included. Without
it, the whole history down to the root commit is listed. The index in the
first column is what move --to refers to.

Use --json for machine-readable output.`,
		Example: `  # List the whole branch
  histedit list

  # List the last five commits
  histedit list HEAD~4

  # JSON output for agents
  histedit list main~3 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var boundary string
			if len(args) == 1 {
				boundary = args[0]
			}

			s, err := newSession(cmd, nil)
			if err != nil {
				return err
			}

			rng, err := s.engine.LoadRange(
				cmd.Context(), s.cfg.repoDir(), boundary,
			)
			if err != nil {
				return err
			}

			if s.cfg.JSONOut {
				return output.FormatRangeJSON(s.out, rng)
			}

			return output.FormatRangeText(s.out, rng, s.textOptions())
		},
	}

	return cmd
}
