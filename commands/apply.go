package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/roasbeef/histedit/rebase"
	"github.com/spf13/cobra"
)

// NewApplyCmd creates the apply command.
func NewApplyCmd() *cobra.Command {
	var (
		specFile string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "apply [BOUNDARY] [ACTIONS]",
		Short: "Apply a whole rewrite plan in one rebase",
		Long: `Apply a plan that lists every commit from BOUNDARY to HEAD.

The plan is either a JSON or YAML file given with --spec, or the shorthand
ACTIONS argument. Commits are listed oldest first; listing a commit at a
different position moves it. Without BOUNDARY the range starts at the root
commit.

Shorthand formats:
  abc1234,def5678                 pick both, in this order
  pick:abc1234,squash:def5678     explicit operations
  reword:abc1234:'New, message'   operation with a message

Spec file format (YAML):
  actions:
    - action: pick
      commit: abc1234
    - action: squash
      commit: def5678
      message: Combined change

Operations: pick (p), reword (r), edit (e), squash (s), fixup (f), drop (d).`,
		Example: `  # Squash the last two commits
  histedit apply HEAD~1 pick:abc1234,squash:def5678

  # Apply a plan file
  histedit apply HEAD~3 --spec plan.yaml

  # Read the plan from stdin and only show what would run
  cat plan.json | histedit apply HEAD~3 --spec - --dry-run`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				spec     *rebase.Spec
				boundary string
				err      error
			)
			switch {
			case specFile != "":
				if len(args) > 1 {
					return fmt.Errorf("--spec takes at most a " +
						"boundary argument")
				}
				if len(args) == 1 {
					boundary = args[0]
				}

				spec, err = readSpec(cmd.InOrStdin(), specFile)

			case len(args) == 0:
				return fmt.Errorf("either --spec or ACTIONS is required")

			default:
				if len(args) == 2 {
					boundary = args[0]
				}

				spec, err = rebase.ParseCLISpec(args[len(args)-1:])
			}
			if err != nil {
				return err
			}

			s, err := newSession(cmd, nil)
			if err != nil {
				return err
			}

			plan, err := s.loadPlan(cmd.Context(), boundary)
			if err != nil {
				return err
			}

			plan, err = spec.ApplyTo(plan)
			if err != nil {
				return err
			}

			if dryRun {
				return s.printPlan(plan)
			}

			return s.apply(cmd.Context(), plan)
		},
	}

	cmd.Flags().StringVar(
		&specFile, "spec", "", "plan file in JSON or YAML; - for stdin",
	)
	cmd.Flags().BoolVar(
		&dryRun, "dry-run", false, "print the plan without applying it",
	)

	return cmd
}

// readSpec parses a plan spec from a file, or from stdin for "-".
func readSpec(stdin io.Reader, path string) (*rebase.Spec, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read spec: %w", err)
	}

	return rebase.ParseSpec(data)
}
