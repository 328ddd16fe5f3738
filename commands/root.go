// Package commands contains the CLI command implementations.
package commands

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/roasbeef/histedit/config"
	"github.com/roasbeef/histedit/history"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// configKey is the context key for runtime config.
type configKey struct{}

// Config holds runtime configuration for commands.
type Config struct {
	WorkDir string
	JSONOut bool

	// Settings is the loaded settings file, with flags applied on top.
	Settings config.Settings
}

// repoDir returns the directory commands operate on.
func (c Config) repoDir() string {
	if c.WorkDir == "" {
		return "."
	}

	return c.WorkDir
}

// getConfig retrieves config from context, or returns defaults.
func getConfig(ctx context.Context) Config {
	if cfg, ok := ctx.Value(configKey{}).(Config); ok {
		return cfg
	}

	return Config{Settings: config.Default()}
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var (
		workDir    string
		jsonOut    bool
		configPath string
		verbose    bool
		native     bool
	)

	cmd := &cobra.Command{
		Use:     "histedit",
		Short:   "Rewrite local git history without an editor",
		Version: Version,
		Long: `Histedit reorders, rewords, squashes and drops commits by driving
git's interactive rebase headlessly.

Every rewrite runs as a single git rebase. If git stops for any reason,
the rebase is aborted and the branch is put back exactly where it was.

Examples:
  # List the commits that can be edited
  histedit list

  # Reword a commit
  histedit reword abc1234 -m "Better subject"

  # Squash two adjacent commits into the older one
  histedit squash abc1234 def5678 -m "Combined change"

  # Preview, then drop a commit
  histedit drop abc1234 --preview
  histedit drop abc1234

  # Move one file's changes out of a commit
  histedit split abc1234 --file go.sum

  # Apply a whole plan
  histedit apply pick:abc1234,squash:def5678,drop:0123abc

  # Go back to where the branch was before the first rewrite
  histedit reset --start`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(configPath)
			if err != nil {
				return err
			}

			if native {
				settings.Reader = history.BackendNative
			}
			if verbose {
				settings.LogLevel = logrus.DebugLevel.String()
			}
			setupLogging(cmd, settings)

			switch settings.Color {
			case config.ColorAlways:
				color.NoColor = false
			case config.ColorNever:
				color.NoColor = true
			}

			// Store config in context for subcommands.
			cfg := Config{
				WorkDir:  workDir,
				JSONOut:  jsonOut,
				Settings: settings,
			}
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			cmd.SetContext(ctx)

			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(
		&workDir, "dir", "C", "",
		"run as if git was started in this directory",
	)
	cmd.PersistentFlags().BoolVar(
		&jsonOut, "json", false,
		"output in JSON format (for machine consumption)",
	)
	cmd.PersistentFlags().StringVar(
		&configPath, "config", "",
		"settings file (default $XDG_CONFIG_HOME/histedit/config.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false,
		"log debug output to stderr",
	)
	cmd.PersistentFlags().BoolVar(
		&native, "native", false,
		"read history in-process instead of through git log",
	)

	// Add subcommands.
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewApplyCmd())
	cmd.AddCommand(NewRewordCmd())
	cmd.AddCommand(NewDropCmd())
	cmd.AddCommand(NewSquashCmd())
	cmd.AddCommand(NewMoveCmd())
	cmd.AddCommand(NewSplitCmd())
	cmd.AddCommand(NewMarkCmd())
	cmd.AddCommand(NewResetCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewAbortCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

func loadSettings(path string) (config.Settings, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			logrus.Debugf("Settings disabled: %v", err)
			return config.Default(), nil
		}
	}

	return config.Load(path, explicit)
}

func setupLogging(cmd *cobra.Command, settings config.Settings) {
	logrus.SetOutput(cmd.ErrOrStderr())
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	logrus.SetLevel(settings.Level())
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
