package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devflow/devflow/cli"
	"github.com/devflow/devflow/config"
	"github.com/devflow/devflow/errors"
	"github.com/devflow/devflow/pkg/watch"
	"github.com/devflow/devflow/util/pathutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type watchFlags struct {
	testCommand  string
	ignore       []string
	debounce     time.Duration
	pollInterval time.Duration
}

func NewWatchCmd() *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Run the test suite whenever a file changes",
		Long: `Watches the project directory and runs its test suite after every relevant change.

The test command is derived from the project type (go.mod, Cargo.toml,
package.json, pyproject.toml or requirements.txt) unless test_command is set.
Changes matching ignore_globs are skipped. Changes made while tests are running
trigger a single follow-up run.

Examples:
  # Watch the current directory
  devflow watch

  # Wait for editors to finish writing before running
  devflow watch --debounce 200ms

  # Use a custom command and ignore generated files
  devflow watch --test-command "make test" --ignore "gen/**"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)

			root, err := resolveRoot(args)
			if err != nil {
				return err
			}

			cfg, err := cli.LoadConfig(opts, root)
			if err != nil {
				return err
			}
			if err := cli.ConfigureLogging(cfg, opts); err != nil {
				return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid logging section")
			}
			logger := cli.GetLogger(cmd)

			sessionOpts, err := sessionOptions(cfg, root, cmd, flags)
			if err != nil {
				return err
			}
			sessionOpts.Stdout = cmd.OutOrStdout()
			sessionOpts.Stderr = cmd.ErrOrStderr()

			session, err := watch.New(sessionOpts)
			if err != nil {
				return err
			}
			defer session.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runErr := session.Run(ctx)

			stats := session.Stats()
			logger.WithFields(logrus.Fields{
				"events":         stats.Events,
				"ignored":        stats.Ignored,
				"runs":           stats.Runs,
				"spawn_failures": stats.SpawnFailures,
			}).Debug("Watch finished")
			return runErr
		},
	}

	cmd.Flags().StringVar(&flags.testCommand, "test-command", "", "Command to run instead of the project default")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "Additional ignore glob, may be repeated")
	cmd.Flags().DurationVar(&flags.debounce, "debounce", 0, "Collect changes for this long before running")
	cmd.Flags().DurationVar(&flags.pollInterval, "poll-interval", config.DefaultPollInterval, "How often to check for shutdown while idle")

	return cmd
}

// resolveRoot returns the absolute project directory named by args, or the
// working directory.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	abs, err := pathutil.Expand(root)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInvalidInput, "cannot resolve project directory").
			WithDetail("root", root)
	}
	return abs, nil
}

// sessionOptions combines the configuration file with flags set on cmd.
// Flags win; --ignore adds to ignore_globs.
func sessionOptions(cfg *config.Config, root string, cmd *cobra.Command, flags watchFlags) (watch.Options, error) {
	poll, err := cfg.Watch.PollIntervalDuration()
	if err != nil {
		return watch.Options{}, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid watch settings")
	}
	debounce, err := cfg.Watch.DebounceDuration()
	if err != nil {
		return watch.Options{}, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid watch settings")
	}

	opts := watch.Options{
		Root:         root,
		IgnoreGlobs:  append(append([]string{}, cfg.IgnoreGlobs...), flags.ignore...),
		TestCommand:  cfg.TestCommand,
		Env:          cfg.Watch.TestEnv,
		PollInterval: poll,
		Debounce:     debounce,
	}

	if cmd.Flags().Changed("test-command") {
		opts.TestCommand = flags.testCommand
	}
	if cmd.Flags().Changed("debounce") {
		if flags.debounce < 0 {
			return watch.Options{}, errors.New(errors.ErrCodeInvalidInput, "--debounce must not be negative")
		}
		opts.Debounce = flags.debounce
	}
	if cmd.Flags().Changed("poll-interval") {
		if flags.pollInterval <= 0 {
			return watch.Options{}, errors.New(errors.ErrCodeInvalidInput, "--poll-interval must be positive")
		}
		opts.PollInterval = flags.pollInterval
	}
	return opts, nil
}
