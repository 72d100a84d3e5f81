package cmd

import (
	"os"

	"github.com/devflow/devflow/cli"
	"github.com/devflow/devflow/version"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the devflow command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := cli.NewStandardCommand(
		"devflow",
		"Run a project's tests whenever its files change",
	)
	cli.SetVersionTemplate(rootCmd, version.GetInfo())

	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("devflow"))

	cli.ApplyStyledHelpRecursive(rootCmd)
	return rootCmd
}

// Execute runs devflow with the process arguments and returns the exit code.
func Execute() int {
	cli.SetupColor(os.Stdout)

	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		cli.NewErrorHandler(verbose).Handle(err)
		return 1
	}
	return 0
}
