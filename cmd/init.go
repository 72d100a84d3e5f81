package cmd

import (
	"github.com/devflow/devflow/config"
	"github.com/devflow/devflow/logging"
	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create a starter .devflow.yaml",
		Long: `Writes a .devflow.yaml with example settings into the project directory.
An existing configuration file is never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}

			path, err := config.WriteDefault(root)
			if err != nil {
				return err
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			pretty.Success("Created configuration")
			pretty.Path("file", path)
			return nil
		},
	}
}
