package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "clipitctl",
		Short:         "Operator tooling for the ClipIt backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newSweepOverdueCommand(ctx))
	rootCmd.AddCommand(newLeaderboardCommand(ctx))

	return rootCmd
}
