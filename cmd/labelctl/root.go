package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var format string

	rootCmd := &cobra.Command{
		Use:           "labelctl",
		Short:         "Label intake tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&format, "format", formatAuto, "Output format: auto, table or json")

	rootCmd.AddCommand(newParseCommand(&format))
	rootCmd.AddCommand(newScanCommand(&format))
	rootCmd.AddCommand(newTokenCommand())

	return rootCmd
}
