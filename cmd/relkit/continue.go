package main

import (
	"github.com/spf13/cobra"
)

var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Resume a release waiting on conflict resolution or a custom commit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		return app.Continue(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(continueCmd)
}
