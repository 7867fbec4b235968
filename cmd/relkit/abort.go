package main

import (
	"github.com/spf13/cobra"
)

var abortCmd = &cobra.Command{
	Use:   "abort",
	Short: "Cancel the release attempt and roll the repository back",
	Long: `Undoes the commits and the tag created by the attempt, best effort, and
removes the attempt record. Rollback failures are reported but never leave
the record behind; the next run always starts fresh.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		return app.Abort(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(abortCmd)
}
