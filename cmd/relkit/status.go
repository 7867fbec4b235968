package main

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the state of the current release attempt",
	Long: `Prints the attempt record and the action that moves it forward. Exits 8
when a release is in progress, so scripts can check without parsing output.
The command never touches the repository or the lock.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		return app.Status(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
