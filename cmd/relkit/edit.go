package main

import (
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Pause the release before the version bump for a custom commit",
	Long: `Runs the workflow up to the merge, then suspends it so extra changes can
be committed onto the target branch before the bump commit. Resume with
'relkit continue'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		opts, err := releaseOptions(cmd)
		if err != nil {
			return err
		}
		return app.Edit(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().String("source", "", "Release branch to merge from")
	editCmd.Flags().String("target", "", "Development branch to merge into")
	editCmd.Flags().String("bump", "patch", "Version increment: major, minor, patch or prerelease")
}
