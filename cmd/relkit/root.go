package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relkit/relkit"
	"github.com/relkit/relkit/internal/cli"
	"github.com/relkit/relkit/pkg/domain"
)

var rootCmd = &cobra.Command{
	Use:   "relkit",
	Short: "relkit merges, bumps and tags a project release",
	Long: `relkit drives a release from branch merge to tag: it merges the release
branch into the mainline, bumps the version embedded in the project files,
commits the bump and tags the result. The workflow survives interruptions;
rerunning the command resumes exactly where the previous run stopped.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		opts, err := releaseOptions(cmd)
		if err != nil {
			return err
		}
		return app.Release(cmd.Context(), opts)
	},
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx := cli.NewSignalContext(context.Background())
	defer ctx.Cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !suppressed(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return cli.ExitCode(err)
}

// suppressed reports errors whose message was already delivered as part of
// the normal command output.
func suppressed(err error) bool {
	var conflict *domain.ConflictError
	return errors.Is(err, cli.ErrReleaseInProgress) || errors.As(err, &conflict)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("dir", ".", "Directory inside the repository to operate on")
	pf.String("config", "", "Path to the configuration file (default <root>/.relkit.yaml)")
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.Bool("no-color", false, "Disable colored log output")

	rootCmd.Flags().String("source", "", "Release branch to merge from")
	rootCmd.Flags().String("target", "", "Development branch to merge into")
	rootCmd.Flags().String("bump", "patch", "Version increment: major, minor, patch or prerelease")
}

// newApp wires an App from the persistent flags.
func newApp(cmd *cobra.Command) (*cli.App, error) {
	dir, _ := cmd.Flags().GetString("dir")
	cfgPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")

	return cli.NewApp(cmd.Context(), cli.Options{
		Dir:        dir,
		ConfigPath: cfgPath,
		Verbose:    verbose,
		NoColor:    noColor,
	}, os.Stdout)
}

// releaseOptions reads the per-run flags shared by the root and edit commands.
func releaseOptions(cmd *cobra.Command) (relkit.ReleaseOptions, error) {
	source, _ := cmd.Flags().GetString("source")
	target, _ := cmd.Flags().GetString("target")
	bumpFlag, _ := cmd.Flags().GetString("bump")

	bump, err := domain.ParseBumpKind(bumpFlag)
	if err != nil {
		return relkit.ReleaseOptions{}, &domain.ConfigError{Reason: err.Error()}
	}
	return relkit.ReleaseOptions{Source: source, Target: target, Bump: bump}, nil
}
