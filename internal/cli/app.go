// Package cli turns workspace operations into command outcomes: human
// output on stdout, structured logs on stderr and a process exit code. The
// cobra layer under cmd/ only parses flags and delegates here.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/relkit/relkit"
	"github.com/relkit/relkit/internal/logging"
	"github.com/relkit/relkit/pkg/domain"
)

// Options carry the global flags shared by every command.
type Options struct {
	// Dir is the directory the repository is located from.
	Dir string

	// ConfigPath overrides the default <root>/.relkit.yaml lookup.
	ConfigPath string

	Verbose bool
	NoColor bool
}

// App is one wired invocation.
type App struct {
	Stdout io.Writer
	Logger *slog.Logger

	ws *relkit.Workspace
}

// NewApp opens the workspace containing opts.Dir.
func NewApp(ctx context.Context, opts Options, stdout io.Writer) (*App, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(level, !opts.NoColor)

	wsOpts := []relkit.Option{relkit.WithLogger(logger)}
	if opts.ConfigPath != "" {
		wsOpts = append(wsOpts, relkit.WithConfigPath(opts.ConfigPath))
	}
	ws, err := relkit.Open(ctx, opts.Dir, wsOpts...)
	if err != nil {
		return nil, err
	}

	return &App{Stdout: stdout, Logger: logger, ws: ws}, nil
}

// Release runs the default workflow: start or resume the attempt and drive
// it as far as it will go.
func (a *App) Release(ctx context.Context, opts relkit.ReleaseOptions) error {
	attempt, err := a.ws.Release(ctx, opts)
	return a.reportOutcome(attempt, err)
}

// Continue resumes an attempt suspended on a conflict or a custom commit.
func (a *App) Continue(ctx context.Context) error {
	attempt, err := a.ws.Continue(ctx)
	return a.reportOutcome(attempt, err)
}

// Edit pauses the workflow before the bump commit.
func (a *App) Edit(ctx context.Context, opts relkit.ReleaseOptions) error {
	attempt, err := a.ws.Edit(ctx, opts)
	return a.reportOutcome(attempt, err)
}

// Abort cancels the attempt and rolls the repository back best effort.
func (a *App) Abort(ctx context.Context) error {
	attempt, err := a.ws.Abort(ctx)
	if errors.Is(err, domain.ErrNoAttempt) {
		return &domain.RepositoryStateError{Reason: "no release attempt to abort"}
	}
	if err != nil {
		return a.describeLock(err)
	}
	fmt.Fprintf(a.Stdout, "Aborted release attempt %s.\n", attempt.AttemptID)
	return nil
}

// Status prints the attempt report. It never touches the repository or the
// lock; ErrReleaseInProgress signals a live attempt to scripts.
func (a *App) Status(ctx context.Context) error {
	attempt, err := a.ws.Status(ctx)
	if errors.Is(err, domain.ErrNoAttempt) {
		fmt.Fprintln(a.Stdout, "No release in progress.")
		return nil
	}
	if err != nil {
		return err
	}

	if err := a.printReport(attempt); err != nil {
		return err
	}
	if attempt.Phase.Terminal() {
		return nil
	}
	return ErrReleaseInProgress
}

// reportOutcome prints where the workflow landed. Suspensions (conflict,
// custom commit window) come back as errors from the engine but still carry
// an attempt worth reporting.
func (a *App) reportOutcome(attempt *domain.ReleaseAttempt, err error) error {
	if attempt == nil {
		return a.describeLock(err)
	}

	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &conflict):
		fmt.Fprintln(a.Stdout, "The merge stopped on conflicts:")
		for _, p := range conflict.Paths {
			fmt.Fprintf(a.Stdout, "  %s\n", p)
		}
		fmt.Fprintln(a.Stdout, "Resolve them, conclude the merge, then run `relkit continue`.")
		return err
	case err != nil:
		return err
	}

	switch attempt.Phase {
	case domain.PhaseCompleted:
		fmt.Fprintf(a.Stdout, "Released %s (tag %s).\n", attempt.ResolvedVersion, attempt.TagName)
	case domain.PhaseAwaitingCustomCommit:
		fmt.Fprintln(a.Stdout, "Paused before the version bump. Commit your changes, then run `relkit continue`.")
	default:
		fmt.Fprintf(a.Stdout, "Release attempt is in phase %s.\n", attempt.Phase)
	}
	return nil
}

// describeLock attaches the actionable hint to a lock contention failure.
func (a *App) describeLock(err error) error {
	if errors.Is(err, domain.ErrLocked) {
		return fmt.Errorf("%w: wait for it to finish or remove a stale lock", domain.ErrLocked)
	}
	return err
}
