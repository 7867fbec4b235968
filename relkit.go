package relkit

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/relkit/relkit/internal/adapters/file"
	"github.com/relkit/relkit/internal/adapters/filelock"
	"github.com/relkit/relkit/internal/adapters/gitcli"
	"github.com/relkit/relkit/internal/config"
	"github.com/relkit/relkit/internal/logging"
	"github.com/relkit/relkit/internal/release"
	"github.com/relkit/relkit/internal/versionfile"
	"github.com/relkit/relkit/pkg/domain"
	"github.com/relkit/relkit/pkg/ports"
)

// stateDirName is the directory under the git dir holding the attempt record
// and the invocation lock, outside version control.
const stateDirName = "relkit"

// Workspace is the high-level entry point: one git working copy, its
// configuration and the release engine wired together. All mutating
// operations hold a cross-process advisory lock for their duration, so
// concurrent invocations against the same repository fail fast instead of
// interleaving.
type Workspace struct {
	repo   *gitcli.Repository
	cfg    *config.Config
	engine *release.Engine
	locker ports.Locker
}

// Option configures Open.
type Option func(*settings)

type settings struct {
	configPath string
	logger     *slog.Logger
}

// WithConfigPath overrides the default <root>/.relkit.yaml lookup.
func WithConfigPath(path string) Option {
	return func(s *settings) { s.configPath = path }
}

// WithLogger sets the logger for engine events. The default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// Open locates the git repository containing dir, loads its configuration
// and wires the release engine.
func Open(ctx context.Context, dir string, opts ...Option) (*Workspace, error) {
	s := settings{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}

	repo, err := gitcli.Open(ctx, dir, gitcli.Options{})
	if err != nil {
		return nil, err
	}

	cfgPath := s.configPath
	if cfgPath == "" {
		cfgPath = filepath.Join(repo.Root(), config.DefaultFileName)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	// Reopen with the commit and tag behavior the configuration asks for.
	repo, err = gitcli.Open(ctx, dir, gitcli.Options{
		CommitSignOff: cfg.Commit.SignOff,
		CommitGPGSign: cfg.Commit.GPGSign,
		TagAnnotate:   cfg.TagAnnotate(),
		TagGPGSign:    cfg.Tag.GPGSign,
	})
	if err != nil {
		return nil, err
	}

	files, err := versionfile.Build(repo.Root(), cfg.VersionFiles)
	if err != nil {
		return nil, err
	}

	stateDir := filepath.Join(repo.GitDir(), stateDirName)
	store := file.New(filepath.Join(stateDir, "attempt.json"))
	engine, err := release.New(repo, store, cfg, files, release.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	return &Workspace{
		repo:   repo,
		cfg:    cfg,
		engine: engine,
		locker: filelock.New(filepath.Join(stateDir, "lock")),
	}, nil
}

// Root returns the working copy root directory.
func (w *Workspace) Root() string { return w.repo.Root() }

// ReleaseOptions carry the per-invocation inputs fixed at attempt start.
type ReleaseOptions struct {
	// Source and Target override the configured branch candidates.
	Source string
	Target string

	// Bump is the requested increment category.
	Bump domain.BumpKind
}

// Release starts a new attempt or resumes the existing one and drives it as
// far as it will go. A suspension (merge conflict, custom commit window) is
// reported as an error alongside the suspended attempt.
func (w *Workspace) Release(ctx context.Context, opts ReleaseOptions) (*domain.ReleaseAttempt, error) {
	return w.locked(ctx, func() (*domain.ReleaseAttempt, error) {
		return w.engine.Run(ctx, startOptions(opts, false))
	})
}

// Edit pauses the workflow before the version bump so extra changes can be
// committed onto the target branch first.
func (w *Workspace) Edit(ctx context.Context, opts ReleaseOptions) (*domain.ReleaseAttempt, error) {
	return w.locked(ctx, func() (*domain.ReleaseAttempt, error) {
		return w.engine.Edit(ctx, startOptions(opts, true))
	})
}

// Continue resumes an attempt suspended on a conflict or a custom commit.
func (w *Workspace) Continue(ctx context.Context) (*domain.ReleaseAttempt, error) {
	return w.locked(ctx, func() (*domain.ReleaseAttempt, error) {
		return w.engine.Continue(ctx)
	})
}

// Abort cancels the attempt, rolling the repository back best effort.
func (w *Workspace) Abort(ctx context.Context) (*domain.ReleaseAttempt, error) {
	return w.locked(ctx, func() (*domain.ReleaseAttempt, error) {
		return w.engine.Abort(ctx)
	})
}

// Status returns the current attempt without side effects: no lock, no
// repository access. Absence of an attempt is domain.ErrNoAttempt.
func (w *Workspace) Status(ctx context.Context) (*domain.ReleaseAttempt, error) {
	return w.engine.Status(ctx)
}

func (w *Workspace) locked(ctx context.Context, fn func() (*domain.ReleaseAttempt, error)) (*domain.ReleaseAttempt, error) {
	unlock, err := w.locker.TryLock(ctx)
	if err != nil {
		return nil, err
	}
	attempt, err := fn()
	if uerr := unlock(); uerr != nil && err == nil {
		err = uerr
	}
	return attempt, err
}

func startOptions(opts ReleaseOptions, pause bool) release.StartOptions {
	return release.StartOptions{
		Source:          opts.Source,
		Target:          opts.Target,
		Bump:            opts.Bump,
		PauseBeforeBump: pause,
	}
}
