// Package release implements the resumable release workflow state machine.
//
// One release attempt spans several process invocations: the engine loads the
// persisted attempt record, validates the working copy against it, performs
// exactly the next repository action, and persists the new record after every
// transition. The record is the single source of truth for where the attempt
// stopped; the repository is only ever consulted to validate consistency and
// to detect side effects that already happened.
package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/relkit/relkit/internal/config"
	"github.com/relkit/relkit/internal/logging"
	"github.com/relkit/relkit/internal/version"
	"github.com/relkit/relkit/internal/versionfile"
	"github.com/relkit/relkit/pkg/domain"
	"github.com/relkit/relkit/pkg/ports"
)

// Engine drives one release attempt against one working copy.
type Engine struct {
	repo   ports.Repository
	store  ports.AttemptStore
	cfg    *config.Config
	scheme version.Scheme
	files  []versionfile.File
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger configures a logger for engine events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides attempt id generation, for deterministic tests.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an engine from the configuration and its collaborators.
func New(repo ports.Repository, store ports.AttemptStore, cfg *config.Config, files []versionfile.File, opts ...Option) (*Engine, error) {
	scheme, err := version.ForName(cfg.Scheme)
	if err != nil {
		return nil, &domain.ConfigError{Reason: "convention.version", Err: err}
	}
	e := &Engine{
		repo:   repo,
		store:  store,
		cfg:    cfg,
		scheme: scheme,
		files:  files,
		logger: logging.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// StartOptions carry the per-invocation inputs fixed at attempt start.
type StartOptions struct {
	// Source and Target override the configured branch candidates.
	Source string
	Target string

	// Bump is the requested increment category.
	Bump domain.BumpKind

	// PauseBeforeBump suspends the attempt in AwaitingCustomCommit instead
	// of bumping, so the user can insert a custom commit.
	PauseBeforeBump bool
}

// Run starts a new attempt or advances the existing one. An attempt waiting
// for the user (conflict resolution or a custom commit) is not advanced: the
// caller is told to use Continue instead.
func (e *Engine) Run(ctx context.Context, opts StartOptions) (*domain.ReleaseAttempt, error) {
	attempt, err := e.store.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrNoAttempt):
		attempt = nil
	case err != nil:
		return nil, err
	}

	if attempt != nil && attempt.Phase == domain.PhaseCompleted {
		// Stale record retained from a finished release; a new run starts over.
		e.logger.InfoContext(ctx, "discarding completed attempt record", "attempt_id", attempt.AttemptID)
		if err := e.store.Clear(ctx); err != nil {
			return nil, err
		}
		attempt = nil
	}

	if attempt != nil {
		if attempt.Phase == domain.PhaseMergeConflict {
			return attempt, &domain.ConflictError{Paths: attempt.ConflictPaths}
		}
		if attempt.Phase == domain.PhaseAwaitingCustomCommit {
			return attempt, fmt.Errorf("%w: resume it with the continue command", domain.ErrAttemptInProgress)
		}
		if err := e.validateResume(ctx, attempt); err != nil {
			return attempt, err
		}
		e.logger.InfoContext(ctx, "resuming release attempt",
			"attempt_id", attempt.AttemptID, "phase", attempt.Phase)
		return e.advance(ctx, attempt, opts.PauseBeforeBump)
	}

	attempt, err = e.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	return e.advance(ctx, attempt, opts.PauseBeforeBump)
}

// Continue resumes an attempt suspended in MergeConflict or
// AwaitingCustomCommit, then advances it as far as it will go.
func (e *Engine) Continue(ctx context.Context) (*domain.ReleaseAttempt, error) {
	attempt, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	switch attempt.Phase {
	case domain.PhaseMergeConflict:
		unresolved, err := e.repo.HasUnresolvedConflicts(ctx)
		if err != nil {
			return attempt, err
		}
		if unresolved {
			return attempt, &domain.ConflictError{Paths: attempt.ConflictPaths}
		}
		inProgress, err := e.repo.MergeInProgress(ctx)
		if err != nil {
			return attempt, err
		}
		clean, err := e.repo.IsClean(ctx)
		if err != nil {
			return attempt, err
		}
		if inProgress || !clean {
			return attempt, &domain.RepositoryStateError{
				Reason: "conflicts are resolved but the merge is not committed yet",
			}
		}
		head, err := e.repo.Head(ctx)
		if err != nil {
			return attempt, err
		}
		attempt.MergeCommitID = head
		attempt.ConflictPaths = nil
		attempt.PushUndo(domain.UndoStep{Kind: domain.UndoResetHard, Commit: attempt.PreMergeCommitID})
		if err := e.transition(ctx, attempt, domain.PhaseReadyToBump); err != nil {
			return attempt, err
		}
		e.logger.InfoContext(ctx, "merge conflicts resolved", "merge_commit", head)

	case domain.PhaseAwaitingCustomCommit:
		clean, err := e.repo.IsClean(ctx)
		if err != nil {
			return attempt, err
		}
		if !clean {
			return attempt, &domain.RepositoryStateError{
				Reason: "working tree must be clean to continue: commit or discard your changes",
			}
		}
		if err := e.transition(ctx, attempt, domain.PhaseReadyToBump); err != nil {
			return attempt, err
		}
		e.logger.InfoContext(ctx, "custom commit window closed")

	default:
		return attempt, &domain.RepositoryStateError{
			Reason: fmt.Sprintf("nothing to continue: the attempt is in phase %s", attempt.Phase),
		}
	}

	return e.advance(ctx, attempt, false)
}

// Edit requests a pause point before the bump step. With no attempt in
// progress it starts one that suspends in AwaitingCustomCommit; with an
// attempt resting in ReadyToBump it suspends it there.
func (e *Engine) Edit(ctx context.Context, opts StartOptions) (*domain.ReleaseAttempt, error) {
	attempt, err := e.store.Load(ctx)
	if errors.Is(err, domain.ErrNoAttempt) {
		opts.PauseBeforeBump = true
		return e.Run(ctx, opts)
	}
	if err != nil {
		return nil, err
	}

	if attempt.Phase != domain.PhaseReadyToBump {
		return attempt, &domain.RepositoryStateError{
			Reason: fmt.Sprintf("cannot request an edit in phase %s", attempt.Phase),
		}
	}
	if err := e.transition(ctx, attempt, domain.PhaseAwaitingCustomCommit); err != nil {
		return attempt, err
	}
	e.logger.InfoContext(ctx, "paused for a custom commit", "attempt_id", attempt.AttemptID)
	return attempt, nil
}

// Status returns the current attempt without side effects. It is safe in any
// phase, including absence of a record (domain.ErrNoAttempt).
func (e *Engine) Status(ctx context.Context) (*domain.ReleaseAttempt, error) {
	return e.store.Load(ctx)
}

// start validates every precondition, then creates and persists a fresh
// attempt record. Nothing is mutated until all checks pass; the only
// repository mutation here is switching to the target branch.
func (e *Engine) start(ctx context.Context, opts StartOptions) (*domain.ReleaseAttempt, error) {
	clean, err := e.repo.IsClean(ctx)
	if err != nil {
		return nil, err
	}
	if !clean {
		return nil, &domain.RepositoryStateError{Reason: "the working tree is dirty"}
	}

	target, err := config.SelectBranch("development", e.cfg.DevelopmentBranches, opts.Target)
	if err != nil {
		return nil, err
	}
	source, err := config.SelectBranch("release", e.cfg.ReleaseBranches, opts.Source)
	if err != nil {
		return nil, err
	}
	if source == target {
		return nil, &domain.RepositoryStateError{Reason: "source and target branches are the same: " + source}
	}
	for _, branch := range []string{source, target} {
		exists, err := e.repo.BranchExists(ctx, branch)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, &domain.RepositoryStateError{Reason: fmt.Sprintf("branch %q does not exist", branch)}
		}
	}

	current, err := e.repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	if current != target {
		e.logger.InfoContext(ctx, "switching to target branch", "branch", target)
		if err := e.repo.Checkout(ctx, target); err != nil {
			return nil, err
		}
	}

	ahead, err := e.repo.AheadCount(ctx, source, target)
	if err != nil {
		return nil, err
	}
	if ahead == 0 {
		return nil, &domain.RepositoryStateError{
			Reason: fmt.Sprintf("branch %q has no commits to release into %q", source, target),
		}
	}

	base, err := versionfile.Current(e.files)
	if err != nil {
		return nil, err
	}
	if err := e.scheme.Validate(base); err != nil {
		return nil, err
	}

	head, err := e.repo.Head(ctx)
	if err != nil {
		return nil, err
	}

	now := e.now()
	attempt := &domain.ReleaseAttempt{
		AttemptID:        e.newID(),
		Phase:            domain.PhaseNotStarted,
		SourceBranch:     source,
		TargetBranch:     target,
		BaseVersion:      base,
		BumpKind:         opts.Bump,
		PreMergeCommitID: head,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.store.Save(ctx, attempt); err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "starting release attempt",
		"attempt_id", attempt.AttemptID,
		"source", source, "target", target,
		"base_version", base, "bump", attempt.BumpKind)
	return attempt, nil
}

// validateResume checks that the working copy still matches a resumed record.
func (e *Engine) validateResume(ctx context.Context, attempt *domain.ReleaseAttempt) error {
	current, err := e.repo.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if current != attempt.TargetBranch {
		return &domain.RepositoryStateError{
			Reason: fmt.Sprintf("the attempt targets branch %q but the working copy is on %q",
				attempt.TargetBranch, current),
		}
	}
	return nil
}

// advance performs planned steps until the attempt completes or suspends.
func (e *Engine) advance(ctx context.Context, attempt *domain.ReleaseAttempt, pause bool) (*domain.ReleaseAttempt, error) {
	for {
		obs, err := e.observe(ctx, attempt)
		if err != nil {
			return attempt, err
		}
		next, err := plan(attempt, obs, pause)
		if err != nil {
			return attempt, err
		}

		done, err := e.perform(ctx, attempt, next)
		if err != nil || done {
			return attempt, err
		}
	}
}

// observe gathers the repository facts the planner needs for the current
// phase. Existence checks only run for ids the record actually holds.
func (e *Engine) observe(ctx context.Context, attempt *domain.ReleaseAttempt) (observations, error) {
	var obs observations
	var err error

	switch attempt.Phase {
	case domain.PhaseMerging:
		if obs.mergeInProgress, err = e.repo.MergeInProgress(ctx); err != nil {
			return obs, err
		}
		if attempt.MergeCommitID != "" {
			if obs.mergeCommitExists, err = e.repo.CommitExists(ctx, attempt.MergeCommitID); err != nil {
				return obs, err
			}
		}
	case domain.PhaseBumping:
		if attempt.BumpCommitID != "" {
			if obs.bumpCommitExists, err = e.repo.CommitExists(ctx, attempt.BumpCommitID); err != nil {
				return obs, err
			}
		}
	case domain.PhaseTagging:
		if attempt.TagName != "" {
			if obs.tagExists, err = e.repo.TagExists(ctx, attempt.TagName); err != nil {
				return obs, err
			}
		}
	}
	return obs, nil
}

// perform executes one planned step. Every transition is persisted before the
// next observation, so a crash at any point resumes from the last durable
// phase. The returned bool reports that the attempt suspended or finished.
func (e *Engine) perform(ctx context.Context, attempt *domain.ReleaseAttempt, next step) (bool, error) {
	switch next {
	case stepStartMerge:
		return false, e.transition(ctx, attempt, domain.PhaseMerging)

	case stepMerge:
		return e.merge(ctx, attempt)

	case stepAdoptMerge:
		e.logger.InfoContext(ctx, "merge commit already present", "merge_commit", attempt.MergeCommitID)
		return false, e.transition(ctx, attempt, domain.PhaseReadyToBump)

	case stepAwaitConflict:
		if attempt.Phase != domain.PhaseMergeConflict {
			if err := e.transition(ctx, attempt, domain.PhaseMergeConflict); err != nil {
				return true, err
			}
		}
		return true, &domain.ConflictError{Paths: attempt.ConflictPaths}

	case stepAwaitCustomCommit:
		return true, nil

	case stepPause:
		if err := e.transition(ctx, attempt, domain.PhaseAwaitingCustomCommit); err != nil {
			return true, err
		}
		e.logger.InfoContext(ctx, "paused for a custom commit", "attempt_id", attempt.AttemptID)
		return true, nil

	case stepResolve:
		return false, e.resolve(ctx, attempt)

	case stepBump:
		return false, e.bump(ctx, attempt)

	case stepAdoptBump:
		e.logger.InfoContext(ctx, "bump commit already present", "bump_commit", attempt.BumpCommitID)
		return false, e.transition(ctx, attempt, domain.PhaseBumped)

	case stepEnterTagging:
		return false, e.transition(ctx, attempt, domain.PhaseTagging)

	case stepTag:
		return false, e.tag(ctx, attempt)

	case stepAdoptTag:
		e.logger.InfoContext(ctx, "tag already present", "tag", attempt.TagName)
		return false, e.transition(ctx, attempt, domain.PhaseCompleted)

	case stepFinalize:
		return true, e.finalize(ctx, attempt)
	}
	return true, fmt.Errorf("unknown step %d", next)
}

func (e *Engine) merge(ctx context.Context, attempt *domain.ReleaseAttempt) (bool, error) {
	e.logger.InfoContext(ctx, "merging release branch",
		"source", attempt.SourceBranch, "target", attempt.TargetBranch)
	outcome, err := e.repo.Merge(ctx, attempt.SourceBranch, attempt.TargetBranch)
	if err != nil {
		return true, err
	}

	if outcome.Conflicted {
		attempt.ConflictPaths = outcome.ConflictPaths
		if err := e.transition(ctx, attempt, domain.PhaseMergeConflict); err != nil {
			return true, err
		}
		e.logger.WarnContext(ctx, "merge stopped on conflicts", "paths", outcome.ConflictPaths)
		return true, &domain.ConflictError{Paths: outcome.ConflictPaths}
	}

	attempt.MergeCommitID = outcome.CommitID
	attempt.PushUndo(domain.UndoStep{Kind: domain.UndoResetHard, Commit: attempt.PreMergeCommitID})
	if err := e.transition(ctx, attempt, domain.PhaseReadyToBump); err != nil {
		return true, err
	}
	e.logger.InfoContext(ctx, "merged cleanly", "merge_commit", outcome.CommitID)
	return false, nil
}

// resolve computes the resolved version exactly once. It is never recomputed
// afterwards, even when commits land between the merge and the bump.
func (e *Engine) resolve(ctx context.Context, attempt *domain.ReleaseAttempt) error {
	if attempt.ResolvedVersion == "" {
		resolved, err := version.Resolve(e.scheme, attempt.BaseVersion, attempt.BumpKind)
		if err != nil {
			return err
		}
		attempt.ResolvedVersion = resolved
		attempt.TagName = config.RenderTemplate(e.cfg.Tag.Format, resolved)
		e.logger.InfoContext(ctx, "resolved next version",
			"base", attempt.BaseVersion, "bump", attempt.BumpKind, "resolved", resolved)
	}
	return e.transition(ctx, attempt, domain.PhaseBumping)
}

func (e *Engine) bump(ctx context.Context, attempt *domain.ReleaseAttempt) error {
	preBump, err := e.repo.Head(ctx)
	if err != nil {
		return err
	}
	if err := versionfile.WriteAll(e.files, attempt.ResolvedVersion); err != nil {
		return err
	}

	message := config.RenderTemplate(e.cfg.Commit.Message, attempt.ResolvedVersion)
	commitID, err := e.repo.Commit(ctx, message, versionfile.Paths(e.files))
	if err != nil {
		// The attempt stays in its current phase with the resolved version
		// intact, so a retry redoes the commit without re-resolving.
		return err
	}

	attempt.BumpCommitID = commitID
	attempt.PushUndo(domain.UndoStep{Kind: domain.UndoResetHard, Commit: preBump})
	if err := e.transition(ctx, attempt, domain.PhaseBumped); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "committed version bump",
		"version", attempt.ResolvedVersion, "bump_commit", commitID)
	return nil
}

func (e *Engine) tag(ctx context.Context, attempt *domain.ReleaseAttempt) error {
	message := config.RenderTemplate(e.cfg.Tag.Message, attempt.ResolvedVersion)
	if err := e.repo.Tag(ctx, attempt.TagName, attempt.BumpCommitID, message); err != nil {
		return err
	}
	attempt.PushUndo(domain.UndoStep{Kind: domain.UndoDeleteTag, Tag: attempt.TagName})
	if err := e.transition(ctx, attempt, domain.PhaseCompleted); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "created release tag", "tag", attempt.TagName, "commit", attempt.BumpCommitID)
	return nil
}

func (e *Engine) finalize(ctx context.Context, attempt *domain.ReleaseAttempt) error {
	if !e.cfg.KeepRecord {
		if err := e.store.Clear(ctx); err != nil {
			return err
		}
	}
	e.logger.InfoContext(ctx, "release completed",
		"version", attempt.ResolvedVersion, "tag", attempt.TagName)
	return nil
}

// transition advances the phase and persists the record in one motion.
func (e *Engine) transition(ctx context.Context, attempt *domain.ReleaseAttempt, next domain.Phase) error {
	if err := attempt.Transition(next, e.now()); err != nil {
		return err
	}
	return e.store.Save(ctx, attempt)
}
