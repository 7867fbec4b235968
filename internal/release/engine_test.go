package release

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relkit/relkit/internal/adapters/memory"
	"github.com/relkit/relkit/internal/config"
	"github.com/relkit/relkit/internal/versionfile"
	"github.com/relkit/relkit/pkg/domain"
)

// memFile is an in-memory versionfile.File.
type memFile struct {
	path    string
	version string
	writes  []string
}

func (f *memFile) Path() string                { return f.path }
func (f *memFile) Versions() ([]string, error) { return []string{f.version}, nil }

func (f *memFile) Write(v string) error {
	f.version = v
	f.writes = append(f.writes, v)
	return nil
}

type fixture struct {
	repo  *memory.Repository
	store *memory.Store
	file  *memFile
	eng   *Engine
}

func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()

	repo := memory.NewRepository("main", "release")
	repo.Ahead = 2
	store := memory.NewStore()
	file := &memFile{path: "VERSION", version: "1.4.0"}

	cfg := config.Default()
	cfg.DevelopmentBranches = []string{"main"}
	cfg.ReleaseBranches = []string{"release"}
	for _, m := range mutate {
		m(cfg)
	}

	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := 0
	eng, err := New(repo, store, cfg, []versionfile.File{file},
		WithClock(func() time.Time { return clock }),
		WithIDGenerator(func() string { ids++; return fmt.Sprintf("a-%d", ids) }),
	)
	require.NoError(t, err)

	return &fixture{repo: repo, store: store, file: file, eng: eng}
}

func TestRunHappyPath(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	attempt, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpMinor})
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseCompleted, attempt.Phase)
	assert.Equal(t, "1.4.0", attempt.BaseVersion)
	assert.Equal(t, "1.5.0", attempt.ResolvedVersion)
	assert.Equal(t, "v1.5.0", attempt.TagName)

	assert.Equal(t, 1, fx.repo.MergeCalls, "exactly one merge commit")
	assert.Equal(t, 1, fx.repo.CommitCalls, "exactly one bump commit")
	assert.Equal(t, 1, fx.repo.TagCalls)
	assert.Contains(t, fx.repo.Tags(), "v1.5.0")
	assert.Equal(t, "1.5.0", fx.file.version)

	assert.Equal(t, []string{
		"merge release into main",
		"commit c003",
		"tag v1.5.0",
	}, fx.repo.Ops)

	_, err = fx.store.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrNoAttempt, "record removed after completion")
}

func TestRunPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("dirty tree", func(t *testing.T) {
		fx := newFixture(t)
		fx.repo.Dirty = true

		_, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpPatch})
		var repoErr *domain.RepositoryStateError
		require.ErrorAs(t, err, &repoErr)
		_, err = fx.store.Load(ctx)
		assert.ErrorIs(t, err, domain.ErrNoAttempt, "nothing persisted")
	})

	t.Run("missing source branch", func(t *testing.T) {
		fx := newFixture(t, func(cfg *config.Config) {
			cfg.ReleaseBranches = []string{"release/1.5"}
		})
		_, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpPatch})
		var repoErr *domain.RepositoryStateError
		assert.ErrorAs(t, err, &repoErr)
	})

	t.Run("source equals target", func(t *testing.T) {
		fx := newFixture(t, func(cfg *config.Config) {
			cfg.ReleaseBranches = []string{"main"}
		})
		_, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpPatch})
		var repoErr *domain.RepositoryStateError
		assert.ErrorAs(t, err, &repoErr)
	})

	t.Run("nothing to release", func(t *testing.T) {
		fx := newFixture(t)
		fx.repo.Ahead = 0

		_, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpPatch})
		var repoErr *domain.RepositoryStateError
		require.ErrorAs(t, err, &repoErr)
		assert.Zero(t, fx.repo.MergeCalls)
	})

	t.Run("invalid base version", func(t *testing.T) {
		fx := newFixture(t)
		fx.file.version = "not-a-version"

		_, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpPatch})
		var formatErr *domain.VersionFormatError
		assert.ErrorAs(t, err, &formatErr)
	})

	t.Run("checkout of the target branch", func(t *testing.T) {
		fx := newFixture(t)
		fx.repo.Branch = "release"

		_, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpMinor})
		require.NoError(t, err)
		assert.Equal(t, "checkout main", fx.repo.Ops[0])
	})
}

func TestRunConflictFlow(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.repo.NextMergeConflicts = []string{"api/handler.go", "docs/changelog.md"}

	attempt, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpMinor})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"api/handler.go", "docs/changelog.md"}, conflict.Paths)
	assert.Equal(t, domain.PhaseMergeConflict, attempt.Phase)

	t.Run("rerun reports the conflict without advancing", func(t *testing.T) {
		_, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpMinor})
		assert.ErrorAs(t, err, &conflict)
		assert.Equal(t, 1, fx.repo.MergeCalls)
	})

	t.Run("continue with unresolved conflicts refuses", func(t *testing.T) {
		_, err := fx.eng.Continue(ctx)
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("continue with an uncommitted merge refuses", func(t *testing.T) {
		fx.repo.ResolveConflicts()
		_, err := fx.eng.Continue(ctx)
		var repoErr *domain.RepositoryStateError
		assert.ErrorAs(t, err, &repoErr)
	})

	t.Run("continue after the merge is concluded completes", func(t *testing.T) {
		fx.repo.ConcludeMerge()

		attempt, err := fx.eng.Continue(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseCompleted, attempt.Phase)
		assert.Empty(t, attempt.ConflictPaths)
		assert.Contains(t, fx.repo.Tags(), "v1.5.0")
	})
}

func TestEditFlow(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	attempt, err := fx.eng.Edit(ctx, StartOptions{Bump: domain.BumpMinor})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseAwaitingCustomCommit, attempt.Phase)
	assert.Equal(t, 1, fx.repo.MergeCalls, "merge happens before the pause")
	assert.Zero(t, fx.repo.CommitCalls, "bump is deferred")

	t.Run("plain run refuses while paused", func(t *testing.T) {
		_, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpMinor})
		assert.ErrorIs(t, err, domain.ErrAttemptInProgress)
	})

	t.Run("continue with a dirty tree refuses", func(t *testing.T) {
		fx.repo.Dirty = true
		_, err := fx.eng.Continue(ctx)
		var repoErr *domain.RepositoryStateError
		assert.ErrorAs(t, err, &repoErr)
	})

	t.Run("continue after the custom commit completes", func(t *testing.T) {
		fx.repo.CustomCommit()

		attempt, err := fx.eng.Continue(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseCompleted, attempt.Phase)
		assert.Equal(t, "1.5.0", attempt.ResolvedVersion)
	})
}

func TestEditOnRestingAttempt(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	resting := &domain.ReleaseAttempt{
		AttemptID:    "a-1",
		Phase:        domain.PhaseReadyToBump,
		SourceBranch: "release",
		TargetBranch: "main",
		BaseVersion:  "1.4.0",
		BumpKind:     domain.BumpMinor,
	}
	require.NoError(t, fx.store.Save(ctx, resting))

	attempt, err := fx.eng.Edit(ctx, StartOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseAwaitingCustomCommit, attempt.Phase)

	t.Run("edit past the bump point refuses", func(t *testing.T) {
		past := &domain.ReleaseAttempt{AttemptID: "a-2", Phase: domain.PhaseBumping, TargetBranch: "main"}
		require.NoError(t, fx.store.Save(ctx, past))

		_, err := fx.eng.Edit(ctx, StartOptions{})
		var repoErr *domain.RepositoryStateError
		assert.ErrorAs(t, err, &repoErr)
	})
}

func TestRunResume(t *testing.T) {
	ctx := context.Background()

	save := func(t *testing.T, fx *fixture, attempt *domain.ReleaseAttempt) {
		t.Helper()
		require.NoError(t, fx.store.Save(ctx, attempt))
	}

	t.Run("resume from ready to bump skips the merge", func(t *testing.T) {
		fx := newFixture(t)
		save(t, fx, &domain.ReleaseAttempt{
			AttemptID:        "a-1",
			Phase:            domain.PhaseReadyToBump,
			SourceBranch:     "release",
			TargetBranch:     "main",
			BaseVersion:      "1.4.0",
			BumpKind:         domain.BumpMinor,
			PreMergeCommitID: "c001",
			MergeCommitID:    "c001",
		})

		attempt, err := fx.eng.Run(ctx, StartOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseCompleted, attempt.Phase)
		assert.Zero(t, fx.repo.MergeCalls, "merge is not repeated")
		assert.Equal(t, 1, fx.repo.CommitCalls)
	})

	t.Run("recorded merge commit still present is adopted", func(t *testing.T) {
		fx := newFixture(t)
		save(t, fx, &domain.ReleaseAttempt{
			AttemptID:        "a-1",
			Phase:            domain.PhaseMerging,
			SourceBranch:     "release",
			TargetBranch:     "main",
			BaseVersion:      "1.4.0",
			BumpKind:         domain.BumpMinor,
			PreMergeCommitID: "c001",
			MergeCommitID:    "c001", // the fixture's initial commit
		})

		attempt, err := fx.eng.Run(ctx, StartOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseCompleted, attempt.Phase)
		assert.Zero(t, fx.repo.MergeCalls)
	})

	t.Run("recorded merge commit that vanished is redone", func(t *testing.T) {
		fx := newFixture(t)
		save(t, fx, &domain.ReleaseAttempt{
			AttemptID:        "a-1",
			Phase:            domain.PhaseMerging,
			SourceBranch:     "release",
			TargetBranch:     "main",
			BaseVersion:      "1.4.0",
			BumpKind:         domain.BumpMinor,
			PreMergeCommitID: "c001",
			MergeCommitID:    "c999", // never existed
		})

		attempt, err := fx.eng.Run(ctx, StartOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseCompleted, attempt.Phase)
		assert.Equal(t, 1, fx.repo.MergeCalls)
	})

	t.Run("resume on the wrong branch refuses", func(t *testing.T) {
		fx := newFixture(t)
		fx.repo.Branches["feature"] = true
		fx.repo.Branch = "feature"
		save(t, fx, &domain.ReleaseAttempt{
			AttemptID:    "a-1",
			Phase:        domain.PhaseReadyToBump,
			SourceBranch: "release",
			TargetBranch: "main",
			BaseVersion:  "1.4.0",
			BumpKind:     domain.BumpMinor,
		})

		_, err := fx.eng.Run(ctx, StartOptions{})
		var repoErr *domain.RepositoryStateError
		assert.ErrorAs(t, err, &repoErr)
	})

	t.Run("resolved version is never recomputed", func(t *testing.T) {
		fx := newFixture(t)
		save(t, fx, &domain.ReleaseAttempt{
			AttemptID:       "a-1",
			Phase:           domain.PhaseReadyToBump,
			SourceBranch:    "release",
			TargetBranch:    "main",
			BaseVersion:     "1.4.0",
			BumpKind:        domain.BumpMinor,
			ResolvedVersion: "1.7.0",
			TagName:         "v1.7.0",
		})

		attempt, err := fx.eng.Run(ctx, StartOptions{})
		require.NoError(t, err)
		assert.Equal(t, "1.7.0", attempt.ResolvedVersion)
		assert.Contains(t, fx.repo.Tags(), "v1.7.0")
	})
}

func TestRunDiscardsCompletedRecord(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, func(cfg *config.Config) { cfg.KeepRecord = true })

	first, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpMinor})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseCompleted, first.Phase)

	kept, err := fx.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseCompleted, kept.Phase)

	second, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpMinor})
	require.NoError(t, err)
	assert.NotEqual(t, first.AttemptID, second.AttemptID)
	assert.Equal(t, "1.6.0", second.ResolvedVersion)
	assert.Contains(t, fx.repo.Tags(), "v1.6.0")
}

func TestRunSchemeWithoutArithmetic(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, func(cfg *config.Config) { cfg.Scheme = "none" })
	fx.file.version = "2024.08"

	attempt, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpPatch})
	var schemeErr *domain.VersionSchemeError
	require.ErrorAs(t, err, &schemeErr)
	assert.Equal(t, domain.PhaseReadyToBump, attempt.Phase, "attempt stays resumable")
	assert.Zero(t, fx.repo.CommitCalls)
}

func TestRunAdapterFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	boom := &domain.AdapterError{Op: "git commit", Err: errors.New("disk full")}
	fx.repo.FailCommit = boom

	attempt, err := fx.eng.Run(ctx, StartOptions{Bump: domain.BumpMinor})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, domain.PhaseBumping, attempt.Phase)

	fx.repo.FailCommit = nil
	attempt, err = fx.eng.Run(ctx, StartOptions{Bump: domain.BumpMinor})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseCompleted, attempt.Phase)
	assert.Equal(t, "1.5.0", attempt.ResolvedVersion)
}

func TestContinueWithoutSuspension(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	t.Run("no attempt", func(t *testing.T) {
		_, err := fx.eng.Continue(ctx)
		assert.ErrorIs(t, err, domain.ErrNoAttempt)
	})

	t.Run("attempt not waiting", func(t *testing.T) {
		require.NoError(t, fx.store.Save(ctx, &domain.ReleaseAttempt{
			AttemptID: "a-1",
			Phase:     domain.PhaseReadyToBump,
		}))
		_, err := fx.eng.Continue(ctx)
		var repoErr *domain.RepositoryStateError
		assert.ErrorAs(t, err, &repoErr)
	})
}

func TestStatusHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	t.Run("no attempt", func(t *testing.T) {
		_, err := fx.eng.Status(ctx)
		assert.ErrorIs(t, err, domain.ErrNoAttempt)
	})

	t.Run("live attempt", func(t *testing.T) {
		require.NoError(t, fx.store.Save(ctx, &domain.ReleaseAttempt{
			AttemptID: "a-1",
			Phase:     domain.PhaseMergeConflict,
		}))
		saves := fx.store.SaveCalls

		attempt, err := fx.eng.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseMergeConflict, attempt.Phase)
		assert.Equal(t, saves, fx.store.SaveCalls)
		assert.Empty(t, fx.repo.Ops, "the repository is never touched")
	})

	t.Run("corrupt record surfaces", func(t *testing.T) {
		fx.store.Corrupt()
		_, err := fx.eng.Status(ctx)
		var corrupt *domain.CorruptStateError
		assert.ErrorAs(t, err, &corrupt)
	})
}
