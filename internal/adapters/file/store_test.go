package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relkit/relkit/pkg/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "relkit", "attempt.json"))
}

func sampleAttempt() *domain.ReleaseAttempt {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.ReleaseAttempt{
		AttemptID:        "a-1",
		Phase:            domain.PhaseReadyToBump,
		SourceBranch:     "release",
		TargetBranch:     "main",
		BaseVersion:      "1.4.0",
		BumpKind:         domain.BumpMinor,
		PreMergeCommitID: "c001",
		MergeCommitID:    "c002",
		Undo:             []domain.UndoStep{{Kind: domain.UndoResetHard, Commit: "c001"}},
		CreatedAt:        now,
		UpdatedAt:        now.Add(time.Minute),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	saved := sampleAttempt()
	require.NoError(t, s.Save(ctx, saved))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestStoreLoadAbsent(t *testing.T) {
	s := newStore(t)
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoAttempt)
}

func TestStoreCorruption(t *testing.T) {
	ctx := context.Background()

	write := func(t *testing.T, content string) *Store {
		s := newStore(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(s.Path), 0o755))
		require.NoError(t, os.WriteFile(s.Path, []byte(content), 0o644))
		return s
	}

	t.Run("unparsable JSON", func(t *testing.T) {
		s := write(t, "{half a record")
		_, err := s.Load(ctx)
		var corrupt *domain.CorruptStateError
		require.ErrorAs(t, err, &corrupt)
		assert.Equal(t, s.Path, corrupt.Path)
	})

	t.Run("missing attempt id", func(t *testing.T) {
		s := write(t, `{"phase": "merging"}`)
		_, err := s.Load(ctx)
		var corrupt *domain.CorruptStateError
		assert.ErrorAs(t, err, &corrupt)
	})

	t.Run("unknown phase", func(t *testing.T) {
		s := write(t, `{"attempt_id": "a-1", "phase": "halfway"}`)
		_, err := s.Load(ctx)
		var corrupt *domain.CorruptStateError
		assert.ErrorAs(t, err, &corrupt)
	})

	t.Run("corruption is never healed silently", func(t *testing.T) {
		s := write(t, "{half a record")
		_, err := s.Load(ctx)
		require.Error(t, err)
		_, statErr := os.Stat(s.Path)
		assert.NoError(t, statErr, "the corrupt record must remain for inspection")
	})
}

func TestStoreUnknownFieldsSurviveRewrite(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path), 0o755))
	require.NoError(t, os.WriteFile(s.Path, []byte(`{
  "attempt_id": "a-1",
  "phase": "ready_to_bump",
  "created_at": "2025-03-01T12:00:00Z",
  "updated_at": "2025-03-01T12:00:00Z",
  "future_field": {"nested": true}
}`), 0o644))

	attempt, err := s.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, attempt.Unknown, "future_field")

	require.NoError(t, s.Save(ctx, attempt))

	data, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, map[string]any{"nested": true}, doc["future_field"])
	assert.Equal(t, "ready_to_bump", doc["phase"])
}

func TestStoreSaveIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, sampleAttempt()))
	second := sampleAttempt()
	second.Phase = domain.PhaseBumping
	second.ResolvedVersion = "1.5.0"
	require.NoError(t, s.Save(ctx, second))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseBumping, loaded.Phase)

	entries, err := os.ReadDir(filepath.Dir(s.Path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
	assert.Equal(t, "attempt.json", entries[0].Name())
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	t.Run("removes an existing record", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, sampleAttempt()))
		require.NoError(t, s.Clear(ctx))
		_, err := s.Load(ctx)
		assert.ErrorIs(t, err, domain.ErrNoAttempt)
	})

	t.Run("absent record is not an error", func(t *testing.T) {
		assert.NoError(t, s.Clear(ctx))
	})
}
