package filelock

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relkit/relkit/pkg/domain"
)

func TestTryLock(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "relkit", "lock")

	t.Run("held lock fails fast", func(t *testing.T) {
		unlock, err := New(path).TryLock(ctx)
		require.NoError(t, err)
		defer func() { require.NoError(t, unlock()) }()

		_, err = New(path).TryLock(ctx)
		assert.ErrorIs(t, err, domain.ErrLocked)
	})

	t.Run("released lock can be reacquired", func(t *testing.T) {
		unlock, err := New(path).TryLock(ctx)
		require.NoError(t, err)
		require.NoError(t, unlock())

		unlock, err = New(path).TryLock(ctx)
		require.NoError(t, err)
		require.NoError(t, unlock())
	})
}
