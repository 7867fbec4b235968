// Package filelock implements ports.Locker with an advisory file lock.
package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/relkit/relkit/pkg/domain"
	"github.com/relkit/relkit/pkg/ports"
)

// Locker guards a repository with an exclusive advisory lock on a file.
// Acquisition never blocks: a held lock fails fast with domain.ErrLocked,
// since a release attempt is human-paced and queueing behind one is wrong.
type Locker struct {
	Path string
}

// New creates a Locker on the given lock file path.
func New(path string) *Locker {
	return &Locker{Path: path}
}

func (l *Locker) TryLock(ctx context.Context) (ports.UnlockFunc, error) {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure lock directory: %w", err)
	}

	fl := flock.New(l.Path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", l.Path, err)
	}
	if !ok {
		return nil, domain.ErrLocked
	}
	return fl.Unlock, nil
}
