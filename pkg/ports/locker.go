package ports

import "context"

// UnlockFunc releases a held lock.
type UnlockFunc func() error

// Locker provides the cross-process exclusive lock guarding state-mutating
// invocations. A release attempt is human-paced, so acquisition is fail-fast:
// implementations must return domain.ErrLocked immediately when the lock is
// already held instead of blocking.
type Locker interface {
	// TryLock acquires the lock or fails fast with domain.ErrLocked.
	// Returns an UnlockFunc that MUST be called to release the lock.
	TryLock(ctx context.Context) (UnlockFunc, error)
}
