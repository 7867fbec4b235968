package ports

import (
	"context"

	"github.com/relkit/relkit/pkg/domain"
)

// AttemptStore persists the release attempt record. At most one record exists
// per repository; its presence is the signal that a release is in progress.
type AttemptStore interface {
	// Load retrieves the current attempt record.
	// Returns domain.ErrNoAttempt when no record exists and a
	// *domain.CorruptStateError when a record exists but cannot be read;
	// the two conditions are never conflated.
	Load(ctx context.Context) (*domain.ReleaseAttempt, error)

	// Save persists the attempt record atomically: a crash during Save must
	// never leave a half-written record behind.
	Save(ctx context.Context, attempt *domain.ReleaseAttempt) error

	// Clear removes the attempt record. Clearing an absent record is not an
	// error.
	Clear(ctx context.Context) error
}
