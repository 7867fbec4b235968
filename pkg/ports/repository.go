package ports

import "context"

// MergeOutcome is the result of a merge attempt. A conflicted outcome is a
// normal, expected branch of the workflow; every other failure surfaces as an
// error (usually a *domain.AdapterError).
type MergeOutcome struct {
	// Conflicted is true when the merge stopped on unresolved conflicts.
	Conflicted bool

	// ConflictPaths lists the conflicting files when Conflicted is true.
	ConflictPaths []string

	// CommitID is the merge commit created on a clean merge.
	CommitID string
}

// Repository is the capability interface over version-control primitives.
// The engine treats every call as potentially failing with a transport/IO
// error, distinct from the semantic conflict outcome of Merge.
type Repository interface {
	// CurrentBranch returns the checked-out branch name, or "" when detached.
	CurrentBranch(ctx context.Context) (string, error)

	// BranchExists reports whether a local branch exists.
	BranchExists(ctx context.Context, name string) (bool, error)

	// Head returns the commit id the working copy is at.
	Head(ctx context.Context) (string, error)

	// IsClean reports whether the working tree has no uncommitted changes.
	IsClean(ctx context.Context) (bool, error)

	// Checkout switches the working copy to the given branch.
	Checkout(ctx context.Context, branch string) error

	// AheadCount returns the number of commits on source not yet on target.
	AheadCount(ctx context.Context, source, target string) (int, error)

	// Merge merges source into the checked-out target branch.
	Merge(ctx context.Context, source, target string) (MergeOutcome, error)

	// MergeInProgress reports whether a merge is underway (concluded or not).
	MergeInProgress(ctx context.Context) (bool, error)

	// HasUnresolvedConflicts reports whether any path is still unmerged.
	// The check is binary: fully resolved or not.
	HasUnresolvedConflicts(ctx context.Context) (bool, error)

	// Commit records the given paths with the given message and returns the
	// new commit id.
	Commit(ctx context.Context, message string, paths []string) (string, error)

	// Tag creates a tag pointing at the given commit.
	Tag(ctx context.Context, name, commit, message string) error

	// CommitExists reports whether the commit id is still reachable.
	CommitExists(ctx context.Context, id string) (bool, error)

	// TagExists reports whether a tag with the given name exists.
	TagExists(ctx context.Context, name string) (bool, error)

	// AbortMerge cancels an in-progress merge.
	AbortMerge(ctx context.Context) error

	// ResetHard moves the current branch back to the given commit.
	ResetHard(ctx context.Context, commit string) error

	// DeleteTag removes a tag.
	DeleteTag(ctx context.Context, name string) error
}
