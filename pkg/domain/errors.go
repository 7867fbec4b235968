package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoAttempt is returned when no release attempt record exists.
var ErrNoAttempt = errors.New("no release in progress")

// ErrAttemptInProgress is returned when an operation requires a fresh start
// but a release attempt record already exists.
var ErrAttemptInProgress = errors.New("a release is already in progress")

// ErrLocked is returned when another invocation holds the repository lock.
var ErrLocked = errors.New("another invocation is already running against this repository")

// ErrVersionNotAdvancing is returned when a resolved version does not compare
// strictly greater than the base version under the scheme's own ordering.
var ErrVersionNotAdvancing = errors.New("resolved version does not advance past the base version")

// ConfigError indicates a malformed or missing configuration. It is fatal and
// is raised before any repository or record mutation.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration: %s: %v", e.Reason, e.Err)
	}
	return "invalid configuration: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// RepositoryStateError indicates the working copy does not satisfy a
// precondition (dirty tree, wrong branch, missing branch). Fatal for the
// current invocation; nothing has been mutated.
type RepositoryStateError struct {
	Reason string
}

func (e *RepositoryStateError) Error() string {
	return "invalid repository state: " + e.Reason
}

// ConflictError reports unresolved merge conflicts. It is an expected branch
// of the workflow, not a failure: the attempt pauses in MergeConflict until
// the user resolves and continues.
type ConflictError struct {
	Paths []string
}

func (e *ConflictError) Error() string {
	if len(e.Paths) == 0 {
		return "merge conflicts must be resolved before continuing"
	}
	return "merge conflicts in: " + strings.Join(e.Paths, ", ")
}

// VersionFormatError indicates a version string that does not parse under the
// configured versioning scheme.
type VersionFormatError struct {
	Scheme  string
	Version string
}

func (e *VersionFormatError) Error() string {
	return fmt.Sprintf("invalid %s version string: %q", e.Scheme, e.Version)
}

// VersionSchemeError indicates a bump kind the configured scheme cannot
// express.
type VersionSchemeError struct {
	Scheme string
	Kind   BumpKind
}

func (e *VersionSchemeError) Error() string {
	return fmt.Sprintf("the %s scheme does not define a %s increment", e.Scheme, e.Kind)
}

// VersionFileError indicates a configured version file whose content cannot
// yield a single version string: none found, empty, or multiple inconsistent
// occurrences.
type VersionFileError struct {
	Path     string
	Versions []string
}

func (e *VersionFileError) Error() string {
	switch {
	case len(e.Versions) == 0:
		return "no version found in file: " + e.Path
	case len(e.Versions) == 1 && e.Versions[0] == "":
		return "empty version found in file: " + e.Path
	default:
		return fmt.Sprintf("inconsistent versions found in file: %s: %v", e.Path, e.Versions)
	}
}

// AdapterError wraps a failed version-control operation. The attempt stays in
// its last durably saved phase so a retry of the same command is safe.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// CorruptStateError indicates an unreadable persisted attempt record. It is
// fatal and never auto-healed: the record requires manual deletion or repair.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt release state at %s: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// RollbackFailure is one rollback step that could not be reversed. Step is
// the human-readable description of the step that failed.
type RollbackFailure struct {
	Step string
	Err  error
}

// RollbackError reports rollback steps that failed during abort. The attempt
// record is still removed; the repository is left for manual correction and
// the failed steps are surfaced rather than hidden.
type RollbackError struct {
	Failures []RollbackFailure
}

func (e *RollbackError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Step, f.Err))
	}
	return "rollback incomplete: " + strings.Join(parts, "; ")
}
