package cli

import (
	"errors"

	"github.com/relkit/relkit/pkg/domain"
)

// ErrReleaseInProgress is returned by Status when an attempt is live, so
// scripts can branch on the exit code without parsing the report.
var ErrReleaseInProgress = errors.New("a release is in progress")

// Exit codes. Everything unclassified is an internal or adapter failure.
const (
	ExitOK              = 0
	ExitInternal        = 1
	ExitConfig          = 2
	ExitRepositoryState = 3
	ExitConflict        = 4
	ExitVersion         = 5
	ExitCorruptState    = 6
	ExitLocked          = 7
	ExitInProgress      = 8
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		configErr   *domain.ConfigError
		repoErr     *domain.RepositoryStateError
		conflictErr *domain.ConflictError
		formatErr   *domain.VersionFormatError
		schemeErr   *domain.VersionSchemeError
		fileErr     *domain.VersionFileError
		corruptErr  *domain.CorruptStateError
	)

	switch {
	case errors.Is(err, ErrReleaseInProgress):
		return ExitInProgress
	case errors.Is(err, domain.ErrLocked):
		return ExitLocked
	case errors.As(err, &corruptErr):
		return ExitCorruptState
	case errors.As(err, &conflictErr):
		return ExitConflict
	case errors.As(err, &formatErr),
		errors.As(err, &schemeErr),
		errors.As(err, &fileErr),
		errors.Is(err, domain.ErrVersionNotAdvancing):
		return ExitVersion
	case errors.As(err, &configErr):
		return ExitConfig
	case errors.As(err, &repoErr),
		errors.Is(err, domain.ErrNoAttempt),
		errors.Is(err, domain.ErrAttemptInProgress):
		return ExitRepositoryState
	}
	return ExitInternal
}
