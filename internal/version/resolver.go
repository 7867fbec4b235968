// Package version implements the pure version resolver: parsing, ordering and
// increment arithmetic for the supported versioning schemes.
package version

import (
	"fmt"

	"github.com/relkit/relkit/pkg/domain"
)

// Scheme is a versioning convention: it validates version strings, orders
// them, and computes increments.
type Scheme interface {
	// Name returns the scheme identifier used in configuration.
	Name() string

	// Validate returns a *domain.VersionFormatError when v does not parse
	// under the scheme.
	Validate(v string) error

	// Bump computes the next version for the given kind. It returns a
	// *domain.VersionSchemeError when the scheme cannot express the kind.
	Bump(base string, kind domain.BumpKind) (string, error)

	// Compare orders two versions under the scheme: -1, 0 or +1.
	Compare(a, b string) (int, error)
}

// ForName returns the scheme registered under the given configuration name.
func ForName(name string) (Scheme, error) {
	switch name {
	case "semver", "":
		return Semver{}, nil
	case "pep440":
		return Pep440{}, nil
	case "none":
		return AcceptAll{}, nil
	}
	return nil, fmt.Errorf("unknown versioning scheme: %q", name)
}

// Resolve computes the next version from a base version and a bump kind.
// The result always compares strictly greater than the base under the
// scheme's own ordering; a non-advancing result is a bug in the scheme and
// surfaces as domain.ErrVersionNotAdvancing rather than being returned.
func Resolve(s Scheme, base string, kind domain.BumpKind) (string, error) {
	if err := s.Validate(base); err != nil {
		return "", err
	}
	next, err := s.Bump(base, kind)
	if err != nil {
		return "", err
	}
	cmp, err := s.Compare(next, base)
	if err != nil {
		return "", err
	}
	if cmp <= 0 {
		return "", fmt.Errorf("%w: %s -> %s", domain.ErrVersionNotAdvancing, base, next)
	}
	return next, nil
}
