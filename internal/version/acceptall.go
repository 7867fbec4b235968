package version

import (
	"strings"

	"github.com/relkit/relkit/pkg/domain"
)

// AcceptAll is the "none" convention: any non-blank version string is valid,
// but the scheme defines no arithmetic or ordering, so every bump kind is a
// scheme error. It exists for projects that validate versions elsewhere and
// only use the workflow with an explicitly pre-set version.
type AcceptAll struct{}

func (AcceptAll) Name() string { return "none" }

func (AcceptAll) Validate(v string) error {
	if strings.TrimSpace(v) == "" {
		return &domain.VersionFormatError{Scheme: "none", Version: v}
	}
	return nil
}

func (AcceptAll) Bump(_ string, kind domain.BumpKind) (string, error) {
	return "", &domain.VersionSchemeError{Scheme: "none", Kind: kind}
}

func (AcceptAll) Compare(_, _ string) (int, error) {
	return 0, &domain.VersionSchemeError{Scheme: "none"}
}
