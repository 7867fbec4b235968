package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/relkit/relkit/pkg/domain"
)

// Semver implements the Semantic Versioning 2.0.0 convention.
type Semver struct{}

func (Semver) Name() string { return "semver" }

func (Semver) Validate(v string) error {
	if _, err := semver.StrictNewVersion(v); err != nil {
		return &domain.VersionFormatError{Scheme: "semver", Version: v}
	}
	return nil
}

func (s Semver) Bump(base string, kind domain.BumpKind) (string, error) {
	v, err := semver.StrictNewVersion(base)
	if err != nil {
		return "", &domain.VersionFormatError{Scheme: "semver", Version: base}
	}
	switch kind {
	case domain.BumpMajor:
		return v.IncMajor().String(), nil
	case domain.BumpMinor:
		return v.IncMinor().String(), nil
	case domain.BumpPatch:
		return v.IncPatch().String(), nil
	case domain.BumpPrerelease:
		return bumpSemverPrerelease(v)
	}
	return "", &domain.VersionSchemeError{Scheme: "semver", Kind: kind}
}

func (Semver) Compare(a, b string) (int, error) {
	va, err := semver.StrictNewVersion(a)
	if err != nil {
		return 0, &domain.VersionFormatError{Scheme: "semver", Version: a}
	}
	vb, err := semver.StrictNewVersion(b)
	if err != nil {
		return 0, &domain.VersionFormatError{Scheme: "semver", Version: b}
	}
	return va.Compare(vb), nil
}

// bumpSemverPrerelease advances the prerelease identifier. A final version
// starts a new prerelease series on the next patch (1.4.0 -> 1.4.1-rc.1); a
// version already in a series increments its trailing number
// (1.5.0-rc.2 -> 1.5.0-rc.3).
func bumpSemverPrerelease(v *semver.Version) (string, error) {
	if v.Prerelease() == "" {
		next, err := v.IncPatch().SetPrerelease("rc.1")
		if err != nil {
			return "", fmt.Errorf("cannot start prerelease series: %w", err)
		}
		return next.String(), nil
	}
	next, err := v.SetPrerelease(nextPrereleaseIdent(v.Prerelease()))
	if err != nil {
		return "", fmt.Errorf("cannot advance prerelease series: %w", err)
	}
	return next.String(), nil
}

// nextPrereleaseIdent increments the trailing numeric identifier, appending
// ".1" when there is none ("rc" -> "rc.1", "rc.2" -> "rc.3").
func nextPrereleaseIdent(pre string) string {
	idents := strings.Split(pre, ".")
	last := idents[len(idents)-1]
	if n, err := strconv.Atoi(last); err == nil {
		idents[len(idents)-1] = strconv.Itoa(n + 1)
		return strings.Join(idents, ".")
	}
	return pre + ".1"
}
