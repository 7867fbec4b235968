// Package versionfile reads and rewrites the project files that embed the
// version string. Three shapes are supported: plain (the whole file is the
// version), formatted (a template containing {version} renders the whole
// file), and edited (a regexp whose matches are version occurrences).
package versionfile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/relkit/relkit/pkg/domain"
)

// Placeholder is the token substituted with the version string in formatted
// file templates, commit messages and tag formats.
const Placeholder = "{version}"

// File is one configured version-bearing file.
type File interface {
	// Path returns the configured repository-relative path.
	Path() string

	// Versions returns every version occurrence found in the file.
	Versions() ([]string, error)

	// Write rewrites the file to embed the given version.
	Write(version string) error
}

// Spec is the configuration shape of one version file entry. Format and
// Pattern are mutually exclusive; with neither, the file is plain.
type Spec struct {
	Path    string
	Format  string
	Pattern string
}

// Build materializes the configured specs against a repository root.
func Build(root string, specs []Spec) ([]File, error) {
	files := make([]File, 0, len(specs))
	for _, s := range specs {
		f, err := build(root, s)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func build(root string, s Spec) (File, error) {
	switch {
	case s.Path == "":
		return nil, &domain.ConfigError{Reason: "version file entry must name a path"}
	case s.Format != "" && s.Pattern != "":
		return nil, &domain.ConfigError{Reason: fmt.Sprintf("version file %s: format and pattern are exclusive", s.Path)}
	case s.Format != "":
		return NewFormatted(root, s.Path, s.Format)
	case s.Pattern != "":
		return NewEdited(root, s.Path, s.Pattern)
	}
	return NewPlain(root, s.Path), nil
}

// Current returns the single version shared by all files, reading each file
// and requiring every occurrence in every file to agree.
func Current(files []File) (string, error) {
	if len(files) == 0 {
		return "", &domain.ConfigError{Reason: "no version file configured"}
	}
	var current string
	for _, f := range files {
		v, err := fileVersion(f)
		if err != nil {
			return "", err
		}
		if current == "" {
			current = v
		} else if v != current {
			return "", &domain.VersionFileError{Path: f.Path(), Versions: []string{current, v}}
		}
	}
	return current, nil
}

// WriteAll rewrites every file with the given version.
func WriteAll(files []File, version string) error {
	for _, f := range files {
		if err := f.Write(version); err != nil {
			return fmt.Errorf("rewriting %s: %w", f.Path(), err)
		}
	}
	return nil
}

// Paths returns the configured paths, for commit pathspecs and reporting.
func Paths(files []File) []string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path())
	}
	return paths
}

// fileVersion reduces a file's occurrences to one version string.
func fileVersion(f File) (string, error) {
	versions, err := f.Versions()
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", &domain.VersionFileError{Path: f.Path()}
	}
	for _, v := range versions[1:] {
		if v != versions[0] {
			return "", &domain.VersionFileError{Path: f.Path(), Versions: versions}
		}
	}
	if versions[0] == "" {
		return "", &domain.VersionFileError{Path: f.Path(), Versions: []string{""}}
	}
	return versions[0], nil
}

// Plain is a file whose whole content is the version string. A single
// trailing newline is tolerated on read and restored on write.
type Plain struct {
	root string
	path string
}

func NewPlain(root, path string) *Plain {
	return &Plain{root: root, path: path}
}

func (p *Plain) Path() string { return p.path }

func (p *Plain) Versions() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(p.root, p.path))
	if err != nil {
		return nil, err
	}
	return []string{strings.TrimSuffix(string(data), "\n")}, nil
}

func (p *Plain) Write(version string) error {
	return os.WriteFile(filepath.Join(p.root, p.path), []byte(version+"\n"), 0o644)
}

// Formatted is a file rendered entirely from a template containing the
// {version} placeholder; reading derives a regexp from the template.
type Formatted struct {
	root    string
	path    string
	format  string
	pattern *regexp.Regexp
}

func NewFormatted(root, path, format string) (*Formatted, error) {
	if !strings.Contains(format, Placeholder) {
		return nil, &domain.ConfigError{Reason: fmt.Sprintf("version file %s: format must contain %s", path, Placeholder)}
	}
	expr := strings.ReplaceAll(regexp.QuoteMeta(format), regexp.QuoteMeta(Placeholder), "(.*)")
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return nil, &domain.ConfigError{Reason: fmt.Sprintf("version file %s: invalid format", path), Err: err}
	}
	return &Formatted{root: root, path: path, format: format, pattern: pattern}, nil
}

func (f *Formatted) Path() string { return f.path }

func (f *Formatted) Versions() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(f.root, f.path))
	if err != nil {
		return nil, err
	}
	m := f.pattern.FindStringSubmatch(string(data))
	if m == nil {
		return nil, nil
	}
	return m[1:], nil
}

func (f *Formatted) Write(version string) error {
	content := strings.ReplaceAll(f.format, Placeholder, version)
	return os.WriteFile(filepath.Join(f.root, f.path), []byte(content), 0o644)
}

// Edited is a file edited in place: every match of the configured regexp is a
// version occurrence and all matches are substituted on write.
type Edited struct {
	root    string
	path    string
	pattern *regexp.Regexp
}

func NewEdited(root, path, pattern string) (*Edited, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &domain.ConfigError{Reason: fmt.Sprintf("version file %s: invalid pattern", path), Err: err}
	}
	return &Edited{root: root, path: path, pattern: re}, nil
}

func (e *Edited) Path() string { return e.path }

func (e *Edited) Versions() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(e.root, e.path))
	if err != nil {
		return nil, err
	}
	return e.pattern.FindAllString(string(data), -1), nil
}

func (e *Edited) Write(version string) error {
	full := filepath.Join(e.root, e.path)
	data, err := os.ReadFile(full)
	if err != nil {
		return err
	}
	out := e.pattern.ReplaceAllLiteralString(string(data), version)
	return os.WriteFile(full, []byte(out), 0o644)
}
