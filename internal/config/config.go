// Package config loads and validates the .relkit.yaml configuration file.
//
// The file shape follows the original project-release schema: a convention
// section selecting the versioning scheme, a file section listing the
// version-bearing files, a git section for branch candidates and commit/tag
// options, and a state section for record retention. Several fields are
// polymorphic (scalar-or-list, string-or-object), so the YAML document is
// first read into a generic map and then decoded with mapstructure.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/relkit/relkit/internal/versionfile"
	"github.com/relkit/relkit/pkg/domain"
)

// DefaultFileName is the configuration file looked up at the repository root.
const DefaultFileName = ".relkit.yaml"

// CommitConfig controls the bump commit.
type CommitConfig struct {
	Message string `mapstructure:"message"`
	SignOff bool   `mapstructure:"sign-off"`
	GPGSign bool   `mapstructure:"gpg-sign"`
}

// TagConfig controls the release tag.
type TagConfig struct {
	Format   string `mapstructure:"format"`
	Message  string `mapstructure:"message"`
	Annotate *bool  `mapstructure:"annotate"`
	GPGSign  bool   `mapstructure:"gpg-sign"`
}

// Config is the parsed, validated configuration.
type Config struct {
	// Scheme is the versioning convention: semver, pep440 or none.
	Scheme string

	// VersionFiles lists the files embedding the version string.
	VersionFiles []versionfile.Spec

	// DevelopmentBranches are the mainline (merge target) candidates;
	// ReleaseBranches are the release (merge source) candidates. Entries may
	// be glob patterns validating a branch passed by flag.
	DevelopmentBranches []string
	ReleaseBranches     []string

	Commit CommitConfig
	Tag    TagConfig

	// KeepRecord retains the attempt record after completion for audit.
	KeepRecord bool
}

// rawConfig mirrors the YAML document before normalization.
type rawConfig struct {
	Convention struct {
		Version string `mapstructure:"version"`
	} `mapstructure:"convention"`
	File struct {
		Version any `mapstructure:"version"`
	} `mapstructure:"file"`
	Git struct {
		Branch struct {
			Development any `mapstructure:"development"`
			Release     any `mapstructure:"release"`
		} `mapstructure:"branch"`
		Commit CommitConfig `mapstructure:"commit"`
		Tag    TagConfig    `mapstructure:"tag"`
	} `mapstructure:"git"`
	State struct {
		KeepRecord bool `mapstructure:"keep-record"`
	} `mapstructure:"state"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	annotate := true
	return &Config{
		Scheme: "semver",
		Commit: CommitConfig{Message: "bump: version " + versionfile.Placeholder},
		Tag: TagConfig{
			Format:   "v" + versionfile.Placeholder,
			Message:  "version " + versionfile.Placeholder,
			Annotate: &annotate,
		},
	}
}

// Load reads and validates the configuration file. A missing file yields the
// defaults; every other failure is a *domain.ConfigError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, &domain.ConfigError{Reason: "cannot read " + path, Err: err}
	}
	return Parse(data)
}

// Parse validates a raw YAML document.
func Parse(data []byte) (*Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &domain.ConfigError{Reason: "invalid YAML", Err: err}
	}

	var raw rawConfig
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:   &raw,
		Metadata: &md,
	})
	if err != nil {
		return nil, &domain.ConfigError{Reason: "decoder setup", Err: err}
	}
	if err := dec.Decode(doc); err != nil {
		return nil, &domain.ConfigError{Reason: "invalid structure", Err: err}
	}
	if len(md.Unused) > 0 {
		return nil, &domain.ConfigError{Reason: "unknown keys: " + strings.Join(md.Unused, ", ")}
	}

	cfg := Default()
	if err := applyRaw(cfg, raw); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyRaw(cfg *Config, raw rawConfig) error {
	switch raw.Convention.Version {
	case "":
	case "semver", "pep440", "none":
		cfg.Scheme = raw.Convention.Version
	default:
		return &domain.ConfigError{Reason: fmt.Sprintf("convention.version must be semver, pep440 or none, got %q", raw.Convention.Version)}
	}

	specs, err := parseVersionFiles(raw.File.Version)
	if err != nil {
		return err
	}
	cfg.VersionFiles = specs

	if cfg.DevelopmentBranches, err = parseStringList("git.branch.development", raw.Git.Branch.Development); err != nil {
		return err
	}
	if cfg.ReleaseBranches, err = parseStringList("git.branch.release", raw.Git.Branch.Release); err != nil {
		return err
	}

	if raw.Git.Commit.Message != "" {
		cfg.Commit.Message = raw.Git.Commit.Message
	}
	cfg.Commit.SignOff = raw.Git.Commit.SignOff
	cfg.Commit.GPGSign = raw.Git.Commit.GPGSign

	if raw.Git.Tag.Format != "" {
		cfg.Tag.Format = raw.Git.Tag.Format
	}
	if raw.Git.Tag.Message != "" {
		cfg.Tag.Message = raw.Git.Tag.Message
	}
	if raw.Git.Tag.Annotate != nil {
		cfg.Tag.Annotate = raw.Git.Tag.Annotate
	}
	cfg.Tag.GPGSign = raw.Git.Tag.GPGSign

	cfg.KeepRecord = raw.State.KeepRecord
	return nil
}

// parseVersionFiles accepts a scalar entry or a list of entries, each being a
// plain path string or a {path, format|pattern} mapping.
func parseVersionFiles(v any) ([]versionfile.Spec, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	specs := make([]versionfile.Spec, 0, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case string:
			if it == "" {
				return nil, &domain.ConfigError{Reason: "file.version entry must not be empty"}
			}
			specs = append(specs, versionfile.Spec{Path: it})
		case map[string]any:
			var spec versionfile.Spec
			var md mapstructure.Metadata
			dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &spec, Metadata: &md})
			if err != nil {
				return nil, &domain.ConfigError{Reason: "decoder setup", Err: err}
			}
			if err := dec.Decode(it); err != nil {
				return nil, &domain.ConfigError{Reason: "invalid file.version entry", Err: err}
			}
			if len(md.Unused) > 0 {
				return nil, &domain.ConfigError{Reason: "file.version entry has unknown keys: " + strings.Join(md.Unused, ", ")}
			}
			if spec.Path == "" {
				return nil, &domain.ConfigError{Reason: "file.version entry must name a path"}
			}
			if spec.Format != "" && spec.Pattern != "" {
				return nil, &domain.ConfigError{Reason: fmt.Sprintf("version file %s: format and pattern are exclusive", spec.Path)}
			}
			specs = append(specs, spec)
		default:
			return nil, &domain.ConfigError{Reason: fmt.Sprintf("file.version entry must be a string or mapping, got %T", item)}
		}
	}
	return specs, nil
}

// parseStringList accepts a scalar or a list of non-empty strings.
func parseStringList(key string, v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || s == "" {
			return nil, &domain.ConfigError{Reason: key + " entries must be non-empty strings"}
		}
		out = append(out, s)
	}
	return out, nil
}

// SelectBranch resolves the branch to use from the configured candidates and
// an optional flag value. Candidates may be glob patterns; a flag value must
// match one of them. Without a flag, exactly one plain candidate must remain.
func SelectBranch(kind string, candidates []string, flag string) (string, error) {
	var plain, patterns []string
	for _, c := range candidates {
		if strings.ContainsAny(c, "*?[") {
			patterns = append(patterns, c)
		} else {
			plain = append(plain, c)
		}
	}

	if flag != "" {
		for _, p := range plain {
			if flag == p {
				return flag, nil
			}
		}
		for _, p := range patterns {
			if ok, _ := path.Match(p, flag); ok {
				return flag, nil
			}
		}
		if len(candidates) == 0 {
			return flag, nil
		}
		return "", &domain.ConfigError{Reason: fmt.Sprintf("branch %q is not an allowed %s branch", flag, kind)}
	}

	if len(patterns) == 0 && len(plain) == 1 {
		return plain[0], nil
	}
	return "", &domain.ConfigError{Reason: fmt.Sprintf("cannot determine the %s branch: pass it explicitly", kind)}
}

// RenderTemplate substitutes the version placeholder in commit messages, tag
// names and tag messages.
func RenderTemplate(template, version string) string {
	return strings.ReplaceAll(template, versionfile.Placeholder, version)
}

// TagAnnotate reports the effective annotate setting.
func (c *Config) TagAnnotate() bool {
	return c.Tag.Annotate == nil || *c.Tag.Annotate
}
