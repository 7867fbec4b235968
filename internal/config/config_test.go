package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relkit/relkit/internal/versionfile"
	"github.com/relkit/relkit/pkg/domain"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
		require.NoError(t, err)
		assert.Equal(t, "semver", cfg.Scheme)
		assert.Equal(t, "bump: version {version}", cfg.Commit.Message)
		assert.Equal(t, "v{version}", cfg.Tag.Format)
		assert.Equal(t, "version {version}", cfg.Tag.Message)
		assert.True(t, cfg.TagAnnotate())
		assert.False(t, cfg.KeepRecord)
	})

	t.Run("unreadable file is a config error", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultFileName)
		require.NoError(t, os.Mkdir(path, 0o755)) // a directory, not a file

		_, err := Load(path)
		var cfgErr *domain.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})
}

func TestParse(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		cfg, err := Parse([]byte(`
convention:
  version: pep440
file:
  version:
    - VERSION
    - path: pkg/about.py
      format: "__version__ = '{version}'\n"
    - path: setup.py
      pattern: '\d+\.\d+\.\d+'
git:
  branch:
    development: [main, master]
    release: ["release/*"]
  commit:
    message: "release {version}"
    sign-off: true
  tag:
    format: "{version}"
    message: "release {version}"
    annotate: false
    gpg-sign: true
state:
  keep-record: true
`))
		require.NoError(t, err)
		assert.Equal(t, "pep440", cfg.Scheme)
		assert.Equal(t, []versionfile.Spec{
			{Path: "VERSION"},
			{Path: "pkg/about.py", Format: "__version__ = '{version}'\n"},
			{Path: "setup.py", Pattern: `\d+\.\d+\.\d+`},
		}, cfg.VersionFiles)
		assert.Equal(t, []string{"main", "master"}, cfg.DevelopmentBranches)
		assert.Equal(t, []string{"release/*"}, cfg.ReleaseBranches)
		assert.Equal(t, "release {version}", cfg.Commit.Message)
		assert.True(t, cfg.Commit.SignOff)
		assert.Equal(t, "{version}", cfg.Tag.Format)
		assert.False(t, cfg.TagAnnotate())
		assert.True(t, cfg.Tag.GPGSign)
		assert.True(t, cfg.KeepRecord)
	})

	t.Run("scalar entries are promoted to lists", func(t *testing.T) {
		cfg, err := Parse([]byte(`
file:
  version: VERSION
git:
  branch:
    development: main
    release: release
`))
		require.NoError(t, err)
		assert.Equal(t, []versionfile.Spec{{Path: "VERSION"}}, cfg.VersionFiles)
		assert.Equal(t, []string{"main"}, cfg.DevelopmentBranches)
		assert.Equal(t, []string{"release"}, cfg.ReleaseBranches)
	})

	t.Run("invalid YAML", func(t *testing.T) {
		_, err := Parse([]byte("convention: [unclosed"))
		var cfgErr *domain.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		_, err := Parse([]byte("conventoin:\n  version: semver\n"))
		var cfgErr *domain.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), "conventoin")
	})

	t.Run("unknown scheme is rejected", func(t *testing.T) {
		_, err := Parse([]byte("convention:\n  version: calver\n"))
		var cfgErr *domain.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("format and pattern are exclusive", func(t *testing.T) {
		_, err := Parse([]byte(`
file:
  version:
    - path: x
      format: "{version}"
      pattern: ".*"
`))
		var cfgErr *domain.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("version file entry with unknown keys", func(t *testing.T) {
		_, err := Parse([]byte(`
file:
  version:
    - path: x
      formatt: "{version}"
`))
		var cfgErr *domain.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("sample parses", func(t *testing.T) {
		_, err := Parse([]byte(Sample))
		assert.NoError(t, err)
	})
}

func TestSelectBranch(t *testing.T) {
	t.Run("single plain candidate is auto-selected", func(t *testing.T) {
		got, err := SelectBranch("development", []string{"main"}, "")
		require.NoError(t, err)
		assert.Equal(t, "main", got)
	})

	t.Run("several candidates require a flag", func(t *testing.T) {
		_, err := SelectBranch("development", []string{"main", "master"}, "")
		var cfgErr *domain.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("flag must match a candidate", func(t *testing.T) {
		got, err := SelectBranch("development", []string{"main", "master"}, "master")
		require.NoError(t, err)
		assert.Equal(t, "master", got)

		_, err = SelectBranch("development", []string{"main"}, "trunk")
		var cfgErr *domain.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("glob candidates validate the flag", func(t *testing.T) {
		got, err := SelectBranch("release", []string{"release/*"}, "release/1.5")
		require.NoError(t, err)
		assert.Equal(t, "release/1.5", got)

		_, err = SelectBranch("release", []string{"release/*"}, "hotfix/1.5")
		var cfgErr *domain.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("glob candidates never auto-select", func(t *testing.T) {
		_, err := SelectBranch("release", []string{"release/*"}, "")
		var cfgErr *domain.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("no candidates pass the flag through", func(t *testing.T) {
		got, err := SelectBranch("release", nil, "anything")
		require.NoError(t, err)
		assert.Equal(t, "anything", got)
	})
}

func TestRenderTemplate(t *testing.T) {
	assert.Equal(t, "bump: version 1.5.0", RenderTemplate("bump: version {version}", "1.5.0"))
	assert.Equal(t, "v1.5.0", RenderTemplate("v{version}", "1.5.0"))
	assert.Equal(t, "no placeholder", RenderTemplate("no placeholder", "1.5.0"))
}
