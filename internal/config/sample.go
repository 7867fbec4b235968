package config

// Sample is a commented configuration printed by the sample-config command.
const Sample = `# ` + DefaultFileName + ` -- relkit configuration

convention:
  # Versioning scheme: semver (default), pep440 or none.
  version: semver

file:
  # Files embedding the version string. Each entry is either a plain file
  # whose whole content is the version, a formatted file rendered from a
  # template, or a file edited in place wherever a pattern matches.
  version:
    - VERSION
    - path: docs/conf.py
      format: 'version = "{version}"'
    - path: setup.cfg
      pattern: '\d+\.\d+\.\d+'

git:
  branch:
    # Mainline branch the release is merged into. Entries may be glob
    # patterns; with more than one candidate the branch is passed by flag.
    development: main
    # Release branch to merge. Same rules as development.
    release: 'release/*'
  commit:
    message: 'bump: version {version}'
    sign-off: false
    gpg-sign: false
  tag:
    format: 'v{version}'
    message: 'version {version}'
    annotate: true
    gpg-sign: false

state:
  # Keep the attempt record after a completed release, for audit.
  keep-record: false
`
