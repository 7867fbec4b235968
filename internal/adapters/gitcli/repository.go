// Package gitcli implements ports.Repository by driving the git binary.
//
// Every operation is a plumbing-level invocation; stderr from a failed call
// is carried inside the returned *domain.AdapterError. A merge that stops on
// unresolved paths is the one failure reported as a semantic outcome instead
// of an error.
package gitcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/relkit/relkit/pkg/domain"
	"github.com/relkit/relkit/pkg/ports"
)

// Options carry the commit and tag signing behavior from configuration.
type Options struct {
	CommitSignOff bool
	CommitGPGSign bool
	TagAnnotate   bool
	TagGPGSign    bool
}

// Repository drives git against one working copy.
type Repository struct {
	root   string
	gitDir string
	opts   Options
}

// Open locates the repository containing dir. A directory outside any git
// working copy is a *domain.RepositoryStateError.
func Open(ctx context.Context, dir string, opts Options) (*Repository, error) {
	r := &Repository{root: dir, opts: opts}
	root, err := r.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, &domain.RepositoryStateError{Reason: "not in a git repository"}
	}
	r.root = root
	gitDir, err := r.run(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return nil, err
	}
	r.gitDir = gitDir
	return r, nil
}

// Root returns the working copy root.
func (r *Repository) Root() string { return r.root }

// GitDir returns the repository metadata directory, where the attempt record
// and the invocation lock live (outside version control).
func (r *Repository) GitDir() string { return r.gitDir }

func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if out == "HEAD" {
		return "", nil // detached
	}
	return out, nil
}

func (r *Repository) BranchExists(ctx context.Context, name string) (bool, error) {
	return r.succeeds(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+name)
}

func (r *Repository) Head(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "HEAD")
}

func (r *Repository) IsClean(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

func (r *Repository) Checkout(ctx context.Context, branch string) error {
	_, err := r.run(ctx, "checkout", branch)
	return err
}

func (r *Repository) AheadCount(ctx context.Context, source, target string) (int, error) {
	out, err := r.run(ctx, "rev-list", "--count", target+".."+source)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, &domain.AdapterError{Op: "git rev-list", Err: fmt.Errorf("unexpected output %q", out)}
	}
	return n, nil
}

func (r *Repository) Merge(ctx context.Context, source, target string) (ports.MergeOutcome, error) {
	args := []string{"merge", "--no-ff", "--no-edit"}
	if r.opts.CommitGPGSign {
		args = append(args, "--gpg-sign")
	}
	args = append(args, source)

	if _, err := r.run(ctx, args...); err != nil {
		paths, perr := r.unresolvedPaths(ctx)
		if perr != nil {
			return ports.MergeOutcome{}, perr
		}
		if len(paths) > 0 {
			return ports.MergeOutcome{Conflicted: true, ConflictPaths: paths}, nil
		}
		return ports.MergeOutcome{}, err
	}

	head, err := r.Head(ctx)
	if err != nil {
		return ports.MergeOutcome{}, err
	}
	return ports.MergeOutcome{CommitID: head}, nil
}

func (r *Repository) MergeInProgress(ctx context.Context) (bool, error) {
	return r.succeeds(ctx, "rev-parse", "--verify", "--quiet", "MERGE_HEAD")
}

func (r *Repository) HasUnresolvedConflicts(ctx context.Context) (bool, error) {
	paths, err := r.unresolvedPaths(ctx)
	if err != nil {
		return false, err
	}
	return len(paths) > 0, nil
}

func (r *Repository) Commit(ctx context.Context, message string, paths []string) (string, error) {
	args := []string{"commit", "-m", message}
	if r.opts.CommitSignOff {
		args = append(args, "--signoff")
	}
	if r.opts.CommitGPGSign {
		args = append(args, "--gpg-sign")
	}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	if _, err := r.run(ctx, args...); err != nil {
		return "", err
	}
	return r.Head(ctx)
}

func (r *Repository) Tag(ctx context.Context, name, commit, message string) error {
	args := []string{"tag"}
	if r.opts.TagAnnotate {
		args = append(args, "-a", "-m", message)
	}
	if r.opts.TagGPGSign {
		args = append(args, "-s")
		if !r.opts.TagAnnotate {
			args = append(args, "-m", message)
		}
	}
	args = append(args, name, commit)
	_, err := r.run(ctx, args...)
	return err
}

func (r *Repository) CommitExists(ctx context.Context, id string) (bool, error) {
	return r.succeeds(ctx, "cat-file", "-e", id+"^{commit}")
}

func (r *Repository) TagExists(ctx context.Context, name string) (bool, error) {
	return r.succeeds(ctx, "show-ref", "--verify", "--quiet", "refs/tags/"+name)
}

func (r *Repository) AbortMerge(ctx context.Context) error {
	_, err := r.run(ctx, "merge", "--abort")
	return err
}

func (r *Repository) ResetHard(ctx context.Context, commit string) error {
	_, err := r.run(ctx, "reset", "--hard", commit)
	return err
}

func (r *Repository) DeleteTag(ctx context.Context, name string) error {
	_, err := r.run(ctx, "tag", "-d", name)
	return err
}

func (r *Repository) unresolvedPaths(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// run executes git with the given arguments and returns trimmed stdout.
func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg != "" {
			err = fmt.Errorf("%s: %w", msg, err)
		}
		return "", &domain.AdapterError{Op: "git " + args[0], Err: err}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// succeeds runs a git query whose exit status is the answer.
func (r *Repository) succeeds(ctx context.Context, args ...string) (bool, error) {
	_, err := r.run(ctx, args...)
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}
