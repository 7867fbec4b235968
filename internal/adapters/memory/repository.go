package memory

import (
	"context"
	"fmt"

	"github.com/relkit/relkit/pkg/domain"
	"github.com/relkit/relkit/pkg/ports"
)

// Repository is an in-memory ports.Repository. It models just enough of a
// working copy for the engine: a current branch, a head commit, tags, merge
// progress and unresolved paths. Test hooks script conflicts, dirt and
// injected failures; Ops records every mutating call in order.
type Repository struct {
	Branch   string
	Branches map[string]bool

	Dirty bool
	Ahead int

	// NextMergeConflicts makes the next Merge stop on these paths.
	NextMergeConflicts []string

	// Injected failures, returned verbatim by the matching operation.
	FailMerge     error
	FailCommit    error
	FailTag       error
	FailReset     error
	FailDeleteTag error

	MergeCalls  int
	CommitCalls int
	TagCalls    int

	// Ops logs mutating operations in call order.
	Ops []string

	seq             int
	head            string
	commits         map[string]bool
	tags            map[string]string
	mergeInProgress bool
	unresolved      []string
}

// NewRepository creates a clean repository on the given branch with one
// initial commit.
func NewRepository(branch string, extraBranches ...string) *Repository {
	r := &Repository{
		Branch:   branch,
		Branches: map[string]bool{branch: true},
		commits:  make(map[string]bool),
		tags:     make(map[string]string),
	}
	for _, b := range extraBranches {
		r.Branches[b] = true
	}
	r.newCommit()
	return r
}

// Head returns the current head commit id (also part of ports.Repository).
func (r *Repository) Head(ctx context.Context) (string, error) { return r.head, nil }

func (r *Repository) CurrentBranch(ctx context.Context) (string, error) { return r.Branch, nil }

func (r *Repository) BranchExists(ctx context.Context, name string) (bool, error) {
	return r.Branches[name], nil
}

func (r *Repository) IsClean(ctx context.Context) (bool, error) { return !r.Dirty, nil }

func (r *Repository) Checkout(ctx context.Context, branch string) error {
	if !r.Branches[branch] {
		return &domain.AdapterError{Op: "checkout", Err: fmt.Errorf("no such branch %q", branch)}
	}
	r.Branch = branch
	r.Ops = append(r.Ops, "checkout "+branch)
	return nil
}

func (r *Repository) AheadCount(ctx context.Context, source, target string) (int, error) {
	return r.Ahead, nil
}

func (r *Repository) Merge(ctx context.Context, source, target string) (ports.MergeOutcome, error) {
	r.MergeCalls++
	r.Ops = append(r.Ops, fmt.Sprintf("merge %s into %s", source, target))
	if r.FailMerge != nil {
		return ports.MergeOutcome{}, r.FailMerge
	}
	if len(r.NextMergeConflicts) > 0 {
		r.mergeInProgress = true
		r.unresolved = r.NextMergeConflicts
		r.NextMergeConflicts = nil
		return ports.MergeOutcome{Conflicted: true, ConflictPaths: r.unresolved}, nil
	}
	return ports.MergeOutcome{CommitID: r.newCommit()}, nil
}

func (r *Repository) MergeInProgress(ctx context.Context) (bool, error) {
	return r.mergeInProgress, nil
}

func (r *Repository) HasUnresolvedConflicts(ctx context.Context) (bool, error) {
	return len(r.unresolved) > 0, nil
}

func (r *Repository) Commit(ctx context.Context, message string, paths []string) (string, error) {
	r.CommitCalls++
	if r.FailCommit != nil {
		return "", r.FailCommit
	}
	id := r.newCommit()
	r.Ops = append(r.Ops, "commit "+id)
	return id, nil
}

func (r *Repository) Tag(ctx context.Context, name, commit, message string) error {
	r.TagCalls++
	if r.FailTag != nil {
		return r.FailTag
	}
	r.tags[name] = commit
	r.Ops = append(r.Ops, "tag "+name)
	return nil
}

func (r *Repository) CommitExists(ctx context.Context, id string) (bool, error) {
	return r.commits[id], nil
}

func (r *Repository) TagExists(ctx context.Context, name string) (bool, error) {
	_, ok := r.tags[name]
	return ok, nil
}

func (r *Repository) AbortMerge(ctx context.Context) error {
	r.mergeInProgress = false
	r.unresolved = nil
	r.Ops = append(r.Ops, "abort_merge")
	return nil
}

func (r *Repository) ResetHard(ctx context.Context, commit string) error {
	if r.FailReset != nil {
		return r.FailReset
	}
	r.head = commit
	r.Ops = append(r.Ops, "reset_hard "+commit)
	return nil
}

func (r *Repository) DeleteTag(ctx context.Context, name string) error {
	if r.FailDeleteTag != nil {
		return r.FailDeleteTag
	}
	if _, ok := r.tags[name]; !ok {
		return &domain.AdapterError{Op: "delete tag", Err: fmt.Errorf("no such tag %q", name)}
	}
	delete(r.tags, name)
	r.Ops = append(r.Ops, "delete_tag "+name)
	return nil
}

// ResolveConflicts simulates the user fixing every conflicted file.
func (r *Repository) ResolveConflicts() {
	r.unresolved = nil
}

// ConcludeMerge simulates the user committing the resolved merge.
func (r *Repository) ConcludeMerge() string {
	r.mergeInProgress = false
	r.Dirty = false
	return r.newCommit()
}

// CustomCommit simulates the user adding their own commit.
func (r *Repository) CustomCommit() string {
	r.Dirty = false
	return r.newCommit()
}

// DropCommit forgets a commit, simulating history rewritten behind the
// record's back.
func (r *Repository) DropCommit(id string) {
	delete(r.commits, id)
}

// Tags exposes the tag map for assertions.
func (r *Repository) Tags() map[string]string { return r.tags }

func (r *Repository) newCommit() string {
	r.seq++
	id := fmt.Sprintf("c%03d", r.seq)
	r.commits[id] = true
	r.head = id
	return id
}
