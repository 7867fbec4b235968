package domain

import (
	"fmt"
	"time"
)

// Phase is the current step of a release attempt's state machine.
type Phase string

const (
	PhaseNotStarted           Phase = "not_started"
	PhaseMerging              Phase = "merging"
	PhaseMergeConflict        Phase = "merge_conflict"
	PhaseAwaitingCustomCommit Phase = "awaiting_custom_commit"
	PhaseReadyToBump          Phase = "ready_to_bump"
	PhaseBumping              Phase = "bumping"
	PhaseBumped               Phase = "bumped"
	PhaseTagging              Phase = "tagging"
	PhaseCompleted            Phase = "completed"
	PhaseAborted              Phase = "aborted"
)

// phases holds every known phase, used to reject unknown values on load.
var phases = map[Phase]bool{
	PhaseNotStarted:           true,
	PhaseMerging:              true,
	PhaseMergeConflict:        true,
	PhaseAwaitingCustomCommit: true,
	PhaseReadyToBump:          true,
	PhaseBumping:              true,
	PhaseBumped:               true,
	PhaseTagging:              true,
	PhaseCompleted:            true,
	PhaseAborted:              true,
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return phases[p]
}

// Terminal reports whether the attempt can no longer advance.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseAborted
}

// WaitingForUser reports whether the attempt is suspended pending a human
// action (conflict resolution or a custom commit) and must be resumed via
// the continue operation rather than a plain run.
func (p Phase) WaitingForUser() bool {
	return p == PhaseMergeConflict || p == PhaseAwaitingCustomCommit
}

// BumpKind is the category of version increment requested at attempt start.
type BumpKind string

const (
	BumpMajor      BumpKind = "major"
	BumpMinor      BumpKind = "minor"
	BumpPatch      BumpKind = "patch"
	BumpPrerelease BumpKind = "prerelease"
)

// ParseBumpKind validates a user-supplied bump kind string.
func ParseBumpKind(s string) (BumpKind, error) {
	switch k := BumpKind(s); k {
	case BumpMajor, BumpMinor, BumpPatch, BumpPrerelease:
		return k, nil
	}
	return "", fmt.Errorf("unknown bump kind: %q", s)
}

// UndoKind identifies a reversible repository action.
type UndoKind string

const (
	// UndoResetHard moves the target branch back to a recorded commit.
	UndoResetHard UndoKind = "reset_hard"
	// UndoDeleteTag removes a tag created by the attempt.
	UndoDeleteTag UndoKind = "delete_tag"
)

// UndoStep is one entry of the rollback stack. Steps are appended as forward
// steps complete and replayed in reverse order on abort.
type UndoStep struct {
	Kind   UndoKind `json:"kind"`
	Commit string   `json:"commit,omitempty"`
	Tag    string   `json:"tag,omitempty"`
}

// Describe renders the step for human-facing rollback reports.
func (s UndoStep) Describe() string {
	switch s.Kind {
	case UndoResetHard:
		return "reset to " + s.Commit
	case UndoDeleteTag:
		return "delete tag " + s.Tag
	}
	return string(s.Kind)
}

// ReleaseAttempt is the persisted record of one release run. It is the single
// source of truth for where the workflow stopped; the engine validates the
// repository against it but never infers the phase from repository state.
//
// Identity fields and completed-step fields are immutable once set.
type ReleaseAttempt struct {
	AttemptID    string `json:"attempt_id"`
	Phase        Phase  `json:"phase"`
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`

	BaseVersion     string   `json:"base_version"`
	BumpKind        BumpKind `json:"bump_kind"`
	ResolvedVersion string   `json:"resolved_version,omitempty"`

	PreMergeCommitID string     `json:"pre_merge_commit_id,omitempty"`
	MergeCommitID    string     `json:"merge_commit_id,omitempty"`
	BumpCommitID     string     `json:"bump_commit_id,omitempty"`
	TagName          string     `json:"tag_name,omitempty"`
	ConflictPaths    []string   `json:"conflict_paths,omitempty"`
	Undo             []UndoStep `json:"undo,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Unknown carries fields written by newer versions of the tool.
	// Stores must preserve them on rewrite rather than drop them.
	Unknown map[string]any `json:"-"`
}

// transitions is the forward graph. Aborted is reachable from every
// non-terminal phase and is therefore not listed per-phase.
var transitions = map[Phase][]Phase{
	PhaseNotStarted:           {PhaseMerging},
	PhaseMerging:              {PhaseMergeConflict, PhaseReadyToBump},
	PhaseMergeConflict:        {PhaseReadyToBump},
	PhaseAwaitingCustomCommit: {PhaseReadyToBump},
	PhaseReadyToBump:          {PhaseAwaitingCustomCommit, PhaseBumping},
	PhaseBumping:              {PhaseBumped},
	PhaseBumped:               {PhaseTagging},
	PhaseTagging:              {PhaseCompleted},
}

// CanTransition reports whether moving from p to next is legal. The phase
// only advances forward through the graph; the sole regression is an
// explicit abort from any non-terminal phase.
func (p Phase) CanTransition(next Phase) bool {
	if next == PhaseAborted {
		return !p.Terminal()
	}
	for _, n := range transitions[p] {
		if n == next {
			return true
		}
	}
	return false
}

// Transition advances the attempt to the next phase, stamping UpdatedAt.
func (a *ReleaseAttempt) Transition(next Phase, now time.Time) error {
	if !a.Phase.CanTransition(next) {
		return fmt.Errorf("illegal phase transition: %s -> %s", a.Phase, next)
	}
	a.Phase = next
	a.UpdatedAt = now
	return nil
}

// PushUndo records a completed reversible step.
func (a *ReleaseAttempt) PushUndo(step UndoStep) {
	a.Undo = append(a.Undo, step)
}
