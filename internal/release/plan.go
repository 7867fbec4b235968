package release

import (
	"fmt"

	"github.com/relkit/relkit/pkg/domain"
)

// step is the single action the engine should perform next. The planner is a
// pure function of the attempt record and fresh repository observations; all
// I/O stays at the engine edges.
type step int

const (
	// stepStartMerge enters the Merging phase.
	stepStartMerge step = iota
	// stepMerge performs the merge of source into target.
	stepMerge
	// stepAdoptMerge advances past a merge commit that already exists.
	stepAdoptMerge
	// stepAwaitConflict suspends the attempt on unresolved conflicts.
	stepAwaitConflict
	// stepAwaitCustomCommit suspends the attempt pending the user's commit.
	stepAwaitCustomCommit
	// stepPause honors an edit request before the bump step.
	stepPause
	// stepResolve computes the resolved version and enters Bumping.
	stepResolve
	// stepBump rewrites the version files and creates the bump commit.
	stepBump
	// stepAdoptBump advances past a bump commit that already exists.
	stepAdoptBump
	// stepEnterTagging enters the Tagging phase.
	stepEnterTagging
	// stepTag creates the release tag.
	stepTag
	// stepAdoptTag advances past a tag that already exists.
	stepAdoptTag
	// stepFinalize completes the attempt and disposes of the record.
	stepFinalize
)

// observations is a fresh read of the repository facts the planner needs.
// Only the facts relevant to the current phase are populated.
type observations struct {
	mergeInProgress   bool
	mergeCommitExists bool
	bumpCommitExists  bool
	tagExists         bool
}

// plan decides the next step for an attempt. Side effects that already
// happened (a commit or tag recorded in the attempt and still present in the
// repository) are adopted rather than repeated; recorded ids that vanished
// mean the step is redone. This is what makes re-running the default command
// after a crash safe in every phase.
func plan(attempt *domain.ReleaseAttempt, obs observations, pause bool) (step, error) {
	switch attempt.Phase {
	case domain.PhaseNotStarted:
		return stepStartMerge, nil

	case domain.PhaseMerging:
		if attempt.MergeCommitID != "" && obs.mergeCommitExists {
			return stepAdoptMerge, nil
		}
		if obs.mergeInProgress {
			// Crash after a conflicted merge, before the record caught up.
			return stepAwaitConflict, nil
		}
		return stepMerge, nil

	case domain.PhaseMergeConflict:
		return stepAwaitConflict, nil

	case domain.PhaseAwaitingCustomCommit:
		return stepAwaitCustomCommit, nil

	case domain.PhaseReadyToBump:
		if pause {
			return stepPause, nil
		}
		return stepResolve, nil

	case domain.PhaseBumping:
		if attempt.BumpCommitID != "" && obs.bumpCommitExists {
			return stepAdoptBump, nil
		}
		return stepBump, nil

	case domain.PhaseBumped:
		return stepEnterTagging, nil

	case domain.PhaseTagging:
		if obs.tagExists {
			return stepAdoptTag, nil
		}
		return stepTag, nil

	case domain.PhaseCompleted:
		return stepFinalize, nil
	}
	return 0, fmt.Errorf("cannot plan from phase %q", attempt.Phase)
}
