package release

import (
	"context"

	"github.com/relkit/relkit/pkg/domain"
)

// Abort cancels the current attempt and rolls the repository back on a best
// effort basis. Undo steps recorded during the attempt are replayed in
// reverse; a step that fails is reported but never blocks the remaining
// steps, and the attempt record is cleared regardless, so an abort always
// leaves the tool ready for a fresh run.
//
// A completed attempt is not rolled back: the tag is published history at
// that point, so Abort only discards the retained record.
func (e *Engine) Abort(ctx context.Context) (*domain.ReleaseAttempt, error) {
	attempt, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if attempt.Phase == domain.PhaseCompleted {
		e.logger.InfoContext(ctx, "discarding completed attempt record", "attempt_id", attempt.AttemptID)
		return attempt, e.store.Clear(ctx)
	}

	var failures []domain.RollbackFailure

	inProgress, err := e.repo.MergeInProgress(ctx)
	if err != nil {
		failures = append(failures, domain.RollbackFailure{Step: "abort merge", Err: err})
	} else if inProgress {
		e.logger.InfoContext(ctx, "aborting in-progress merge")
		if err := e.repo.AbortMerge(ctx); err != nil {
			failures = append(failures, domain.RollbackFailure{Step: "abort merge", Err: err})
		}
	}

	for i := len(attempt.Undo) - 1; i >= 0; i-- {
		if err := e.undo(ctx, attempt.Undo[i]); err != nil {
			failures = append(failures, domain.RollbackFailure{
				Step: attempt.Undo[i].Describe(),
				Err:  err,
			})
		}
	}

	if err := attempt.Transition(domain.PhaseAborted, e.now()); err != nil {
		failures = append(failures, domain.RollbackFailure{Step: "mark aborted", Err: err})
	}
	if err := e.store.Clear(ctx); err != nil {
		failures = append(failures, domain.RollbackFailure{Step: "clear attempt record", Err: err})
	}

	if len(failures) > 0 {
		return attempt, &domain.RollbackError{Failures: failures}
	}
	e.logger.InfoContext(ctx, "attempt aborted", "attempt_id", attempt.AttemptID)
	return attempt, nil
}

func (e *Engine) undo(ctx context.Context, step domain.UndoStep) error {
	switch step.Kind {
	case domain.UndoResetHard:
		e.logger.InfoContext(ctx, "rolling back to commit", "commit", step.Commit)
		return e.repo.ResetHard(ctx, step.Commit)

	case domain.UndoDeleteTag:
		exists, err := e.repo.TagExists(ctx, step.Tag)
		if err != nil {
			return err
		}
		if !exists {
			return nil
		}
		e.logger.InfoContext(ctx, "deleting tag", "tag", step.Tag)
		return e.repo.DeleteTag(ctx, step.Tag)
	}
	return nil
}
