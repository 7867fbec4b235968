/*
Package relkit drives a project release from branch merge to tag as a
resumable workflow: merge the release branch into the mainline, compute the
next version, rewrite the version files, commit the bump and tag the result.

The workflow is a durable state machine. Every phase transition is persisted
to a single record under the repository's git directory before the next
repository action runs, so a crash, a merge conflict or a deliberate pause
never loses progress: rerunning the command resumes exactly where the
previous invocation stopped. Side effects already present in the repository
(a recorded merge commit, a bump commit, a tag) are adopted rather than
repeated.

The architecture is hexagonal. The state machine in internal/release speaks
only to the ports (version-control operations, attempt store, lock); the
adapters drive the git binary, an atomically rewritten JSON file and an
advisory file lock. Versioning schemes (SemVer, PEP 440) are pure code with
no repository knowledge.

# Usage

Open a workspace and run the operations programmatically, or use the relkit
command, which is a thin layer over the same API:

	ws, err := relkit.Open(ctx, ".")
	if err != nil {
		return err
	}
	attempt, err := ws.Release(ctx, relkit.ReleaseOptions{Bump: domain.BumpMinor})

A release suspended on a merge conflict or a custom commit window is resumed
with Continue; Abort rolls the repository back and clears the record.
*/
package relkit
