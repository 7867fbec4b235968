package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/relkit/relkit/pkg/domain"
)

// printReport renders the status report. On a terminal the markdown goes
// through glamour; on a pipe it is printed as-is so it stays grep-friendly.
func (a *App) printReport(attempt *domain.ReleaseAttempt) error {
	md := report(attempt)

	if f, ok := a.Stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle()); err == nil {
			if out, err := r.Render(md); err == nil {
				_, werr := io.WriteString(a.Stdout, out)
				return werr
			}
		}
	}
	_, err := io.WriteString(a.Stdout, md)
	return err
}

// report builds the markdown status report for one attempt.
func report(attempt *domain.ReleaseAttempt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Release attempt %s\n\n", attempt.AttemptID)
	fmt.Fprintf(&b, "- **Phase:** %s\n", attempt.Phase)
	fmt.Fprintf(&b, "- **Merge:** %s into %s\n", attempt.SourceBranch, attempt.TargetBranch)
	fmt.Fprintf(&b, "- **Base version:** %s (%s bump)\n", attempt.BaseVersion, attempt.BumpKind)
	if attempt.ResolvedVersion != "" {
		fmt.Fprintf(&b, "- **Next version:** %s\n", attempt.ResolvedVersion)
	}
	if attempt.TagName != "" {
		fmt.Fprintf(&b, "- **Tag:** %s\n", attempt.TagName)
	}
	fmt.Fprintf(&b, "- **Started:** %s\n", attempt.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Updated:** %s\n", attempt.UpdatedAt.Format("2006-01-02 15:04:05 MST"))

	if len(attempt.ConflictPaths) > 0 {
		b.WriteString("\n## Conflicts\n\n")
		for _, p := range attempt.ConflictPaths {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}

	if action := nextAction(attempt); action != "" {
		fmt.Fprintf(&b, "\n**Next:** %s\n", action)
	}
	return b.String()
}

// nextAction tells the user how to move the attempt forward from its phase.
func nextAction(attempt *domain.ReleaseAttempt) string {
	switch attempt.Phase {
	case domain.PhaseMergeConflict:
		return "resolve the conflicts, conclude the merge, then run `relkit continue`"
	case domain.PhaseAwaitingCustomCommit:
		return "commit your changes, then run `relkit continue`"
	case domain.PhaseCompleted:
		return "nothing; the release is done"
	default:
		if attempt.Phase.Terminal() {
			return ""
		}
		return "run `relkit` to resume, or `relkit abort` to roll back"
	}
}
