package quality

import (
	"strings"

	"github.com/fyrsmithlabs/devflow/internal/project"
	"github.com/fyrsmithlabs/devflow/internal/workflow"
)

// HasCodeChanges reports whether any of the dirty paths is a source file
// for the platform.
func HasCodeChanges(paths []string, platform workflow.Platform) bool {
	for _, p := range paths {
		if workflow.IsCodeFile(p, platform) {
			return true
		}
	}
	return false
}

// PhaseGuidance returns the one-line workflow hint shown by verbose dev_flow,
// or "" for phases without one. While developing, code changes get the
// project's fix step before committing.
func PhaseGuidance(phase workflow.Phase, info project.Info, custom *project.Config, hasCodeChanges bool) string {
	switch phase {
	case workflow.PhaseDeveloping:
		if !hasCodeChanges {
			return "`git commit` → `git push` (docs/config only)"
		}
		fix := developingFix(info, custom)
		if fix == "" {
			return "`git commit` → `git push`"
		}
		return "`" + fix + "` → `git commit` → `git push`"
	case workflow.PhaseReadyToPush:
		return "`git push -u origin HEAD`"
	case workflow.PhaseWaitingQA:
		return "After QA passes: `/dev pr`"
	case workflow.PhasePROpen:
		return "Wait for review, or: `gh pr merge --squash`"
	case workflow.PhaseReadyToRelease:
		return "`git tag vX.X.X && git push --tags`"
	default:
		return ""
	}
}

// developingFix is `make fix` on iOS, where the fix targets live in the
// Makefile by convention, and the regular fix commands elsewhere.
func developingFix(info project.Info, custom *project.Config) string {
	if info.Type == project.TypeIOS && custom == nil {
		return "make fix"
	}
	return strings.Join(FixCommands(info, custom), " && ")
}
