package workflow

import "strings"

// ChecksStatus is the rolled-up CI check state of a pull request.
type ChecksStatus string

const (
	ChecksPassing ChecksStatus = "passing"
	ChecksFailing ChecksStatus = "failing"
	ChecksPending ChecksStatus = "pending"
	ChecksUnknown ChecksStatus = "unknown"
)

// Icon returns the glyph used by dev_ready.
func (c ChecksStatus) Icon() string {
	switch c {
	case ChecksPassing:
		return "✅"
	case ChecksFailing:
		return "❌"
	case ChecksPending:
		return "⏳"
	default:
		return "❓"
	}
}

// PRInfo is the pull request context used to refine PR_OPEN suggestions.
// Recommendation is the change classification for the branch and only
// matters for draft pull requests.
type PRInfo struct {
	IsDraft        bool
	ChecksStatus   ChecksStatus
	Recommendation Recommendation
}

// The body escapes are literal; the assistant expands them when it runs gh.
const prCreateCommand = `gh pr create --title "feat: feature title" --body "## Summary\n- Change 1\n- Change 2\n\n## Testing\n- [ ] Unit tests\n- [ ] Manual testing"`

type nextStep struct {
	action  string
	command string
}

var phaseSteps = map[Phase]nextStep{
	PhaseIdle:           {"checkout", "git flow feature start TASK-XXX-description"},
	PhaseStarting:       {"checkout", "git flow feature start TASK-XXX-description"},
	PhaseDeveloping:     {"commit", `git add . && git commit -m "feat(scope): add feature description"`},
	PhaseReadyToPush:    {"push", "git push -u origin $(git branch --show-current)"},
	PhaseWaitingQA:      {"pr", prCreateCommand},
	PhasePROpen:         {"wait", "Wait for CI # Checks pending"},
	PhasePRMerged:       {"checkout master", "git checkout master && git pull"},
	PhaseReadyToRelease: {"tag", `git tag -a v0.0.0 -m "Release v0.0.0" && git push --tags`},
}

func prStep(pr PRInfo) nextStep {
	if pr.IsDraft {
		switch pr.Recommendation {
		case RecommendShouldBuild:
			return nextStep{"build", `dev_ready(action:"yes") # Large changes, trigger build`}
		case RecommendSkip:
			return nextStep{"continue", "Continue development # Minor changes, accumulate more"}
		default:
			return nextStep{"review", `dev_ready(action:"check") # Review changes, decide to build`}
		}
	}
	switch pr.ChecksStatus {
	case ChecksPassing:
		return nextStep{"merge", "gh pr merge --squash --delete-branch # Checks passing, ready to merge"}
	case ChecksFailing:
		return nextStep{"draft", `dev_ready(action:"draft") # Fix issues, then dev_ready yes`}
	default:
		return nextStep{"wait", "Wait for CI # Checks pending"}
	}
}

func step(phase Phase, pr *PRInfo) nextStep {
	if phase == PhasePROpen && pr != nil {
		return prStep(*pr)
	}
	return phaseSteps[phase]
}

// NextAction returns the short next-action word for a status line. Lint
// errors always win; pr refines PR_OPEN and is ignored for other phases.
// Unknown phases yield "".
func NextAction(phase Phase, lintErrors int, pr *PRInfo) string {
	if lintErrors > 0 {
		return "fix"
	}
	return step(phase, pr).action
}

// NextCommand returns the full suggested command with the same precedence as
// NextAction. With lint errors it returns fixCommands joined by " && ".
func NextCommand(phase Phase, lintErrors int, pr *PRInfo, fixCommands []string) string {
	if lintErrors > 0 {
		return strings.Join(fixCommands, " && ")
	}
	return step(phase, pr).command
}
