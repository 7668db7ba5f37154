package workflow

import (
	"regexp"
	"strings"
)

// Phase is the named workflow state of a branch and its pull request.
type Phase string

const (
	PhaseIdle           Phase = "IDLE"
	PhaseStarting       Phase = "STARTING"
	PhaseDeveloping     Phase = "DEVELOPING"
	PhaseReadyToPush    Phase = "READY_TO_PUSH"
	PhaseWaitingQA      Phase = "WAITING_QA"
	PhasePROpen         Phase = "PR_OPEN"
	PhasePRMerged       Phase = "PR_MERGED"
	PhaseReadyToRelease Phase = "READY_TO_RELEASE"
)

var phaseDescriptions = map[Phase]string{
	PhaseIdle:           "Idle, ready to start a new task",
	PhaseStarting:       "Create a feature branch",
	PhaseDeveloping:     "In development",
	PhaseReadyToPush:    "Ready to push and trigger QA",
	PhaseWaitingQA:      "Waiting for QA",
	PhasePROpen:         "PR in review / staging test",
	PhasePRMerged:       "Merged, return to master",
	PhaseReadyToRelease: "Ready to create a release tag",
}

// Phases returns every phase in workflow order.
func Phases() []Phase {
	return []Phase{
		PhaseIdle,
		PhaseStarting,
		PhaseDeveloping,
		PhaseReadyToPush,
		PhaseWaitingQA,
		PhasePROpen,
		PhasePRMerged,
		PhaseReadyToRelease,
	}
}

// Valid reports whether p is one of the eight known phases.
func (p Phase) Valid() bool {
	_, ok := phaseDescriptions[p]
	return ok
}

// Description returns the human-readable description of the phase.
// Unknown phases have an empty description.
func (p Phase) Description() string {
	return phaseDescriptions[p]
}

func (p Phase) String() string {
	return string(p)
}

// PRState is the pull request state for the current branch.
type PRState string

const (
	PRStateOpen   PRState = "OPEN"
	PRStateMerged PRState = "MERGED"
	PRStateClosed PRState = "CLOSED"
	PRStateNone   PRState = "NONE"
)

// ParsePRState maps gh/GitHub state strings onto PRState.
// Anything unrecognised is PRStateNone.
func ParsePRState(s string) PRState {
	switch PRState(strings.ToUpper(strings.TrimSpace(s))) {
	case PRStateOpen:
		return PRStateOpen
	case PRStateMerged:
		return PRStateMerged
	case PRStateClosed:
		return PRStateClosed
	default:
		return PRStateNone
	}
}

// GitStatus is an immutable snapshot of the repository signals the phase
// classifier consumes. Optional values use the empty string for "absent".
type GitStatus struct {
	Branch             string  `json:"branch"`
	TaskID             string  `json:"taskId,omitempty"`
	HasChanges         bool    `json:"hasChanges"`
	HasUnpushedCommits bool    `json:"hasUnpushedCommits"`
	HasUpstream        bool    `json:"hasUpstream"`
	PRState            PRState `json:"prState"`
	PRURL              string  `json:"prUrl,omitempty"`
	LatestTag          string  `json:"latestTag,omitempty"`
	// CommitsSinceTag counts commits in LatestTag..HEAD.
	CommitsSinceTag int  `json:"commitsSinceTag,omitempty"`
	IsFeatureBranch bool `json:"isFeatureBranch"`
	IsMasterBranch  bool `json:"isMasterBranch"`
}

// FeaturePrefixes are the Git-Flow style branch prefixes that mark a work branch.
var FeaturePrefixes = []string{
	"feature", "fix", "feat", "hotfix", "release", "chore",
	"refactor", "bugfix", "docs", "test", "ci",
}

var (
	taskIDPattern        = regexp.MustCompile(`(?i)TASK-\d+`)
	featureBranchPattern = regexp.MustCompile(`^(` + strings.Join(FeaturePrefixes, "|") + `)/`)
)

// TaskID extracts the upper-cased TASK-<n> identifier from a branch name.
func TaskID(branch string) string {
	return strings.ToUpper(taskIDPattern.FindString(branch))
}

// IsFeatureBranch reports whether branch starts with a known work-branch prefix.
func IsFeatureBranch(branch string) bool {
	return featureBranchPattern.MatchString(branch)
}

// IsMasterBranch reports whether branch is exactly master or main.
func IsMasterBranch(branch string) bool {
	return branch == "master" || branch == "main"
}

// NewGitStatus returns a snapshot for branch with the derived branch fields
// filled in and no pull request.
func NewGitStatus(branch string) GitStatus {
	return GitStatus{
		Branch:          branch,
		TaskID:          TaskID(branch),
		PRState:         PRStateNone,
		IsFeatureBranch: IsFeatureBranch(branch),
		IsMasterBranch:  IsMasterBranch(branch),
	}
}

// BranchKind is the slice of the rule table a snapshot is evaluated against.
type BranchKind string

const (
	BranchMaster  BranchKind = "master"
	BranchFeature BranchKind = "feature"
	BranchOther   BranchKind = "other"
)

// Kind reports which rule group applies to g. Master wins over feature when
// both flags are set.
func (g GitStatus) Kind() BranchKind {
	switch {
	case g.IsMasterBranch:
		return BranchMaster
	case g.IsFeatureBranch:
		return BranchFeature
	default:
		return BranchOther
	}
}

func (g GitStatus) clean() bool {
	return !g.HasChanges && !g.HasUnpushedCommits
}

// PhaseRule is one row of the phase decision table.
type PhaseRule struct {
	Name  string
	Kind  BranchKind
	Match func(GitStatus) bool
	Phase Phase
}

func always(GitStatus) bool { return true }

var phaseRules = []PhaseRule{
	{
		Name: "master-release-pending",
		Kind: BranchMaster,
		Match: func(g GitStatus) bool {
			return g.clean() && g.LatestTag != "" && g.CommitsSinceTag > 0
		},
		Phase: PhaseReadyToRelease,
	},
	{
		Name:  "master-clean",
		Kind:  BranchMaster,
		Match: GitStatus.clean,
		Phase: PhaseIdle,
	},
	{
		Name:  "master-dirty",
		Kind:  BranchMaster,
		Match: always,
		Phase: PhaseStarting,
	},
	{
		Name:  "feature-merged",
		Kind:  BranchFeature,
		Match: func(g GitStatus) bool { return g.PRState == PRStateMerged },
		Phase: PhasePRMerged,
	},
	{
		// Local edits dominate every PR-derived state.
		Name:  "feature-uncommitted",
		Kind:  BranchFeature,
		Match: func(g GitStatus) bool { return g.HasChanges },
		Phase: PhaseDeveloping,
	},
	{
		Name:  "feature-pr-open",
		Kind:  BranchFeature,
		Match: func(g GitStatus) bool { return g.PRState == PRStateOpen },
		Phase: PhasePROpen,
	},
	{
		Name:  "feature-unpushed",
		Kind:  BranchFeature,
		Match: func(g GitStatus) bool { return g.HasUnpushedCommits },
		Phase: PhaseReadyToPush,
	},
	{
		Name:  "feature-pushed",
		Kind:  BranchFeature,
		Match: func(g GitStatus) bool { return g.HasUpstream },
		Phase: PhaseWaitingQA,
	},
	{
		Name:  "feature-fallback",
		Kind:  BranchFeature,
		Match: always,
		Phase: PhaseDeveloping,
	},
	{
		Name:  "other-branch",
		Kind:  BranchOther,
		Match: always,
		Phase: PhaseIdle,
	},
}

// PhaseRules returns a copy of the ordered phase decision table.
func PhaseRules() []PhaseRule {
	rules := make([]PhaseRule, len(phaseRules))
	copy(rules, phaseRules)
	return rules
}

// MatchPhaseRule returns the first rule of g's branch kind whose predicate
// holds. Every kind ends with a catch-all, so a rule is always found.
func MatchPhaseRule(g GitStatus) PhaseRule {
	kind := g.Kind()
	for _, rule := range phaseRules {
		if rule.Kind == kind && rule.Match(g) {
			return rule
		}
	}
	return phaseRules[len(phaseRules)-1]
}

// ClassifyPhase maps a snapshot onto exactly one workflow phase.
func ClassifyPhase(g GitStatus) Phase {
	return MatchPhaseRule(g).Phase
}
