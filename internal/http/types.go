package http

import "github.com/fyrsmithlabs/devflow/internal/workflow"

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Dir    string `json:"dir"`
}

// PhaseRequest is the request body for POST /api/v1/phase.
type PhaseRequest struct {
	Branch             string `json:"branch"`
	HasChanges         bool   `json:"hasChanges"`
	HasUnpushedCommits bool   `json:"hasUnpushedCommits"`
	HasUpstream        bool   `json:"hasUpstream"`
	// PRState is OPEN, MERGED or CLOSED; anything else means no PR.
	PRState         string `json:"prState"`
	LatestTag       string `json:"latestTag"`
	CommitsSinceTag int    `json:"commitsSinceTag"`
	LintErrors      int    `json:"lintErrors"`
}

// GitStatus builds the snapshot to classify.
func (r PhaseRequest) GitStatus() workflow.GitStatus {
	st := workflow.NewGitStatus(r.Branch)
	st.HasChanges = r.HasChanges
	st.HasUnpushedCommits = r.HasUnpushedCommits
	st.HasUpstream = r.HasUpstream
	st.PRState = workflow.ParsePRState(r.PRState)
	st.LatestTag = r.LatestTag
	st.CommitsSinceTag = r.CommitsSinceTag
	return st
}

// PhaseResponse is the response body for POST /api/v1/phase.
type PhaseResponse struct {
	Phase       workflow.Phase      `json:"phase"`
	Rule        string              `json:"rule"`
	Description string              `json:"description"`
	Kind        workflow.BranchKind `json:"kind"`
	Next        string              `json:"next"`
}
