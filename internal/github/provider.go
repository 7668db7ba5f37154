// Package github reads pull request state for the current branch and
// toggles draft status.
//
// Two providers exist: CLIProvider shells out to the gh CLI and needs no
// configuration beyond `gh auth login`; APIProvider talks to the REST API
// with a token, a rate limiter and a circuit breaker. Draft toggling is a
// GraphQL-only operation and always goes through gh.
package github

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/devflow/internal/workflow"
)

// ErrNoPullRequest indicates the current branch has no pull request.
var ErrNoPullRequest = errors.New("no pull request for current branch")

// PullRequest is the state of the current branch's pull request.
type PullRequest struct {
	Number  int                   `json:"number"`
	Title   string                `json:"title"`
	URL     string                `json:"url"`
	State   workflow.PRState      `json:"state"`
	IsDraft bool                  `json:"isDraft"`
	Checks  workflow.ChecksStatus `json:"checksStatus"`
}

// Provider looks up the pull request for the current branch.
type Provider interface {
	// Current returns ErrNoPullRequest when the branch has none.
	Current(ctx context.Context) (PullRequest, error)
}

// DraftSetter changes the draft flag of the current branch's pull request.
type DraftSetter interface {
	SetDraft(ctx context.Context, draft bool) error
}

// Check is one entry of a status check rollup. Check runs carry Status and
// Conclusion; commit statuses carry State. Values are upper case.
type Check struct {
	Status     string `json:"status,omitempty"`
	Conclusion string `json:"conclusion,omitempty"`
	State      string `json:"state,omitempty"`
}

// RollupChecks reduces checks to one status: any failure is failing, then
// anything queued or running is pending, then any checks at all is passing.
func RollupChecks(checks []Check) workflow.ChecksStatus {
	if len(checks) == 0 {
		return workflow.ChecksUnknown
	}
	pending := false
	for _, c := range checks {
		if c.Conclusion == "FAILURE" || c.State == "FAILURE" {
			return workflow.ChecksFailing
		}
		if c.Status == "IN_PROGRESS" || c.Status == "QUEUED" || c.State == "PENDING" {
			pending = true
		}
	}
	if pending {
		return workflow.ChecksPending
	}
	return workflow.ChecksPassing
}

// ToggleResult reports the outcome of SetReady. Cause holds the setter's
// error, if any, when the change could not be verified.
type ToggleResult struct {
	Success bool
	Message string
	PR      PullRequest
	Cause   error
}

// SetReady moves the current pull request to draft (draft=true) or ready for
// review. It is a no-op when the PR is already in the requested state, and
// verifies the change by reading the PR back.
func SetReady(ctx context.Context, p Provider, s DraftSetter, draft bool) (ToggleResult, error) {
	pr, err := p.Current(ctx)
	if errors.Is(err, ErrNoPullRequest) {
		return ToggleResult{Message: "No PR found for current branch"}, nil
	}
	if err != nil {
		return ToggleResult{}, fmt.Errorf("reading pull request: %w", err)
	}

	if pr.IsDraft == draft {
		msg := "PR is already Ready for Review"
		if draft {
			msg = "PR is already Draft"
		}
		return ToggleResult{Success: true, Message: msg, PR: pr}, nil
	}

	// The read-back decides the outcome: gh can exit non-zero after the
	// mutation went through.
	setErr := s.SetDraft(ctx, draft)

	after, err := p.Current(ctx)
	if err != nil || after.IsDraft != draft {
		return ToggleResult{Message: "Failed to change PR status", PR: pr, Cause: setErr}, nil
	}
	msg := "PR is now Ready for Review (builds enabled)"
	if draft {
		msg = "PR is now Draft (builds disabled)"
	}
	return ToggleResult{Success: true, Message: msg, PR: after}, nil
}
