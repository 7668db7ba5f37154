package github

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fyrsmithlabs/devflow/internal/runner"
	"github.com/fyrsmithlabs/devflow/internal/workflow"
)

const prViewFields = "number,title,isDraft,state,url,statusCheckRollup"

// CLIProvider reads and updates pull requests through the gh CLI, using its
// own authentication.
type CLIProvider struct {
	dir    string
	runner runner.Runner
}

// NewCLIProvider creates a provider running gh in dir.
func NewCLIProvider(dir string, r runner.Runner) *CLIProvider {
	return &CLIProvider{dir: dir, runner: r}
}

var (
	_ Provider    = (*CLIProvider)(nil)
	_ DraftSetter = (*CLIProvider)(nil)
)

type ghPullRequest struct {
	Number            int     `json:"number"`
	Title             string  `json:"title"`
	IsDraft           bool    `json:"isDraft"`
	State             string  `json:"state"`
	URL               string  `json:"url"`
	StatusCheckRollup []Check `json:"statusCheckRollup"`
}

// Current runs `gh pr view`. Any gh failure, including gh being absent or
// unauthenticated, is reported as ErrNoPullRequest.
func (p *CLIProvider) Current(ctx context.Context) (PullRequest, error) {
	res, err := p.runner.Run(ctx, p.dir, "gh", "pr", "view", "--json", prViewFields)
	if err != nil {
		return PullRequest{}, fmt.Errorf("%w: %v", ErrNoPullRequest, err)
	}
	out := res.Output()
	if out == "" {
		return PullRequest{}, ErrNoPullRequest
	}

	var raw ghPullRequest
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return PullRequest{}, fmt.Errorf("%w: decoding gh output: %v", ErrNoPullRequest, err)
	}
	return PullRequest{
		Number:  raw.Number,
		Title:   raw.Title,
		URL:     raw.URL,
		State:   workflow.ParsePRState(raw.State),
		IsDraft: raw.IsDraft,
		Checks:  RollupChecks(raw.StatusCheckRollup),
	}, nil
}

// SetDraft runs `gh pr ready --undo` for draft, `gh pr ready` otherwise.
func (p *CLIProvider) SetDraft(ctx context.Context, draft bool) error {
	args := []string{"pr", "ready"}
	if draft {
		args = append(args, "--undo")
	}
	if _, err := p.runner.Run(ctx, p.dir, "gh", args...); err != nil {
		return fmt.Errorf("gh pr ready: %w", err)
	}
	return nil
}
