package github

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/devflow/internal/workflow"
)

func TestRollupChecks(t *testing.T) {
	tests := []struct {
		name   string
		checks []Check
		want   workflow.ChecksStatus
	}{
		{"none", nil, workflow.ChecksUnknown},
		{"all passed", []Check{{Status: "COMPLETED", Conclusion: "SUCCESS"}, {State: "SUCCESS"}}, workflow.ChecksPassing},
		{"run failed", []Check{{Status: "COMPLETED", Conclusion: "FAILURE"}}, workflow.ChecksFailing},
		{"status failed", []Check{{State: "FAILURE"}}, workflow.ChecksFailing},
		{"in progress", []Check{{Status: "IN_PROGRESS"}}, workflow.ChecksPending},
		{"queued", []Check{{Status: "QUEUED"}}, workflow.ChecksPending},
		{"status pending", []Check{{State: "PENDING"}}, workflow.ChecksPending},
		{"failure beats pending", []Check{{Status: "IN_PROGRESS"}, {Conclusion: "FAILURE"}}, workflow.ChecksFailing},
		{"skipped counts as passing", []Check{{Status: "COMPLETED", Conclusion: "SKIPPED"}}, workflow.ChecksPassing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RollupChecks(tt.checks))
		})
	}
}

// stubPR serves a sequence of Current results and records SetDraft calls.
type stubPR struct {
	reads  []PullRequest
	errs   []error
	calls  int
	set    []bool
	setErr error
	// applies flips IsDraft on subsequent reads after SetDraft.
	applies bool
}

func (s *stubPR) Current(context.Context) (PullRequest, error) {
	i := min(s.calls, len(s.reads)-1)
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.reads[i], err
}

func (s *stubPR) SetDraft(_ context.Context, draft bool) error {
	s.set = append(s.set, draft)
	if s.applies {
		for i := range s.reads {
			s.reads[i].IsDraft = draft
		}
	}
	return s.setErr
}

func TestSetReady(t *testing.T) {
	open := PullRequest{Number: 42, State: workflow.PRStateOpen}
	draft := open
	draft.IsDraft = true

	t.Run("no pr", func(t *testing.T) {
		s := &stubPR{reads: []PullRequest{{}}, errs: []error{ErrNoPullRequest}}
		res, err := SetReady(context.Background(), s, s, false)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "No PR found for current branch", res.Message)
		assert.Empty(t, s.set)
	})

	t.Run("lookup error", func(t *testing.T) {
		s := &stubPR{reads: []PullRequest{{}}, errs: []error{errors.New("boom")}}
		_, err := SetReady(context.Background(), s, s, false)
		require.Error(t, err)
	})

	t.Run("already ready", func(t *testing.T) {
		s := &stubPR{reads: []PullRequest{open}}
		res, err := SetReady(context.Background(), s, s, false)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "PR is already Ready for Review", res.Message)
		assert.Empty(t, s.set)
	})

	t.Run("already draft", func(t *testing.T) {
		s := &stubPR{reads: []PullRequest{draft}}
		res, err := SetReady(context.Background(), s, s, true)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "PR is already Draft", res.Message)
	})

	t.Run("mark ready", func(t *testing.T) {
		s := &stubPR{reads: []PullRequest{draft}, applies: true}
		res, err := SetReady(context.Background(), s, s, false)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "PR is now Ready for Review (builds enabled)", res.Message)
		assert.Equal(t, []bool{false}, s.set)
		assert.False(t, res.PR.IsDraft)
	})

	t.Run("mark draft", func(t *testing.T) {
		s := &stubPR{reads: []PullRequest{open}, applies: true}
		res, err := SetReady(context.Background(), s, s, true)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "PR is now Draft (builds disabled)", res.Message)
	})

	t.Run("setter failed and state unchanged", func(t *testing.T) {
		cause := errors.New("gh: permission denied")
		s := &stubPR{reads: []PullRequest{draft}, setErr: cause}
		res, err := SetReady(context.Background(), s, s, false)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "Failed to change PR status", res.Message)
		assert.ErrorIs(t, res.Cause, cause)
	})

	t.Run("setter errored but change applied", func(t *testing.T) {
		s := &stubPR{reads: []PullRequest{draft}, applies: true, setErr: errors.New("exit 1")}
		res, err := SetReady(context.Background(), s, s, false)
		require.NoError(t, err)
		assert.True(t, res.Success)
	})
}
