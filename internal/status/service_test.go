package status

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/devflow/internal/github"
	"github.com/fyrsmithlabs/devflow/internal/gitstate"
	"github.com/fyrsmithlabs/devflow/internal/logging"
	"github.com/fyrsmithlabs/devflow/internal/project"
	"github.com/fyrsmithlabs/devflow/internal/quality"
	"github.com/fyrsmithlabs/devflow/internal/release"
	"github.com/fyrsmithlabs/devflow/internal/workflow"
)

type fakeGit struct {
	status    workflow.GitStatus
	statusErr error
	stats     workflow.ChangeStats
	hasDiff   bool
	dirty     []string
	from      string
	log       []gitstate.Commit
	logErr    error

	statusCalls int
	gotBase     string
}

func (f *fakeGit) Status(context.Context) (workflow.GitStatus, error) {
	f.statusCalls++
	return f.status, f.statusErr
}

func (f *fakeGit) ChangeStats(_ context.Context, base string, _ workflow.Platform) (workflow.ChangeStats, bool) {
	f.gotBase = base
	return f.stats, f.hasDiff
}

func (f *fakeGit) DirtyFiles(context.Context) ([]string, error) { return f.dirty, nil }

func (f *fakeGit) DefaultFrom(context.Context) (string, error) { return f.from, nil }

func (f *fakeGit) Log(context.Context, string, string) ([]gitstate.Commit, error) {
	return f.log, f.logErr
}

type fakeQuality struct {
	lint      quality.Result
	check     quality.Result
	err       error
	lintCalls int
}

func (f *fakeQuality) Lint(context.Context, project.Info) (quality.Result, error) {
	f.lintCalls++
	return f.lint, f.err
}

func (f *fakeQuality) Check(context.Context, project.Info) (quality.Result, error) {
	return f.check, f.err
}

type fakeVersions struct {
	info release.Info
	err  error
}

func (f *fakeVersions) Version(context.Context, project.Info) (release.Info, error) {
	return f.info, f.err
}

// fakePRs serves one pull request and flips its draft flag on SetDraft.
type fakePRs struct {
	pr     *github.PullRequest
	err    error
	setErr error
	calls  int
}

func (f *fakePRs) Current(context.Context) (github.PullRequest, error) {
	f.calls++
	if f.err != nil {
		return github.PullRequest{}, f.err
	}
	if f.pr == nil {
		return github.PullRequest{}, github.ErrNoPullRequest
	}
	return *f.pr, nil
}

func (f *fakePRs) SetDraft(_ context.Context, draft bool) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.pr.IsDraft = draft
	return nil
}

type fakeLooker map[string]bool

func (f fakeLooker) LookPath(name string) bool { return f[name] }

type fixture struct {
	git      *fakeGit
	quality  *fakeQuality
	versions *fakeVersions
	prs      *fakePRs
	info     project.Info
	custom   *project.Config
	logger   *logging.TestLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		git:      &fakeGit{status: workflow.NewGitStatus("master")},
		quality:  &fakeQuality{},
		versions: &fakeVersions{},
		prs:      &fakePRs{},
		info: project.Info{
			Type:   project.TypeIOS,
			Name:   "App",
			Path:   t.TempDir(),
			SrcDir: "App",
		},
		logger: logging.NewTestLogger(),
	}
}

func (f *fixture) service(t *testing.T) *Service {
	t.Helper()
	s, err := New(Options{
		Dir:      f.info.Path,
		Git:      f.git,
		Quality:  f.quality,
		Versions: f.versions,
		PRs:      f.prs,
		Drafts:   f.prs,
		Tools:    fakeLooker{"swiftlint": true},
		TTL:      DefaultTTLs(),
		Resolve: func(string) (project.Info, *project.Config, error) {
			return f.info, f.custom, nil
		},
		Logger: f.logger.Logger,
	})
	require.NoError(t, err)
	return s
}

func featureStatus(dirty bool) workflow.GitStatus {
	st := workflow.NewGitStatus("feature/TASK-1-login")
	st.HasChanges = dirty
	st.HasUpstream = true
	return st
}

func TestNew_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := New(Options{Git: f.git, Quality: f.quality, Versions: f.versions, PRs: f.prs})
	require.Error(t, err)
	_, err = New(Options{Dir: "/x", Quality: f.quality, Versions: f.versions, PRs: f.prs})
	require.Error(t, err)
	_, err = New(Options{Dir: "/x", Git: f.git, Quality: f.quality, Versions: f.versions})
	require.Error(t, err)

	s, err := New(Options{Dir: "/x", Git: f.git, Quality: f.quality, Versions: f.versions, PRs: f.prs})
	require.NoError(t, err)
	assert.Equal(t, gitstate.DefaultBaseBranch, s.BaseBranch())
	assert.Equal(t, "/x", s.Dir())
}

func TestStatusLine(t *testing.T) {
	tests := []struct {
		name   string
		status workflow.GitStatus
		lint   quality.Result
		pr     *github.PullRequest
		want   string
	}{
		{
			name:   "idle master",
			status: workflow.NewGitStatus("master"),
			want:   "IDLE|✅0|checkout",
		},
		{
			name:   "lint errors win",
			status: featureStatus(true),
			lint:   quality.Result{Errors: 2},
			want:   "DEVELOPING|❌2|fix",
		},
		{
			name:   "waiting qa",
			status: featureStatus(false),
			want:   "WAITING_QA|✅0|pr",
		},
		{
			name:   "open pr with passing checks",
			status: featureStatus(false),
			pr:     &github.PullRequest{Number: 7, State: workflow.PRStateOpen, Checks: workflow.ChecksPassing},
			want:   "PR_OPEN|✅0|merge",
		},
		{
			name:   "draft pr without diff",
			status: featureStatus(false),
			pr:     &github.PullRequest{Number: 7, State: workflow.PRStateOpen, IsDraft: true},
			want:   "PR_OPEN|✅0|continue",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.git.status = tt.status
			f.quality.lint = tt.lint
			f.prs.pr = tt.pr

			assert.Equal(t, tt.want, f.service(t).StatusLine(context.Background()))
		})
	}
}

func TestStatusLine_GitFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.git.statusErr = gitstate.ErrNotGitRepo

	assert.Equal(t, "IDLE|✅0|checkout", f.service(t).StatusLine(context.Background()))
	f.logger.AssertLogged(t, zapcore.WarnLevel, "git status unavailable")
}

func TestStatusLine_QualityFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.quality.err = errors.New("swiftlint crashed")

	assert.Equal(t, "IDLE|✅0|checkout", f.service(t).StatusLine(context.Background()))
	f.logger.AssertLogged(t, zapcore.WarnLevel, "quality check failed")
}

func TestGitStatus_SkipsPRLookupOnMaster(t *testing.T) {
	f := newFixture(t)
	f.prs.pr = &github.PullRequest{State: workflow.PRStateOpen}

	st := f.service(t).GitStatus(context.Background())
	assert.Equal(t, workflow.PRStateNone, st.PRState)
	assert.Zero(t, f.prs.calls)
}

func TestGitStatus_FillsPR(t *testing.T) {
	f := newFixture(t)
	f.git.status = featureStatus(false)
	f.prs.pr = &github.PullRequest{State: workflow.PRStateMerged, URL: "https://github.com/acme/app/pull/7"}

	s := f.service(t)
	st := s.GitStatus(context.Background())
	assert.Equal(t, workflow.PRStateMerged, st.PRState)
	assert.Equal(t, "https://github.com/acme/app/pull/7", st.PRURL)

	phase, _ := s.Phase(context.Background())
	assert.Equal(t, workflow.PhasePRMerged, phase)
}

func TestGitStatus_PRLookupFailure(t *testing.T) {
	f := newFixture(t)
	f.git.status = featureStatus(false)
	f.prs.err = errors.New("gh: not logged in")

	st := f.service(t).GitStatus(context.Background())
	assert.Equal(t, workflow.PRStateNone, st.PRState)
	f.logger.AssertLogged(t, zapcore.WarnLevel, "pull request lookup failed")
}

func TestCaching(t *testing.T) {
	f := newFixture(t)
	s := f.service(t)
	ctx := context.Background()

	s.StatusLine(ctx)
	s.Check(ctx)
	s.Next(ctx)
	assert.Equal(t, 1, f.quality.lintCalls)
	assert.Equal(t, 1, f.git.statusCalls)

	s.Invalidate("git:")
	s.StatusLine(ctx)
	assert.Equal(t, 1, f.quality.lintCalls, "quality survives git invalidation")
	assert.Equal(t, 2, f.git.statusCalls)

	s.Invalidate()
	s.Check(ctx)
	assert.Equal(t, 2, f.quality.lintCalls)
}

func TestCaching_ZeroTTL(t *testing.T) {
	f := newFixture(t)
	s, err := New(Options{
		Dir: f.info.Path, Git: f.git, Quality: f.quality, Versions: f.versions, PRs: f.prs,
		Resolve: func(string) (project.Info, *project.Config, error) { return f.info, nil, nil },
	})
	require.NoError(t, err)

	s.Check(context.Background())
	s.Check(context.Background())
	assert.Equal(t, 2, f.quality.lintCalls)
}

func TestFlow(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		f := newFixture(t)
		f.git.status = featureStatus(true)
		f.quality.check = quality.Result{Errors: 1, Warnings: 4}

		got := f.service(t).Flow(context.Background(), false)
		assert.Equal(t, "App(IOS)|feature/TASK-1-login|TASK-1|DEVELOPING|1|4", got)
	})

	t.Run("open draft pr", func(t *testing.T) {
		f := newFixture(t)
		f.git.status = featureStatus(false)
		f.quality.check = quality.Result{Warnings: 3}
		f.prs.pr = &github.PullRequest{Number: 7, State: workflow.PRStateOpen, IsDraft: true}

		got := f.service(t).Flow(context.Background(), false)
		assert.Equal(t, "App(IOS)|feature/TASK-1-login|TASK-1|PR_OPEN|0|3|OPEN|DRAFT|builds:OFF|⏸️SKIP", got)
	})

	t.Run("open ready pr with large diff", func(t *testing.T) {
		f := newFixture(t)
		f.git.status = featureStatus(false)
		f.git.stats = workflow.ChangeStats{TotalLines: 150, FilesChanged: 3, SwiftFiles: 3, TotalCodeFiles: 3}
		f.git.hasDiff = true
		f.prs.pr = &github.PullRequest{Number: 7, State: workflow.PRStateOpen}

		got := f.service(t).Flow(context.Background(), false)
		assert.Equal(t, "App(IOS)|feature/TASK-1-login|TASK-1|PR_OPEN|0|0|OPEN|READY|builds:ON|✅BUILD", got)
	})

	t.Run("master without task", func(t *testing.T) {
		f := newFixture(t)
		f.info.Type = project.TypeUnknown
		f.info.Name = "tool"

		got := f.service(t).Flow(context.Background(), false)
		assert.Equal(t, "tool(UNKNOWN)|master||IDLE|0|0", got)
	})
}

func TestFlow_Verbose(t *testing.T) {
	tests := []struct {
		name   string
		status workflow.GitStatus
		dirty  []string
		want   string
	}{
		{
			name:   "developing code",
			status: featureStatus(true),
			dirty:  []string{"App/Login.swift"},
			want:   "App(IOS)|feature/TASK-1-login|TASK-1|DEVELOPING|0|0\n`make fix` → `git commit` → `git push`",
		},
		{
			name:   "developing docs",
			status: featureStatus(true),
			dirty:  []string{"README.md"},
			want:   "App(IOS)|feature/TASK-1-login|TASK-1|DEVELOPING|0|0\n`git commit` → `git push` (docs/config only)",
		},
		{
			name:   "waiting qa",
			status: featureStatus(false),
			want:   "App(IOS)|feature/TASK-1-login|TASK-1|WAITING_QA|0|0\nAfter QA passes: `/dev pr`",
		},
		{
			name:   "idle has no guidance",
			status: workflow.NewGitStatus("master"),
			want:   "App(IOS)|master||IDLE|0|0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.git.status = tt.status
			f.git.dirty = tt.dirty

			assert.Equal(t, tt.want, f.service(t).Flow(context.Background(), true))
		})
	}
}

func TestFix(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "swiftformat App && swiftlint --fix", f.service(t).Fix(context.Background()))

	f = newFixture(t)
	f.info.Type = project.TypeAndroid
	assert.Equal(t, "gradle ktlintFormat", f.service(t).Fix(context.Background()))

	f = newFixture(t)
	f.custom = &project.Config{Platform: "go", Commands: project.Commands{Fix: "golangci-lint run --fix", Check: "golangci-lint run"}}
	assert.Equal(t, "golangci-lint run --fix", f.service(t).Fix(context.Background()))

	f = newFixture(t)
	f.info.Type = project.TypeUnknown
	assert.Equal(t, "", f.service(t).Fix(context.Background()))
}

func TestCheck(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "✅", f.service(t).Check(context.Background()))

	f = newFixture(t)
	f.quality.lint = quality.Result{Errors: 5, Warnings: 2}
	assert.Equal(t, "❌5", f.service(t).Check(context.Background()))
}

func TestNext(t *testing.T) {
	tests := []struct {
		name   string
		status workflow.GitStatus
		lint   quality.Result
		pr     *github.PullRequest
		stats  workflow.ChangeStats
		diff   bool
		want   string
	}{
		{
			name:   "lint errors give fix commands",
			status: featureStatus(true),
			lint:   quality.Result{Errors: 1},
			want:   "swiftformat App && swiftlint --fix",
		},
		{
			name:   "idle",
			status: workflow.NewGitStatus("master"),
			want:   "git flow feature start TASK-XXX-description",
		},
		{
			name:   "developing",
			status: featureStatus(true),
			want:   `git add . && git commit -m "feat(scope): add feature description"`,
		},
		{
			name:   "draft pr with large diff",
			status: featureStatus(false),
			pr:     &github.PullRequest{State: workflow.PRStateOpen, IsDraft: true},
			stats:  workflow.ChangeStats{TotalLines: 300, TotalCodeFiles: 4, FilesChanged: 4},
			diff:   true,
			want:   `dev_ready(action:"yes") # Large changes, trigger build`,
		},
		{
			name:   "ready pr failing",
			status: featureStatus(false),
			pr:     &github.PullRequest{State: workflow.PRStateOpen, Checks: workflow.ChecksFailing},
			want:   `dev_ready(action:"draft") # Fix issues, then dev_ready yes`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.git.status = tt.status
			f.quality.lint = tt.lint
			f.prs.pr = tt.pr
			f.git.stats, f.git.hasDiff = tt.stats, tt.diff

			assert.Equal(t, tt.want, f.service(t).Next(context.Background()))
		})
	}
}

func TestChanges(t *testing.T) {
	f := newFixture(t)
	f.git.stats = workflow.ChangeStats{
		TotalLines: 50, LinesAdded: 40, LinesDeleted: 10, FilesChanged: 3,
		SwiftFiles: 2, DocFiles: 1, TotalCodeFiles: 2, TotalNonCodeFiles: 1,
	}
	f.git.hasDiff = true
	s := f.service(t)
	ctx := context.Background()

	got, err := s.Changes(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "⚠️maybe|50L|2F|Moderate changes (50 lines, 2 files)", got)
	assert.Equal(t, "origin/master", f.git.gotBase)

	got, err = s.Changes(ctx, "origin/develop", "full")
	require.NoError(t, err)
	assert.Equal(t, "50L(+40-10)|3F\nSwift:2\nnon-code:1\n⚠️maybe|Moderate changes (50 lines, 2 files)", got)
	assert.Equal(t, "origin/develop", f.git.gotBase)

	got, err = s.Changes(ctx, "", "json")
	require.NoError(t, err)
	var a workflow.ChangeAnalysis
	require.NoError(t, json.Unmarshal([]byte(got), &a))
	assert.Equal(t, workflow.RecommendMaybe, a.Recommendation)
	assert.Equal(t, 50, a.Stats.TotalLines)

	_, err = s.Changes(ctx, "", "yaml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestChanges_NoDiff(t *testing.T) {
	f := newFixture(t)
	got, err := f.service(t).Changes(context.Background(), "", "compact")
	require.NoError(t, err)
	assert.Equal(t, "⏸️skip|0L|0F|No changes detected", got)
}

func TestReady(t *testing.T) {
	open := func(draft bool) *github.PullRequest {
		return &github.PullRequest{Number: 42, State: workflow.PRStateOpen, IsDraft: draft, Checks: workflow.ChecksPending}
	}
	tests := []struct {
		name      string
		pr        *github.PullRequest
		setErr    error
		action    string
		want      string
		wantDraft bool
	}{
		{name: "no pr", action: "check", want: "❌ No PR|Create PR first: gh pr create"},
		{name: "check ready", pr: open(false), action: "", want: "PR#42|🟢READY|builds:ON|checks:⏳"},
		{name: "check draft", pr: open(true), action: "check", want: "PR#42|🟡DRAFT|builds:OFF|checks:⏳", wantDraft: true},
		{name: "make ready", pr: open(true), action: "yes", want: "✅ PR#42 READY|builds:ON|Next push triggers build"},
		{name: "make draft", pr: open(false), action: "draft", want: "✅ PR#42 DRAFT|builds:OFF|Safe to push", wantDraft: true},
		{name: "already draft", pr: open(true), action: "draft", want: "✅ PR#42 DRAFT|builds:OFF|Safe to push", wantDraft: true},
		{name: "toggle fails", pr: open(false), setErr: errors.New("gh: forbidden"), action: "draft", want: "❌ Failed to change PR status"},
		{name: "unknown action", pr: open(false), action: "merge", want: "❌ Unknown action: merge. Use: check, yes, draft"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.prs.pr = tt.pr
			f.prs.setErr = tt.setErr

			got, err := f.service(t).Ready(context.Background(), tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.pr != nil {
				assert.Equal(t, tt.wantDraft, tt.pr.IsDraft)
			}
		})
	}
}

func TestReady_SeesFreshState(t *testing.T) {
	f := newFixture(t)
	f.prs.pr = &github.PullRequest{Number: 1, State: workflow.PRStateOpen}
	s := f.service(t)
	ctx := context.Background()

	got, err := s.Ready(ctx, "check")
	require.NoError(t, err)
	assert.Contains(t, got, "🟢READY")

	_, err = s.Ready(ctx, "draft")
	require.NoError(t, err)

	got, err = s.Ready(ctx, "check")
	require.NoError(t, err)
	assert.Contains(t, got, "🟡DRAFT", "toggle invalidates the cached PR")
}

func TestReady_NoDraftSetter(t *testing.T) {
	f := newFixture(t)
	f.prs.pr = &github.PullRequest{Number: 1, State: workflow.PRStateOpen}
	s, err := New(Options{Dir: f.info.Path, Git: f.git, Quality: f.quality, Versions: f.versions, PRs: f.prs})
	require.NoError(t, err)

	_, err = s.Ready(context.Background(), "yes")
	require.ErrorIs(t, err, ErrDraftUnsupported)
}

func TestVersion(t *testing.T) {
	f := newFixture(t)
	f.versions.info = release.Info{
		Current: "1.4.2", LatestTag: "v1.4.2",
		NextMajor: "2.0.0", NextMinor: "1.5.0", NextPatch: "1.4.3",
		Source: release.SourceTag,
	}
	s := f.service(t)

	got, err := s.Version(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "v1.4.2|tag:v1.4.2|next:1.5.0(minor),1.4.3(patch)|src:tag", got)

	got, err = s.Version(context.Background(), "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"current":"1.4.2","latestTag":"v1.4.2","nextMajor":"2.0.0","nextMinor":"1.5.0","nextPatch":"1.4.3","source":"tag"}`, got)

	_, err = s.Version(context.Background(), "full")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestVersion_PartialFailure(t *testing.T) {
	f := newFixture(t)
	f.versions.info = release.Info{Current: "unknown", Source: release.SourceUnknown}
	f.versions.err = errors.New("reading latest tag: boom")

	got, err := f.service(t).Version(context.Background(), "compact")
	require.NoError(t, err)
	assert.Equal(t, "vunknown|tag:none|next:(minor),(patch)|src:unknown", got)
	f.logger.AssertLogged(t, zapcore.WarnLevel, "version lookup incomplete")
}

func TestCommits(t *testing.T) {
	f := newFixture(t)
	f.git.from = "v1.0.0"
	f.git.log = []gitstate.Commit{
		{Hash: "a1", Subject: "feat(auth): login", When: time.Now()},
		{Hash: "b2", Subject: "fix: crash"},
		{Hash: "c3", Subject: "feat: search"},
	}
	s := f.service(t)

	got, err := s.Commits(context.Background(), "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "3 commits|v1.0.0..HEAD|feat:2,fix:1", got)

	got, err = s.Commits(context.Background(), "", "", "json")
	require.NoError(t, err)
	var sum release.Summary
	require.NoError(t, json.Unmarshal([]byte(got), &sum))
	assert.Equal(t, 3, sum.Total)
	assert.Len(t, sum.ByType["feat"], 2)

	got, err = s.Commits(context.Background(), "", "", "full")
	require.NoError(t, err)
	assert.Contains(t, got, "3 commits (v1.0.0..HEAD)")
}

func TestCommits_Failure(t *testing.T) {
	f := newFixture(t)
	f.git.logErr = errors.New("bad revision")

	got, err := f.service(t).Commits(context.Background(), "v9", "", "")
	require.NoError(t, err)
	assert.Equal(t, "0 commits|v9..HEAD|", got)
	f.logger.AssertLogged(t, zapcore.WarnLevel, "reading commits failed")
}

func TestConfig(t *testing.T) {
	t.Run("auto-detected ios", func(t *testing.T) {
		f := newFixture(t)
		got, err := f.service(t).Config(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "ios|fix:swiftlint --fix --path App|check:swiftlint lint --path App|scopes:auth,network,ui,home,search,listing,map,account|src:auto", got)
	})

	t.Run("custom json", func(t *testing.T) {
		f := newFixture(t)
		f.custom = &project.Config{
			Platform: "go",
			Commands: project.Commands{Fix: "make fmt", Check: "make lint"},
			Scopes:   []string{"api"},
			Source:   project.ConfigJSON,
		}
		got, err := f.service(t).Config(context.Background(), "json")
		require.NoError(t, err)
		var cfg quality.PlatformConfig
		require.NoError(t, json.Unmarshal([]byte(got), &cfg))
		assert.Equal(t, "make fmt", cfg.LintFix)
		assert.Equal(t, project.ConfigJSON, cfg.Source)
	})

	t.Run("unknown", func(t *testing.T) {
		f := newFixture(t)
		f.info.Type = project.TypeUnknown
		got, err := f.service(t).Config(context.Background(), "json")
		require.NoError(t, err)
		assert.Equal(t, quality.UnknownConfigLine, got)
	})

	t.Run("bad format", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service(t).Config(context.Background(), "full")
		require.ErrorIs(t, err, ErrUnknownFormat)
	})
}

func TestProjectJSON(t *testing.T) {
	f := newFixture(t)
	got, err := f.service(t).ProjectJSON(context.Background())
	require.NoError(t, err)

	var pc ProjectConfig
	require.NoError(t, json.Unmarshal([]byte(got), &pc))
	assert.Equal(t, project.TypeIOS, pc.Project.Type)
	assert.True(t, pc.Tools["swiftlint"])
	assert.False(t, pc.Tools["swiftformat"])
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)
	f.git.status = featureStatus(true)
	f.quality.lint = quality.Result{Errors: 3}

	snap := f.service(t).Snapshot(context.Background())
	assert.Equal(t, workflow.PhaseDeveloping, snap.Phase)
	assert.Equal(t, "fix", snap.Next)
	assert.Equal(t, 3, snap.Quality.Errors)
	assert.Equal(t, "TASK-1", snap.Git.TaskID)
	assert.Equal(t, "App", snap.Project.Name)
}

func TestParseFormat(t *testing.T) {
	f, err := parseFormat("", FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, FormatCompact, f)

	f, err = parseFormat("json", FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = parseFormat("full", FormatJSON)
	require.ErrorIs(t, err, ErrUnknownFormat)
	assert.Contains(t, err.Error(), "compact, json")
}
