// Package status answers devflow's questions (phase, next step, build
// recommendation, PR control, version, commits, config) for one project
// directory.
//
// A Service composes the collectors behind a TTL cache. Collector failures
// never fail a query: they are logged at Warn and the affected signal falls
// back to its empty value, so a status line can always be rendered. Only
// invalid arguments and PR mutations return errors.
package status

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/cache"
	"github.com/fyrsmithlabs/devflow/internal/github"
	"github.com/fyrsmithlabs/devflow/internal/gitstate"
	"github.com/fyrsmithlabs/devflow/internal/logging"
	"github.com/fyrsmithlabs/devflow/internal/project"
	"github.com/fyrsmithlabs/devflow/internal/quality"
	"github.com/fyrsmithlabs/devflow/internal/release"
	"github.com/fyrsmithlabs/devflow/internal/workflow"
)

var tracer = otel.Tracer("devflow/status")

// Cache keys. The prefix before the first colon is the cache kind.
const (
	keyProject    = "project"
	keyGitStatus  = "git:status"
	keyGitDirty   = "git:dirty"
	keyChangesPre = "git:changes:"
	keyPR         = "pr:current"
	keyLint       = "quality:lint"
	keyCheck      = "quality:check"
	keyVersion    = "release:version"
	keyCommitsPre = "release:commits:"
)

// Git is the repository collector.
type Git interface {
	Status(ctx context.Context) (workflow.GitStatus, error)
	ChangeStats(ctx context.Context, base string, platform workflow.Platform) (workflow.ChangeStats, bool)
	DirtyFiles(ctx context.Context) ([]string, error)
	DefaultFrom(ctx context.Context) (string, error)
	Log(ctx context.Context, from, to string) ([]gitstate.Commit, error)
}

// Quality runs the project linters.
type Quality interface {
	Lint(ctx context.Context, info project.Info) (quality.Result, error)
	Check(ctx context.Context, info project.Info) (quality.Result, error)
}

// Versions reads the project version.
type Versions interface {
	Version(ctx context.Context, info project.Info) (release.Info, error)
}

// TTLs are the cache lifetimes per collector. Zero disables caching for that
// collector.
type TTLs struct {
	Project time.Duration
	Git     time.Duration
	Quality time.Duration
}

// DefaultTTLs returns 60s for project detection, 5s for git and 10s for
// linters.
func DefaultTTLs() TTLs {
	return TTLs{Project: 60 * time.Second, Git: 5 * time.Second, Quality: 10 * time.Second}
}

// Options configures a Service. Dir, Git, Quality, Versions and PRs are
// required.
type Options struct {
	Dir        string
	BaseBranch string
	Git        Git
	Quality    Quality
	Versions   Versions
	PRs        github.Provider
	// Drafts toggles draft state; dev_ready yes/draft fail without it.
	Drafts github.DraftSetter
	// Tools checks PATH for the dev://config resource.
	Tools project.PathLooker
	Cache *cache.Cache
	TTL   TTLs
	// Resolve overrides project.Resolve.
	Resolve func(dir string) (project.Info, *project.Config, error)
	Logger  *logging.Logger
}

// Service answers workflow queries for one project.
type Service struct {
	dir      string
	base     string
	git      Git
	quality  Quality
	versions Versions
	prs      github.Provider
	drafts   github.DraftSetter
	tools    project.PathLooker
	cache    *cache.Cache
	ttl      TTLs
	resolve  func(dir string) (project.Info, *project.Config, error)
	logger   *logging.Logger
	metrics  *metrics
}

// New creates a Service.
func New(opts Options) (*Service, error) {
	switch {
	case opts.Dir == "":
		return nil, errors.New("project directory is required")
	case opts.Git == nil:
		return nil, errors.New("git collector is required")
	case opts.Quality == nil:
		return nil, errors.New("quality checker is required")
	case opts.Versions == nil:
		return nil, errors.New("versioner is required")
	case opts.PRs == nil:
		return nil, errors.New("pull request provider is required")
	}

	s := &Service{
		dir:      opts.Dir,
		base:     opts.BaseBranch,
		git:      opts.Git,
		quality:  opts.Quality,
		versions: opts.Versions,
		prs:      opts.PRs,
		drafts:   opts.Drafts,
		tools:    opts.Tools,
		cache:    opts.Cache,
		ttl:      opts.TTL,
		resolve:  opts.Resolve,
		logger:   opts.Logger,
	}
	if s.base == "" {
		s.base = gitstate.DefaultBaseBranch
	}
	if s.cache == nil {
		s.cache = cache.New(nil)
	}
	if s.resolve == nil {
		s.resolve = project.Resolve
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	s.logger = s.logger.Named("status")
	s.metrics = newMetrics(s.logger)
	return s, nil
}

// Dir returns the project directory.
func (s *Service) Dir() string { return s.dir }

// BaseBranch returns the default comparison base for change analysis.
func (s *Service) BaseBranch() string { return s.base }

// Invalidate drops cached answers whose keys start with one of prefixes, or
// everything when none are given.
func (s *Service) Invalidate(prefixes ...string) {
	s.cache.Invalidate(prefixes...)
}

type projectState struct {
	info   project.Info
	custom *project.Config
}

// Project returns the detected project and its custom configuration, if
// any. An invalid custom configuration is logged and ignored.
func (s *Service) Project(ctx context.Context) (project.Info, *project.Config) {
	st, _ := cache.Load(ctx, s.cache, keyProject, s.ttl.Project, func(ctx context.Context) (projectState, error) {
		info, custom, err := s.resolve(s.dir)
		if err != nil {
			s.logger.Warn(ctx, "project detection incomplete", zap.String("dir", s.dir), zap.Error(err))
		}
		if info.Type == "" {
			info.Type = project.TypeUnknown
		}
		if info.ConfigFiles == nil {
			info.ConfigFiles = []string{}
		}
		return projectState{info: info, custom: custom}, nil
	})
	return st.info, st.custom
}

// GitStatus returns the repository snapshot with the pull request state
// filled in for work branches.
func (s *Service) GitStatus(ctx context.Context) workflow.GitStatus {
	st, err := cache.Load(ctx, s.cache, keyGitStatus, s.ttl.Git, s.git.Status)
	if err != nil {
		s.logger.Warn(ctx, "git status unavailable", zap.Error(err))
		return workflow.NewGitStatus("")
	}
	if st.Branch == "" || st.IsMasterBranch {
		return st
	}
	if pr, ok := s.pullRequest(ctx); ok {
		st.PRState = pr.State
		st.PRURL = pr.URL
	}
	return st
}

type prLookup struct {
	pr    github.PullRequest
	found bool
}

// pullRequest returns the current branch's pull request. "No pull request"
// is cached like any other answer; lookup failures are not.
func (s *Service) pullRequest(ctx context.Context) (github.PullRequest, bool) {
	res, err := cache.Load(ctx, s.cache, keyPR, s.ttl.Git, func(ctx context.Context) (prLookup, error) {
		pr, err := s.prs.Current(ctx)
		if errors.Is(err, github.ErrNoPullRequest) {
			return prLookup{}, nil
		}
		if err != nil {
			return prLookup{}, err
		}
		return prLookup{pr: pr, found: true}, nil
	})
	if err != nil {
		s.logger.Warn(ctx, "pull request lookup failed", zap.Error(err))
		return github.PullRequest{}, false
	}
	return res.pr, res.found
}

// Phase classifies the current snapshot.
func (s *Service) Phase(ctx context.Context) (workflow.Phase, workflow.GitStatus) {
	st := s.GitStatus(ctx)
	phase := workflow.ClassifyPhase(st)
	s.metrics.phase(ctx, phase)
	return phase, st
}

// Lint returns linter-only counts.
func (s *Service) Lint(ctx context.Context) quality.Result {
	info, _ := s.Project(ctx)
	return s.runQuality(ctx, keyLint, info, s.quality.Lint)
}

// Quality returns lint and format counts.
func (s *Service) Quality(ctx context.Context) quality.Result {
	info, _ := s.Project(ctx)
	return s.runQuality(ctx, keyCheck, info, s.quality.Check)
}

func (s *Service) runQuality(ctx context.Context, key string, info project.Info, fn func(context.Context, project.Info) (quality.Result, error)) quality.Result {
	res, err := cache.Load(ctx, s.cache, key, s.ttl.Quality, func(ctx context.Context) (quality.Result, error) {
		return fn(ctx, info)
	})
	if err != nil {
		s.logger.Warn(ctx, "quality check failed", zap.String("project_type", string(info.Type)), zap.Error(err))
		return quality.Result{}
	}
	return res
}

// Analyze classifies the changes between base (the configured base branch
// when empty) and HEAD.
func (s *Service) Analyze(ctx context.Context, base string) workflow.ChangeAnalysis {
	if base == "" {
		base = s.base
	}
	info, _ := s.Project(ctx)
	platform := info.Platform()

	a, _ := cache.Load(ctx, s.cache, keyChangesPre+base, s.ttl.Git, func(ctx context.Context) (workflow.ChangeAnalysis, error) {
		stats, hasDiff := s.git.ChangeStats(ctx, base, platform)
		return workflow.ClassifyChange(stats, hasDiff, platform), nil
	})
	s.metrics.recommendation(ctx, a.Recommendation)
	return a
}

// dirtyFiles lists uncommitted paths, empty on failure.
func (s *Service) dirtyFiles(ctx context.Context) []string {
	files, err := cache.Load(ctx, s.cache, keyGitDirty, s.ttl.Git, s.git.DirtyFiles)
	if err != nil {
		s.logger.Warn(ctx, "listing uncommitted files failed", zap.Error(err))
		return nil
	}
	return files
}

// prInfo is the PR context for next-step suggestions on PR_OPEN, or nil.
func (s *Service) prInfo(ctx context.Context, phase workflow.Phase) *workflow.PRInfo {
	if phase != workflow.PhasePROpen {
		return nil
	}
	pr, ok := s.pullRequest(ctx)
	if !ok {
		return nil
	}
	info := &workflow.PRInfo{IsDraft: pr.IsDraft, ChecksStatus: pr.Checks}
	if pr.IsDraft {
		info.Recommendation = s.Analyze(ctx, "").Recommendation
	}
	return info
}
