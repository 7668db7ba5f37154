package services

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/cache"
	"github.com/fyrsmithlabs/devflow/internal/config"
	"github.com/fyrsmithlabs/devflow/internal/github"
	"github.com/fyrsmithlabs/devflow/internal/gitstate"
	"github.com/fyrsmithlabs/devflow/internal/logging"
	"github.com/fyrsmithlabs/devflow/internal/quality"
	"github.com/fyrsmithlabs/devflow/internal/release"
	"github.com/fyrsmithlabs/devflow/internal/runner"
	"github.com/fyrsmithlabs/devflow/internal/status"
)

// Registry provides access to the wired services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Status() *status.Service
	Git() *gitstate.Collector
	Cache() *cache.Cache
	// Watcher is nil when watching is disabled or unavailable.
	Watcher() *cache.Watcher
	Close() error
}

// Options configures the registry with service instances.
type Options struct {
	Status  *status.Service
	Git     *gitstate.Collector
	Cache   *cache.Cache
	Watcher *cache.Watcher
}

// registry is the concrete implementation of Registry.
type registry struct {
	status  *status.Service
	git     *gitstate.Collector
	cache   *cache.Cache
	watcher *cache.Watcher
}

// NewRegistry creates a registry from already-built services.
func NewRegistry(opts Options) Registry {
	return &registry{
		status:  opts.Status,
		git:     opts.Git,
		cache:   opts.Cache,
		watcher: opts.Watcher,
	}
}

func (r *registry) Status() *status.Service  { return r.status }
func (r *registry) Git() *gitstate.Collector { return r.git }
func (r *registry) Cache() *cache.Cache      { return r.cache }
func (r *registry) Watcher() *cache.Watcher  { return r.watcher }

// Close stops the watcher, if any.
func (r *registry) Close() error {
	if r.watcher != nil {
		r.watcher.Stop()
	}
	return nil
}

// Build wires every service for dir from cfg. The watcher runs until ctx is
// done or Close is called; a repository that cannot be watched only logs.
func Build(ctx context.Context, cfg *config.Config, dir string, logger *logging.Logger) (Registry, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving project directory: %w", err)
	}

	run := runner.New(cfg.Git.CommandTimeout.Duration(), logger.Named("runner"))
	git := gitstate.New(abs, run, logger).WithBaseBranch(cfg.Git.BaseBranch)
	cli := github.NewCLIProvider(abs, run)

	var prs github.Provider = cli
	if cfg.GitHub.UseAPI {
		api, err := github.NewAPIProvider(github.APIConfigFromSettings(cfg.GitHub), git, logger)
		if err != nil {
			return nil, fmt.Errorf("creating GitHub API provider: %w", err)
		}
		prs = api
	}

	c := cache.New(cache.NewMetrics())
	svc, err := status.New(status.Options{
		Dir:        abs,
		BaseBranch: cfg.Git.BaseBranch,
		Git:        git,
		Quality:    quality.NewChecker(run, logger),
		Versions:   release.NewVersioner(run, git, logger),
		PRs:        prs,
		Drafts:     cli,
		Tools:      run,
		Cache:      c,
		TTL: status.TTLs{
			Project: cfg.Cache.ProjectTTL.Duration(),
			Git:     cfg.Cache.GitTTL.Duration(),
			Quality: cfg.Cache.QualityTTL.Duration(),
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating status service: %w", err)
	}

	var w *cache.Watcher
	if cfg.Cache.Watch {
		w = startWatcher(ctx, git, c, logger)
	}

	return NewRegistry(Options{Status: svc, Git: git, Cache: c, Watcher: w}), nil
}

func startWatcher(ctx context.Context, git *gitstate.Collector, c *cache.Cache, logger *logging.Logger) *cache.Watcher {
	gitDir, err := git.GitDir()
	if err != nil {
		logger.Debug(ctx, "not watching repository", zap.Error(err))
		return nil
	}
	w, err := cache.NewWatcher(gitDir, c, logger)
	if err != nil {
		logger.Warn(ctx, "creating repository watcher failed", zap.Error(err))
		return nil
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		logger.Warn(ctx, "starting repository watcher failed", zap.Error(err))
		return nil
	}
	return w
}
