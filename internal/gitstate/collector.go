// Package gitstate collects repository snapshots for workflow classification.
//
// Reads go through go-git. The git CLI is only used as a fallback for the
// working-tree dirty check, which go-git cannot answer for some checkouts
// (sparse, split index).
package gitstate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/logging"
	"github.com/fyrsmithlabs/devflow/internal/runner"
	"github.com/fyrsmithlabs/devflow/internal/workflow"
	gitutil "github.com/fyrsmithlabs/devflow/pkg/git"
)

var tracer = otel.Tracer("devflow/gitstate")

// ErrNotGitRepo indicates the directory is not inside a git repository.
var ErrNotGitRepo = gitutil.ErrNotGitRepo

// DefaultBaseBranch is the comparison base when none is configured.
const DefaultBaseBranch = "origin/master"

// Collector reads git state for one project directory.
type Collector struct {
	dir        string
	baseBranch string
	runner     runner.Runner
	logger     *logging.Logger
}

// New creates a Collector for dir. r backs the CLI fallback.
func New(dir string, r runner.Runner, logger *logging.Logger) *Collector {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Collector{
		dir:        dir,
		baseBranch: DefaultBaseBranch,
		runner:     r,
		logger:     logger.Named("gitstate"),
	}
}

// WithBaseBranch sets the remote branch used when the current branch has no
// upstream. Empty keeps the default.
func (c *Collector) WithBaseBranch(base string) *Collector {
	if base != "" {
		c.baseBranch = base
	}
	return c
}

// Dir returns the project directory.
func (c *Collector) Dir() string {
	return c.dir
}

// BaseBranch returns the configured comparison base.
func (c *Collector) BaseBranch() string {
	return c.baseBranch
}

func (c *Collector) open() (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(c.dir, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotGitRepo, c.dir)
	}
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	return repo, nil
}

// Status returns the git part of the workflow snapshot: branch, dirty state,
// upstream, unpushed commits and the latest reachable tag with the number of
// commits since it. PR fields are left at PRStateNone.
//
// Only a missing repository is an error. Individual probes that fail are
// logged and leave their fields at the zero value.
func (c *Collector) Status(ctx context.Context) (workflow.GitStatus, error) {
	ctx, span := tracer.Start(ctx, "gitstate.status")
	defer span.End()

	repo, err := c.open()
	if err != nil {
		return workflow.NewGitStatus(""), err
	}

	branch, head := c.head(ctx, repo)
	st := workflow.NewGitStatus(branch)
	st.HasChanges = c.hasChanges(ctx, repo)

	if head != nil {
		upstream := upstreamHash(repo, branch)
		st.HasUpstream = upstream != nil

		base := upstream
		if base == nil {
			base = c.defaultBase(repo)
		}
		if base != nil {
			n, err := countBetween(ctx, repo, base, *head)
			if err != nil {
				c.logger.Warn(ctx, "counting unpushed commits failed", zap.Error(err))
			}
			st.HasUnpushedCommits = n > 0
		}

		if tag, ok := c.nearestTag(ctx, repo, *head); ok {
			st.LatestTag = tag.name
			n, err := countBetween(ctx, repo, &tag.commit, *head)
			if err != nil {
				c.logger.Warn(ctx, "counting commits since tag failed", zap.String("tag", tag.name), zap.Error(err))
			}
			st.CommitsSinceTag = n
		}
	}

	span.SetAttributes(
		attribute.String("git.branch", st.Branch),
		attribute.Bool("git.dirty", st.HasChanges),
		attribute.Bool("git.unpushed", st.HasUnpushedCommits),
		attribute.Int("git.commits_since_tag", st.CommitsSinceTag),
	)
	c.logger.Trace(ctx, "git status collected",
		zap.String("branch", st.Branch),
		zap.Bool("dirty", st.HasChanges),
		zap.Bool("upstream", st.HasUpstream),
		zap.String("tag", st.LatestTag),
	)
	return st, nil
}

// head returns the current branch and commit. An unborn branch has a name but
// no commit; a detached HEAD has a commit but no name.
func (c *Collector) head(ctx context.Context, repo *gogit.Repository) (string, *plumbing.Hash) {
	ref, err := repo.Head()
	if err == nil {
		h := ref.Hash()
		if ref.Name().IsBranch() {
			return ref.Name().Short(), &h
		}
		return "", &h
	}

	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		if sym, err := repo.Reference(plumbing.HEAD, false); err == nil && sym.Type() == plumbing.SymbolicReference {
			return sym.Target().Short(), nil
		}
	}

	// Fall back to reading HEAD directly (e.g. unsupported ref storage).
	branch, derr := gitutil.DetectBranch(c.dir)
	if derr != nil {
		c.logger.Warn(ctx, "reading HEAD failed", zap.Error(err), zap.NamedError("fallback", derr))
	}
	return branch, nil
}

func (c *Collector) hasChanges(ctx context.Context, repo *gogit.Repository) bool {
	files, err := c.dirtyFiles(ctx, repo)
	if err != nil {
		c.logger.Warn(ctx, "git status failed", zap.Error(err))
		return false
	}
	return len(files) > 0
}

// DirtyFiles lists paths with staged, unstaged or untracked changes, sorted.
func (c *Collector) DirtyFiles(ctx context.Context) ([]string, error) {
	repo, err := c.open()
	if err != nil {
		return nil, err
	}
	return c.dirtyFiles(ctx, repo)
}

func (c *Collector) dirtyFiles(ctx context.Context, repo *gogit.Repository) ([]string, error) {
	wt, err := repo.Worktree()
	if err == nil {
		var status gogit.Status
		status, err = wt.Status()
		if err == nil {
			var paths []string
			for p, s := range status {
				if s.Staging != gogit.Unmodified || s.Worktree != gogit.Unmodified {
					paths = append(paths, p)
				}
			}
			sort.Strings(paths)
			return paths, nil
		}
	}
	c.logger.Debug(ctx, "worktree status unavailable, using git cli", zap.Error(err))

	if c.runner == nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}
	res, err := c.runner.Run(ctx, c.dir, "git", "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}
	return parsePorcelain(res.Stdout), nil
}

// parsePorcelain extracts paths from `git status --porcelain` v1 output.
// Renames report the new path.
func parsePorcelain(out string) []string {
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		p := line[3:]
		if _, after, ok := strings.Cut(p, " -> "); ok {
			p = after
		}
		paths = append(paths, strings.Trim(p, `"`))
	}
	sort.Strings(paths)
	return paths
}

// upstreamHash resolves the tracking ref configured for branch, or nil when
// there is none or the remote-tracking ref has not been fetched.
func upstreamHash(repo *gogit.Repository, branch string) *plumbing.Hash {
	if branch == "" {
		return nil
	}
	cfg, err := repo.Config()
	if err != nil {
		return nil
	}
	b, ok := cfg.Branches[branch]
	if !ok || b.Remote == "" || b.Merge == "" {
		return nil
	}

	name := plumbing.NewRemoteReferenceName(b.Remote, b.Merge.Short())
	if b.Remote == "." {
		name = b.Merge
	}
	ref, err := repo.Reference(name, true)
	if err != nil {
		return nil
	}
	h := ref.Hash()
	return &h
}

// defaultBase resolves the configured base branch, then origin/main.
func (c *Collector) defaultBase(repo *gogit.Repository) *plumbing.Hash {
	for _, rev := range []string{c.baseBranch, "origin/main"} {
		if h, err := repo.ResolveRevision(plumbing.Revision(rev)); err == nil {
			return h
		}
	}
	return nil
}

// GitHubRepo returns the GitHub repository behind the origin remote.
func (c *Collector) GitHubRepo() (gitutil.GitHubRepo, bool) {
	repo, err := c.open()
	if err != nil {
		return gitutil.GitHubRepo{}, false
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return gitutil.GitHubRepo{}, false
	}
	for _, u := range remote.Config().URLs {
		if gh, ok := gitutil.ParseGitHubRemote(u); ok {
			return gh, true
		}
	}
	return gitutil.GitHubRepo{}, false
}

// GitDir returns the repository's git directory for filesystem watching.
func (c *Collector) GitDir() (string, error) {
	return gitutil.DetectGitDir(c.dir)
}

// CurrentBranch returns the checked-out branch, or "" when HEAD is detached.
func (c *Collector) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}
	branch, _ := c.head(ctx, repo)
	return branch, nil
}
