package gitstate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/workflow"
)

// ErrNoMergeBase indicates base and HEAD share no history.
var ErrNoMergeBase = errors.New("no merge base")

// Changes returns per-file line counts for `git diff base...HEAD`: the
// committed changes on HEAD since it forked from base. Uncommitted work is
// not included.
func (c *Collector) Changes(ctx context.Context, base string) ([]workflow.FileChange, error) {
	ctx, span := tracer.Start(ctx, "gitstate.changes")
	defer span.End()
	if base == "" {
		base = c.baseBranch
	}
	span.SetAttributes(attribute.String("git.base", base))

	repo, err := c.open()
	if err != nil {
		return nil, err
	}
	baseHash, err := resolve(repo, base)
	if err != nil {
		return nil, err
	}
	headHash, err := resolve(repo, "HEAD")
	if err != nil {
		return nil, err
	}

	baseCommit, err := repo.CommitObject(baseHash)
	if err != nil {
		return nil, fmt.Errorf("loading base commit: %w", err)
	}
	headCommit, err := repo.CommitObject(headHash)
	if err != nil {
		return nil, fmt.Errorf("loading head commit: %w", err)
	}
	bases, err := baseCommit.MergeBase(headCommit)
	if err != nil {
		return nil, fmt.Errorf("computing merge base: %w", err)
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("%w between %s and HEAD", ErrNoMergeBase, base)
	}

	fromTree, err := bases[0].Tree()
	if err != nil {
		return nil, fmt.Errorf("loading merge base tree: %w", err)
	}
	toTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("loading head tree: %w", err)
	}
	patch, err := fromTree.PatchContext(ctx, toTree)
	if err != nil {
		return nil, fmt.Errorf("diffing trees: %w", err)
	}

	stats := patch.Stats()
	files := make([]workflow.FileChange, 0, len(stats))
	for _, fs := range stats {
		name := fs.Name
		// Renames are reported as "old => new".
		if _, after, ok := strings.Cut(name, " => "); ok {
			name = after
		}
		files = append(files, workflow.FileChange{Path: name, Added: fs.Addition, Deleted: fs.Deletion})
	}
	span.SetAttributes(attribute.Int("git.files_changed", len(files)))
	return files, nil
}

// ChangeStats categorises Changes for platform. hasDiff is false when there
// is nothing to compare, including an unresolvable base, which is logged.
func (c *Collector) ChangeStats(ctx context.Context, base string, platform workflow.Platform) (workflow.ChangeStats, bool) {
	files, err := c.Changes(ctx, base)
	if err != nil {
		c.logger.Warn(ctx, "collecting changes failed", zap.String("base", base), zap.Error(err))
		return workflow.ChangeStats{}, false
	}
	if len(files) == 0 {
		return workflow.ChangeStats{}, false
	}
	return workflow.CategorizeChanges(files, platform), true
}
