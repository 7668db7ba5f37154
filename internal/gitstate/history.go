package gitstate

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/hashicorp/go-version"
	"go.opentelemetry.io/otel/attribute"
)

// Commit is one entry of a commit range.
type Commit struct {
	Hash    string    `json:"hash"`
	Subject string    `json:"subject"`
	When    time.Time `json:"-"`
}

type taggedCommit struct {
	name   string
	commit plumbing.Hash
}

// tagsByCommit maps each commit to the tags pointing at it, peeling
// annotated tags. Tags on non-commit objects are skipped.
func tagsByCommit(repo *gogit.Repository) (map[plumbing.Hash][]string, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	out := make(map[plumbing.Hash][]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if tag, err := repo.TagObject(hash); err == nil {
			c, err := tag.Commit()
			if err != nil {
				return nil
			}
			hash = c.Hash
		}
		out[hash] = append(out[hash], ref.Name().Short())
		return nil
	})
	return out, err
}

// nearestTag finds the tag closest to from by breadth-first ancestry walk,
// the same answer as `git describe --tags --abbrev=0` for typical histories.
// With several tags on one commit the highest version wins.
func (c *Collector) nearestTag(ctx context.Context, repo *gogit.Repository, from plumbing.Hash) (taggedCommit, bool) {
	tags, err := tagsByCommit(repo)
	if err != nil || len(tags) == 0 {
		return taggedCommit{}, false
	}
	start, err := repo.CommitObject(from)
	if err != nil {
		return taggedCommit{}, false
	}

	var found taggedCommit
	iter := object.NewCommitIterBSF(start, nil, nil)
	defer iter.Close()
	err = iter.ForEach(func(cm *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if names, ok := tags[cm.Hash]; ok {
			found = taggedCommit{name: highestTag(names), commit: cm.Hash}
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return taggedCommit{}, false
	}
	return found, found.name != ""
}

// highestTag orders names as versions where they parse, above any name that
// does not, and lexically otherwise.
func highestTag(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		va, errA := version.NewVersion(a)
		vb, errB := version.NewVersion(b)
		switch {
		case errA == nil && errB == nil && !va.Equal(vb):
			return va.LessThan(vb)
		case errA == nil && errB != nil:
			return false
		case errA != nil && errB == nil:
			return true
		default:
			return a < b
		}
	})
	return sorted[len(sorted)-1]
}

// commitsBetween returns commits reachable from to but not from from, newest
// first. A nil from includes the whole history of to.
func commitsBetween(ctx context.Context, repo *gogit.Repository, from *plumbing.Hash, to plumbing.Hash) ([]*object.Commit, error) {
	commits, _, err := walkRange(ctx, repo, from, to)
	return commits, err
}

// rangeEntry is one commit queued by walkRange. Uninteresting commits are
// reachable from the excluded side.
type rangeEntry struct {
	commit        *object.Commit
	uninteresting bool
	queued        bool
	index         int
}

// rangeQueue is a max-heap on committer time.
type rangeQueue []*rangeEntry

func (q rangeQueue) Len() int { return len(q) }

func (q rangeQueue) Less(i, j int) bool {
	return q[i].commit.Committer.When.After(q[j].commit.Committer.When)
}

func (q rangeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}

func (q *rangeQueue) Push(x any) {
	e := x.(*rangeEntry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *rangeQueue) Pop() any {
	old := *q
	e := old[len(old)-1]
	*q = old[:len(old)-1]
	return e
}

// walkRange walks both sides newest first, the way `git rev-list from..to`
// does, and stops once every queued commit is reachable from from. The walk
// therefore only covers history down to the merge base instead of all of
// from's ancestry. visited counts commits loaded.
func walkRange(ctx context.Context, repo *gogit.Repository, from *plumbing.Hash, to plumbing.Hash) ([]*object.Commit, int, error) {
	seen := make(map[plumbing.Hash]*rangeEntry)
	q := &rangeQueue{}
	interesting := 0

	push := func(cm *object.Commit, uninteresting bool) {
		if e, ok := seen[cm.Hash]; ok {
			if uninteresting && !e.uninteresting {
				e.uninteresting = true
				if e.queued {
					interesting--
				}
			}
			return
		}
		e := &rangeEntry{commit: cm, uninteresting: uninteresting, queued: true}
		seen[cm.Hash] = e
		heap.Push(q, e)
		if !uninteresting {
			interesting++
		}
	}

	tc, err := repo.CommitObject(to)
	if err != nil {
		return nil, 0, fmt.Errorf("loading commit %s: %w", to.String(), err)
	}
	if from != nil {
		fc, err := repo.CommitObject(*from)
		if err != nil {
			return nil, 0, fmt.Errorf("loading commit %s: %w", from.String(), err)
		}
		push(fc, true)
	}
	push(tc, false)

	var picked []*rangeEntry
	for q.Len() > 0 && interesting > 0 {
		if err := ctx.Err(); err != nil {
			return nil, len(seen), err
		}
		e := heap.Pop(q).(*rangeEntry)
		e.queued = false
		if !e.uninteresting {
			interesting--
			picked = append(picked, e)
		}
		for _, ph := range e.commit.ParentHashes {
			if pe, ok := seen[ph]; ok {
				push(pe.commit, e.uninteresting)
				continue
			}
			parent, err := repo.CommitObject(ph)
			if err != nil {
				// Shallow clones end at missing parents.
				continue
			}
			push(parent, e.uninteresting)
		}
	}

	// Clock skew can reach a commit from the excluded side after it was picked.
	out := make([]*object.Commit, 0, len(picked))
	for _, e := range picked {
		if !e.uninteresting {
			out = append(out, e.commit)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Committer.When.After(out[j].Committer.When)
	})
	return out, len(seen), nil
}

func countBetween(ctx context.Context, repo *gogit.Repository, from *plumbing.Hash, to plumbing.Hash) (int, error) {
	commits, err := commitsBetween(ctx, repo, from, to)
	return len(commits), err
}

func resolve(repo *gogit.Repository, rev string) (plumbing.Hash, error) {
	h, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving %q: %w", rev, err)
	}
	return *h, nil
}

// LatestTag returns the tag nearest to HEAD, or "" when there is none.
func (c *Collector) LatestTag(ctx context.Context) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}
	head, err := resolve(repo, "HEAD")
	if err != nil {
		return "", nil
	}
	tag, _ := c.nearestTag(ctx, repo, head)
	return tag.name, nil
}

// PreviousTag returns the tag nearest to the first parent of tag, or "".
func (c *Collector) PreviousTag(ctx context.Context, tag string) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}
	h, err := resolve(repo, tag)
	if err != nil {
		return "", err
	}
	cm, err := repo.CommitObject(h)
	if err != nil {
		return "", fmt.Errorf("loading commit for %s: %w", tag, err)
	}
	if cm.NumParents() == 0 {
		return "", nil
	}
	prev, _ := c.nearestTag(ctx, repo, cm.ParentHashes[0])
	return prev.name, nil
}

// RootCommit returns the full hash of the newest parentless commit reachable
// from HEAD.
func (c *Collector) RootCommit(ctx context.Context) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}
	head, err := resolve(repo, "HEAD")
	if err != nil {
		return "", err
	}
	commits, err := commitsBetween(ctx, repo, nil, head)
	if err != nil {
		return "", err
	}
	for _, cm := range commits {
		if cm.NumParents() == 0 {
			return cm.Hash.String(), nil
		}
	}
	return "", errors.New("no root commit found")
}

// DefaultFrom picks the start of the release range: the tag before the
// latest tag, else the latest tag, else the root commit.
func (c *Collector) DefaultFrom(ctx context.Context) (string, error) {
	latest, err := c.LatestTag(ctx)
	if err != nil {
		return "", err
	}
	if latest == "" {
		return c.RootCommit(ctx)
	}
	prev, err := c.PreviousTag(ctx, latest)
	if err != nil || prev == "" {
		return latest, nil
	}
	return prev, nil
}

// Log returns the commits in from..to, newest first, with 7-character hashes
// and the first line of each message.
func (c *Collector) Log(ctx context.Context, from, to string) ([]Commit, error) {
	ctx, span := tracer.Start(ctx, "gitstate.log")
	defer span.End()
	span.SetAttributes(attribute.String("git.from", from), attribute.String("git.to", to))

	repo, err := c.open()
	if err != nil {
		return nil, err
	}
	toHash, err := resolve(repo, to)
	if err != nil {
		return nil, err
	}
	var fromHash *plumbing.Hash
	if from != "" {
		h, err := resolve(repo, from)
		if err != nil {
			return nil, err
		}
		fromHash = &h
	}

	commits, err := commitsBetween(ctx, repo, fromHash, toHash)
	if err != nil {
		return nil, err
	}
	out := make([]Commit, 0, len(commits))
	for _, cm := range commits {
		subject, _, _ := strings.Cut(strings.TrimSpace(cm.Message), "\n")
		out = append(out, Commit{
			Hash:    cm.Hash.String()[:7],
			Subject: strings.TrimSpace(subject),
			When:    cm.Committer.When,
		})
	}
	return out, nil
}
