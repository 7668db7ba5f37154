package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/logging"
	gitutil "github.com/fyrsmithlabs/devflow/pkg/git"
)

// ErrWatcherFailed indicates the filesystem watcher could not be created.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// Event is a repository change seen by the Watcher.
type Event int

const (
	// EventBranchSwitch means HEAD now names another branch.
	EventBranchSwitch Event = iota
	// EventCommit means HEAD moved (commit, reset, pull).
	EventCommit
	// EventIndex means the staging area changed.
	EventIndex
)

func (e Event) String() string {
	switch e {
	case EventBranchSwitch:
		return "branch_switch"
	case EventCommit:
		return "commit"
	case EventIndex:
		return "index"
	default:
		return "unknown"
	}
}

// Prefixes returns the cache key prefixes an event makes stale. A branch
// switch stales everything and returns nil.
func (e Event) Prefixes() []string {
	switch e {
	case EventCommit:
		return []string{"git:", "pr:", "release:"}
	case EventIndex:
		return []string{"git:"}
	default:
		return nil
	}
}

// Watcher invalidates cache entries when the repository's HEAD, index or
// reflog changes. Directories are watched rather than files because git
// replaces them by rename.
type Watcher struct {
	gitDir  string
	cache   *Cache
	logger  *logging.Logger
	watcher *fsnotify.Watcher
	onEvent func(Event)

	branch string

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for gitDir that invalidates c.
func NewWatcher(gitDir string, c *Cache, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	return &Watcher{
		gitDir:  gitDir,
		cache:   c,
		logger:  logger.Named("watcher"),
		watcher: fw,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// OnEvent registers fn to run after each invalidation. Call before Start.
func (w *Watcher) OnEvent(fn func(Event)) {
	w.onEvent = fn
}

// Start begins watching in a background goroutine. It returns once the
// watches are in place.
func (w *Watcher) Start(ctx context.Context) error {
	branch, err := gitutil.ReadHead(w.gitDir)
	if err != nil {
		return fmt.Errorf("reading current branch: %w", err)
	}
	w.branch = branch

	if err := w.watcher.Add(w.gitDir); err != nil {
		return fmt.Errorf("watching %s: %w", w.gitDir, err)
	}
	logs := filepath.Join(w.gitDir, "logs")
	if _, err := os.Stat(logs); err == nil {
		if err := w.watcher.Add(logs); err != nil {
			w.logger.Warn(ctx, "cannot watch reflog", zap.String("path", logs), zap.Error(err))
		}
	}

	w.logger.Debug(ctx, "watching repository", zap.String("git_dir", w.gitDir), zap.String("branch", branch))
	go w.loop(ctx)
	return nil
}

// Stop ends watching. It is safe to call more than once; Done reports when
// the event loop has exited.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		_ = w.watcher.Close()
	})
}

// Done is closed when the event loop exits.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			w.Stop()
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if e, ok := w.classify(ev.Name); ok {
				w.apply(ctx, e)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "watcher error", zap.Error(err))
		}
	}
}

// classify maps a changed path to an event. Lock files and unrelated refs
// are ignored.
func (w *Watcher) classify(path string) (Event, bool) {
	switch path {
	case filepath.Join(w.gitDir, "HEAD"):
		branch, err := gitutil.ReadHead(w.gitDir)
		if err != nil {
			return 0, false
		}
		if branch != w.branch {
			w.branch = branch
			return EventBranchSwitch, true
		}
		return EventCommit, true
	case filepath.Join(w.gitDir, "logs", "HEAD"):
		return EventCommit, true
	case filepath.Join(w.gitDir, "index"):
		return EventIndex, true
	}
	return 0, false
}

func (w *Watcher) apply(ctx context.Context, e Event) {
	n := w.cache.Invalidate(e.Prefixes()...)
	w.cache.metrics.gitEvent(e, n)
	w.logger.Debug(ctx, "repository changed",
		zap.Stringer("event", e),
		zap.String("branch", w.branch),
		zap.Int("invalidated", n),
	)
	if w.onEvent != nil {
		w.onEvent(e)
	}
}
