package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/devflow/internal/logging"
)

func TestEvent_String(t *testing.T) {
	assert.Equal(t, "branch_switch", EventBranchSwitch.String())
	assert.Equal(t, "commit", EventCommit.String())
	assert.Equal(t, "index", EventIndex.String())
	assert.Equal(t, "unknown", Event(99).String())
}

func TestEvent_Prefixes(t *testing.T) {
	assert.Nil(t, EventBranchSwitch.Prefixes())
	assert.Equal(t, []string{"git:", "pr:", "release:"}, EventCommit.Prefixes())
	assert.Equal(t, []string{"git:"}, EventIndex.Prefixes())
}

// fakeGitDir creates a minimal .git directory on branch main.
func fakeGitDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), ".git")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "HEAD"), nil, 0o644))
	return dir
}

func TestWatcher_Classify(t *testing.T) {
	gitDir := fakeGitDir(t)
	w, err := NewWatcher(gitDir, New(nil), logging.Nop())
	require.NoError(t, err)
	defer w.Stop()
	w.branch = "main"

	e, ok := w.classify(filepath.Join(gitDir, "index"))
	require.True(t, ok)
	assert.Equal(t, EventIndex, e)

	e, ok = w.classify(filepath.Join(gitDir, "logs", "HEAD"))
	require.True(t, ok)
	assert.Equal(t, EventCommit, e)

	e, ok = w.classify(filepath.Join(gitDir, "HEAD"))
	require.True(t, ok)
	assert.Equal(t, EventCommit, e, "HEAD rewritten on the same branch")

	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/feature/x\n"), 0o644))
	e, ok = w.classify(filepath.Join(gitDir, "HEAD"))
	require.True(t, ok)
	assert.Equal(t, EventBranchSwitch, e)
	assert.Equal(t, "feature/x", w.branch)

	_, ok = w.classify(filepath.Join(gitDir, "index.lock"))
	assert.False(t, ok)
	_, ok = w.classify(filepath.Join(gitDir, "FETCH_HEAD"))
	assert.False(t, ok)
}

func TestWatcher_InvalidatesOnBranchSwitch(t *testing.T) {
	gitDir := fakeGitDir(t)
	c := New(nil)
	c.Set("project", "ios", time.Hour)
	c.Set("git:status", "clean", time.Hour)

	w, err := NewWatcher(gitDir, c, logging.Nop())
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []Event
	w.OnEvent(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/feature/y\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range seen {
			if e == EventBranchSwitch {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, c.Len())
}

func TestWatcher_IndexKeepsProject(t *testing.T) {
	gitDir := fakeGitDir(t)
	c := New(nil)
	c.Set("project", "ios", time.Hour)
	c.Set("git:status", "clean", time.Hour)

	w, err := NewWatcher(gitDir, c, logging.Nop())
	require.NoError(t, err)

	events := make(chan Event, 8)
	w.OnEvent(func(e Event) { events <- e })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "index"), []byte("DIRC"), 0o644))

	select {
	case e := <-events:
		assert.Equal(t, EventIndex, e)
	case <-time.After(2 * time.Second):
		t.Fatal("no event for index write")
	}
	_, ok := c.Get("project")
	assert.True(t, ok)
	_, ok = c.Get("git:status")
	assert.False(t, ok)
}

func TestWatcher_StopsWithContext(t *testing.T) {
	w, err := NewWatcher(fakeGitDir(t), New(nil), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("event loop did not exit")
	}
	w.Stop()
}

func TestWatcher_StartMissingHead(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), New(nil), nil)
	require.NoError(t, err)
	defer w.Stop()

	require.Error(t, w.Start(context.Background()))
}
