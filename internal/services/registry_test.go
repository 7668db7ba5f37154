package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/devflow/internal/config"
	"github.com/fyrsmithlabs/devflow/internal/logging"
)

func TestNewRegistry(t *testing.T) {
	var _ Registry = (*registry)(nil)
}

func TestRegistryAccessors(t *testing.T) {
	reg := NewRegistry(Options{})

	assert.Nil(t, reg.Status())
	assert.Nil(t, reg.Git())
	assert.Nil(t, reg.Cache())
	assert.Nil(t, reg.Watcher())
	assert.NoError(t, reg.Close())
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("master")},
	})
	require.NoError(t, err)
	return dir
}

func TestBuild(t *testing.T) {
	dir := initRepo(t)
	cfg := config.Default()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg, err := Build(ctx, cfg, dir, logging.Nop())
	require.NoError(t, err)
	defer reg.Close()

	require.NotNil(t, reg.Status())
	require.NotNil(t, reg.Git())
	require.NotNil(t, reg.Cache())
	require.NotNil(t, reg.Watcher(), "watching is on by default")
	assert.Equal(t, "origin/master", reg.Status().BaseBranch())

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, reg.Status().Dir())
}

func TestBuild_WatchDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Watch = false

	reg, err := Build(context.Background(), cfg, initRepo(t), nil)
	require.NoError(t, err)
	assert.Nil(t, reg.Watcher())
}

func TestBuild_NotARepository(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o644))

	reg, err := Build(context.Background(), nil, dir, nil)
	require.NoError(t, err, "a missing repository degrades instead of failing")
	assert.Nil(t, reg.Watcher())
}

func TestBuild_APIProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Watch = false
	cfg.GitHub.UseAPI = true
	cfg.GitHub.Token = config.Secret("ghp_test")

	reg, err := Build(context.Background(), cfg, initRepo(t), nil)
	require.NoError(t, err)
	assert.NotNil(t, reg.Status())

	cfg.GitHub.BaseURL = "://bad"
	_, err = Build(context.Background(), cfg, initRepo(t), nil)
	require.Error(t, err)
}
