// Package git provides lightweight Git repository helpers that work directly
// on the .git directory.
//
// These helpers avoid opening a full repository and are used on hot paths
// such as filesystem watch callbacks, where only the HEAD file and the
// location of the git directory matter. Linked worktrees, whose .git is a
// file pointing elsewhere, are supported.
package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotGitRepo indicates the directory is not a Git repository
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrHeadNotFound indicates the HEAD file is missing
	ErrHeadNotFound = errors.New("HEAD file not found")
)

const headRefPrefix = "ref: refs/heads/"

// DetectBranch returns the branch HEAD points at for the repository or
// worktree rooted at projectPath.
//
// A detached HEAD (a bare commit hash or an empty HEAD file) yields an empty
// branch name and no error, matching `git branch --show-current`.
//
// Example:
//
//	branch, err := DetectBranch("/path/to/project")
//	if err != nil {
//	    return err
//	}
//	if branch == "" {
//	    // detached
//	}
func DetectBranch(projectPath string) (string, error) {
	gitDir, err := DetectGitDir(projectPath)
	if err != nil {
		return "", err
	}
	return ReadHead(gitDir)
}

// ReadHead parses gitDir/HEAD and returns the checked-out branch, or "" when
// HEAD is detached.
func ReadHead(gitDir string) (string, error) {
	headFile := filepath.Join(gitDir, "HEAD")
	content, err := os.ReadFile(headFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrHeadNotFound, headFile)
		}
		return "", fmt.Errorf("reading HEAD file: %w", err)
	}

	head := strings.TrimSpace(string(content))
	if strings.HasPrefix(head, headRefPrefix) {
		return strings.TrimPrefix(head, headRefPrefix), nil
	}
	return "", nil
}

// DetectGitDir returns the git directory for a project path.
//
// For a main repository this is <projectPath>/.git. For a linked worktree
// the .git file contains "gitdir: <path>" and that path is returned,
// resolved against projectPath when relative.
func DetectGitDir(projectPath string) (string, error) {
	gitPath := filepath.Join(projectPath, ".git")

	info, err := os.Stat(gitPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotGitRepo, projectPath)
		}
		return "", fmt.Errorf("stat .git: %w", err)
	}

	if info.IsDir() {
		return gitPath, nil
	}

	content, err := os.ReadFile(gitPath)
	if err != nil {
		return "", fmt.Errorf("reading .git file: %w", err)
	}

	gitDir := parseGitDir(string(content))
	if gitDir == "" {
		return "", fmt.Errorf("%w: invalid .git file format", ErrNotGitRepo)
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(projectPath, gitDir)
	}
	return gitDir, nil
}

// parseGitDir extracts the path from "gitdir: /path/to/git/directory\n".
func parseGitDir(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "gitdir:") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(content, "gitdir:"))
}

// IsMainBranch reports whether branch is "main" or "master".
func IsMainBranch(branch string) bool {
	return branch == "main" || branch == "master"
}
