// Devflow reports where a project stands in its git workflow and what to do
// next.
//
// It runs as an MCP server on stdio for coding assistants, as an HTTP status
// API, or as one-shot commands whose compact output suits shell status lines.
//
// Usage:
//
//	# MCP server for Claude Code and other clients
//	devflow mcp
//
//	# One-shot status line
//	devflow status
//	PHASE|✅0|next
//
//	# HTTP API on 127.0.0.1:9191
//	devflow serve
//
// When the binary (or a symlink to it) is named dev_<command>, it runs that
// command: dev_status behaves like devflow status.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetArgs(dispatchArgs(os.Args[0], os.Args[1:]))
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errCheckFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// dispatchArgs prepends the command named by a dev_<command> executable.
func dispatchArgs(argv0 string, args []string) []string {
	base := strings.TrimSuffix(filepath.Base(argv0), ".exe")
	name, ok := strings.CutPrefix(base, "dev_")
	if !ok || !aliasCommands[name] {
		return args
	}
	return append([]string{name}, args...)
}

// aliasCommands are the commands reachable as dev_<command>.
var aliasCommands = map[string]bool{
	"status":  true,
	"flow":    true,
	"fix":     true,
	"check":   true,
	"next":    true,
	"changes": true,
	"ready":   true,
	"version": true,
	"commits": true,
	"config":  true,
}
