package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/devflow/internal/status"
)

// errCheckFailed makes `devflow check` exit 1 without an error message.
var errCheckFailed = errors.New("lint errors found")

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "devflow",
		Short: "Workflow phase, next step and build advice for the current project",
		Long: `devflow classifies the current branch into a workflow phase
(IDLE, DEVELOPING, PR_OPEN, ...), suggests the next command, and advises
whether the pending changes are worth a CI build.

Run "devflow mcp" to serve the same answers to an MCP client.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, gitCommit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/devflow/config.yaml)")
	root.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "project directory")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (trace, debug, info, warn, error)")

	root.AddCommand(
		textCmd(opts, "status", "Compact status line: PHASE|errors|next", nil,
			func(ctx context.Context, svc *status.Service) (string, error) {
				return svc.StatusLine(ctx), nil
			}),
		newFlowCmd(opts),
		textCmd(opts, "fix", "Print the fix commands for this project", nil,
			func(ctx context.Context, svc *status.Service) (string, error) {
				return svc.Fix(ctx), nil
			}),
		newCheckCmd(opts),
		textCmd(opts, "next", "Print the suggested next command", nil,
			func(ctx context.Context, svc *status.Service) (string, error) {
				return svc.Next(ctx), nil
			}),
		newChangesCmd(opts),
		newReadyCmd(opts),
		newVersionCmd(opts),
		newCommitsCmd(opts),
		newConfigCmd(opts),
		newMCPCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// textCmd builds a one-shot command that prints run's result.
func textCmd(opts *rootOptions, use, short string, args cobra.PositionalArgs,
	run func(ctx context.Context, svc *status.Service) (string, error)) *cobra.Command {
	if args == nil {
		args = cobra.NoArgs
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, opts, run)
		},
	}
}

// runOnce builds the services, prints run's output and tears down.
func runOnce(cmd *cobra.Command, opts *rootOptions, run func(ctx context.Context, svc *status.Service) (string, error)) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, opts, false)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := run(ctx, a.registry.Status())
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
	return nil
}

func newFlowCmd(opts *rootOptions) *cobra.Command {
	var verbose bool
	cmd := textCmd(opts, "flow", "Structured status: project, branch, task, phase, lint counts and PR state", nil,
		func(ctx context.Context, svc *status.Service) (string, error) {
			return svc.Flow(ctx, verbose), nil
		})
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "add phase guidance")
	return cmd
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "CI-ready lint check; exits 1 when errors are found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var failed bool
			err := runOnce(cmd, opts, func(ctx context.Context, svc *status.Service) (string, error) {
				out := svc.Check(ctx)
				failed = strings.HasPrefix(out, "❌")
				return out, nil
			})
			if err == nil && failed {
				return errCheckFailed
			}
			return err
		},
	}
}

func newChangesCmd(opts *rootOptions) *cobra.Command {
	var base, format string
	cmd := textCmd(opts, "changes", "Analyze changes against a base branch and recommend whether to build", nil,
		func(ctx context.Context, svc *status.Service) (string, error) {
			return svc.Changes(ctx, base, format)
		})
	cmd.Flags().StringVar(&base, "base", "", "base branch (default: git.base_branch)")
	cmd.Flags().StringVarP(&format, "format", "f", "compact", "output format: compact, json or full")
	return cmd
}

func newReadyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ready [check|yes|draft]",
		Short: "Show or change the pull request's draft state",
		Long: `Show or change the pull request's draft state.

A draft PR does not trigger builds on push; marking it ready does.

  check   show the current state (default)
  yes     mark the PR ready for review
  draft   convert the PR back to draft`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"check", "yes", "draft"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := ""
			if len(args) == 1 {
				action = args[0]
			}
			return runOnce(cmd, opts, func(ctx context.Context, svc *status.Service) (string, error) {
				return svc.Ready(ctx, action)
			})
		},
	}
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := textCmd(opts, "version", "Current project version and next version suggestions", nil,
		func(ctx context.Context, svc *status.Service) (string, error) {
			return svc.Version(ctx, format)
		})
	cmd.Flags().StringVarP(&format, "format", "f", "compact", "output format: compact or json")
	return cmd
}

func newCommitsCmd(opts *rootOptions) *cobra.Command {
	var from, to, format string
	cmd := textCmd(opts, "commits", "Commits grouped by conventional type for release notes", nil,
		func(ctx context.Context, svc *status.Service) (string, error) {
			return svc.Commits(ctx, from, to, format)
		})
	cmd.Flags().StringVar(&from, "from", "", "start ref (default: previous tag)")
	cmd.Flags().StringVar(&to, "to", "", "end ref (default: HEAD)")
	cmd.Flags().StringVarP(&format, "format", "f", "compact", "output format: compact, json or full")
	return cmd
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := textCmd(opts, "config", "Platform lint/format/build commands and commit scopes", nil,
		func(ctx context.Context, svc *status.Service) (string, error) {
			return svc.Config(ctx, format)
		})
	cmd.Flags().StringVarP(&format, "format", "f", "compact", "output format: compact or json")
	return cmd
}
