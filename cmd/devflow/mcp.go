package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/mcp"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve devflow tools over MCP on stdin/stdout",
		Long: `Serve devflow tools, prompts and resources over the Model Context Protocol
on stdin/stdout. Logs go to stderr.

Claude Code configuration:

  {"mcpServers": {"devflow": {"command": "devflow", "args": ["mcp"]}}}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := a.mcpServer()
			if err != nil {
				return err
			}

			a.logger.Info(ctx, "devflow MCP server ready",
				zap.String("dir", a.registry.Status().Dir()),
				zap.Int("tools", srv.Registry().Count()),
			)
			return srv.Run(ctx)
		},
	}
}

// mcpServer registers every tool, prompt and resource against a's services.
func (a *app) mcpServer() (*mcp.Server, error) {
	srv, err := mcp.NewServer(&mcp.Config{
		Name:    a.cfg.Server.Name,
		Version: a.cfg.Server.Version,
		Logger:  a.logger,
	}, a.registry.Status())
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	return srv, nil
}
