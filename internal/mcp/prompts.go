package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type promptDef struct {
	name        string
	description string
	text        string
}

var promptDefs = []promptDef{
	{
		name:        "dev_workflow_check",
		description: "Check development workflow status before committing code",
		text:        "Check the current development workflow status using dev_status. If there are errors, suggest running dev_fix. Follow Conventional Commits and Git Flow standards.",
	},
	{
		name:        "dev_auto_fix",
		description: "Automatically fix code quality issues",
		text:        "Run dev_check to verify errors, then get fix commands with dev_fix and execute them. Ensure code quality before committing.",
	},
	{
		name:        "dev_next_step",
		description: "Get recommended next step in workflow",
		text:        "Use dev_next to get the recommended next command for the current workflow phase. Commands follow Conventional Commits (feat/fix/docs/etc) and Git Flow (feature/release/hotfix branches) standards.",
	},
}

func (s *Server) registerPrompts() {
	for _, p := range promptDefs {
		s.mcp.AddPrompt(&mcp.Prompt{
			Name:        p.name,
			Description: p.description,
		}, func(ctx context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			s.logger.Debug(ctx, "prompt requested")
			return &mcp.GetPromptResult{
				Description: p.description,
				Messages: []*mcp.PromptMessage{{
					Role:    "user",
					Content: &mcp.TextContent{Text: p.text},
				}},
			}, nil
		})
	}
}
