package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultSearchLimit = 5

type toolSearchInput struct {
	Query    string `json:"query" jsonschema:"Regex or plain text matched against tool names, descriptions and keywords"`
	Category string `json:"category,omitempty" jsonschema:"Only return tools in this category (status, quality, changes, pr, release, config, search)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum results to return (default: 5)"`
}

type toolSearchHit struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	DeferLoading bool     `json:"defer_loading"`
	Keywords     []string `json:"keywords,omitempty"`
	Score        int      `json:"score,omitempty"`
	MatchReason  string   `json:"match_reason,omitempty"`
}

type toolSearchOutput struct {
	Query      string          `json:"query"`
	Results    []toolSearchHit `json:"results"`
	Count      int             `json:"count"`
	TotalTools int             `json:"total_tools"`
}

type toolListInput struct {
	Category     string `json:"category,omitempty" jsonschema:"Only list tools in this category"`
	DeferredOnly bool   `json:"deferred_only,omitempty" jsonschema:"Only list tools left out of the initial tool list"`
}

type toolListOutput struct {
	Tools []toolSearchHit `json:"tools"`
	Count int             `json:"count"`
}

func newHit(t *ToolMetadata) toolSearchHit {
	return toolSearchHit{
		Name:         t.Name,
		Description:  t.Description,
		Category:     string(t.Category),
		DeferLoading: t.DeferLoading,
		Keywords:     t.Keywords,
	}
}

func (s *Server) registerSearchTools() {
	search := &ToolMetadata{
		Name:        "tool_search",
		Description: "Search devflow tools by name, description or keyword. Regex patterns are supported.",
		Category:    CategorySearch,
		Keywords:    []string{"discover", "find", "tools"},
	}
	list := &ToolMetadata{
		Name:        "tool_list",
		Description: "List devflow tools with their category and keywords.",
		Category:    CategorySearch,
		Keywords:    []string{"discover", "tools"},
	}
	s.toolRegistry.RegisterAll([]*ToolMetadata{search, list})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        search.Name,
		Description: search.Description,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args toolSearchInput) (*mcp.CallToolResult, toolSearchOutput, error) {
		if args.Query == "" {
			err := errors.New("query is required")
			s.metrics.RecordInvocation(ctx, search.Name, 0, err)
			return errorResult(err), toolSearchOutput{}, nil
		}
		limit := args.Limit
		if limit <= 0 {
			limit = defaultSearchLimit
		}

		var found []*SearchResult
		if args.Category != "" {
			found = s.toolRegistry.SearchByCategory(args.Query, ToolCategory(args.Category))
		} else {
			found = s.toolRegistry.Search(args.Query)
		}
		if len(found) > limit {
			found = found[:limit]
		}

		out := toolSearchOutput{
			Query:      args.Query,
			Results:    make([]toolSearchHit, 0, len(found)),
			TotalTools: s.toolRegistry.Count(),
		}
		names := make([]string, 0, len(found))
		for _, r := range found {
			hit := newHit(r.Tool)
			hit.Score = r.Score
			hit.MatchReason = r.MatchReason
			out.Results = append(out.Results, hit)
			names = append(names, r.Tool.Name)
		}
		out.Count = len(out.Results)
		s.metrics.RecordInvocation(ctx, search.Name, 0, nil)

		text := fmt.Sprintf("No tools found matching: %s", args.Query)
		if len(names) > 0 {
			text = fmt.Sprintf("Found %d tool(s) for query '%s': %s", len(names), args.Query, strings.Join(names, ", "))
		}
		return textResult(text), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        list.Name,
		Description: list.Description,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args toolListInput) (*mcp.CallToolResult, toolListOutput, error) {
		var tools []*ToolMetadata
		switch {
		case args.Category != "":
			tools = s.toolRegistry.ListByCategory(ToolCategory(args.Category))
		case args.DeferredOnly:
			tools = s.toolRegistry.ListDeferred()
		default:
			tools = s.toolRegistry.List()
		}

		out := toolListOutput{Tools: make([]toolSearchHit, 0, len(tools))}
		for _, t := range tools {
			out.Tools = append(out.Tools, newHit(t))
		}
		out.Count = len(out.Tools)
		s.metrics.RecordInvocation(ctx, list.Name, 0, nil)
		return textResult(fmt.Sprintf("Found %d tools", out.Count)), out, nil
	})
}
