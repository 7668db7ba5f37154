package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/logging"
)

// toolDefs describes every dev_* tool. The bracketed token estimates are part
// of the description clients show to the model.
var toolDefs = map[string]*ToolMetadata{
	"dev_status": {
		Name:        "dev_status",
		Description: "[~30 tokens] Ultra-compact status: phase|errors|next. Use this by default for quick checks.",
		Category:    CategoryStatus,
		Keywords:    []string{"phase", "workflow", "status line"},
	},
	"dev_flow": {
		Name:        "dev_flow",
		Description: "[~100 tokens] Structured status table. Use when you need more context.",
		Category:    CategoryStatus,
		Keywords:    []string{"branch", "task", "guidance", "pull request"},
	},
	"dev_fix": {
		Name:        "dev_fix",
		Description: "[~20 tokens] Get fix commands only",
		Category:    CategoryQuality,
		Keywords:    []string{"lint", "format", "autocorrect"},
	},
	"dev_check": {
		Name:        "dev_check",
		Description: "[~10 tokens] CI-ready check (✅/❌ + error count)",
		Category:    CategoryQuality,
		Keywords:    []string{"lint", "errors", "ci"},
	},
	"dev_next": {
		Name:        "dev_next",
		Description: "[~15 tokens] Suggested next command based on current phase",
		Category:    CategoryStatus,
		Keywords:    []string{"command", "commit", "push"},
	},
	"dev_changes": {
		Name:        "dev_changes",
		Description: "[~50 tokens] Analyze code changes and get build recommendation",
		Category:    CategoryChanges,
		Keywords:    []string{"diff", "build", "ci", "skip"},
	},
	"dev_ready": {
		Name:        "dev_ready",
		Description: "[~20 tokens] Control PR build status (draft/ready)",
		Category:    CategoryPR,
		Keywords:    []string{"pull request", "draft", "ready for review"},
	},
	"dev_version": {
		Name:        "dev_version",
		Description: "[~30 tokens] Get version info and next version suggestions",
		Category:    CategoryRelease,
		Keywords:    []string{"semver", "tag", "bump"},
	},
	"dev_commits": {
		Name:         "dev_commits",
		Description:  "[~100 tokens] Get commits grouped by type for release notes",
		Category:     CategoryRelease,
		DeferLoading: true,
		Keywords:     []string{"changelog", "conventional commits", "release notes"},
	},
	"dev_config": {
		Name:         "dev_config",
		Description:  "[~50 tokens] Get platform-specific configuration (lint/format/build commands, scopes)",
		Category:     CategoryConfig,
		DeferLoading: true,
		Keywords:     []string{"lint", "format", "build", "scopes", "dev-flow.toml"},
	},
}

type emptyInput struct{}

type flowInput struct {
	Verbose bool `json:"verbose,omitempty" jsonschema:"Add guidance (+50 tokens)"`
}

type changesInput struct {
	Base   string `json:"base,omitempty" jsonschema:"Base branch (default: origin/master)"`
	Format string `json:"format,omitempty" jsonschema:"Output format: compact, json or full (default: compact)"`
}

type readyInput struct {
	Action string `json:"action,omitempty" jsonschema:"Action: check (view status), yes (make ready) or draft (make draft)"`
}

type versionInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: compact or json (default: compact)"`
}

type commitsInput struct {
	From   string `json:"from,omitempty" jsonschema:"Start ref (default: previous tag)"`
	To     string `json:"to,omitempty" jsonschema:"End ref (default: HEAD)"`
	Format string `json:"format,omitempty" jsonschema:"Output format: compact, json or full (default: compact)"`
}

type configInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: compact, json or full (default: compact)"`
}

// textHandler answers a tool call with a single text block.
type textHandler[In any] func(ctx context.Context, args In) (string, error)

// addTextTool registers a dev_* tool. Each call gets a request ID, a span,
// metrics and a debug log line. Handler errors become tool results with
// IsError set and "Error: <msg>" as text.
func addTextTool[In any](s *Server, name string, h textHandler[In]) {
	meta := toolDefs[name]
	s.toolRegistry.Register(meta)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        meta.Name,
		Description: meta.Description,
		Meta:        toolMeta(meta),
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args In) (*mcp.CallToolResult, any, error) {
		ctx = logging.WithRequestID(ctx, uuid.NewString())
		ctx = logging.WithTool(ctx, name)
		ctx, span := tracer.Start(ctx, "mcp."+name, trace.WithAttributes(attribute.String("tool", name)))
		defer span.End()

		s.metrics.IncrementActive(ctx, name)
		defer s.metrics.DecrementActive(ctx, name)

		start := time.Now()
		text, err := h(ctx, args)
		elapsed := time.Since(start)
		s.metrics.RecordInvocation(ctx, name, elapsed, err)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.Warn(ctx, "tool call failed", zap.Error(err), zap.Duration("duration", elapsed))
			return errorResult(err), nil, nil
		}
		s.logger.Debug(ctx, "tool call completed",
			zap.Duration("duration", elapsed),
			zap.Int("output_bytes", len(text)),
		)
		return textResult(text), nil, nil
	})
}

func toolMeta(meta *ToolMetadata) mcp.Meta {
	if !meta.DeferLoading {
		return nil
	}
	return mcp.Meta{"defer_loading": true}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
	}
}

func (s *Server) registerTools() {
	svc := s.status

	addTextTool(s, "dev_status", func(ctx context.Context, _ emptyInput) (string, error) {
		return svc.StatusLine(ctx), nil
	})
	addTextTool(s, "dev_flow", func(ctx context.Context, args flowInput) (string, error) {
		return svc.Flow(ctx, args.Verbose), nil
	})
	addTextTool(s, "dev_fix", func(ctx context.Context, _ emptyInput) (string, error) {
		return svc.Fix(ctx), nil
	})
	addTextTool(s, "dev_check", func(ctx context.Context, _ emptyInput) (string, error) {
		return svc.Check(ctx), nil
	})
	addTextTool(s, "dev_next", func(ctx context.Context, _ emptyInput) (string, error) {
		return svc.Next(ctx), nil
	})
	addTextTool(s, "dev_changes", func(ctx context.Context, args changesInput) (string, error) {
		return svc.Changes(ctx, args.Base, args.Format)
	})
	addTextTool(s, "dev_ready", func(ctx context.Context, args readyInput) (string, error) {
		return svc.Ready(ctx, args.Action)
	})
	addTextTool(s, "dev_version", func(ctx context.Context, args versionInput) (string, error) {
		return svc.Version(ctx, args.Format)
	})
	addTextTool(s, "dev_commits", func(ctx context.Context, args commitsInput) (string, error) {
		return svc.Commits(ctx, args.From, args.To, args.Format)
	})
	addTextTool(s, "dev_config", func(ctx context.Context, args configInput) (string, error) {
		return svc.Config(ctx, args.Format)
	})
}
