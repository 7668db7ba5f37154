package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	statusURI = "dev://status"
	configURI = "dev://config"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		URI:         statusURI,
		Name:        "Project Status",
		Description: "Current workflow phase and quality status",
		MIMEType:    "text/plain",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     s.status.StatusLine(ctx),
		}}}, nil
	})

	s.mcp.AddResource(&mcp.Resource{
		URI:         configURI,
		Name:        "Project Configuration",
		Description: "Project type, tools, and settings",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		body, err := s.status.ProjectJSON(ctx)
		if err != nil {
			s.logger.Warn(ctx, "rendering project config failed", zap.Error(err))
			return nil, fmt.Errorf("reading %s: %w", configURI, err)
		}
		return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     body,
		}}}, nil
	})
}
