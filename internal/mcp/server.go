package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"

	"github.com/fyrsmithlabs/devflow/internal/logging"
	"github.com/fyrsmithlabs/devflow/internal/status"
)

var tracer = otel.Tracer("devflow/mcp")

// Server is the devflow MCP server.
type Server struct {
	mcp          *mcp.Server
	status       *status.Service
	toolRegistry *ToolRegistry
	metrics      *Metrics
	logger       *logging.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the implementation name reported to clients (default: "devflow").
	Name string

	// Version is the implementation version (default: "2.1.0").
	Version string

	Logger *logging.Logger
}

// DefaultConfig returns the default server identity with a no-op logger.
func DefaultConfig() *Config {
	return &Config{
		Name:    "devflow",
		Version: "2.1.0",
		Logger:  logging.Nop(),
	}
}

// NewServer creates a server answering from svc and registers every tool,
// prompt and resource.
func NewServer(cfg *Config, svc *status.Service) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if svc == nil {
		return nil, errors.New("status service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.Named("mcp")

	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		status:       svc,
		toolRegistry: NewToolRegistry(),
		metrics:      NewMetrics(logger),
		logger:       logger,
	}

	s.registerTools()
	s.registerSearchTools()
	s.registerPrompts()
	s.registerResources()
	return s, nil
}

// Registry returns the metadata of every registered tool.
func (s *Server) Registry() *ToolRegistry {
	return s.toolRegistry
}

// Run serves MCP on stdin/stdout until ctx is done or the client hangs up.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// Connect serves a single session over t. Used for in-process clients.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, t, nil)
}
