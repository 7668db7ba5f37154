// Package http serves devflow's status API.
//
// The API is read-only apart from POST /api/v1/phase, which classifies a
// caller-supplied git snapshot without touching the repository. Prometheus
// metrics (cache and git watcher counters) are exposed on /metrics.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/logging"
	"github.com/fyrsmithlabs/devflow/internal/status"
	"github.com/fyrsmithlabs/devflow/internal/workflow"
)

// Server provides HTTP endpoints over a status.Service.
type Server struct {
	echo    *echo.Echo
	status  *status.Service
	logger  *logging.Logger
	config  *Config
	metrics *HTTPMetrics
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(svc *status.Service, logger *logging.Logger, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, errors.New("status service is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "127.0.0.1", Port: 9191}
	}
	logger = logger.Named("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		status:  svc,
		logger:  logger,
		config:  cfg,
		metrics: NewHTTPMetrics(logger),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.metrics.MetricsMiddleware())
	e.Use(s.requestContext)

	s.registerRoutes()
	return s, nil
}

// requestContext carries the echo request ID into the request context and
// logs each request once it completes.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()
		ctx := logging.WithRequestID(req.Context(), c.Response().Header().Get(echo.HeaderXRequestID))
		c.SetRequest(req.WithContext(ctx))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		s.logger.Info(ctx, "http request",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/status", s.handleStatus)
	v1.GET("/changes", s.handleChanges)
	v1.GET("/version", s.handleVersion)
	v1.POST("/phase", s.handlePhase)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Dir: s.status.Dir()})
}

// handleStatus returns the full snapshot, or the status line with ?format=line.
func (s *Server) handleStatus(c echo.Context) error {
	ctx := c.Request().Context()
	if c.QueryParam("format") == "line" {
		return c.String(http.StatusOK, s.status.StatusLine(ctx))
	}
	return c.JSON(http.StatusOK, s.status.Snapshot(ctx))
}

// handleChanges returns the build recommendation for ?base=. The default is
// the JSON analysis; ?format=compact and ?format=full return text.
func (s *Server) handleChanges(c echo.Context) error {
	ctx := c.Request().Context()
	base := c.QueryParam("base")

	switch format := c.QueryParam("format"); format {
	case "", string(status.FormatJSON):
		return c.JSON(http.StatusOK, s.status.Analyze(ctx, base))
	default:
		text, err := s.status.Changes(ctx, base, format)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.String(http.StatusOK, text)
	}
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, s.status.VersionInfo(c.Request().Context()))
}

// handlePhase classifies the posted snapshot. Branch-derived fields are
// recomputed from the branch name.
func (s *Server) handlePhase(c echo.Context) error {
	var req PhaseRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid phase request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.LintErrors < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "lintErrors must not be negative")
	}

	st := req.GitStatus()
	rule := workflow.MatchPhaseRule(st)
	return c.JSON(http.StatusOK, PhaseResponse{
		Phase:       rule.Phase,
		Rule:        rule.Name,
		Description: rule.Phase.Description(),
		Kind:        st.Kind(),
		Next:        workflow.NextAction(rule.Phase, req.LintErrors, nil),
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
