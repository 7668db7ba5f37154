// Package logging provides structured logging with OpenTelemetry integration.
//
// Logger wraps zap with:
//   - a Trace level (-2, below Debug) for per-command chatter
//   - a stderr sink (stdout carries the MCP protocol) plus an optional OTEL sink
//   - automatic correlation fields (trace_id, span_id, request.id, tool.name)
//   - token redaction by field name and by value pattern
//   - sampling below Error
//
// Usage:
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithTool(logging.WithRequestID(ctx, id), "dev_status")
//	logger.Info(ctx, "tool completed", zap.Duration("duration", d))
//
// Tests use NewTestLogger and its Assert helpers:
//
//	tl := logging.NewTestLogger()
//	svc := status.New(status.Options{Logger: tl.Logger})
//	tl.AssertLogged(t, zapcore.WarnLevel, "pull request lookup failed")
package logging
