// Package runner executes external developer tools (git, gh, swiftlint,
// gradle, xcodebuild) with per-call timeouts.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/logging"
)

var tracer = otel.Tracer("devflow/runner")

// DefaultTimeout bounds a single tool invocation when none is configured.
const DefaultTimeout = 30 * time.Second

var (
	// ErrTimeout indicates the command was killed after exceeding its timeout.
	ErrTimeout = errors.New("command timed out")

	// ErrNotFound indicates the executable is not on PATH.
	ErrNotFound = errors.New("command not found")
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns trimmed stdout.
func (r Result) Output() string {
	return strings.TrimSpace(r.Stdout)
}

// Combined returns stdout followed by stderr. Linters split their reports
// across both streams.
func (r Result) Combined() string {
	return r.Stdout + r.Stderr
}

// ExitOnly reports whether err only signals a non-zero exit status, so the
// Result holds the tool's report.
func ExitOnly(res Result, err error) bool {
	return err != nil && res.ExitCode > 0 &&
		!errors.Is(err, ErrTimeout) && !errors.Is(err, ErrNotFound)
}

// Runner runs a command in a directory.
//
// A non-zero exit returns a non-nil error together with the populated Result,
// since several linters report findings through their exit code.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)
	LookPath(name string) bool
}

// Exec runs commands with os/exec.
type Exec struct {
	timeout time.Duration
	logger  *logging.Logger
}

// New creates an Exec runner. A zero timeout uses DefaultTimeout.
func New(timeout time.Duration, logger *logging.Logger) *Exec {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Exec{timeout: timeout, logger: logger}
}

// Ensure Exec implements Runner.
var _ Runner = (*Exec)(nil)

// Run executes name with args in dir.
func (e *Exec) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	ctx, span := tracer.Start(ctx, "runner.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("command.name", name),
		attribute.String("command.args", strings.Join(args, " ")),
	)

	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// #nosec G204 - name and args come from fixed tool tables or the user's own project config
	cmd := exec.CommandContext(timeoutCtx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	span.SetAttributes(attribute.Int("command.exit_code", res.ExitCode))

	if err != nil {
		switch {
		case timeoutCtx.Err() == context.DeadlineExceeded:
			err = fmt.Errorf("%w: %s after %v", ErrTimeout, name, e.timeout)
		case errors.Is(err, exec.ErrNotFound):
			err = fmt.Errorf("%w: %s", ErrNotFound, name)
		default:
			err = fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if e.logger != nil {
			e.logger.Debug(ctx, "command failed",
				zap.String("command", name),
				zap.Strings("args", args),
				zap.Int("exit_code", res.ExitCode),
				zap.Duration("duration", duration),
				zap.Error(err))
		}
		return res, err
	}

	if e.logger != nil {
		e.logger.Trace(ctx, "command finished",
			zap.String("command", name),
			zap.Strings("args", args),
			zap.Duration("duration", duration))
	}
	return res, nil
}

// LookPath reports whether name resolves to an executable on PATH.
func (e *Exec) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
