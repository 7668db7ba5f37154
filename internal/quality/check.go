// Package quality runs platform linters and formatters and reduces their
// reports to counts, and builds the fix commands and workflow guidance that
// go with them.
package quality

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/logging"
	"github.com/fyrsmithlabs/devflow/internal/project"
	"github.com/fyrsmithlabs/devflow/internal/runner"
)

var tracer = otel.Tracer("devflow/quality")

// Result holds lint and format counts.
type Result struct {
	Errors      int `json:"lintErrors"`
	Warnings    int `json:"lintWarnings"`
	Unformatted int `json:"unformattedFiles"`
}

// Checker runs quality tools through a Runner.
type Checker struct {
	runner runner.Runner
	logger *logging.Logger
}

// NewChecker creates a Checker. A nil logger discards output.
func NewChecker(r runner.Runner, logger *logging.Logger) *Checker {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Checker{runner: r, logger: logger.Named("quality")}
}

// Lint runs only the linter: SwiftLint on iOS, ktlint on Android, whose
// findings all count as errors. Other project types report zero.
func (c *Checker) Lint(ctx context.Context, info project.Info) (Result, error) {
	ctx, span := tracer.Start(ctx, "quality.lint")
	defer span.End()
	span.SetAttributes(attribute.String("project.type", string(info.Type)))

	switch info.Type {
	case project.TypeIOS:
		errs, warnings, err := c.swiftlint(ctx, info)
		return Result{Errors: errs, Warnings: warnings}, err
	case project.TypeAndroid:
		n, err := c.ktlint(ctx, info)
		return Result{Errors: n}, err
	default:
		return Result{}, nil
	}
}

// Check runs linter and formatter. On iOS it adds the swiftformat dry run;
// on Android detekt issues count as warnings and ktlint findings double as
// unformatted files.
func (c *Checker) Check(ctx context.Context, info project.Info) (Result, error) {
	ctx, span := tracer.Start(ctx, "quality.check")
	defer span.End()
	span.SetAttributes(attribute.String("project.type", string(info.Type)))

	switch info.Type {
	case project.TypeIOS:
		errs, warnings, err := c.swiftlint(ctx, info)
		if err != nil {
			return Result{}, err
		}
		unformatted, err := c.swiftformat(ctx, info)
		if err != nil {
			c.logger.Debug(ctx, "swiftformat unavailable", zap.Error(err))
		}
		return Result{Errors: errs, Warnings: warnings, Unformatted: unformatted}, nil
	case project.TypeAndroid:
		n, err := c.ktlint(ctx, info)
		if err != nil {
			return Result{}, err
		}
		issues, err := c.detekt(ctx, info)
		if err != nil {
			c.logger.Debug(ctx, "detekt unavailable", zap.Error(err))
		}
		return Result{Errors: n, Warnings: issues, Unformatted: n}, nil
	default:
		return Result{}, nil
	}
}

// run tolerates non-zero exits, which linters use to report findings.
func (c *Checker) run(ctx context.Context, dir, name string, args ...string) (runner.Result, error) {
	res, err := c.runner.Run(ctx, dir, name, args...)
	if err != nil && !runner.ExitOnly(res, err) {
		return res, err
	}
	return res, nil
}

func (c *Checker) swiftlint(ctx context.Context, info project.Info) (errs, warnings int, err error) {
	res, err := c.run(ctx, info.Path, "swiftlint", "lint", "--path", info.SrcDir, "--reporter", "summary")
	if err != nil {
		return 0, 0, fmt.Errorf("swiftlint: %w", err)
	}
	if errs, warnings, ok := ParseSwiftLintSummary(res.Stdout); ok {
		return errs, warnings, nil
	}

	c.logger.Debug(ctx, "swiftlint summary not found, counting violations")
	res, err = c.run(ctx, info.Path, "swiftlint", "lint", "--path", info.SrcDir)
	if err != nil {
		return 0, 0, fmt.Errorf("swiftlint: %w", err)
	}
	errs, warnings = CountSwiftLintViolations(res.Stdout)
	return errs, warnings, nil
}

func (c *Checker) swiftformat(ctx context.Context, info project.Info) (int, error) {
	res, err := c.run(ctx, info.Path, "swiftformat", info.SrcDir, "--dryrun")
	if err != nil {
		return 0, fmt.Errorf("swiftformat: %w", err)
	}
	return ParseSwiftFormat(res.Combined()), nil
}

func (c *Checker) ktlint(ctx context.Context, info project.Info) (int, error) {
	res, err := c.run(ctx, info.Path, project.Gradle(info.Path), "ktlintCheck")
	if err != nil {
		return 0, fmt.Errorf("ktlintCheck: %w", err)
	}
	return CountKtlint(res.Combined()), nil
}

func (c *Checker) detekt(ctx context.Context, info project.Info) (int, error) {
	res, err := c.run(ctx, info.Path, project.Gradle(info.Path), "detekt")
	if err != nil {
		return 0, fmt.Errorf("detekt: %w", err)
	}
	return ParseDetekt(res.Combined()), nil
}
