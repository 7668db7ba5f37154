package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/config"
	"github.com/fyrsmithlabs/devflow/internal/logging"
	"github.com/fyrsmithlabs/devflow/internal/services"
	"github.com/fyrsmithlabs/devflow/internal/telemetry"
)

// rootOptions are the persistent flags.
type rootOptions struct {
	configPath string
	dir        string
	logLevel   string
}

// app is one process's wiring: config, logger, telemetry and services.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	registry  services.Registry
}

// newApp loads configuration and builds every service for opts.dir. The
// repository watcher only runs when watch is set; one-shot commands exit
// before it could matter.
func newApp(ctx context.Context, opts *rootOptions, watch bool) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	cfg.Cache.Watch = cfg.Cache.Watch && watch

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	reg, err := services.Build(ctx, cfg, opts.dir, logger)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.Strings("reasons", h.Reasons))
	}
	logger.Debug(ctx, "devflow initialized",
		zap.String("dir", reg.Status().Dir()),
		zap.String("base_branch", reg.Status().BaseBranch()),
		zap.Bool("watch", reg.Watcher() != nil),
		zap.Bool("github_api", cfg.GitHub.UseAPI),
	)

	return &app{cfg: cfg, logger: logger, telemetry: tel, registry: reg}, nil
}

// Close stops the watcher and flushes telemetry and logs.
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errs := []error{a.registry.Close()}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	_ = a.logger.Sync() // stderr sync fails on some terminals
	return errors.Join(errs...)
}
