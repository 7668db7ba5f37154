package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	devhttp "github.com/fyrsmithlabs/devflow/internal/http"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the status API over HTTP",
		Long: `Serve the status API over HTTP until interrupted.

  GET  /health
  GET  /api/v1/status[?format=line]
  GET  /api/v1/changes[?base=...&format=compact|full|json]
  GET  /api/v1/version
  POST /api/v1/phase
  GET  /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := &devhttp.Config{Host: a.cfg.HTTP.Host, Port: a.cfg.HTTP.Port}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			srv, err := devhttp.NewServer(a.registry.Status(), a.logger, cfg)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout.Duration())
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				a.logger.Warn(shutdownCtx, "http shutdown failed", zap.Error(err))
				return err
			}
			return <-errCh
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default: http.host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default: http.port)")
	return cmd
}
