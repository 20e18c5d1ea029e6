// cmd/rextra-admin/cmd_serve.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"rextra/internal/server"
	"rextra/internal/telemetry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	app, err := server.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Info("configured",
		zap.String("driver", cfg.Data.Driver),
		zap.Duration("save_latency", cfg.Membership.SaveLatency),
		zap.Bool("telemetry_export", cfg.Telemetry.OTLPEndpoint != ""),
		zap.Duration("session_idle_ttl", cfg.Membership.SessionIdleTTL),
	)
	return server.New(cfg.Server, app.Handler, logger).Run(ctx)
}
