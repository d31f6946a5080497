package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/benchdeck"
	"pkt.systems/benchdeck/internal/metrics"
	"pkt.systems/pslog"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var noPoll bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the console HTTP API and poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			var m *metrics.Metrics
			if cfg.Metrics.Enabled {
				m = metrics.New()
			}
			gw, err := newGateway(cmd.Context(), cfg, m)
			if err != nil {
				return err
			}
			logger.Info("gateway configured", "base_url", gw.BaseURL(), "timeout_seconds", cfg.API.TimeoutSeconds)

			serverOpts := []benchdeck.ServerOption{benchdeck.WithHTTP()}
			if !noPoll {
				serverOpts = append(serverOpts, benchdeck.WithPoller())
			}
			server, err := benchdeck.New(benchdeck.ServerConfig{
				Service:   cfg.ServiceConfig(),
				HTTP:      toHTTPConfig(cfg.HTTP),
				Heartbeat: cfg.HTTP.Heartbeat(),
			}, benchdeck.ServerDeps{
				Console: benchdeck.ConsoleDeps{Gateway: gw, Logger: logger},
				Metrics: m,
			}, serverOpts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().BoolVar(&noPoll, "no-poll", false, "serve without the background poller")
	return cmd
}
