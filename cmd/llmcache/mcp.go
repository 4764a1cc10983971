package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/chengyuehsha/langchain-cache-gcs/pkg/mcp"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/telemetry"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start llmcache as an MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if listen := a.cfg.Metrics.Listen; listen != "" {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				a.metrics = telemetry.NewMetrics(reg)
				go func() {
					if err := telemetry.Serve(ctx, listen, reg); err != nil {
						a.log.Error().Err(err).Str("listen", listen).Msg("metrics server stopped")
					}
				}()
				a.log.Info().Str("listen", listen).Msg("serving metrics")
			}

			c, closeFn, err := a.openCache(ctx)
			if err != nil {
				return fmt.Errorf("init cache: %w", err)
			}
			defer func() { _ = closeFn() }()

			srv := mcp.New(c, version, a.log)
			a.log.Info().Str("config", a.configPath).Msg("starting llmcache mcp server")
			return srv.Run(ctx, os.Stdin, os.Stdout)
		},
	}
}
