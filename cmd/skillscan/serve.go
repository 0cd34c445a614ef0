package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/config"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/core"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd starts the HTTP scan API
func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan API over HTTP",
		Long:  `Start the HTTP front end: POST /api/scan, GET /api/health and GET /api/stats.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			scanCfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			srvCfg, err := server.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				srvCfg.Port = port
			}
			srvCfg.Version = version

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(srvCfg, core.NewScanner(scanCfg, logger), nil, logger)
			fmt.Fprintf(os.Stderr, "  %s  http://localhost:%d\n", gray("Listening:"), srvCfg.Port)
			if err := srv.ListenAndServe(ctx); err != nil {
				logger.Error("Server failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "Port to listen on (overrides SKILLSCAN_SERVER_PORT)")

	return cmd
}
