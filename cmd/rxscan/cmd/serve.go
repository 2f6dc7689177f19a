package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rxscan/rxscan/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP scan API server",
	Long: `Start an HTTP server that provides REST API endpoints for scanning
packaging images and browsing stored products.

Endpoints:
  POST /api/v1/process-image - Scan an uploaded image
  POST /api/v1/process-bulk  - Scan multiple uploaded images
  GET  /api/v1/products      - List stored products
  GET  /api/v1/ws            - WebSocket scan interface
  GET  /health               - Health check
  GET  /metrics              - Prometheus metrics

Examples:
  rxscan serve
  rxscan serve --port 8080
  rxscan serve --host 0.0.0.0 --port 3000 --db rxscan.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		corsOrigin := cfg.Server.CORSOrigin
		if cmd.Flags().Changed("cors-origin") {
			corsOrigin, _ = cmd.Flags().GetString("cors-origin")
		}

		maxUploadMB := cfg.Server.MaxUploadMB
		if cmd.Flags().Changed("max-upload-size") {
			maxUploadMB, _ = cmd.Flags().GetInt64("max-upload-size")
		}

		requestsPerMinute := cfg.Server.RequestsPerMinute
		if cmd.Flags().Changed("requests-per-minute") {
			requestsPerMinute, _ = cmd.Flags().GetInt("requests-per-minute")
		}

		maxUploadPerDayMB := cfg.Server.MaxUploadPerDayMB
		if cmd.Flags().Changed("max-upload-per-day") {
			maxUploadPerDayMB, _ = cmd.Flags().GetInt64("max-upload-per-day")
		}

		cacheTTLSec := cfg.Server.CacheTTLSec
		if cmd.Flags().Changed("cache-ttl") {
			cacheTTLSec, _ = cmd.Flags().GetInt("cache-ttl")
		}

		databasePath := cfg.Server.DatabasePath
		if cmd.Flags().Changed("db") {
			databasePath, _ = cmd.Flags().GetString("db")
		}

		shutdownTimeout := cfg.Server.ShutdownTimeoutSec
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}

		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		serverConfig := server.Config{
			Host:              host,
			Port:              port,
			CORSOrigin:        corsOrigin,
			MaxUploadMB:       maxUploadMB,
			RequestsPerMinute: requestsPerMinute,
			MaxUploadPerDayMB: maxUploadPerDayMB,
			CacheTTL:          time.Duration(cacheTTLSec) * time.Second,
			DatabasePath:      databasePath,
			PipelineConfig:    cfg.ToPipelineConfig(),
		}

		scanServer, err := server.NewServer(ctx, serverConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		mux := http.NewServeMux()
		scanServer.SetupRoutes(mux)

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			slog.Info("Starting scan server", "host", host, "port", port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		slog.Info("Shutting down HTTP server", "timeout", fmt.Sprintf("%ds", shutdownTimeout))
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}

		if err := scanServer.Close(); err != nil {
			slog.Error("Server cleanup error", "error", err)
		}

		slog.Info("Graceful shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("host", "H", "0.0.0.0", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int64("max-upload-size", 10, "maximum upload size in MB")
	serveCmd.Flags().Int("requests-per-minute", 60, "maximum requests per minute per client (0 disables)")
	serveCmd.Flags().Int64("max-upload-per-day", 0, "maximum upload bytes per day per client in MB (0 disables)")
	serveCmd.Flags().Int("cache-ttl", 3600, "result cache TTL in seconds (0 disables)")
	serveCmd.Flags().String("db", "rxscan.db", "SQLite database path (use :memory: for ephemeral)")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
}
