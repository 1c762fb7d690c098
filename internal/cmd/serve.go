package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inferbatch/inferbatch/internal/config"
	"github.com/inferbatch/inferbatch/internal/jobs"
	"github.com/inferbatch/inferbatch/internal/observability"
	"github.com/inferbatch/inferbatch/internal/pipeline"
	"github.com/inferbatch/inferbatch/internal/server"
	"github.com/inferbatch/inferbatch/internal/server/handlers"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the batch job HTTP server",
	Long: `Start the HTTP server that accepts batch jobs over POST /jobs and
tracks their progress.

SIGINT or SIGTERM triggers a graceful shutdown: in-flight HTTP requests are
drained before the process exits. Background jobs do not survive a restart.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "server host")
	serveCmd.Flags().IntP("port", "p", 0, "server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := overlayServeFlags(cmd, cfg); err != nil {
		return err
	}

	observability.InitServerLogger(cfg.Logging.Level)
	logger := observability.ServerLogger
	defer func() {
		// Sync errors on stderr are benign.
		_ = logger.Sync()
	}()

	logger.Info("initializing server",
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	manager := jobs.NewManager(&pipeline.Runner{Logger: logger}, logger)
	handlers.SetVersionInfo(versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)
	srv := server.New(cfg.Server.Host, cfg.Server.Port, manager, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("HTTP server stopped gracefully")
	return nil
}

func overlayServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("host") {
		host, err := flags.GetString("host")
		if err != nil {
			return err
		}
		cfg.Server.Host = host
	}
	if flags.Changed("port") {
		port, err := flags.GetInt("port")
		if err != nil {
			return err
		}
		cfg.Server.Port = port
	}

	return nil
}
