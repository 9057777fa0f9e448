package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/webharvest/webharvest/internal/api"
	"github.com/webharvest/webharvest/internal/config"
	"github.com/webharvest/webharvest/internal/database"
	"github.com/webharvest/webharvest/internal/log"
)

// shutdownTimeout bounds graceful server shutdown after a signal.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve starts the HTTP API for launching crawl jobs and querying
stored records.

Endpoints:
  GET  /health                  liveness probe
  POST /api/v1/jobs             start a crawl job
  GET  /api/v1/jobs             list jobs
  GET  /api/v1/jobs/<id>        one job's status
  POST /api/v1/jobs/<id>/stop   abort a running job
  GET  /api/v1/data             query stored records
  GET  /api/v1/stats            storage statistics
  GET  /api/v1/export/<format>  download records as json or csv

Example:
  webharvest serve --addr :8080`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultListenAddr,
		"Bind address for the HTTP server")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	verbose := getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, verbose)

	cfg := config.NewConfig()

	var err error
	if cfg.ListenAddr, err = cmd.Flags().GetString("addr"); err != nil {
		return err
	}
	if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	logger.Info("database opened", "dir", cfg.DBDir)

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	svc := api.NewService(cfg, store, logger)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCh:
		logger.Info("received shutdown signal, stopping server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
