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

	"go.uber.org/zap"

	"label-intake-api/internal"
	"label-intake-api/internal/config"
	"label-intake-api/internal/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Load and validate configuration
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	metrics := internal.NewMetrics()
	svc, err := internal.NewService(cfg, metrics)
	if err != nil {
		return fmt.Errorf("intake service: %w", err)
	}

	srv, err := internal.NewServer(cfg, svc, metrics, logger)
	if err != nil {
		return err
	}

	if !cfg.GLPIEnabled() {
		logger.Warn("GLPI credentials not configured; inventory requests will fail until GLPI_URL, GLPI_APP_TOKEN and GLPI_USER_TOKEN are set")
	}
	if !cfg.AuthEnabled {
		logger.Warn("authentication disabled")
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting label intake API",
			zap.String("addr", cfg.ListenAddr),
			zap.Bool("auth_enabled", cfg.AuthEnabled),
			zap.Bool("strict_match", cfg.StrictMatch),
			zap.String("default_item_type", cfg.DefaultItemType),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return srv.Close(shutdownCtx)
}
