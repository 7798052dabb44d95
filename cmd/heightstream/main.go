// Package main serves the water heightfield over WebSocket for remote
// viewers.
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
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/seaoverlay/internal/config"
	"github.com/Faultbox/seaoverlay/internal/logger"
	"github.com/Faultbox/seaoverlay/internal/stream"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Sea Overlay height stream ===", zap.String("addr", cfg.Stream.Addr))
	logger.Debug("stream settings",
		zap.Int("grid_resolution", cfg.Water.GridResolution),
		zap.Duration("frame_interval", cfg.Stream.FrameInterval()),
		zap.String("backend", cfg.Water.Backend))

	if err := run(cfg); err != nil {
		logger.Fatal("stream server error", zap.Error(err))
	}
	logger.Info("stream server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := stream.New(cfg, logger.Named("stream"))
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Stream.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
