package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/semmap/internal/config"
	"github.com/hyperjump/semmap/internal/server"
	"github.com/hyperjump/semmap/internal/watcher"
)

func runServer(args []string) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	reload := fs.Bool("reload", false, "reload the snapshot even when the store already holds one")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, logger, err := setup(*configPath, *debug)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedConfigPath), zap.Bool("debug", cfg.Debug || *debug))

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.NewServer(components.Engine, cfg, logger)
	defer srv.Close()
	if cfg.Storage.LayoutPath != "" {
		if err := srv.LoadLayout(ctx, cfg.Storage.LayoutPath); err != nil {
			logger.Warn("layout not loaded", zap.String("path", cfg.Storage.LayoutPath), zap.Error(err))
		}
	}

	// searches wait for readiness, so the snapshot loads in the background
	go func() {
		if err := ensureLoaded(ctx, components, cfg, *reload); err != nil {
			logger.Error("snapshot load failed", zap.String("source", cfg.Storage.SnapshotPath), zap.Error(err))
		}
	}()

	if cfg.Watch.Enabled {
		w, err := startSnapshotWatcher(ctx, cfg, components, srv, logger)
		if err != nil {
			logger.Warn("snapshot watcher not started", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}

// startSnapshotWatcher reloads the embeddings or the layout when their local files change.
func startSnapshotWatcher(ctx context.Context, cfg *config.Config, c *Components, srv *server.Server, logger *zap.Logger) (*watcher.Watcher, error) {
	var files []string
	for _, p := range []string{cfg.Storage.SnapshotPath, cfg.Storage.LayoutPath} {
		if p != "" && !config.IsURL(p) {
			files = append(files, p)
		}
	}
	embeddingsPath, _ := filepath.Abs(cfg.Storage.SnapshotPath)
	onChange := func(path string) {
		if path == filepath.Clean(embeddingsPath) {
			if err := c.Engine.LoadSnapshot(ctx, cfg.Storage.SnapshotPath); err != nil {
				logger.Error("snapshot reload failed", zap.String("path", path), zap.Error(err))
			}
			return
		}
		if err := srv.LoadLayout(ctx, path); err != nil {
			logger.Error("layout reload failed", zap.String("path", path), zap.Error(err))
		}
	}
	w, err := watcher.NewWatcher(files, onChange, watcher.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	logger.Info("watching snapshot files", zap.Strings("files", w.Files()))
	return w, nil
}
