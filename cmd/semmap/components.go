package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/semmap/internal/config"
	"github.com/hyperjump/semmap/internal/embedding"
	"github.com/hyperjump/semmap/internal/models"
	"github.com/hyperjump/semmap/internal/search"
	"github.com/hyperjump/semmap/internal/snapshot"
	"github.com/hyperjump/semmap/internal/storage"
	"github.com/hyperjump/semmap/internal/vector"
	"github.com/hyperjump/semmap/pkg/utils"
)

// Components holds initialized services.
type Components struct {
	Store    storage.EmbeddingStore
	Embedder embedding.Embedder
	Engine   *search.Engine
}

// Close releases the store and the embedder.
func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	strategy, err := vector.ParseStrategy(cfg.Search.Strategy)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewEmbeddingStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	embedder, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	engine := search.NewEngine(store, embedder,
		search.WithLogger(logger),
		search.WithRanker(vector.NewRanker(vector.WithLogger(logger), vector.WithStrategy(strategy))),
		search.WithScale(search.Scale{Floor: cfg.Search.MinIntensity, Ceil: cfg.Search.MaxIntensity}),
		search.WithDefaultLimit(cfg.Search.DefaultLimit),
		search.WithLoadRetries(cfg.Search.LoadRetries),
	)
	logger.Info("components initialized",
		zap.String("store", store.Type()),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("strategy", string(strategy)),
	)
	return &Components{Store: store, Embedder: embedder, Engine: engine}, nil
}

// ensureLoaded makes the engine ready, resuming a previous load held by a persistent
// store unless reload is set.
func ensureLoaded(ctx context.Context, c *Components, cfg *config.Config, reload bool) error {
	if !reload {
		resumed, err := c.Engine.Resume(ctx)
		if err != nil {
			return fmt.Errorf("failed to resume: %w", err)
		}
		if resumed {
			return nil
		}
	}
	if cfg.Storage.SnapshotPath == "" {
		return errors.New("no snapshot_path configured")
	}
	return c.Engine.LoadSnapshot(ctx, cfg.Storage.SnapshotPath)
}

// loadTitles returns slug to title from the configured layout. A missing layout
// yields an empty map.
func loadTitles(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]models.LayoutPoint, map[string]string) {
	titles := make(map[string]string)
	if cfg.Storage.LayoutPath == "" {
		return nil, titles
	}
	points, err := snapshot.LoadLayout(ctx, cfg.Storage.LayoutPath)
	if err != nil {
		logger.Warn("layout not loaded", zap.String("path", cfg.Storage.LayoutPath), zap.Error(err))
		return nil, titles
	}
	for _, p := range points {
		titles[p.Slug] = p.Title
	}
	return points, titles
}

// setup loads config and creates the logger for a subcommand.
func setup(configPath string, debug bool) (*config.Config, string, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, resolved, logger, nil
}
