// Package embedding turns query text into vectors comparable with the stored
// document embeddings.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/semmap/internal/config"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Provider names.
const (
	ProviderONNX = "onnx"
	ProviderHTTP = "http"
	ProviderMock = "mock"
)

// New builds the embedder selected by cfg.Provider, wrapped in an LRU cache when
// cfg.CacheSize is positive.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		emb Embedder
		err error
	)
	switch cfg.Provider {
	case ProviderONNX, "":
		var tok Tokenizer = &HashTokenizer{}
		if cfg.VocabPath != "" {
			tok, err = LoadVocabTokenizer(cfg.VocabPath)
			if err != nil {
				return nil, err
			}
		}
		emb, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, tok)
	case ProviderHTTP:
		emb, err = NewHTTPEmbedder(HTTPOptions{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			APIKeyEnv:  cfg.APIKeyEnv,
			Dimensions: cfg.Dimensions,
			Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		})
	case ProviderMock:
		emb = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("embedder ready",
		zap.String("provider", cfg.Provider),
		zap.Int("dimensions", emb.Dimensions()),
		zap.Int("cache_size", cfg.CacheSize),
	)
	if cfg.CacheSize > 0 {
		return NewCachedEmbedder(emb, cfg.CacheSize), nil
	}
	return emb, nil
}

// embedEach implements EmbedBatch in terms of Embed.
func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}
