// Package search ranks the document corpus against free-text queries and turns the
// ranking into per-document display intensities for the semantic map.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/semmap/internal/embedding"
	"github.com/hyperjump/semmap/internal/models"
	"github.com/hyperjump/semmap/internal/snapshot"
	"github.com/hyperjump/semmap/internal/storage"
	"github.com/hyperjump/semmap/internal/vector"
)

// Engine owns the embedding store and answers queries against it. The store is only
// mutated by Load, which excludes concurrent scans.
type Engine struct {
	store        storage.EmbeddingStore
	embedder     embedding.Embedder
	ranker       *vector.Ranker
	scale        Scale
	defaultLimit int
	loadRetries  int
	logger       *zap.Logger

	ready     chan struct{}
	readyOnce sync.Once
	seq       atomic.Uint64

	// scanMu serializes corpus scans and reloads.
	scanMu sync.Mutex

	mu       sync.RWMutex
	knownIDs []string
	loadID   string
	loadedAt time.Time
	source   string
}

// Status describes the loaded corpus.
type Status struct {
	Ready      bool      `json:"ready"`
	Count      int       `json:"count"`
	StoreType  string    `json:"store_type"`
	LoadID     string    `json:"load_id,omitempty"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
	Source     string    `json:"source,omitempty"`
	Dimensions int       `json:"dimensions"`
	Strategy   string    `json:"strategy"`
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRanker replaces the default buffer-strategy ranker.
func WithRanker(r *vector.Ranker) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.ranker = r
		}
	}
}

// WithScale sets the intensity range.
func WithScale(s Scale) EngineOption {
	return func(e *Engine) { e.scale = s }
}

// WithDefaultLimit bounds results when a request has no limit. 0 ranks the whole corpus.
func WithDefaultLimit(n int) EngineOption {
	return func(e *Engine) { e.defaultLimit = n }
}

// WithLoadRetries sets how often LoadSnapshot retries after a failed attempt.
func WithLoadRetries(n int) EngineOption {
	return func(e *Engine) { e.loadRetries = n }
}

// NewEngine creates an engine over store. It is not ready until Load, LoadSnapshot or
// Resume succeeds.
func NewEngine(store storage.EmbeddingStore, embedder embedding.Embedder, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		embedder: embedder,
		scale:    DefaultScale,
		logger:   zap.NewNop(),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ranker == nil {
		e.ranker = vector.NewRanker(vector.WithLogger(e.logger))
	}
	return e
}

// Load replaces the store contents with records and marks the engine ready.
func (e *Engine) Load(ctx context.Context, records []models.DocumentRecord) error {
	return e.load(ctx, records, "")
}

func (e *Engine) load(ctx context.Context, records []models.DocumentRecord, source string) error {
	e.scanMu.Lock()
	defer e.scanMu.Unlock()

	start := time.Now()
	if err := e.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	if err := e.store.BulkLoad(ctx, records); err != nil {
		return fmt.Errorf("failed to bulk load: %w", err)
	}
	ids, err := e.scanIDs(ctx)
	if err != nil {
		return err
	}

	loadID := uuid.NewString()
	loadedAt := time.Now().UTC()
	if meta, ok := e.store.(storage.MetaStore); ok {
		for k, v := range map[string]string{
			storage.MetaLoadID:   loadID,
			storage.MetaLoadedAt: loadedAt.Format(time.RFC3339Nano),
			storage.MetaSource:   source,
		} {
			if err := meta.SetMeta(ctx, k, v); err != nil {
				return fmt.Errorf("failed to record load metadata: %w", err)
			}
		}
	}

	e.publish(ids, loadID, loadedAt, source)
	e.logger.Info("embeddings loaded",
		zap.String("load_id", loadID),
		zap.Int("records", len(records)),
		zap.Int("stored", len(ids)),
		zap.String("store", e.store.Type()),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (e *Engine) scanIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := e.store.ForEach(ctx, func(id string, _ []float32) error {
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan store: %w", err)
	}
	return ids, nil
}

func (e *Engine) publish(ids []string, loadID string, loadedAt time.Time, source string) {
	e.mu.Lock()
	e.knownIDs = ids
	e.loadID = loadID
	e.loadedAt = loadedAt
	e.source = source
	e.mu.Unlock()
	e.readyOnce.Do(func() { close(e.ready) })
}

// LoadSnapshot reads the embeddings snapshot at src (path or URL) and loads it,
// retrying with exponential backoff.
func (e *Engine) LoadSnapshot(ctx context.Context, src string) error {
	op := func() error {
		records, err := snapshot.LoadEmbeddings(ctx, src)
		if err != nil {
			return err
		}
		return e.load(ctx, records, src)
	}
	var b backoff.BackOff = backoff.NewExponentialBackOff()
	b = backoff.WithMaxRetries(b, uint64(max(e.loadRetries, 0)))
	b = backoff.WithContext(b, ctx)
	return backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		e.logger.Warn("snapshot load failed, retrying",
			zap.String("source", src),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
}

// Resume marks the engine ready from a persistent store that already holds a completed
// load. It reports false when there is nothing to resume.
func (e *Engine) Resume(ctx context.Context) (bool, error) {
	meta, ok := e.store.(storage.MetaStore)
	if !ok {
		return false, nil
	}
	loadID, found, err := meta.GetMeta(ctx, storage.MetaLoadID)
	if err != nil || !found {
		return false, err
	}

	e.scanMu.Lock()
	defer e.scanMu.Unlock()
	ids, err := e.scanIDs(ctx)
	if err != nil {
		return false, err
	}
	if len(ids) == 0 {
		return false, nil
	}
	var loadedAt time.Time
	if v, ok, _ := meta.GetMeta(ctx, storage.MetaLoadedAt); ok {
		loadedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	source, _, _ := meta.GetMeta(ctx, storage.MetaSource)

	e.publish(ids, loadID, loadedAt, source)
	e.logger.Info("resumed stored embeddings", zap.String("load_id", loadID), zap.Int("records", len(ids)))
	return true, nil
}

// WaitReady blocks until the first load completes. If ctx ends first it returns
// ErrStoreNotReady.
func (e *Engine) WaitReady(ctx context.Context) error {
	select {
	case <-e.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrStoreNotReady, ctx.Err())
	}
}

// Ready reports whether a load has completed.
func (e *Engine) Ready() bool {
	select {
	case <-e.ready:
		return true
	default:
		return false
	}
}

// Search embeds the query, ranks the corpus and maps the ranking to intensities.
//
// An empty query, or one that embeds to an empty vector, resets every document to full
// intensity. A failed embedding returns a response with reset intensities and an error
// wrapping ErrEmbeddingSource. When a newer query (including an empty one) starts before
// this one has ranked, its result or failure is discarded with ErrSuperseded.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	return e.search(ctx, req, &e.seq)
}

func (e *Engine) search(ctx context.Context, req *models.SearchRequest, latest *atomic.Uint64) (*models.SearchResponse, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	seq := latest.Add(1)
	resp := &models.SearchResponse{Query: req.Query, Results: models.RankedResultSet{}, Sequence: seq}

	if req.IsEmpty() {
		resp.Intensities = e.Clear()
		resp.QueryTime = time.Since(start).Milliseconds()
		return resp, nil
	}
	if err := e.WaitReady(ctx); err != nil {
		return nil, err
	}

	vec, err := e.embedder.Embed(ctx, req.Query)
	if latest.Load() != seq {
		return nil, ErrSuperseded
	}
	if err != nil {
		e.logger.Warn("query embedding failed", zap.String("query", req.Query), zap.Error(err))
		resp.Intensities = e.Clear()
		resp.QueryTime = time.Since(start).Milliseconds()
		return resp, fmt.Errorf("%w: %w", ErrEmbeddingSource, err)
	}

	limit := req.Limit
	if limit == 0 {
		limit = e.defaultLimit
	}

	e.scanMu.Lock()
	results, stats, err := e.ranker.Rank(ctx, vec, e.store, limit)
	known := e.KnownIDs()
	stale := latest.Load() != seq
	e.scanMu.Unlock()
	if stale {
		return nil, ErrSuperseded
	}
	if errors.Is(err, vector.ErrEmptyQuery) {
		e.logger.Debug("query embedded to an empty vector", zap.String("query", req.Query))
		resp.Intensities = e.scale.Reset(known)
		resp.QueryTime = time.Since(start).Milliseconds()
		return resp, nil
	}
	if err != nil {
		return nil, err
	}

	resp.Results = results
	resp.Intensities = e.scale.Map(results, known)
	resp.Total = stats.Scanned - stats.Skipped
	resp.Skipped = stats.Skipped
	resp.QueryTime = time.Since(start).Milliseconds()
	e.logger.Debug("search",
		zap.String("query", req.Query),
		zap.Uint64("seq", seq),
		zap.Int("results", len(results)),
		zap.Int("skipped", stats.Skipped),
		zap.Int64("ms", resp.QueryTime),
	)
	return resp, nil
}

// Rank ranks the corpus against an already embedded query.
func (e *Engine) Rank(ctx context.Context, query []float32, limit int) (models.RankedResultSet, error) {
	if err := e.WaitReady(ctx); err != nil {
		return nil, err
	}
	e.scanMu.Lock()
	defer e.scanMu.Unlock()
	results, _, err := e.ranker.Rank(ctx, query, e.store, limit)
	return results, err
}

// Clear returns the "no filter" intensities for every known document.
func (e *Engine) Clear() map[string]float64 {
	return e.scale.Reset(e.KnownIDs())
}

// KnownIDs returns the IDs of the loaded documents in scan order.
func (e *Engine) KnownIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.knownIDs
}

// Count returns the number of loaded documents.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.knownIDs)
}

// LoadID identifies the most recent load. Empty before the first load.
func (e *Engine) LoadID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loadID
}

// StoreType returns the type of the underlying store.
func (e *Engine) StoreType() string {
	return e.store.Type()
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Status{
		Ready:      e.Ready(),
		Count:      len(e.knownIDs),
		StoreType:  e.store.Type(),
		LoadID:     e.loadID,
		LoadedAt:   e.loadedAt,
		Source:     e.source,
		Dimensions: e.embedder.Dimensions(),
		Strategy:   string(e.ranker.Strategy()),
	}
}
