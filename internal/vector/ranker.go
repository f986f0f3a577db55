package vector

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hyperjump/semmap/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrEmptyQuery is returned when the query vector has no components.
	ErrEmptyQuery = errors.New("empty query vector")
	// ErrDimensionMismatch marks a corpus record whose length differs from the query's.
	// Such records are skipped; the error is only logged and counted.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Strategy selects how the bounded top-N buffer is maintained during a scan.
type Strategy string

const (
	// StrategyBuffer keeps a sorted slice and inserts in place. Fine for corpora of a few thousand docs.
	StrategyBuffer Strategy = "buffer"
	// StrategyHeap keeps a bounded min-heap of size limit, O(log limit) per candidate.
	StrategyHeap Strategy = "heap"
)

// Corpus is a sequential scan over (id, vector) pairs. Every storage.EmbeddingStore satisfies it.
// Visitors must not retain or mutate vec.
type Corpus interface {
	ForEach(ctx context.Context, visit func(id string, vec []float32) error) error
}

// RankStats reports what happened during one scan.
type RankStats struct {
	Scanned int
	Skipped int
}

// Ranker computes a bounded top-N list ordered by descending cosine similarity in a
// single streaming pass, without any auxiliary index.
type Ranker struct {
	strategy Strategy
	logger   *zap.Logger
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithLogger sets the logger used for skipped-record warnings.
func WithLogger(l *zap.Logger) RankerOption {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithStrategy selects the buffer maintenance strategy.
func WithStrategy(s Strategy) RankerOption {
	return func(r *Ranker) { r.strategy = s }
}

// NewRanker returns a ranker using the sorted-buffer strategy unless configured otherwise.
func NewRanker(opts ...RankerOption) *Ranker {
	r := &Ranker{strategy: StrategyBuffer, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ParseStrategy maps a config value to a Strategy. Empty means StrategyBuffer.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyBuffer, "":
		return StrategyBuffer, nil
	case StrategyHeap:
		return StrategyHeap, nil
	default:
		return "", fmt.Errorf("unknown ranking strategy: %s (supported: buffer, heap)", s)
	}
}

// Strategy returns the configured strategy.
func (r *Ranker) Strategy() Strategy {
	return r.strategy
}

// Rank scans corpus once and returns at most limit candidates ordered by similarity
// descending. limit <= 0 means unbounded. Equal similarities keep scan order: a
// candidate only displaces the current worst entry on strict improvement.
//
// An empty query returns an empty result and ErrEmptyQuery. An empty corpus returns an
// empty result and no error. Records of the wrong dimension are skipped and logged.
func (r *Ranker) Rank(ctx context.Context, query []float32, corpus Corpus, limit int) (models.RankedResultSet, RankStats, error) {
	var stats RankStats
	if len(query) == 0 {
		return models.RankedResultSet{}, stats, ErrEmptyQuery
	}
	var top topN
	if r.strategy == StrategyHeap {
		top = newHeapTop(limit)
	} else {
		top = newBufferTop(limit)
	}
	err := corpus.ForEach(ctx, func(id string, vec []float32) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if vec == nil {
			stats.Skipped++
			r.logger.Warn("skipping unreadable corpus record", zap.String("doc_id", id))
			return nil
		}
		if len(vec) != len(query) {
			stats.Skipped++
			r.logger.Warn("skipping corpus record",
				zap.String("doc_id", id),
				zap.Int("got", len(vec)),
				zap.Int("want", len(query)),
				zap.Error(ErrDimensionMismatch))
			return nil
		}
		top.offer(id, Cosine(query, vec))
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("corpus scan failed: %w", err)
	}
	return top.results(), stats, nil
}

// RankRecords ranks an in-memory slice of records.
func (r *Ranker) RankRecords(ctx context.Context, query []float32, records []models.DocumentRecord, limit int) (models.RankedResultSet, RankStats, error) {
	return r.Rank(ctx, query, recordSlice(records), limit)
}

type recordSlice []models.DocumentRecord

func (s recordSlice) ForEach(ctx context.Context, visit func(id string, vec []float32) error) error {
	for _, rec := range s {
		if err := visit(rec.ID, rec.Embedding); err != nil {
			return err
		}
	}
	return nil
}

type topN interface {
	offer(id string, similarity float64)
	results() models.RankedResultSet
}

// bufferTop keeps candidates sorted descending. Insertion goes after every entry with
// greater or equal similarity, which matches push-then-stable-sort.
type bufferTop struct {
	limit int
	buf   models.RankedResultSet
}

func newBufferTop(limit int) *bufferTop {
	b := &bufferTop{limit: limit}
	if limit > 0 {
		b.buf = make(models.RankedResultSet, 0, limit)
	}
	return b
}

func (b *bufferTop) offer(id string, similarity float64) {
	if b.limit > 0 && len(b.buf) >= b.limit {
		if similarity <= b.buf[len(b.buf)-1].Similarity {
			return
		}
		b.buf = b.buf[:len(b.buf)-1]
	}
	i := sort.Search(len(b.buf), func(i int) bool { return b.buf[i].Similarity < similarity })
	b.buf = append(b.buf, models.ScoredCandidate{})
	copy(b.buf[i+1:], b.buf[i:])
	b.buf[i] = models.ScoredCandidate{ID: id, Similarity: similarity}
}

func (b *bufferTop) results() models.RankedResultSet {
	if b.buf == nil {
		return models.RankedResultSet{}
	}
	return b.buf
}
