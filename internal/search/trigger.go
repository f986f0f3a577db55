package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/semmap/internal/models"
)

// DefaultDebounce is the quiet period after the last keystroke before a query runs.
const DefaultDebounce = 300 * time.Millisecond

// Sink receives intensity maps for display. Apply may be called from multiple goroutines.
type Sink interface {
	Apply(intensities map[string]float64)
}

// Searcher is the part of Engine a Trigger needs.
type Searcher interface {
	Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error)
	Clear() map[string]float64
}

// Trigger debounces raw query input and pushes the resulting intensities to a Sink.
// Only the most recent input within the debounce window runs, and only the result of
// the most recent input reaches the sink.
type Trigger struct {
	searcher Searcher
	sink     Sink
	delay    time.Duration
	limit    int
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	timer      *time.Timer
	pending    string
	hasPending bool
	gen        uint64
	stopped    bool

	applyMu sync.Mutex
}

// TriggerOption configures a Trigger.
type TriggerOption func(*Trigger)

// WithDebounce sets the debounce delay. Non-positive values keep the default.
func WithDebounce(d time.Duration) TriggerOption {
	return func(t *Trigger) {
		if d > 0 {
			t.delay = d
		}
	}
}

// WithTriggerLimit sets the result limit for triggered searches.
func WithTriggerLimit(n int) TriggerOption {
	return func(t *Trigger) { t.limit = n }
}

// WithTriggerLogger sets the logger for failed searches.
func WithTriggerLogger(l *zap.Logger) TriggerOption {
	return func(t *Trigger) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTrigger creates a trigger feeding sink from searcher.
func NewTrigger(searcher Searcher, sink Sink, opts ...TriggerOption) *Trigger {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Trigger{
		searcher: searcher,
		sink:     sink,
		delay:    DefaultDebounce,
		logger:   zap.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Input records the current query text and restarts the debounce timer.
func (t *Trigger) Input(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	t.pending, t.hasPending = text, true
	t.timer = time.AfterFunc(t.delay, func() {
		if text, gen, ok := t.take(); ok {
			defer t.wg.Done()
			t.fire(text, gen)
		}
	})
}

// take claims the pending input and its generation. On success the caller owns one
// wg slot.
func (t *Trigger) take() (string, uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || !t.hasPending {
		return "", 0, false
	}
	text := t.pending
	t.pending, t.hasPending = "", false
	t.wg.Add(1)
	return text, t.gen, true
}

// Flush runs pending input immediately and waits until every started search has
// reached the sink. It must not be called concurrently with Input.
func (t *Trigger) Flush() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()
	if text, gen, ok := t.take(); ok {
		t.fire(text, gen)
		t.wg.Done()
	}
	t.wg.Wait()
}

// fire runs text through the searcher. Blank text is searched too, so it supersedes
// any older query still in flight.
func (t *Trigger) fire(text string, gen uint64) {
	resp, err := t.searcher.Search(t.ctx, &models.SearchRequest{Query: text, Limit: t.limit})
	switch {
	case errors.Is(err, ErrSuperseded):
		return
	case err != nil:
		if t.ctx.Err() != nil {
			return
		}
		t.logger.Warn("search failed", zap.String("query", text), zap.Error(err))
		t.apply(gen, t.searcher.Clear())
	default:
		t.apply(gen, resp.Intensities)
	}
}

// apply hands m to the sink unless a newer input has arrived since gen.
func (t *Trigger) apply(gen uint64, m map[string]float64) {
	t.applyMu.Lock()
	defer t.applyMu.Unlock()
	t.mu.Lock()
	current := t.gen == gen
	t.mu.Unlock()
	if current {
		t.sink.Apply(m)
	}
}

// Stop drops any pending input, cancels in-flight searches and waits for them to return.
func (t *Trigger) Stop() {
	t.mu.Lock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()
	t.cancel()
	t.wg.Wait()
}
