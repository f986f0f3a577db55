package search

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/semmap/internal/models"
	"github.com/hyperjump/semmap/internal/storage"
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, req.Query)
	if strings.TrimSpace(req.Query) == "" {
		return &models.SearchResponse{Intensities: f.Clear()}, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.SearchResponse{Query: req.Query, Intensities: map[string]float64{req.Query: 0.5}}, nil
}

func (f *fakeSearcher) Clear() map[string]float64 {
	return map[string]float64{"all": 1.0}
}

func (f *fakeSearcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type chanSink chan map[string]float64

func (c chanSink) Apply(m map[string]float64) { c <- m }

func waitApply(t *testing.T, sink chanSink) map[string]float64 {
	t.Helper()
	select {
	case m := <-sink:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("sink not applied")
		return nil
	}
}

func TestTrigger_Debounces(t *testing.T) {
	s := &fakeSearcher{}
	sink := make(chanSink, 4)
	tr := NewTrigger(s, sink, WithDebounce(30*time.Millisecond))
	defer tr.Stop()

	tr.Input("s")
	tr.Input("se")
	tr.Input("sea")
	got := waitApply(t, sink)
	if got["sea"] != 0.5 {
		t.Errorf("applied %v", got)
	}
	time.Sleep(60 * time.Millisecond)
	if calls := s.calls(); len(calls) != 1 || calls[0] != "sea" {
		t.Errorf("searches = %v, want only the last input", calls)
	}
}

func TestTrigger_BlankClears(t *testing.T) {
	s := &fakeSearcher{}
	sink := make(chanSink, 1)
	tr := NewTrigger(s, sink, WithDebounce(time.Millisecond))
	defer tr.Stop()

	tr.Input("  ")
	if got := waitApply(t, sink); got["all"] != 1.0 {
		t.Errorf("applied %v, want cleared map", got)
	}
	if calls := s.calls(); len(calls) != 1 {
		t.Errorf("searches = %q, want the blank input searched once", calls)
	}
}

func TestTrigger_ErrorResetsSink(t *testing.T) {
	s := &fakeSearcher{err: ErrEmbeddingSource}
	sink := make(chanSink, 1)
	tr := NewTrigger(s, sink, WithDebounce(time.Millisecond))
	defer tr.Stop()

	tr.Input("q")
	if got := waitApply(t, sink); got["all"] != 1.0 {
		t.Errorf("applied %v, want cleared map", got)
	}
}

func TestTrigger_SupersededIgnored(t *testing.T) {
	s := &fakeSearcher{err: ErrSuperseded}
	sink := make(chanSink, 1)
	tr := NewTrigger(s, sink, WithDebounce(time.Millisecond))

	tr.Input("q")
	time.Sleep(50 * time.Millisecond)
	tr.Stop()
	select {
	case m := <-sink:
		t.Errorf("superseded search applied %v", m)
	default:
	}
	if len(s.calls()) != 1 {
		t.Errorf("searches = %v", s.calls())
	}
}

func TestTrigger_StopDropsPending(t *testing.T) {
	s := &fakeSearcher{}
	sink := make(chanSink, 1)
	tr := NewTrigger(s, sink, WithDebounce(50*time.Millisecond))
	tr.Input("q")
	tr.Stop()
	tr.Input("again")
	time.Sleep(100 * time.Millisecond)
	if len(s.calls()) != 0 {
		t.Errorf("searches after Stop = %v", s.calls())
	}
}

func TestTrigger_WithEngine(t *testing.T) {
	e := newTestEngine(t)
	sink := make(chanSink, 1)
	tr := NewTrigger(e, sink, WithDebounce(time.Millisecond), WithTriggerLimit(1))
	defer tr.Stop()

	tr.Input("polaris")
	got := waitApply(t, sink)
	if got["north"] != 1.0 || got["east"] != 0.1 {
		t.Errorf("applied %v", got)
	}
}

func TestTrigger_FlushRunsPending(t *testing.T) {
	s := &fakeSearcher{}
	sink := make(chanSink, 2)
	tr := NewTrigger(s, sink, WithDebounce(time.Hour))
	defer tr.Stop()

	tr.Input("first")
	tr.Input("last")
	tr.Flush()
	select {
	case got := <-sink:
		if got["last"] != 0.5 {
			t.Errorf("applied %v", got)
		}
	default:
		t.Fatal("Flush returned before the sink was applied")
	}
	tr.Flush()
	if calls := s.calls(); len(calls) != 1 {
		t.Errorf("searches = %v, want one", calls)
	}
}

// lastSink keeps the most recent intensities and counts applications.
type lastSink struct {
	mu   sync.Mutex
	last map[string]float64
	n    int
}

func (s *lastSink) Apply(m map[string]float64) {
	s.mu.Lock()
	s.last, s.n = m, s.n+1
	s.mu.Unlock()
}

func (s *lastSink) state() (map[string]float64, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.n
}

func (s *lastSink) waitApplied(t *testing.T, n int) map[string]float64 {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		last, got := s.state()
		if got >= n {
			return last
		}
		if time.Now().After(deadline) {
			t.Fatalf("sink applied %d times, want %d", got, n)
		}
		time.Sleep(time.Millisecond)
	}
}

func newHeldTrigger(t *testing.T) (*Trigger, *heldEmbedder, *lastSink) {
	t.Helper()
	h := newHeldEmbedder()
	e := NewEngine(storage.NewMemoryStore(), h)
	if err := e.Load(context.Background(), compass); err != nil {
		t.Fatal(err)
	}
	sink := &lastSink{}
	tr := NewTrigger(e, sink, WithDebounce(time.Millisecond))
	t.Cleanup(tr.Stop)
	return tr, h, sink
}

func TestTrigger_BlankInputDiscardsSlowerQuery(t *testing.T) {
	tr, h, sink := newHeldTrigger(t)

	tr.Input("slow")
	<-h.entered
	tr.Input("")
	cleared := sink.waitApplied(t, 1)
	for id, v := range cleared {
		if v != 1.0 {
			t.Errorf("cleared intensity[%s] = %v, want 1", id, v)
		}
	}

	close(h.release)
	tr.Flush()
	last, n := sink.state()
	if n != 1 {
		t.Errorf("sink applied %d times, want 1; last = %v", n, last)
	}
	if last["north"] != 1.0 || last["east"] != 1.0 {
		t.Errorf("older query changed the cleared map: %v", last)
	}
}

func TestTrigger_FailedOlderQueryKeepsNewerResult(t *testing.T) {
	tr, h, sink := newHeldTrigger(t)

	tr.Input("bad")
	<-h.entered
	tr.Input("polaris")
	got := sink.waitApplied(t, 1)
	if got["north"] != 1.0 || got["east"] != 0.1 {
		t.Fatalf("applied %v", got)
	}

	close(h.release)
	tr.Flush()
	last, n := sink.state()
	if n != 1 || last["east"] != 0.1 {
		t.Errorf("older failure reached the sink: applied %d times, last = %v", n, last)
	}
}

func TestTrigger_SlowOlderQueryKeepsNewerResult(t *testing.T) {
	tr, h, sink := newHeldTrigger(t)

	tr.Input("slow")
	<-h.entered
	tr.Input("polaris")
	sink.waitApplied(t, 1)

	close(h.release)
	tr.Flush()
	last, n := sink.state()
	if n != 1 || last["north"] != 1.0 || last["east"] != 0.1 {
		t.Errorf("older result reached the sink: applied %d times, last = %v", n, last)
	}
}
