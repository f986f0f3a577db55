package vector

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/hyperjump/semmap/internal/models"
)

func records(pairs ...interface{}) []models.DocumentRecord {
	out := make([]models.DocumentRecord, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, models.DocumentRecord{ID: pairs[i].(string), Embedding: pairs[i+1].([]float32)})
	}
	return out
}

func bothStrategies(t *testing.T, fn func(t *testing.T, r *Ranker)) {
	for _, s := range []Strategy{StrategyBuffer, StrategyHeap} {
		t.Run(string(s), func(t *testing.T) {
			fn(t, NewRanker(WithStrategy(s)))
		})
	}
}

func TestRanker_TopTwoWithTie(t *testing.T) {
	corpus := records(
		"a", []float32{1, 0},
		"b", []float32{0, 1},
		"c", []float32{1, 0},
	)
	bothStrategies(t, func(t *testing.T, r *Ranker) {
		got, stats, err := r.RankRecords(context.Background(), []float32{1, 0}, corpus, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2: %v", len(got), got)
		}
		ids := map[string]bool{got[0].ID: true, got[1].ID: true}
		if !ids["a"] || !ids["c"] || ids["b"] {
			t.Errorf("results = %v, want a and c", got)
		}
		for _, c := range got {
			if c.Similarity != 1 {
				t.Errorf("%s similarity = %v, want 1", c.ID, c.Similarity)
			}
		}
		if stats.Scanned != 3 || stats.Skipped != 0 {
			t.Errorf("stats = %+v", stats)
		}
	})
}

func TestRanker_DimensionMismatchSkipped(t *testing.T) {
	corpus := records(
		"a", []float32{1, 0},
		"bad", []float32{1, 0, 0},
		"b", []float32{0.5, 0.5},
	)
	bothStrategies(t, func(t *testing.T, r *Ranker) {
		got, stats, err := r.RankRecords(context.Background(), []float32{1, 0}, corpus, 0)
		if err != nil {
			t.Fatalf("mismatch must not fail the scan: %v", err)
		}
		if stats.Skipped != 1 {
			t.Errorf("Skipped = %d, want 1", stats.Skipped)
		}
		if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
			t.Errorf("results = %v", got)
		}
	})
}

func TestRanker_EmptyCorpus(t *testing.T) {
	bothStrategies(t, func(t *testing.T, r *Ranker) {
		got, _, err := r.RankRecords(context.Background(), []float32{1, 0}, nil, 5)
		if err != nil {
			t.Fatalf("empty corpus should not error: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("want empty non-nil result, got %#v", got)
		}
	})
}

func TestRanker_EmptyQuery(t *testing.T) {
	r := NewRanker()
	got, _, err := r.RankRecords(context.Background(), nil, records("a", []float32{1}), 5)
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("err = %v, want ErrEmptyQuery", err)
	}
	if len(got) != 0 {
		t.Errorf("want empty result, got %v", got)
	}
}

func TestRanker_ZeroMagnitudeScoresZero(t *testing.T) {
	corpus := records("zero", []float32{0, 0}, "x", []float32{-1, 0})
	got, _, err := NewRanker().RankRecords(context.Background(), []float32{1, 0}, corpus, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "zero" || got[0].Similarity != 0 {
		t.Errorf("zero vector should rank first with 0, got %v", got)
	}
	if got[1].Similarity != -1 {
		t.Errorf("opposite vector similarity = %v, want -1", got[1].Similarity)
	}
}

func TestRanker_StableTiesKeepScanOrder(t *testing.T) {
	corpus := records(
		"first", []float32{1, 0},
		"second", []float32{2, 0},
		"third", []float32{3, 0},
	)
	bothStrategies(t, func(t *testing.T, r *Ranker) {
		got, _, err := r.RankRecords(context.Background(), []float32{1, 0}, corpus, 2)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"first", "second"}
		if !reflect.DeepEqual(got.IDs(), want) {
			t.Errorf("ids = %v, want %v", got.IDs(), want)
		}
	})
}

func TestRanker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewRanker().RankRecords(ctx, []float32{1}, records("a", []float32{1}), 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRanker_SortedBoundedAndStrategiesAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const dims = 8
	corpus := make([]models.DocumentRecord, 300)
	for i := range corpus {
		v := make([]float32, dims)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		corpus[i] = models.DocumentRecord{ID: fmt.Sprintf("doc-%d", i), Embedding: v}
	}
	query := make([]float32, dims)
	for j := range query {
		query[j] = float32(rng.NormFloat64())
	}
	ctx := context.Background()
	for _, limit := range []int{1, 5, 50, 299, 300, 1000, 0} {
		buf, _, err := NewRanker(WithStrategy(StrategyBuffer)).RankRecords(ctx, query, corpus, limit)
		if err != nil {
			t.Fatal(err)
		}
		hp, _, err := NewRanker(WithStrategy(StrategyHeap)).RankRecords(ctx, query, corpus, limit)
		if err != nil {
			t.Fatal(err)
		}
		wantLen := limit
		if limit <= 0 || limit > len(corpus) {
			wantLen = len(corpus)
		}
		if len(buf) != wantLen {
			t.Errorf("limit %d: len = %d, want %d", limit, len(buf), wantLen)
		}
		for i := 1; i < len(buf); i++ {
			if buf[i].Similarity > buf[i-1].Similarity {
				t.Fatalf("limit %d: not sorted at %d", limit, i)
			}
		}
		if !reflect.DeepEqual(buf, hp) {
			t.Errorf("limit %d: buffer and heap strategies disagree", limit)
		}
		again, _, _ := NewRanker().RankRecords(ctx, query, corpus, limit)
		if !reflect.DeepEqual(buf, again) {
			t.Errorf("limit %d: ranking is not idempotent", limit)
		}
	}
}

func TestRanker_DoesNotMutateCorpus(t *testing.T) {
	corpus := records("a", []float32{3, 4}, "b", []float32{1, 0})
	_, _, _ = NewRanker().RankRecords(context.Background(), []float32{1, 0}, corpus, 1)
	if corpus[0].Embedding[0] != 3 || corpus[0].Embedding[1] != 4 {
		t.Errorf("corpus mutated: %v", corpus[0].Embedding)
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy(""); err != nil || s != StrategyBuffer {
		t.Errorf("ParseStrategy(\"\") = %v, %v", s, err)
	}
	if s, err := ParseStrategy("heap"); err != nil || s != StrategyHeap {
		t.Errorf("ParseStrategy(heap) = %v, %v", s, err)
	}
	if _, err := ParseStrategy("hnsw"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
