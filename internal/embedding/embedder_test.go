package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/hyperjump/semmap/internal/config"
	"github.com/hyperjump/semmap/internal/vector"
)

func TestMockEmbedder(t *testing.T) {
	ctx := context.Background()
	e := NewMockEmbedder(64)

	a, err := e.Embed(ctx, "The cat sat")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	if n := vector.L2Norm(a); math.Abs(n-1) > 1e-6 {
		t.Errorf("norm = %v, want 1", n)
	}

	again, _ := e.Embed(ctx, "the CAT sat")
	if vector.Cosine(a, again) < 0.9999 {
		t.Error("embedding should ignore case")
	}
	related, _ := e.Embed(ctx, "a cat")
	unrelated, _ := e.Embed(ctx, "quantum chromodynamics")
	if vector.Cosine(a, related) <= vector.Cosine(a, unrelated) {
		t.Error("texts sharing words should be closer")
	}

	empty, _ := e.Embed(ctx, "  ")
	if vector.L2Norm(empty) != 0 {
		t.Errorf("empty text should embed to zero vector, got %v", empty)
	}
}

func TestMockEmbedder_DefaultDimensions(t *testing.T) {
	if d := NewMockEmbedder(0).Dimensions(); d != 384 {
		t.Errorf("Dimensions() = %d, want 384", d)
	}
}

func TestMockEmbedder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockEmbedder(8).Embed(ctx, "x"); err == nil {
		t.Error("expected context error")
	}
}

func TestNew(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: "mock", Dimensions: 16, CacheSize: 5}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if _, ok := e.(*CachedEmbedder); !ok {
		t.Errorf("New with cache size returned %T", e)
	}
	if e.Dimensions() != 16 {
		t.Errorf("Dimensions() = %d", e.Dimensions())
	}

	e, err = New(config.EmbeddingConfig{Provider: "mock", Dimensions: 16}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*MockEmbedder); !ok {
		t.Errorf("New without cache returned %T", e)
	}

	if _, err := New(config.EmbeddingConfig{Provider: "word2vec"}, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := New(config.EmbeddingConfig{Provider: "http", Dimensions: 3}, nil); err == nil {
		t.Error("expected error for http provider without base_url")
	}
}

func TestMeanPool(t *testing.T) {
	hidden := []float32{
		1, 2,
		3, 4,
		100, 100,
	}
	got := MeanPool(hidden, []int64{1, 1, 0}, 2)
	if got[0] != 2 || got[1] != 3 {
		t.Errorf("MeanPool = %v, want [2 3]", got)
	}
	zero := MeanPool(hidden, []int64{0, 0, 0}, 2)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("MeanPool with empty mask = %v", zero)
	}
}
