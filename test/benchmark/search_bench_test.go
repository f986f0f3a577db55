package benchmark

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/hyperjump/semmap/internal/config"
	"github.com/hyperjump/semmap/internal/embedding"
	"github.com/hyperjump/semmap/internal/models"
	"github.com/hyperjump/semmap/internal/render"
	"github.com/hyperjump/semmap/internal/search"
	"github.com/hyperjump/semmap/internal/storage"
	"github.com/hyperjump/semmap/internal/vector"
)

const (
	benchDocs = 1000
	benchDims = 384
)

func corpus() []models.DocumentRecord {
	rng := rand.New(rand.NewSource(1))
	recs := make([]models.DocumentRecord, benchDocs)
	for i := range recs {
		v := make([]float32, benchDims)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		recs[i] = models.DocumentRecord{ID: fmt.Sprintf("doc-%04d", i), Embedding: v}
	}
	return recs
}

func benchmarkRank(b *testing.B, strategy vector.Strategy, limit int) {
	recs := corpus()
	query := recs[0].Embedding
	r := vector.NewRanker(vector.WithStrategy(strategy))
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = r.RankRecords(ctx, query, recs, limit)
	}
}

func BenchmarkRank_Buffer10(b *testing.B)  { benchmarkRank(b, vector.StrategyBuffer, 10) }
func BenchmarkRank_Heap10(b *testing.B)    { benchmarkRank(b, vector.StrategyHeap, 10) }
func BenchmarkRank_BufferAll(b *testing.B) { benchmarkRank(b, vector.StrategyBuffer, 0) }
func BenchmarkRank_HeapAll(b *testing.B)   { benchmarkRank(b, vector.StrategyHeap, 0) }

func BenchmarkCosine(b *testing.B) {
	recs := corpus()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = vector.Cosine(recs[0].Embedding, recs[1].Embedding)
	}
}

func BenchmarkEngineSearch(b *testing.B) {
	engine := search.NewEngine(storage.NewMemoryStore(), embedding.NewMockEmbedder(benchDims))
	ctx := context.Background()
	if err := engine.Load(ctx, corpus()); err != nil {
		b.Fatal(err)
	}
	req := &models.SearchRequest{Query: "benchmark query text", Limit: 10}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = engine.Search(ctx, req)
	}
}

func BenchmarkScaleMap(b *testing.B) {
	recs := corpus()
	ids := make([]string, len(recs))
	results := make(models.RankedResultSet, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
		results[i] = models.ScoredCandidate{ID: r.ID, Similarity: float64(len(recs)-i) / float64(len(recs))}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = search.DefaultScale.Map(results, ids)
	}
}

func BenchmarkWriteSVG(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	points := make([]models.LayoutPoint, benchDocs)
	for i := range points {
		points[i] = models.LayoutPoint{Slug: fmt.Sprintf("doc-%04d", i), Title: "Page", X: rng.Float64(), Y: rng.Float64()}
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	plot := render.NewPlot(cfg.Render)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = plot.WriteSVG(io.Discard, points, "doc-0000")
	}
}

func BenchmarkMockEmbedder_Embed(b *testing.B) {
	e := embedding.NewMockEmbedder(benchDims)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for embedding")
	}
}
