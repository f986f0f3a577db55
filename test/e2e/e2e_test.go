package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/semmap/internal/config"
	"github.com/hyperjump/semmap/internal/embedding"
	"github.com/hyperjump/semmap/internal/indexer"
	"github.com/hyperjump/semmap/internal/models"
	"github.com/hyperjump/semmap/internal/search"
	"github.com/hyperjump/semmap/internal/server"
	"github.com/hyperjump/semmap/internal/snapshot"
	"github.com/hyperjump/semmap/internal/storage"
)

const (
	e2eDimensions = 384
	e2ePages      = 100
)

type site struct {
	corpus     *Corpus
	embeddings string
	layout     string
}

// buildSite writes the corpus, builds it, and stores the snapshot files.
func buildSite(t *testing.T) *site {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	c := BuildCorpus(e2ePages)
	if err := c.WriteTree(docs); err != nil {
		t.Fatal(err)
	}

	res, err := indexer.NewBuilder(docs, embedding.NewMockEmbedder(e2eDimensions)).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Records) != e2ePages {
		t.Fatalf("built %d records, want %d", len(res.Records), e2ePages)
	}

	s := &site{
		corpus:     c,
		embeddings: filepath.Join(dir, snapshot.EmbeddingsFile),
		layout:     filepath.Join(dir, snapshot.LayoutFile),
	}
	if err := snapshot.WriteEmbeddings(s.embeddings, res.Records); err != nil {
		t.Fatal(err)
	}
	if err := snapshot.WriteLayout(s.layout, res.Layout); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestE2E_SearchReturnsCorrectResults(t *testing.T) {
	s := buildSite(t)
	dir := t.TempDir()
	stores := []config.StorageConfig{
		{Type: string(storage.StoreTypeMemory)},
		{Type: string(storage.StoreTypeSQLite), DatabasePath: filepath.Join(dir, "semmap.db")},
		{Type: string(storage.StoreTypeBolt), BoltPath: filepath.Join(dir, "semmap.bolt")},
	}

	for _, sc := range stores {
		t.Run(sc.Type, func(t *testing.T) {
			store, err := storage.NewEmbeddingStore(sc)
			if err != nil {
				t.Fatal(err)
			}
			defer store.Close()

			engine := search.NewEngine(store, embedding.NewMockEmbedder(e2eDimensions))
			ctx := context.Background()
			if err := engine.LoadSnapshot(ctx, s.embeddings); err != nil {
				t.Fatalf("LoadSnapshot: %v", err)
			}
			if engine.Count() != e2ePages {
				t.Fatalf("Count = %d, want %d", engine.Count(), e2ePages)
			}

			for _, tc := range s.corpus.TestCases {
				resp, err := engine.Search(ctx, &models.SearchRequest{Query: tc.Query, Limit: 5})
				if err != nil {
					t.Fatalf("%s: %v", tc.Description, err)
				}
				if len(resp.Results) == 0 || resp.Results[0].ID != tc.ExpectedSlug {
					t.Errorf("%s: got %v", tc.Description, resp.Results.IDs())
					continue
				}
				if got := resp.Intensities[tc.ExpectedSlug]; got != search.DefaultScale.Ceil {
					t.Errorf("%s: intensity = %v, want %v", tc.Description, got, search.DefaultScale.Ceil)
				}
				if len(resp.Intensities) != e2ePages {
					t.Errorf("%s: %d intensities, want %d", tc.Description, len(resp.Intensities), e2ePages)
				}
			}
		})
	}
}

func TestE2E_ResumeFromPersistentStore(t *testing.T) {
	s := buildSite(t)
	cfg := config.StorageConfig{Type: string(storage.StoreTypeSQLite), DatabasePath: filepath.Join(t.TempDir(), "semmap.db")}
	ctx := context.Background()

	store, err := storage.NewEmbeddingStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := search.NewEngine(store, embedding.NewMockEmbedder(e2eDimensions)).LoadSnapshot(ctx, s.embeddings); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store, err = storage.NewEmbeddingStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	engine := search.NewEngine(store, embedding.NewMockEmbedder(e2eDimensions))
	ok, err := engine.Resume(ctx)
	if err != nil || !ok {
		t.Fatalf("Resume = %v, %v", ok, err)
	}
	tc := s.corpus.TestCases[0]
	resp, err := engine.Search(ctx, &models.SearchRequest{Query: tc.Query, Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != tc.ExpectedSlug {
		t.Errorf("%s: got %v", tc.Description, resp.Results.IDs())
	}
}

func TestE2E_HTTPServer(t *testing.T) {
	s := buildSite(t)
	ctx := context.Background()
	engine := search.NewEngine(storage.NewMemoryStore(), embedding.NewMockEmbedder(e2eDimensions))
	if err := engine.LoadSnapshot(ctx, s.embeddings); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	srv := server.NewServer(engine, cfg, nil)
	defer srv.Close()
	if err := srv.LoadLayout(ctx, s.layout); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("search", func(t *testing.T) {
		for _, tc := range s.corpus.TestCases[:10] {
			body, _ := json.Marshal(models.SearchRequest{Query: tc.Query, Limit: 3})
			req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/search", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(server.SessionHeader, "e2e")
			res, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			var resp models.SearchResponse
			err = json.NewDecoder(res.Body).Decode(&resp)
			res.Body.Close()
			if err != nil {
				t.Fatal(err)
			}
			if res.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", res.StatusCode)
			}
			if len(resp.Results) == 0 || resp.Results[0].ID != tc.ExpectedSlug {
				t.Errorf("%s: got %v", tc.Description, resp.Results.IDs())
			}
		}
	})

	t.Run("layout", func(t *testing.T) {
		res, err := http.Get(ts.URL + "/api/v1/layout")
		if err != nil {
			t.Fatal(err)
		}
		defer res.Body.Close()
		var points []models.LayoutPoint
		if err := json.NewDecoder(res.Body).Decode(&points); err != nil {
			t.Fatal(err)
		}
		if len(points) != e2ePages {
			t.Fatalf("layout has %d points, want %d", len(points), e2ePages)
		}
		if points[0].Slug != s.corpus.Pages[0].Slug || points[0].Title != s.corpus.Pages[0].Title {
			t.Errorf("points[0] = %+v", points[0])
		}
	})

	t.Run("map", func(t *testing.T) {
		tc := s.corpus.TestCases[3]
		res, err := http.Get(ts.URL + "/api/v1/map.svg?q=" + url.QueryEscape(tc.Query))
		if err != nil {
			t.Fatal(err)
		}
		defer res.Body.Close()
		svg, err := io.ReadAll(res.Body)
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.Count(string(svg), "<circle"); got != e2ePages {
			t.Errorf("map has %d dots, want %d", got, e2ePages)
		}
		want := `opacity="1" data-slug="` + tc.ExpectedSlug + `"`
		if !strings.Contains(string(svg), want) {
			t.Errorf("map missing %s", want)
		}
	})
}
