package keyword

import (
	"context"
	"testing"

	"github.com/hyperjump/semmap/internal/models"
)

var points = []models.LayoutPoint{
	{Slug: "guide/installation", Title: "Installation Guide"},
	{Slug: "guide/configuration", Title: "Configuring the Server"},
	{Slug: "concepts/embeddings", Title: "How Embeddings Work"},
	{Slug: "faq", Title: "Frequently Asked Questions"},
}

func newIndex(t *testing.T) *TitleIndex {
	t.Helper()
	idx, err := NewTitleIndex(points)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func slugs(s []Suggestion) []string {
	out := make([]string, len(s))
	for i, x := range s {
		out[i] = x.Slug
	}
	return out
}

func TestTitleIndex_Suggest(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"prefix", "inst", "guide/installation"},
		{"case insensitive", "EMBED", "concepts/embeddings"},
		{"typo", "embedings", "concepts/embeddings"},
		{"all words must match", "configuring serv", "guide/configuration"},
		{"stop words ignored", "the server", "guide/configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Suggest(ctx, tt.query, 5)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) == 0 || got[0].Slug != tt.want {
				t.Errorf("Suggest(%q) = %v, want %s first", tt.query, slugs(got), tt.want)
			}
		})
	}
}

func TestTitleIndex_SuggestFields(t *testing.T) {
	got, err := newIndex(t).Suggest(context.Background(), "freq", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "Frequently Asked Questions" || got[0].Score <= 0 {
		t.Errorf("Suggest = %+v", got)
	}
}

func TestTitleIndex_NoMatch(t *testing.T) {
	idx := newIndex(t)
	for _, q := range []string{"", "   ", "zzzz qqqq"} {
		got, err := idx.Suggest(context.Background(), q, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("Suggest(%q) = %v, want none", q, slugs(got))
		}
	}
}

func TestTitleIndex_Replace(t *testing.T) {
	idx := newIndex(t)
	if err := idx.Replace([]models.LayoutPoint{{Slug: "new", Title: "Brand New Page"}}); err != nil {
		t.Fatal(err)
	}
	n, _ := idx.DocCount()
	if n != 1 {
		t.Errorf("DocCount = %d, want 1", n)
	}
	got, _ := idx.Suggest(context.Background(), "inst", 5)
	if len(got) != 0 {
		t.Errorf("old titles still suggested: %v", slugs(got))
	}
}

func TestTitleIndex_Correct(t *testing.T) {
	idx := newIndex(t)
	got, ok := idx.Correct("instalation gide")
	if !ok || got != "installation guide" {
		t.Errorf("Correct = %q, %v", got, ok)
	}
	if got, ok := idx.Correct("embeddings"); ok || got != "embeddings" {
		t.Errorf("Correct on known term = %q, %v", got, ok)
	}
}

func TestTitleIndex_Closed(t *testing.T) {
	idx, _ := NewTitleIndex(points)
	idx.Close()
	if _, err := idx.Suggest(context.Background(), "inst", 5); err == nil {
		t.Error("expected error after Close")
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "ab", 2},
		{"kitten", "sitting", 3},
		{"guide", "gide", 1},
		{"form", "from", 1},
		{"über", "uber", 1},
	}
	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
