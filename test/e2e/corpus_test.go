package e2e

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/semmap/internal/indexer"
)

func TestBuildCorpus_Returns100Pages(t *testing.T) {
	c := BuildCorpus(100)
	if len(c.Pages) != 100 {
		t.Errorf("expected 100 pages, got %d", len(c.Pages))
	}
	if len(c.TestCases) != 100 {
		t.Errorf("expected 100 test cases, got %d", len(c.TestCases))
	}
	if got := len(BuildCorpus(1000).Pages); got != len(topics) {
		t.Errorf("oversized corpus has %d pages, want %d", got, len(topics))
	}
}

func TestBuildCorpus_UniqueSlugs(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range BuildCorpus(100).Pages {
		if seen[p.Slug] {
			t.Errorf("duplicate slug %q", p.Slug)
		}
		seen[p.Slug] = true
	}
}

func TestBuildCorpus_ExpectedPagesContainQueryPhrase(t *testing.T) {
	c := BuildCorpus(100)
	bySlug := make(map[string]Page)
	for _, p := range c.Pages {
		bySlug[p.Slug] = p
	}
	for _, tc := range c.TestCases {
		p, ok := bySlug[tc.ExpectedSlug]
		if !ok {
			t.Errorf("expected slug %q not in corpus", tc.ExpectedSlug)
			continue
		}
		if !containsPhrase(p, tc.Query) {
			t.Errorf("page %q (title=%q) does not contain query phrase %q", p.Slug, p.Title, tc.Query)
		}
	}
}

func TestPage_MarkdownRoundTrip(t *testing.T) {
	for _, p := range BuildCorpus(100).Pages {
		page, err := indexer.ParseMarkdown([]byte(p.Markdown()))
		if err != nil {
			t.Fatalf("%s: %v", p.Slug, err)
		}
		if page.Title != p.Title {
			t.Errorf("%s: title = %q, want %q", p.Slug, page.Title, p.Title)
		}
	}
}

func TestCorpus_WriteTree(t *testing.T) {
	root := t.TempDir()
	c := BuildCorpus(8)
	if err := c.WriteTree(root); err != nil {
		t.Fatal(err)
	}
	for _, p := range c.Pages {
		if _, err := os.Stat(filepath.Join(root, p.Path)); err != nil {
			t.Errorf("missing %s: %v", p.Path, err)
		}
	}
}

func TestContainsPhrase(t *testing.T) {
	tests := []struct {
		page    Page
		phrase  string
		contain bool
	}{
		{Page{Topic: Topic{Title: "Go", Content: "Go golang concurrency"}}, "golang", true},
		{Page{Topic: Topic{Title: "Go", Content: "Go golang concurrency"}}, "Rust", false},
		{Page{Topic: Topic{Title: "Python programming", Content: "Python is great"}}, "Python programming", true},
	}
	for i, tt := range tests {
		if got := containsPhrase(tt.page, tt.phrase); got != tt.contain {
			t.Errorf("test %d: containsPhrase(%q) = %v, want %v", i, tt.phrase, got, tt.contain)
		}
	}
}
