// Package keyword provides title lookups over the map layout: prefix and typo-tolerant
// suggestions backed by an in-memory Bleve index.
package keyword

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/semmap/internal/models"
)

// Suggestion is a document whose title matches the typed text.
type Suggestion struct {
	Slug  string  `json:"slug"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

type titleDoc struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// TitleIndex answers title suggestions for the documents on the map.
type TitleIndex struct {
	mu      sync.RWMutex
	index   bleve.Index
	mapping mapping.IndexMapping
	terms   []string
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	doc.AddFieldMappingsAt("title", title)
	doc.AddFieldMappingsAt("slug", bleve.NewKeywordFieldMapping())
	im.DefaultMapping = doc
	return im
}

// NewTitleIndex indexes the given layout points.
func NewTitleIndex(points []models.LayoutPoint) (*TitleIndex, error) {
	t := &TitleIndex{}
	if err := t.Replace(points); err != nil {
		return nil, err
	}
	return t, nil
}

// Replace rebuilds the index from points.
func (t *TitleIndex) Replace(points []models.LayoutPoint) error {
	idx, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return fmt.Errorf("failed to create title index: %w", err)
	}
	batch := idx.NewBatch()
	for _, p := range points {
		if err := batch.Index(p.Slug, titleDoc{Slug: p.Slug, Title: p.Title}); err != nil {
			idx.Close()
			return fmt.Errorf("failed to index %s: %w", p.Slug, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return fmt.Errorf("failed to index titles: %w", err)
	}
	terms, err := fieldTerms(idx, "title")
	if err != nil {
		idx.Close()
		return err
	}

	t.mu.Lock()
	old := t.index
	t.index = idx
	t.mapping = idx.Mapping()
	t.terms = terms
	t.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

func fieldTerms(idx bleve.Index, field string) ([]string, error) {
	dict, err := idx.FieldDict(field)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s terms: %w", field, err)
	}
	defer dict.Close()
	var terms []string
	for {
		entry, err := dict.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return terms, nil
		}
		terms = append(terms, entry.Term)
	}
}

// Suggest returns up to limit documents whose titles contain every typed word as a
// prefix or within a small edit distance. The last word is treated as still being typed.
func (t *TitleIndex) Suggest(ctx context.Context, text string, limit int) ([]Suggestion, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.index == nil {
		return nil, fmt.Errorf("title index is closed")
	}
	terms := t.tokenize(text)
	if len(terms) == 0 {
		return []Suggestion{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	conj := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		prefix := bleve.NewPrefixQuery(term)
		prefix.SetField("title")
		prefix.SetBoost(2)
		alts := []blevequery.Query{prefix}
		if n := len([]rune(term)); n >= 4 {
			fuzzy := bleve.NewFuzzyQuery(term)
			fuzzy.SetField("title")
			fuzzy.SetFuzziness(fuzziness(n))
			alts = append(alts, fuzzy)
		}
		conj = append(conj, bleve.NewDisjunctionQuery(alts...))
	}
	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(conj...), limit, 0, false)
	req.Fields = []string{"title"}

	res, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("title search failed: %w", err)
	}
	out := make([]Suggestion, 0, len(res.Hits))
	for _, hit := range res.Hits {
		title, _ := hit.Fields["title"].(string)
		out = append(out, Suggestion{Slug: hit.ID, Title: title, Score: hit.Score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// Correct replaces each word of text that is not a title term with the closest
// title term, if one is within edit distance. It returns text unchanged when no
// word needs correcting.
func (t *TitleIndex) Correct(text string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	known := make(map[string]struct{}, len(t.terms))
	for _, term := range t.terms {
		known[term] = struct{}{}
	}
	words := t.tokenize(text)
	changed := false
	for i, w := range words {
		if _, ok := known[w]; ok || len([]rune(w)) < 4 {
			continue
		}
		best, bestDist := "", fuzziness(len([]rune(w)))+1
		for _, term := range t.terms {
			if d := editDistance(w, term); d < bestDist {
				best, bestDist = term, d
			}
		}
		if best != "" {
			words[i] = best
			changed = true
		}
	}
	if !changed {
		return text, false
	}
	return strings.Join(words, " "), true
}

// DocCount returns the number of indexed titles.
func (t *TitleIndex) DocCount() (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.index == nil {
		return 0, nil
	}
	return t.index.DocCount()
}

// Close releases the index.
func (t *TitleIndex) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.index == nil {
		return nil
	}
	err := t.index.Close()
	t.index = nil
	return err
}

// fuzziness allows one edit for short words and two for long ones.
func fuzziness(runes int) int {
	if runes >= 8 {
		return 2
	}
	return 1
}

// tokenize runs text through the title analyzer: lowercased words without stop words.
func (t *TitleIndex) tokenize(text string) []string {
	if t.mapping == nil {
		return strings.Fields(strings.ToLower(text))
	}
	tokens, err := t.mapping.(*mapping.IndexMappingImpl).AnalyzeText(standard.Name, []byte(text))
	if err != nil {
		return strings.Fields(strings.ToLower(text))
	}
	var out []string
	for _, tok := range tokens {
		out = append(out, string(tok.Term))
	}
	return out
}
