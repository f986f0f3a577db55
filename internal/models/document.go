// Package models defines core data structures for document embeddings, layout points, and search results.
package models

// DocumentRecord is one stored document embedding. Records are created once at bulk-load
// time from a snapshot and are never mutated afterwards.
type DocumentRecord struct {
	ID        string    `json:"doc_id"`
	Embedding []float32 `json:"embedding"`
}

// LayoutPoint is the 2D position of a document produced by the external layout pipeline.
type LayoutPoint struct {
	Slug  string  `json:"slug"`
	Title string  `json:"title"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}
