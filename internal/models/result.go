package models

// ScoredCandidate is a document with its cosine similarity to the query (-1..1).
type ScoredCandidate struct {
	ID         string  `json:"doc_id"`
	Similarity float64 `json:"similarity"`
}

// RankedResultSet is ordered by similarity descending and bounded by the ranking limit.
type RankedResultSet []ScoredCandidate

// IDs returns the document IDs in rank order.
func (r RankedResultSet) IDs() []string {
	ids := make([]string, len(r))
	for i, c := range r {
		ids[i] = c.ID
	}
	return ids
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results RankedResultSet `json:"results"`
	// Intensities maps every known document ID to its display intensity (0.1..1.0).
	Intensities map[string]float64 `json:"intensities"`
	Total       int                `json:"total"`
	// Skipped counts corpus records ignored because of a dimension mismatch.
	Skipped   int    `json:"skipped,omitempty"`
	Sequence  uint64 `json:"sequence"`
	QueryTime int64  `json:"query_time_ms"`
}
