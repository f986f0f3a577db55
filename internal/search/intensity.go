package search

import "github.com/hyperjump/semmap/internal/models"

// Scale maps similarity scores onto display intensities between Floor and Ceil.
type Scale struct {
	Floor float64
	Ceil  float64
}

// DefaultScale keeps unmatched documents faintly visible.
var DefaultScale = Scale{Floor: 0.1, Ceil: 1.0}

// MapToIntensity applies DefaultScale.
func MapToIntensity(results models.RankedResultSet, knownIDs []string) map[string]float64 {
	return DefaultScale.Map(results, knownIDs)
}

// Map min-max normalizes the result similarities into [Floor, Ceil]. Known documents
// absent from results get Floor. With no results everything known gets Ceil, and when
// all results score the same they all get Ceil.
func (s Scale) Map(results models.RankedResultSet, knownIDs []string) map[string]float64 {
	if len(results) == 0 {
		return s.Reset(knownIDs)
	}
	out := make(map[string]float64, len(knownIDs)+len(results))
	for _, id := range knownIDs {
		out[id] = s.Floor
	}

	lo, hi := results[0].Similarity, results[0].Similarity
	for _, r := range results[1:] {
		lo = min(lo, r.Similarity)
		hi = max(hi, r.Similarity)
	}
	span := hi - lo
	for _, r := range results {
		if span == 0 {
			out[r.ID] = s.Ceil
			continue
		}
		out[r.ID] = s.Floor + (r.Similarity-lo)/span*(s.Ceil-s.Floor)
	}
	return out
}

// Reset returns the "no filter" state: every known document at Ceil.
func (s Scale) Reset(knownIDs []string) map[string]float64 {
	out := make(map[string]float64, len(knownIDs))
	for _, id := range knownIDs {
		out[id] = s.Ceil
	}
	return out
}
