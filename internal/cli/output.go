// Package cli provides output formatting and progress reporting for the semmap CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/semmap/internal/keyword"
	"github.com/hyperjump/semmap/internal/models"
	"github.com/hyperjump/semmap/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const maxTitleLen = 60

// ParseFormat validates a format name. Empty selects OutputText.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes a search response in the given format. titles maps slugs to
// page titles for display and may be nil.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, titles map[string]string, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%.4f\t%s\t%s\n", r.Similarity, r.ID, utils.Truncate(titles[r.ID], maxTitleLen))
		}
		return nil
	default:
		writeSearchResultsText(w, response, titles)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse, titles map[string]string) {
	fmt.Fprintf(w, "\nFound %d results in %dms (%d documents scanned", len(response.Results), response.QueryTime, response.Total)
	if response.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped", response.Skipped)
	}
	fmt.Fprint(w, ")\n\n")
	for i, r := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Similarity: %.4f | Intensity: %.2f\n", i+1, r.Similarity, response.Intensities[r.ID])
		fmt.Fprintf(w, "ID: %s\n", r.ID)
		if t := titles[r.ID]; t != "" {
			fmt.Fprintf(w, "Title: %s\n", t)
		}
		fmt.Fprintln(w)
	}
}

// WriteSuggestions writes title suggestions in the given format.
func WriteSuggestions(w io.Writer, query string, suggestions []keyword.Suggestion, didYouMean string, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, map[string]any{
			"query":        query,
			"suggestions":  suggestions,
			"did_you_mean": didYouMean,
		})
	}
	if didYouMean != "" && format == OutputText {
		fmt.Fprintf(w, "Did you mean: %s\n", didYouMean)
	}
	for _, s := range suggestions {
		fmt.Fprintf(w, "%s\t%s\n", s.Slug, utils.Truncate(s.Title, maxTitleLen))
	}
	return nil
}

// WriteIntensities writes an intensity map, brightest first, limited to top entries
// when top > 0.
func WriteIntensities(w io.Writer, intensities map[string]float64, top int) {
	ids := make([]string, 0, len(intensities))
	for id := range intensities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := intensities[ids[i]], intensities[ids[j]]
		if a != b {
			return a > b
		}
		return ids[i] < ids[j]
	})
	if top > 0 && len(ids) > top {
		ids = ids[:top]
	}
	for _, id := range ids {
		fmt.Fprintf(w, "%.2f  %s\n", intensities[id], id)
	}
}

// IntensityPrinter is a search sink that prints each applied intensity map.
type IntensityPrinter struct {
	W   io.Writer
	Top int
}

// Apply prints intensities followed by a separator line.
func (p *IntensityPrinter) Apply(intensities map[string]float64) {
	WriteIntensities(p.W, intensities, p.Top)
	fmt.Fprintln(p.W, "--")
}
