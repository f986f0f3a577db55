package models

import (
	"fmt"
	"strings"
)

// SearchRequest is a semantic map query. Limit 0 means the configured default.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Validate trims the query and rejects a negative limit. An empty query is valid and
// means "clear the filter".
func (q *SearchRequest) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Limit < 0 {
		return fmt.Errorf("limit cannot be negative: %d", q.Limit)
	}
	return nil
}

// IsEmpty reports whether the request carries no query text.
func (q *SearchRequest) IsEmpty() bool {
	return strings.TrimSpace(q.Query) == ""
}
