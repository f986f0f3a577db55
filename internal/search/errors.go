package search

import "errors"

var (
	// ErrStoreNotReady is returned when a query arrives before the first snapshot load
	// completes and the caller stops waiting.
	ErrStoreNotReady = errors.New("embedding store not ready")
	// ErrEmbeddingSource wraps any failure of the query embedder.
	ErrEmbeddingSource = errors.New("embedding source failed")
	// ErrSuperseded is returned for a query whose result was discarded because a newer
	// query started while it was being embedded.
	ErrSuperseded = errors.New("query superseded by a newer one")
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid search request")
)
