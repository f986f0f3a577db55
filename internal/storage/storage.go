// Package storage defines the persistent embedding store and its implementations.
package storage

import (
	"context"

	"github.com/hyperjump/semmap/internal/models"
)

// EmbeddingStore holds the document embeddings of one snapshot. Records are written
// only by BulkLoad and Reset; readers get a sequential scan.
type EmbeddingStore interface {
	// BulkLoad stores records with put semantics: a record with an existing ID replaces it.
	BulkLoad(ctx context.Context, records []models.DocumentRecord) error
	// ForEach visits every record in a stable order. Visitors must not retain or mutate vec.
	// Returning an error from visit stops the scan and is returned. A stored vector that
	// cannot be decoded is passed as nil and the scan continues.
	ForEach(ctx context.Context, visit func(id string, vec []float32) error) error
	Count(ctx context.Context) (int, error)
	// Reset removes all records.
	Reset(ctx context.Context) error
	Type() string
	Close() error
}

// MetaStore is implemented by persistent stores that can record facts about the
// loaded snapshot, such as its load ID.
type MetaStore interface {
	SetMeta(ctx context.Context, key, value string) error
	GetMeta(ctx context.Context, key string) (string, bool, error)
}

// Metadata keys written by the search engine after a successful load.
const (
	MetaLoadID   = "load_id"
	MetaLoadedAt = "loaded_at"
	MetaSource   = "source"
)
