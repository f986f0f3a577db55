package storage

import (
	"fmt"

	"github.com/hyperjump/semmap/internal/config"
)

// StoreType names an EmbeddingStore implementation.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeSQLite StoreType = "sqlite"
	StoreTypeBolt   StoreType = "bolt"
)

// NewEmbeddingStore creates the store selected by cfg.Type.
func NewEmbeddingStore(cfg config.StorageConfig) (EmbeddingStore, error) {
	switch StoreType(cfg.Type) {
	case StoreTypeMemory:
		return NewMemoryStore(), nil
	case StoreTypeSQLite, "":
		return NewSQLiteStore(cfg.DatabasePath)
	case StoreTypeBolt:
		return NewBoltStore(cfg.BoltPath)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// Paths returns the on-disk files used by the store selected by cfg.
func Paths(cfg config.StorageConfig) []string {
	switch StoreType(cfg.Type) {
	case StoreTypeSQLite, "":
		if cfg.DatabasePath == ":memory:" {
			return nil
		}
		return []string{cfg.DatabasePath, cfg.DatabasePath + "-wal", cfg.DatabasePath + "-shm"}
	case StoreTypeBolt:
		return []string{cfg.BoltPath}
	}
	return nil
}
