package storage

import (
	"context"
	"sync"

	"github.com/hyperjump/semmap/internal/models"
)

// MemoryStore keeps records in insertion order. Suitable for tests and for serving
// a snapshot that is re-read at every start.
type MemoryStore struct {
	ids     []string
	vectors [][]float32
	index   map[string]int
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

// Type returns the store type identifier.
func (m *MemoryStore) Type() string {
	return string(StoreTypeMemory)
}

// BulkLoad copies records into the store. Replaced IDs keep their original position.
func (m *MemoryStore) BulkLoad(ctx context.Context, records []models.DocumentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		vec := make([]float32, len(rec.Embedding))
		copy(vec, rec.Embedding)
		if i, ok := m.index[rec.ID]; ok {
			m.vectors[i] = vec
			continue
		}
		m.index[rec.ID] = len(m.ids)
		m.ids = append(m.ids, rec.ID)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// ForEach visits records in insertion order.
func (m *MemoryStore) ForEach(ctx context.Context, visit func(id string, vec []float32) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, id := range m.ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := visit(id, m.vectors[i]); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of records.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids), nil
}

// Reset drops all records.
func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = nil
	m.vectors = nil
	m.index = make(map[string]int)
	return nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}
