package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/hyperjump/semmap/internal/models"
)

var (
	bucketEmbeddings = []byte("embeddings")
	bucketMeta       = []byte("meta")
)

// BoltStore implements EmbeddingStore on a bbolt file. Keys are document IDs, so the
// scan order is the byte order of the IDs.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens or creates the bolt database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketEmbeddings, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Type returns the store type identifier.
func (s *BoltStore) Type() string {
	return string(StoreTypeBolt)
}

// BulkLoad writes all records in a single transaction.
func (s *BoltStore) BulkLoad(ctx context.Context, records []models.DocumentRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if rec.ID == "" {
				return fmt.Errorf("record with empty id")
			}
			if err := b.Put([]byte(rec.ID), encodeVector(rec.Embedding)); err != nil {
				return fmt.Errorf("failed to store %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

// ForEach visits records in key order inside one read transaction. A record whose
// value cannot be decoded is visited with a nil vector.
func (s *BoltStore) ForEach(ctx context.Context, visit func(id string, vec []float32) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			vec, err := decodeVector(v)
			if err != nil {
				vec = nil
			}
			return visit(string(k), vec)
		})
	})
}

// Count returns the number of stored records.
func (s *BoltStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n, err
}

// Reset recreates both buckets empty.
func (s *BoltStore) Reset(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketEmbeddings, bucketMeta} {
			if err := tx.DeleteBucket(b); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(b); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetMeta stores a metadata value.
func (s *BoltStore) SetMeta(ctx context.Context, key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put([]byte(key), []byte(value))
	})
}

// GetMeta returns a metadata value and whether it was present.
func (s *BoltStore) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketMeta).Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || value == nil {
		return "", false, err
	}
	return string(value), true, nil
}

// Close closes the bolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
