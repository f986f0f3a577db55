// Package snapshot reads and writes the precomputed site assets: the document
// embeddings and the 2-D layout of the map.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hyperjump/semmap/internal/config"
	"github.com/hyperjump/semmap/internal/models"
)

// Default asset file names as published by the site build.
const (
	EmbeddingsFile = "document_embeddings.json"
	LayoutFile     = "umap.json"
)

// LoadEmbeddings reads a JSON array of {doc_id, embedding} from a file path or http(s) URL.
// A record without a doc_id is an error.
func LoadEmbeddings(ctx context.Context, src string) ([]models.DocumentRecord, error) {
	var records []models.DocumentRecord
	if err := decode(ctx, src, &records); err != nil {
		return nil, fmt.Errorf("failed to load embeddings from %s: %w", src, err)
	}
	for i, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("embeddings %s: record %d has no doc_id", src, i)
		}
	}
	return records, nil
}

// LoadLayout reads a JSON array of {slug, title, x, y} from a file path or http(s) URL.
func LoadLayout(ctx context.Context, src string) ([]models.LayoutPoint, error) {
	var points []models.LayoutPoint
	if err := decode(ctx, src, &points); err != nil {
		return nil, fmt.Errorf("failed to load layout from %s: %w", src, err)
	}
	for i, p := range points {
		if p.Slug == "" {
			return nil, fmt.Errorf("layout %s: point %d has no slug", src, i)
		}
	}
	return points, nil
}

// WriteEmbeddings writes records to path, replacing the file atomically.
func WriteEmbeddings(path string, records []models.DocumentRecord) error {
	if records == nil {
		records = []models.DocumentRecord{}
	}
	return writeJSON(path, records)
}

// WriteLayout writes points to path, replacing the file atomically.
func WriteLayout(path string, points []models.LayoutPoint) error {
	if points == nil {
		points = []models.LayoutPoint{}
	}
	return writeJSON(path, points)
}

func decode(ctx context.Context, src string, v any) error {
	r, err := open(ctx, src)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func open(ctx context.Context, src string) (io.ReadCloser, error) {
	if src == "" {
		return nil, fmt.Errorf("empty source")
	}
	if !config.IsURL(src) {
		return os.Open(src)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
