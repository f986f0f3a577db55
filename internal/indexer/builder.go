package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/hyperjump/semmap/internal/embedding"
	"github.com/hyperjump/semmap/internal/fileid"
	"github.com/hyperjump/semmap/internal/models"
	"github.com/hyperjump/semmap/pkg/utils"
)

// DefaultPatterns selects the markdown sources of a documentation site.
var DefaultPatterns = []string{"**/*.md"}

// ProgressFunc is called after each document is embedded.
type ProgressFunc func(done, total int, path string)

// Builder turns a documentation tree into snapshot records and a layout.
type Builder struct {
	root     string
	fsys     fs.FS
	patterns []string
	excludes []string
	embedder embedding.Embedder
	chunker  *Chunker
	logger   *zap.Logger
	progress ProgressFunc
}

// Result is the output of a build.
type Result struct {
	Records []models.DocumentRecord
	Layout  []models.LayoutPoint
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithPatterns sets the doublestar include patterns, relative to the root.
func WithPatterns(patterns ...string) BuilderOption {
	return func(b *Builder) {
		if len(patterns) > 0 {
			b.patterns = patterns
		}
	}
}

// WithExcludes skips files matching any of the doublestar patterns.
func WithExcludes(patterns ...string) BuilderOption {
	return func(b *Builder) { b.excludes = patterns }
}

// WithChunking sets the chunk size and overlap in words.
func WithChunking(size, overlap int) BuilderOption {
	return func(b *Builder) { b.chunker = NewChunker(size, overlap) }
}

// WithLogger sets a logger for per-file debug output.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) BuilderOption {
	return func(b *Builder) { b.progress = fn }
}

// NewBuilder creates a builder over the directory root.
func NewBuilder(root string, embedder embedding.Embedder, opts ...BuilderOption) *Builder {
	b := &Builder{
		root:     root,
		fsys:     os.DirFS(root),
		patterns: DefaultPatterns,
		embedder: embedder,
		chunker:  NewChunker(200, 20),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Files returns the matching files as sorted slash-separated paths relative to the root.
func (b *Builder) Files() ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range b.patterns {
		matches, err := doublestar.Glob(b.fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup || b.excluded(m) {
				continue
			}
			if info, err := fs.Stat(b.fsys, m); err != nil || info.IsDir() {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (b *Builder) excluded(rel string) bool {
	for _, pattern := range b.excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Build reads, embeds and projects every matching document. Each document vector is
// the normalized mean of its chunk embeddings.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	files, err := b.Files()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	slugs := make(map[string]string)
	for i, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, title, err := b.buildOne(ctx, rel)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rel, err)
		}
		if prev, dup := slugs[rec.ID]; dup {
			return nil, fmt.Errorf("duplicate slug %q from %s and %s", rec.ID, prev, rel)
		}
		slugs[rec.ID] = rel
		res.Records = append(res.Records, rec)
		res.Layout = append(res.Layout, models.LayoutPoint{Slug: rec.ID, Title: title})
		b.logger.Debug("document embedded", zap.String("path", rel), zap.String("slug", rec.ID))
		if b.progress != nil {
			b.progress(i+1, len(files), rel)
		}
	}

	for i, xy := range Project2D(res.Records) {
		res.Layout[i].X, res.Layout[i].Y = xy[0], xy[1]
	}
	b.logger.Info("snapshot built", zap.String("root", b.root), zap.Int("documents", len(res.Records)))
	return res, nil
}

func (b *Builder) buildOne(ctx context.Context, rel string) (models.DocumentRecord, string, error) {
	src, err := fs.ReadFile(b.fsys, rel)
	if err != nil {
		return models.DocumentRecord{}, "", err
	}
	page, err := ParseMarkdown(src)
	if err != nil {
		return models.DocumentRecord{}, "", fmt.Errorf("invalid front matter: %w", err)
	}

	slug := page.Slug
	if slug == "" {
		slug, err = fileid.Slug(b.root, filepath.Join(b.root, filepath.FromSlash(rel)))
		if err != nil {
			return models.DocumentRecord{}, "", err
		}
	}
	title := page.Title
	if title == "" {
		title = strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	}

	chunks := b.chunker.Chunk(page.Body)
	if len(chunks) == 0 {
		chunks = []string{title}
	} else {
		chunks[0] = title + ". " + chunks[0]
	}
	vectors, err := b.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return models.DocumentRecord{}, "", fmt.Errorf("failed to embed: %w", err)
	}
	return models.DocumentRecord{ID: slug, Embedding: meanVector(vectors)}, title, nil
}

func meanVector(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	out := make([]float32, len(vectors[0]))
	for _, v := range vectors {
		for j := range out {
			if j < len(v) {
				out[j] += v[j]
			}
		}
	}
	for j := range out {
		out[j] /= float32(len(vectors))
	}
	utils.NormalizeL2(out)
	return out
}
