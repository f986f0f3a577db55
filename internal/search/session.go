package search

import (
	"context"
	"sync/atomic"

	"github.com/hyperjump/semmap/internal/models"
)

// Session is an independent query stream over an Engine. Supersession is tracked per
// session, so a newer query only discards older queries from the same session.
type Session struct {
	engine *Engine
	seq    atomic.Uint64
}

// NewSession starts a query stream with its own sequence.
func (e *Engine) NewSession() *Session {
	return &Session{engine: e}
}

// Search behaves like Engine.Search, scoped to this session.
func (s *Session) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	return s.engine.search(ctx, req, &s.seq)
}

// Clear returns the "no filter" intensities.
func (s *Session) Clear() map[string]float64 {
	return s.engine.Clear()
}
