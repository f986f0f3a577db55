// Package server provides the HTTP API for the semantic map.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/semmap/internal/config"
	"github.com/hyperjump/semmap/internal/keyword"
	"github.com/hyperjump/semmap/internal/models"
	"github.com/hyperjump/semmap/internal/search"
	"github.com/hyperjump/semmap/internal/snapshot"
)

const defaultReadyWait = 5 * time.Second

// Server is the HTTP server for the semmap API.
type Server struct {
	engine    *search.Engine
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
	sessions  *sessionCache
	readyWait time.Duration

	mu     sync.RWMutex
	layout []models.LayoutPoint
	titles *keyword.TitleIndex
}

// Option configures a Server.
type Option func(*Server)

// WithReadyWait bounds how long a search waits for the first snapshot load.
func WithReadyWait(d time.Duration) Option {
	return func(s *Server) { s.readyWait = d }
}

// NewServer creates a server over engine. The layout starts empty; see SetLayout.
func NewServer(engine *search.Engine, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}
	s := &Server{
		engine:    engine,
		config:    cfg,
		logger:    logger,
		sessions:  newSessionCache(engine, maxSessions),
		readyWait: defaultReadyWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(s.logRequests)

	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/layout", s.handleLayout)
	r.Get("/api/v1/suggest", s.handleSuggest)
	r.Get("/api/v1/map.svg", s.handleMap)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// SetLayout replaces the map layout and rebuilds the title index.
func (s *Server) SetLayout(points []models.LayoutPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.titles == nil {
		idx, err := keyword.NewTitleIndex(points)
		if err != nil {
			return fmt.Errorf("failed to index titles: %w", err)
		}
		s.titles = idx
	} else if err := s.titles.Replace(points); err != nil {
		return fmt.Errorf("failed to index titles: %w", err)
	}
	s.layout = points
	s.logger.Info("layout loaded", zap.Int("points", len(points)))
	return nil
}

// LoadLayout reads the layout at src (path or URL) and applies it.
func (s *Server) LoadLayout(ctx context.Context, src string) error {
	points, err := snapshot.LoadLayout(ctx, src)
	if err != nil {
		return err
	}
	return s.SetLayout(points)
}

// Layout returns the current layout points.
func (s *Server) Layout() []models.LayoutPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout
}

// Close releases the title index.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.titles != nil {
		return s.titles.Close()
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("took", time.Since(start)),
		)
	})
}
