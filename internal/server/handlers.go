package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/semmap/internal/keyword"
	"github.com/hyperjump/semmap/internal/models"
	"github.com/hyperjump/semmap/internal/render"
	"github.com/hyperjump/semmap/internal/search"
	"github.com/hyperjump/semmap/internal/storage"
)

const defaultSuggestLimit = 10

// searchFailure carries the reset intensities alongside the error so the map can
// fall back to its unfiltered state.
type searchFailure struct {
	Error string `json:"error"`
	*models.SearchResponse
}

type statusResponse struct {
	search.Status
	LayoutPoints   int   `json:"layout_points"`
	Sessions       int   `json:"sessions"`
	DiskUsageBytes int64 `json:"disk_usage_bytes,omitempty"`
}

type suggestResponse struct {
	Query       string               `json:"query"`
	Suggestions []keyword.Suggestion `json:"suggestions"`
	DidYouMean  string               `json:"did_you_mean,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("limit", req.Limit))

	ctx, cancel := context.WithTimeout(r.Context(), s.readyWait)
	defer cancel()
	resp, err := s.sessions.get(r.Header.Get(SessionHeader)).Search(ctx, &req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("search failed", zap.String("query", req.Query), zap.Error(err))
		}
		if resp != nil {
			s.respondJSON(w, status, searchFailure{Error: err.Error(), SearchResponse: resp})
			return
		}
		s.respondError(w, status, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, search.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, search.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, search.ErrStoreNotReady), errors.Is(err, search.ErrEmbeddingSource):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:       s.engine.Status(),
		LayoutPoints: len(s.Layout()),
		Sessions:     s.sessions.len(),
	}
	if s.config != nil {
		if n, err := storage.DiskUsageBytes(storage.Paths(s.config.Storage)...); err == nil {
			resp.DiskUsageBytes = n
		} else {
			s.logger.Warn("status: disk usage failed", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	points := s.Layout()
	if points == nil {
		points = []models.LayoutPoint{}
	}
	s.respondJSON(w, http.StatusOK, points)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := defaultSuggestLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	resp := suggestResponse{Query: q, Suggestions: []keyword.Suggestion{}}

	s.mu.RLock()
	titles := s.titles
	s.mu.RUnlock()
	if q == "" || titles == nil {
		s.respondJSON(w, http.StatusOK, resp)
		return
	}
	found, err := titles.Suggest(r.Context(), q, limit)
	if err != nil {
		s.logger.Error("suggest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if found != nil {
		resp.Suggestions = found
	}
	if corrected, ok := titles.Correct(q); ok {
		resp.DidYouMean = corrected
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	plot := render.NewPlot(s.config.Render)
	if text := strings.TrimSpace(q.Get("q")); text != "" {
		ctx, cancel := context.WithTimeout(r.Context(), s.readyWait)
		resp, err := s.engine.NewSession().Search(ctx, &models.SearchRequest{Query: text})
		cancel()
		switch {
		case resp != nil:
			plot.Apply(resp.Intensities)
			if err != nil {
				s.logger.Warn("map query failed, drawing unfiltered", zap.String("query", text), zap.Error(err))
			}
		case err != nil:
			s.logger.Warn("map query failed, drawing unfiltered", zap.String("query", text), zap.Error(err))
		}
	}

	var buf bytes.Buffer
	if err := plot.WriteSVG(&buf, s.Layout(), q.Get("current")); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
