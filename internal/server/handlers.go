package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hyperjump/niteru/internal/models"
	"github.com/hyperjump/niteru/internal/vector"
	"go.uber.org/zap"
)

func (s *Server) handleUpsertVector(w http.ResponseWriter, r *http.Request) {
	var input models.UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := uuid.New()
	if input.ID != "" {
		parsed, err := uuid.Parse(input.ID)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "id must be a valid UUID")
			return
		}
		id = parsed
	}
	s.logger.Debug("upsert vector request", zap.String("id", id.String()), zap.Int("dimensions", len(input.Embedding)))
	if err := s.store.Insert(id, input.Embedding); err != nil {
		if errors.Is(err, vector.ErrDimensionMismatch) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("insert failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": id.String(), "status": "stored"})
}

func (s *Server) handleGetVector(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}
	embedding, ok := s.store.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "vector not found")
		return
	}
	s.respondJSON(w, http.StatusOK, models.VectorRecord{ID: id.String(), Embedding: embedding})
}

func (s *Server) handleDeleteVector(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}
	s.logger.Debug("delete vector request", zap.String("id", id.String()))
	if !s.store.Delete(id) {
		s.respondError(w, http.StatusNotFound, "vector not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id.String(), "status": "deleted"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(s.config.Search.DefaultLimit, s.config.Search.MaxLimit); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.Int("limit", query.Limit), zap.Int("dimensions", len(query.Embedding)))

	start := time.Now()
	matches, err := s.store.TopN(query.Embedding, query.Limit)
	if err != nil {
		if errors.Is(err, vector.ErrDimensionMismatch) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]*models.SearchResult, len(matches))
	for i, m := range matches {
		results[i] = &models.SearchResult{ID: m.ID.String(), Score: m.Score, Rank: i + 1}
	}
	s.respondJSON(w, http.StatusOK, &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"vectors":    s.store.Size(),
		"dimensions": s.store.Dimensions(),
		"config": map[string]interface{}{
			"default_limit": s.config.Search.DefaultLimit,
			"max_limit":     s.config.Search.MaxLimit,
		},
	})
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
