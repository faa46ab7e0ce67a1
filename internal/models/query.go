// Package models defines the request and response types of the niteru API.
package models

import "fmt"

// SearchQuery represents a nearest-neighbor search request.
type SearchQuery struct {
	Embedding []float32 `json:"embedding"`
	Limit     int       `json:"limit,omitempty"`
}

// Validate checks the query and normalizes the limit against the given
// defaults. Returns an error if the embedding is missing.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if len(q.Embedding) == 0 {
		return fmt.Errorf("embedding cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}

// UpsertRequest is the body for inserting or replacing a vector. When ID is
// empty the server assigns a fresh UUID.
type UpsertRequest struct {
	ID        string    `json:"id,omitempty"`
	Embedding []float32 `json:"embedding"`
}

// VectorRecord is a stored vector returned by the API.
type VectorRecord struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"embedding"`
}
