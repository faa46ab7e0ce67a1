package vector

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrDimensionMismatch is returned when an embedding's length differs from
// the store's dimension. The offending call fails and the store is unchanged.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Match is a single search hit: the identifier of a stored embedding and its
// cosine similarity to the query. Matches are value snapshots and do not
// alias store-internal storage.
type Match struct {
	ID    uuid.UUID `json:"id"`
	Score float64   `json:"score"`
}

// Store maps identifiers to fixed-dimension embeddings and answers ranked
// nearest-neighbor queries by brute-force scan. A single dimension is fixed
// at construction and enforced on every insert and query.
//
// Store is safe for concurrent use: inserts take exclusive access, queries
// share a read lock and always see a consistent snapshot.
type Store struct {
	dimensions int
	mu         sync.RWMutex
	entries    map[uuid.UUID][]float32
}

// NewStore creates an empty store for embeddings of the given dimension.
func NewStore(dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &Store{
		dimensions: dimensions,
		entries:    make(map[uuid.UUID][]float32),
	}, nil
}

// Dimensions returns the embedding dimension enforced by the store.
func (s *Store) Dimensions() int {
	return s.dimensions
}

// Insert stores embedding under id, replacing any previous embedding for
// that id (last write wins, never merged). The slice is copied so later
// mutation by the caller does not affect the store.
func (s *Store) Insert(id uuid.UUID, embedding []float32) error {
	if len(embedding) != s.dimensions {
		return fmt.Errorf("insert %s: %w: got %d, expected %d", id, ErrDimensionMismatch, len(embedding), s.dimensions)
	}
	vec := make([]float32, s.dimensions)
	copy(vec, embedding)
	s.mu.Lock()
	s.entries[id] = vec
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the embedding stored under id, if present.
func (s *Store) Get(id uuid.UUID) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vec, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Delete removes the embedding stored under id and reports whether it existed.
func (s *Store) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	return ok
}

// Size returns the number of stored embeddings.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// TopN scores every stored embedding against query by cosine similarity and
// returns the n best matches in descending score order. Equal scores (and
// score pairs that do not compare, such as NaN) order ascending by identifier
// so that results are deterministic across runs. When n exceeds the store
// size all entries are returned; n <= 0 or an empty store returns nil.
func (s *Store) TopN(query []float32, n int) ([]Match, error) {
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("query: %w: got %d, expected %d", ErrDimensionMismatch, len(query), s.dimensions)
	}
	if n <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	matches := make([]Match, 0, len(s.entries))
	for id, vec := range s.entries {
		matches = append(matches, Match{ID: id, Score: CosineSimilarity(query, vec)})
	}
	s.mu.RUnlock()

	if len(matches) == 0 {
		return nil, nil
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score > matches[j].Score {
			return true
		}
		if matches[i].Score < matches[j].Score {
			return false
		}
		return bytes.Compare(matches[i].ID[:], matches[j].ID[:]) < 0
	})
	if n > len(matches) {
		n = len(matches)
	}
	return matches[:n:n], nil
}
