package embedding

import (
	"math/rand"
	"time"
)

// RandomSource generates embeddings with components drawn uniformly from
// [0, 1). The generator is injected so callers control determinism: with a
// fixed-seed rand.Rand the same sequence of embeddings is produced every run.
type RandomSource struct {
	dimensions int
	rng        *rand.Rand
}

// NewRandomSource returns a source producing random embeddings of the given
// dimension. Non-positive dimensions fall back to 768; a nil rng falls back
// to a time-seeded generator.
func NewRandomSource(dimensions int, rng *rand.Rand) *RandomSource {
	if dimensions <= 0 {
		dimensions = 768
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomSource{dimensions: dimensions, rng: rng}
}

// Embedding returns a freshly generated random embedding.
func (s *RandomSource) Embedding() []float32 {
	emb := make([]float32, s.dimensions)
	for i := range emb {
		emb[i] = s.rng.Float32()
	}
	return emb
}

// Dimensions returns the embedding dimension.
func (s *RandomSource) Dimensions() int {
	return s.dimensions
}
