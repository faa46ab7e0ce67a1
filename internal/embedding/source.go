// Package embedding provides embedding sources for the vector store. The
// store treats a source as an opaque producer of fixed-dimension vectors.
package embedding

// Source produces fixed-dimension embeddings.
type Source interface {
	Embedding() []float32
	Dimensions() int
}
