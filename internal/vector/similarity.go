// Package vector provides the in-memory embedding store and brute-force
// cosine similarity search.
package vector

import "math"

// CosineSimilarity returns the cosine similarity of a and b: the dot product
// divided by the product of the Euclidean norms. If either vector has zero
// magnitude the result is 0 (zero vectors are dissimilar to everything,
// including each other). Mismatched lengths return 0; the store never calls
// this with mismatched lengths because it enforces a single dimension.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Dot returns the inner product of two vectors.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the Euclidean norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
