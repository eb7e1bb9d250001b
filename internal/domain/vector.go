package domain

import "math"

// CosineDistance returns 1 - cosine similarity between a and b.
// Smaller is more similar. Mismatched lengths and zero-magnitude vectors
// rank as maximally distant rather than erroring, so a single malformed
// stored vector cannot fail a whole search.
func CosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return math.MaxFloat64
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.MaxFloat64
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
