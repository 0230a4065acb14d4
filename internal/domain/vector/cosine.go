// Package vector holds similarity math over embedding vectors.
package vector

import "math"

// Cosine returns the cosine similarity of a and b.
//
// It never panics. Empty vectors, vectors of different length and zero-magnitude
// vectors all score 0. The result is not clamped; callers compare it against a threshold.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Present reports whether v carries an embedding.
func Present(v []float32) bool { return len(v) > 0 }

// FromFloat64 narrows a float64 vector, as stored by document databases, to float32.
func FromFloat64(v []float64) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// ToFloat64 widens v for document databases that store numbers as float64.
func ToFloat64(v []float32) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
