package domain

import (
	"fmt"
	"math"
)

// UnitNormTolerance is the allowed deviation from an L2 norm of 1
// when checking persisted vectors, which are stored as float32.
const UnitNormTolerance = 1e-3

// Dot returns the dot product of a and b accumulated in float64.
// The caller guarantees equal lengths.
func Dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	return math.Sqrt(Dot(v, v))
}

// Normalize returns a unit-length copy of v.
// Empty vectors, vectors with NaN or Inf components and zero vectors
// cannot be normalised and yield ErrEmbedding.
func Normalize(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrEmbedding)
	}
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: non-finite component at %d", ErrEmbedding, i)
		}
	}
	n := Norm(v)
	if n == 0 {
		return nil, fmt.Errorf("%w: zero vector", ErrEmbedding)
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out, nil
}

// IsUnit reports whether v has an L2 norm of 1 within tol.
func IsUnit(v []float32, tol float64) bool {
	return math.Abs(Norm(v)-1) <= tol
}
