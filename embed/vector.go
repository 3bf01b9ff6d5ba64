package embed

import (
	"fmt"
	"math"

	"github.com/poiesic/semsearch/core"
)

// NormalizeVector scales v to unit length and returns a new slice.
// A zero vector comes back as a zero vector of the same length.
func NormalizeVector(v []float32) []float32 {
	result := make([]float32, len(v))
	if len(v) == 0 {
		return result
	}

	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	if sum == 0 {
		return result
	}

	magnitude := math.Sqrt(sum)
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}

// checkDimensions verifies every vector has length dim. A dim of 0 adopts
// the length of the first vector. The resolved dimension is returned.
func checkDimensions(vectors [][]float32, dim int) (int, error) {
	for i, v := range vectors {
		if len(v) == 0 {
			return dim, fmt.Errorf("%w: vector %d is empty", core.ErrIntegrityMismatch, i)
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return dim, fmt.Errorf("%w: vector %d has dimension %d, expected %d",
				core.ErrIntegrityMismatch, i, len(v), dim)
		}
	}
	return dim, nil
}
