package math

import "errors"

// ErrMatrixLength is returned when a matrix slice does not hold exactly 16 elements.
var ErrMatrixLength = errors.New("matrix must have exactly 16 elements")

// rowMajorOrder maps each row-major slot to its column-major source index.
// The permutation is a transpose, so it is its own inverse.
var rowMajorOrder = [16]int{
	0, 4, 8, 12,
	1, 5, 9, 13,
	2, 6, 10, 14,
	3, 7, 11, 15,
}

// ToRowMajor permutes a column-major 4x4 matrix into row-major layout.
func ToRowMajor(m []float64) ([16]float64, error) {
	var out [16]float64
	if len(m) != 16 {
		return out, ErrMatrixLength
	}
	for i, src := range rowMajorOrder {
		out[i] = m[src]
	}
	return out, nil
}

// ToColumnMajor permutes a row-major 4x4 matrix into column-major layout.
func ToColumnMajor(m []float64) ([16]float64, error) {
	// Same permutation in the other direction.
	return ToRowMajor(m)
}
