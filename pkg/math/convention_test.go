package math

import (
	"errors"
	"testing"
)

func TestToRowMajorLayout(t *testing.T) {
	// Column-major translation matrix: translation lives in 12..14.
	col := []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		5, 6, 7, 1,
	}
	row, err := ToRowMajor(col)
	if err != nil {
		t.Fatalf("ToRowMajor: %v", err)
	}

	// Row-major keeps translation in the last column: 3, 7, 11.
	if row[3] != 5 || row[7] != 6 || row[11] != 7 {
		t.Errorf("translation: got (%v, %v, %v), want (5, 6, 7)", row[3], row[7], row[11])
	}
	if row[12] != 0 || row[13] != 0 || row[14] != 0 || row[15] != 1 {
		t.Errorf("bottom row: got %v", row[12:])
	}
}

func TestConventionRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		m    []float64
	}{
		{"sequence", []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
		{"ecef view", []float64{
			-0.8, 0.3, 0.5, 0,
			0.6, 0.4, 0.7, 0,
			0.0, 0.866, -0.5, 0,
			-3954123.125, 3352871.0625, 3695441.25, 1,
		}},
		{"tiny values", []float64{1e-300, -2e-300, 3e-17, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := ToRowMajor(tt.m)
			if err != nil {
				t.Fatalf("ToRowMajor: %v", err)
			}
			col, err := ToColumnMajor(row[:])
			if err != nil {
				t.Fatalf("ToColumnMajor: %v", err)
			}
			again, err := ToRowMajor(col[:])
			if err != nil {
				t.Fatalf("ToRowMajor: %v", err)
			}
			if again != row {
				t.Errorf("round trip changed the matrix: got %v, want %v", again, row)
			}
			for i := range tt.m {
				if col[i] != tt.m[i] {
					t.Errorf("element %d: got %v, want %v", i, col[i], tt.m[i])
				}
			}
		})
	}
}

func TestToRowMajorLength(t *testing.T) {
	for _, n := range []int{0, 9, 15, 17} {
		if _, err := ToRowMajor(make([]float64, n)); !errors.Is(err, ErrMatrixLength) {
			t.Errorf("len %d: got %v, want ErrMatrixLength", n, err)
		}
	}
}
