package math

import (
	"testing"
)

func TestMat3x3(t *testing.T) {
	m := Mat4FromFloat64([16]float64{1, 2, 3, 0, 4, 5, 6, 0, 7, 8, 9, 0, 10, 11, 12, 1})
	want := [9]float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if got := m.Mat3x3(); got != want {
		t.Errorf("Mat3x3: got %v, want %v", got, want)
	}
}

func TestMat4FromFloat64KeepsLayout(t *testing.T) {
	src := [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 10.5, -20.25, 30, 1}
	m := Mat4FromFloat64(src)
	if m[12] != 10.5 || m[13] != -20.25 || m[14] != 30 {
		t.Errorf("translation = %v, want (10.5, -20.25, 30)", m[12:15])
	}
	if p := m.Ptr(); *p != 1 {
		t.Errorf("Ptr() points at %v, want first element", *p)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
