package math

import (
	"testing"
)

func TestVec3Normalize(t *testing.T) {
	n := Vec3{0.3, -0.4, 1}.Normalize()
	if abs(n.Length()-1) > 1e-6 {
		t.Errorf("Normalize().Length() = %v, want 1", n.Length())
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("zero vector should normalize to zero")
	}
}
