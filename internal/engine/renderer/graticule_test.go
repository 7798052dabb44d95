package renderer

import (
	"errors"
	"math"
	"testing"
)

func TestGraticuleLines(t *testing.T) {
	g := Graticule{LonDeg: 140.95, LatDeg: 35.15, SpanDeg: 2, StepDeg: 1, Samples: 8}
	segs, frame, err := g.Lines()
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}

	// 5 meridians + 5 parallels, 7 segments each, 2 points per segment
	if want := 10 * 7 * 2; len(segs) != want {
		t.Errorf("got %d points, want %d", len(segs), want)
	}

	if o := frame.Origin(); o.Len() < 6e6 {
		t.Errorf("frame origin %v is not on the ellipsoid", o)
	}

	// ±2° stays within a few hundred km of the anchor and below its horizon plane
	for i, p := range segs {
		if math.Hypot(p[0], p[1]) > 400_000 {
			t.Fatalf("point %d too far from anchor: %v", i, p)
		}
		if p[2] > 1e-3 {
			t.Fatalf("point %d above the tangent plane: %v", i, p)
		}
	}
}

func TestGraticuleInvalid(t *testing.T) {
	tests := []struct {
		name string
		g    Graticule
	}{
		{"zero span", Graticule{SpanDeg: 0, StepDeg: 1, Samples: 8}},
		{"zero step", Graticule{SpanDeg: 1, StepDeg: 0, Samples: 8}},
		{"one sample", Graticule{SpanDeg: 1, StepDeg: 1, Samples: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := tt.g.Lines(); !errors.Is(err, ErrGraticule) {
				t.Errorf("got %v, want ErrGraticule", err)
			}
		})
	}
}

func TestClampLat(t *testing.T) {
	if clampLat(95) != 90 || clampLat(-95) != -90 || clampLat(12) != 12 {
		t.Error("clampLat out of range")
	}
}
