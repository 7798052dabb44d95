package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/seaoverlay/pkg/geo"
)

func TestPerspectiveLoadsRowMajor(t *testing.T) {
	c := NewPerspective(60, 1.5, 1, 1000)

	// Row-major translation by (10, 20, 30)
	row := [16]float64{
		1, 0, 0, 10,
		0, 1, 0, 20,
		0, 0, 1, 30,
		0, 0, 0, 1,
	}
	c.SetWorldMatrixRowMajor(row)

	if got := c.Position(); got != (mgl64.Vec3{10, 20, 30}) {
		t.Errorf("Position = %v, want (10, 20, 30)", got)
	}
	if got := c.WorldMatrix().At(0, 3); got != 10 {
		t.Errorf("world(0,3) = %v, want 10", got)
	}
}

func TestPerspectiveProjection(t *testing.T) {
	c := NewPerspective(90, 2, 1, 100)
	want := mgl64.Perspective(mgl64.DegToRad(90), 2, 1, 100)
	if !c.Projection().ApproxEqual(want) {
		t.Errorf("projection = %v, want %v", c.Projection(), want)
	}

	c.Aspect = 0
	c.UpdateProjection()
	want = mgl64.Perspective(mgl64.DegToRad(90), 1, 1, 100)
	if !c.Projection().ApproxEqual(want) {
		t.Error("zero aspect should fall back to 1")
	}
}

func TestPerspectiveModelViewCancelsTranslation(t *testing.T) {
	anchor := geo.FromDegrees(140.95, 35.15, 300)
	c := NewPerspective(60, 1, 1, 1e7)
	c.SetViewMatrixRowMajor(rowMajor(mgl64.Translate3D(-anchor[0], -anchor[1], -anchor[2]+500)))

	mv := c.ModelView(mgl64.Translate3D(anchor[0], anchor[1], anchor[2]))
	got := mv.Col(3).Vec3()
	if !got.ApproxEqualThreshold(mgl64.Vec3{0, 0, 500}, 1e-6) {
		t.Errorf("model-view translation = %v, want (0, 0, 500)", got)
	}
}

func rowMajor(m mgl64.Mat4) [16]float64 {
	var out [16]float64
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r*4+c] = m.At(r, c)
		}
	}
	return out
}

func TestGlobeOrbitViewInverse(t *testing.T) {
	c := NewGlobeOrbit(geo.FromDegrees(140.95, 35.15, 300))
	c.RotationY = 0.7

	var view, inv mgl64.Mat4
	copy(view[:], c.ViewMatrix())
	copy(inv[:], c.InverseViewMatrix())

	prod := view.Mul4(inv)
	if !prod.ApproxEqualThreshold(mgl64.Ident4(), 1e-6) {
		t.Errorf("view * inverse = %v, want identity", prod)
	}

	// The inverse view translation is the eye position
	eye := inv.Col(3).Vec3()
	if !eye.ApproxEqualThreshold(c.Position(), 1e-6) {
		t.Errorf("eye = %v, want %v", eye, c.Position())
	}
}

func TestGlobeOrbitDistanceToAnchor(t *testing.T) {
	anchor := geo.FromDegrees(-70, -40, 0)
	c := NewGlobeOrbit(anchor)
	c.Distance = 12345

	if d := c.Position().Sub(anchor).Len(); math.Abs(d-12345) > 1e-6 {
		t.Errorf("distance = %v, want 12345", d)
	}
}

func TestGlobeOrbitClamps(t *testing.T) {
	c := NewGlobeOrbit(geo.FromDegrees(0, 0, 0))

	c.HandleDrag(0, 1e6)
	if c.RotationX != c.MaxPitch {
		t.Errorf("pitch = %v, want max %v", c.RotationX, c.MaxPitch)
	}
	c.HandleDrag(0, -1e6)
	if c.RotationX != c.MinPitch {
		t.Errorf("pitch = %v, want min %v", c.RotationX, c.MinPitch)
	}

	c.HandleZoom(1e6)
	if c.Distance != c.MinDistance {
		t.Errorf("distance = %v, want min %v", c.Distance, c.MinDistance)
	}
	c.HandleZoom(-1e6)
	if c.Distance != c.MaxDistance {
		t.Errorf("distance = %v, want max %v", c.Distance, c.MaxDistance)
	}
}
