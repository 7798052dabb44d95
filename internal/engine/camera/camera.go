// Package camera provides the cameras used by the overlay: the secondary
// perspective camera that mirrors the globe renderer, and a globe orbit
// camera that stands in for the globe renderer in the viewer.
package camera

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/seaoverlay/pkg/math"
)

// Perspective is a perspective camera whose world and view matrices are
// assigned directly instead of being recomputed from a position and
// rotation. Geocentric scenes need float64 here: the camera sits millions
// of meters from the origin.
type Perspective struct {
	FovY   float64 // vertical field of view, degrees
	Aspect float64
	Near   float64
	Far    float64

	world      mgl64.Mat4 // camera-to-world
	view       mgl64.Mat4 // world-to-camera
	projection mgl64.Mat4
}

// NewPerspective creates a camera at the origin looking down -Z.
func NewPerspective(fovY, aspect, near, far float64) *Perspective {
	c := &Perspective{
		FovY:   fovY,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		world:  mgl64.Ident4(),
		view:   mgl64.Ident4(),
	}
	c.UpdateProjection()
	return c
}

// SetWorldMatrixRowMajor loads a row-major camera-to-world matrix.
func (c *Perspective) SetWorldMatrixRowMajor(row [16]float64) {
	c.world = fromRowMajor(row)
}

// SetViewMatrixRowMajor loads a row-major world-to-camera matrix.
func (c *Perspective) SetViewMatrixRowMajor(row [16]float64) {
	c.view = fromRowMajor(row)
}

func fromRowMajor(row [16]float64) mgl64.Mat4 {
	col, _ := math.ToColumnMajor(row[:]) // length is fixed at 16
	return mgl64.Mat4(col)
}

// UpdateProjection recomputes the projection from FovY, Aspect, Near, Far.
func (c *Perspective) UpdateProjection() {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	c.projection = mgl64.Perspective(mgl64.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// WorldMatrix returns the camera-to-world matrix.
func (c *Perspective) WorldMatrix() mgl64.Mat4 {
	return c.world
}

// ViewMatrix returns the world-to-camera matrix.
func (c *Perspective) ViewMatrix() mgl64.Mat4 {
	return c.view
}

// Projection returns the projection matrix.
func (c *Perspective) Projection() mgl64.Mat4 {
	return c.projection
}

// Position returns the camera position in world coordinates.
func (c *Perspective) Position() mgl64.Vec3 {
	return c.world.Col(3).Vec3()
}

// ModelView returns view * model in float64, so the large geocentric
// translations cancel before anything is narrowed to float32.
func (c *Perspective) ModelView(model mgl64.Mat4) mgl64.Mat4 {
	return c.view.Mul4(model)
}
