package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/seaoverlay/pkg/geo"
)

// GlobeOrbit orbits an anchor point on the globe. It plays the part of the
// globe renderer's camera in the viewer: it only exposes what the globe
// renderer would (field of view, clip planes, column-major view matrices).
type GlobeOrbit struct {
	frame geo.Frame

	// Spherical coordinates in the anchor's East-North-Up frame
	Distance  float64 // Distance from anchor, meters
	RotationX float64 // Pitch above the horizon (radians)
	RotationY float64 // Heading, clockwise from north (radians)

	FovYDeg  float64
	NearClip float64
	FarClip  float64

	// Constraints
	MinDistance float64
	MaxDistance float64
	MinPitch    float64
	MaxPitch    float64

	// Sensitivity
	DragSensitivity float64
	ZoomSensitivity float64
}

// NewGlobeOrbit creates an orbit camera around anchor with default settings.
func NewGlobeOrbit(anchor mgl64.Vec3) *GlobeOrbit {
	return &GlobeOrbit{
		frame:           geo.EastNorthUpToFixedFrame(anchor),
		Distance:        300_000,
		RotationX:       0.9,
		RotationY:       0,
		FovYDeg:         60,
		NearClip:        1,
		FarClip:         50_000_000,
		MinDistance:     1_000,
		MaxDistance:     20_000_000,
		MinPitch:        0.05,
		MaxPitch:        1.55,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in geocentric coordinates.
func (c *GlobeOrbit) Position() mgl64.Vec3 {
	cosP := gomath.Cos(c.RotationX)
	local := mgl64.Vec3{
		c.Distance * cosP * gomath.Sin(c.RotationY),
		-c.Distance * cosP * gomath.Cos(c.RotationY),
		c.Distance * gomath.Sin(c.RotationX),
	}
	return c.frame.Apply(local)
}

func (c *GlobeOrbit) view() mgl64.Mat4 {
	eye := c.Position()
	center := c.frame.Origin()
	up := c.frame.Matrix().Col(2).Vec3()
	return mgl64.LookAtV(eye, center, up)
}

// FovY returns the vertical field of view in degrees.
func (c *GlobeOrbit) FovY() float64 { return c.FovYDeg }

// Near returns the near clip distance.
func (c *GlobeOrbit) Near() float64 { return c.NearClip }

// Far returns the far clip distance.
func (c *GlobeOrbit) Far() float64 { return c.FarClip }

// ViewMatrix returns the column-major world-to-camera matrix.
func (c *GlobeOrbit) ViewMatrix() []float64 {
	m := c.view()
	return m[:]
}

// InverseViewMatrix returns the column-major camera-to-world matrix.
func (c *GlobeOrbit) InverseViewMatrix() []float64 {
	inv := geo.FrameFromMatrix(c.view()).Inverse().Matrix()
	return inv[:]
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *GlobeOrbit) HandleDrag(deltaX, deltaY float64) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity

	// Clamp pitch
	if c.RotationX < c.MinPitch {
		c.RotationX = c.MinPitch
	}
	if c.RotationX > c.MaxPitch {
		c.RotationX = c.MaxPitch
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *GlobeOrbit) HandleZoom(delta float64) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}
