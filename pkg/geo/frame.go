package geo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// polarEpsilon decides when an anchor sits on the polar axis, where east is undefined.
const polarEpsilon = 1e-14

// Frame is a rigid local-to-world transform. Columns 0..2 hold the local
// east, north and up axes in world coordinates; column 3 holds the origin.
type Frame struct {
	m mgl64.Mat4
}

// EastNorthUpToFixedFrame builds the East-North-Up frame at anchor on the
// WGS-84 ellipsoid.
func EastNorthUpToFixedFrame(anchor mgl64.Vec3) Frame {
	return WGS84.EastNorthUpToFixedFrame(anchor)
}

// EastNorthUpToFixedFrame builds the East-North-Up frame at anchor.
// Anchors on the polar axis get a fixed basis: east along +Y, up along
// the sign of Z, north completing the right-handed triad.
func (e Ellipsoid) EastNorthUpToFixedFrame(anchor mgl64.Vec3) Frame {
	var east, north, up mgl64.Vec3

	if math.Abs(anchor[0]) < polarEpsilon && math.Abs(anchor[1]) < polarEpsilon {
		sign := 1.0
		if anchor[2] < 0 {
			sign = -1
		}
		east = mgl64.Vec3{0, 1, 0}
		north = mgl64.Vec3{-sign, 0, 0}
		up = east.Cross(north)
	} else {
		up = e.GeodeticSurfaceNormal(anchor)
		east = mgl64.Vec3{-anchor[1], anchor[0], 0}.Normalize()
		north = up.Cross(east)
	}

	return Frame{m: mgl64.Mat4FromCols(
		east.Vec4(0),
		north.Vec4(0),
		up.Vec4(0),
		anchor.Vec4(1),
	)}
}

// FrameFromMatrix wraps an existing rigid column-major matrix.
func FrameFromMatrix(m mgl64.Mat4) Frame {
	return Frame{m: m}
}

// Matrix returns the column-major local-to-world matrix.
func (f Frame) Matrix() mgl64.Mat4 {
	return f.m
}

// Origin returns the frame's anchor in world coordinates.
func (f Frame) Origin() mgl64.Vec3 {
	return f.m.Col(3).Vec3()
}

// Apply maps a local point into world coordinates.
func (f Frame) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return f.m.Mul4x1(p.Vec4(1)).Vec3()
}

// Inverse returns the world-to-local frame. The rotation block is
// orthonormal, so the inverse is [Rᵀ | -Rᵀt]; this avoids the general
// cofactor inverse and its cancellation at Earth-scale translations.
func (f Frame) Inverse() Frame {
	r := f.m.Mat3().Transpose()
	t := r.Mul3x1(f.Origin()).Mul(-1)
	return Frame{m: mgl64.Mat4FromCols(
		r.Col(0).Vec4(0),
		r.Col(1).Vec4(0),
		r.Col(2).Vec4(0),
		t.Vec4(1),
	)}
}
