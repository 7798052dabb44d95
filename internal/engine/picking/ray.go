// Package picking provides ray casting for pointer hit tests.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// parallelEpsilon is the smallest |direction.z| treated as crossing a plane.
const parallelEpsilon = 1e-9

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3 // Normalized direction
}

// ScreenToRay converts pixel coordinates to a world-space ray for a
// perspective camera. camWorld is the camera-to-world matrix and fovYDeg the
// vertical field of view. The ray is built in camera space and rotated out,
// which keeps full precision far from the world origin.
func ScreenToRay(screenX, screenY, viewportW, viewportH, fovYDeg float64, camWorld mgl64.Mat4) Ray {
	// Convert screen coords to normalized device coords (-1 to 1)
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // Flip Y

	tanHalf := math.Tan(mgl64.DegToRad(fovYDeg) / 2)
	aspect := viewportW / viewportH
	dirCam := mgl64.Vec4{ndcX * tanHalf * aspect, ndcY * tanHalf, -1, 0}

	return Ray{
		Origin:    camWorld.Col(3).Vec3(),
		Direction: camWorld.Mul4x1(dirCam).Vec3().Normalize(),
	}
}

// Transform returns the ray expressed through the affine transform m.
func (r Ray) Transform(m mgl64.Mat4) Ray {
	return Ray{
		Origin:    m.Mul4x1(r.Origin.Vec4(1)).Vec3(),
		Direction: m.Mul4x1(r.Direction.Vec4(0)).Vec3().Normalize(),
	}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectPlaneZ intersects the ray with the plane z = planeZ.
// Returns the intersection point (X, Y) and whether the intersection is valid.
func (r Ray) IntersectPlaneZ(planeZ float64) (x, y float64, ok bool) {
	if math.Abs(r.Direction[2]) < parallelEpsilon {
		return 0, 0, false // Ray parallel to plane
	}

	t := (planeZ - r.Origin[2]) / r.Direction[2]
	if t < 0 {
		return 0, 0, false // Intersection behind ray origin
	}

	p := r.At(t)
	return p[0], p[1], true
}
