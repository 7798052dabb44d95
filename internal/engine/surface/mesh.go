// Package surface turns the heightfield into a displaced, lit mesh and
// provides the flat footprint used for pointer hit tests.
package surface

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/seaoverlay/internal/engine/picking"
	"github.com/Faultbox/seaoverlay/internal/engine/water"
	"github.com/Faultbox/seaoverlay/pkg/math"
)

// Mesh is an N×N vertex grid spanning width × height meters, centred on
// the local origin in the z = 0 plane. Vertex (i, j) samples grid cell
// (i, j); elevation and normal come from the current grid only.
type Mesh struct {
	N      int
	Width  float64
	Height float64

	Positions []float32 // x, y, z per vertex
	Normals   []float32 // x, y, z per vertex
	Cells     []float32 // i, j per vertex, for texel lookups on the GPU
	Indices   []uint32
}

// NewMesh builds a flat mesh. n must be at least 2.
func NewMesh(n int, width, height float64) (*Mesh, error) {
	if n < 2 {
		return nil, fmt.Errorf("surface: mesh needs at least 2 vertices per side, got %d", n)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface: bounds must be positive, got %gx%g", width, height)
	}

	count := n * n
	m := &Mesh{
		N:         n,
		Width:     width,
		Height:    height,
		Positions: make([]float32, count*3),
		Normals:   make([]float32, count*3),
		Cells:     make([]float32, count*2),
		Indices:   make([]uint32, 0, (n-1)*(n-1)*6),
	}

	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			v := j*n + i
			x, y := m.planar(i, j)
			m.Positions[v*3+0] = x
			m.Positions[v*3+1] = y
			m.Normals[v*3+2] = 1
			m.Cells[v*2+0] = float32(i)
			m.Cells[v*2+1] = float32(j)
		}
	}

	// Two counter-clockwise triangles per quad, seen from +z
	for j := 0; j < n-1; j++ {
		for i := 0; i < n-1; i++ {
			a := uint32(j*n + i)
			b := a + 1
			c := a + uint32(n)
			d := c + 1
			m.Indices = append(m.Indices, a, b, d, a, d, c)
		}
	}
	return m, nil
}

// planar returns the undisplaced position of vertex (i, j).
func (m *Mesh) planar(i, j int) (float32, float32) {
	last := float64(m.N - 1)
	x := (float64(i)/last - 0.5) * m.Width
	y := (float64(j)/last - 0.5) * m.Height
	return float32(x), float32(y)
}

// UpdateDisplacement sets every vertex elevation and normal from g.
// Neighbour reads past the edge clamp to the edge cell.
func (m *Mesh) UpdateDisplacement(g *water.Grid) error {
	if g.Size != m.N {
		return fmt.Errorf("surface: grid size %d does not match mesh %d", g.Size, m.N)
	}
	n := m.N
	sx := float32(float64(n) / m.Width)
	sy := float32(float64(n) / m.Height)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			v := j*n + i
			m.Positions[v*3+2] = g.Height[v]

			normal := math.Vec3{
				X: (g.At(i-1, j) - g.At(i+1, j)) * sx,
				Y: (g.At(i, j-1) - g.At(i, j+1)) * sy,
				Z: 1,
			}.Normalize()
			m.Normals[v*3+0] = normal.X
			m.Normals[v*3+1] = normal.Y
			m.Normals[v*3+2] = normal.Z
		}
	}
	return nil
}

// Elevation returns the displaced height of vertex (i, j).
func (m *Mesh) Elevation(i, j int) float32 {
	return m.Positions[(j*m.N+i)*3+2]
}

// Normal returns the unit normal of vertex (i, j).
func (m *Mesh) Normal(i, j int) math.Vec3 {
	v := (j*m.N + i) * 3
	return math.Vec3{X: m.Normals[v], Y: m.Normals[v+1], Z: m.Normals[v+2]}
}

// HitPlane is the flat footprint of the surface. It is only used for
// pointer hit tests and is never displaced.
type HitPlane struct {
	Width  float64
	Height float64
}

// Pick intersects a ray given in surface-local coordinates with the
// footprint and returns the local (x, y) of the hit.
func (p HitPlane) Pick(r picking.Ray) (x, y float64, ok bool) {
	x, y, ok = r.IntersectPlaneZ(0)
	if !ok {
		return 0, 0, false
	}
	if gomath.Abs(x) > p.Width/2 || gomath.Abs(y) > p.Height/2 {
		return 0, 0, false
	}
	return x, y, true
}
