// Package water simulates a damped heightfield wave surface.
//
// The grid holds two channels per cell, the current height and the height
// one step earlier. A step reads only the current grid and writes a second
// one, then the two are swapped, so every step is atomic with respect to
// readers.
package water

import "math"

// Grid is an N×N heightfield. Cell (i, j) lives at index j*N+i, where i runs
// along the surface x axis and j along the y axis.
type Grid struct {
	Size     int
	Height   []float32
	Previous []float32
}

// NewGrid allocates a flat grid of the given resolution.
func NewGrid(size int) *Grid {
	return &Grid{
		Size:     size,
		Height:   make([]float32, size*size),
		Previous: make([]float32, size*size),
	}
}

// Index returns the flat index of cell (i, j).
func (g *Grid) Index(i, j int) int {
	return j*g.Size + i
}

// At returns the current height with out-of-range coordinates clamped to
// the nearest edge cell.
func (g *Grid) At(i, j int) float32 {
	return g.Height[g.Index(clampIndex(i, g.Size), clampIndex(j, g.Size))]
}

// CopyFrom overwrites g with src. Both grids must have the same size.
func (g *Grid) CopyFrom(src *Grid) {
	copy(g.Height, src.Height)
	copy(g.Previous, src.Previous)
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	c := NewGrid(g.Size)
	c.CopyFrom(g)
	return c
}

// MaxAbs returns the largest absolute height.
func (g *Grid) MaxAbs() float64 {
	var m float64
	for _, h := range g.Height {
		if a := math.Abs(float64(h)); a > m {
			m = a
		}
	}
	return m
}

func clampIndex(v, size int) int {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}

// CellPosition returns the surface-local position of the centre of cell
// (i, j) for a grid spanning width × height meters centred on the origin.
func CellPosition(i, j, size int, width, height float64) (x, y float64) {
	n := float64(size)
	x = ((float64(i)+0.5)/n - 0.5) * width
	y = ((float64(j)+0.5)/n - 0.5) * height
	return x, y
}
