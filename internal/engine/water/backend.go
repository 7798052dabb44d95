package water

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// stepInput is everything a backend needs besides the two grids.
type stepInput struct {
	width       float64
	height      float64
	viscosity   float32
	disturbance Disturbance
}

// backend advances cur into next. next must not alias cur.
type backend interface {
	Name() string
	Step(cur, next *Grid, in stepInput) error
	Close()
}

// InitError reports that a step backend could not be created.
type InitError struct {
	Backend BackendKind
	Err     error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("water: init %s backend: %v", e.Backend, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// newBackend creates the backend requested by p. BackendAuto prefers OpenCL
// and falls back to the CPU pool.
func newBackend(p Params, log *zap.Logger) (backend, error) {
	switch p.Backend {
	case BackendCPU:
		return newCPUBackend(p.Workers, p.Resolution), nil
	case BackendOpenCL:
		b, err := newOpenCLBackend(p.Resolution)
		if err != nil {
			return nil, &InitError{Backend: BackendOpenCL, Err: err}
		}
		return b, nil
	default:
		b, err := newOpenCLBackend(p.Resolution)
		if err == nil {
			return b, nil
		}
		log.Info("OpenCL unavailable, stepping on CPU", zap.Error(err))
		return newCPUBackend(p.Workers, p.Resolution), nil
	}
}

// stepRows applies the step rule to rows [j0, j1). Neighbour reads past the
// grid edge clamp to the edge cell.
func stepRows(cur, next *Grid, in stepInput, j0, j1 int) {
	n := cur.Size
	d := in.disturbance
	for j := j0; j < j1; j++ {
		north := clampIndex(j+1, n) * n
		south := clampIndex(j-1, n) * n
		row := j * n
		_, y := CellPosition(0, j, n, in.width, in.height)
		dy := y - d.Y
		for i := 0; i < n; i++ {
			east := clampIndex(i+1, n)
			west := clampIndex(i-1, n)
			idx := row + i

			sum := cur.Height[north+i] + cur.Height[south+i] + cur.Height[row+east] + cur.Height[row+west]
			h := (sum*0.5 - cur.Previous[idx]) * in.viscosity

			x, _ := CellPosition(i, j, n, in.width, in.height)
			if c := d.Contribution(math.Hypot(x-d.X, dy)); c != 0 {
				h -= float32(c)
			}

			next.Height[idx] = h
			next.Previous[idx] = cur.Height[idx]
		}
	}
}
