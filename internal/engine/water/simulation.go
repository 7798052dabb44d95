package water

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/seaoverlay/internal/logger"
)

// ErrClosed is returned by operations on a closed simulation.
var ErrClosed = errors.New("water: simulation closed")

// Simulation owns the heightfield and advances it one step at a time.
// It is not safe for concurrent use; callers drive it from one goroutine.
type Simulation struct {
	params      Params
	grids       [2]*Grid
	cur         int
	disturbance Disturbance
	backend     backend
	steps       uint64
	closed      bool
	log         *zap.Logger
}

// New validates p, creates the step backend and seeds the grid with noise.
// A nil log uses the package logger.
func New(p Params, log *zap.Logger) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("water: %w", err)
	}
	if log == nil {
		log = logger.Named("water")
	}
	b, err := newBackend(p, log)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		params:      p,
		grids:       [2]*Grid{NewGrid(p.Resolution), NewGrid(p.Resolution)},
		disturbance: NoDisturbance(p.Radius, p.Strength),
		backend:     b,
		log:         log,
	}
	Seed(s.grids[0], p.Seed, p.MaxHeight)

	log.Info("heightfield ready",
		zap.Int("resolution", p.Resolution),
		zap.Float64("width", p.Width),
		zap.Float64("height", p.Height),
		zap.Float64("viscosity", p.Viscosity),
		zap.String("backend", b.Name()))
	return s, nil
}

// Step computes the next state from the current one and swaps it in.
func (s *Simulation) Step() error {
	if s.closed {
		s.log.Debug("step on closed simulation")
		return ErrClosed
	}
	cur, next := s.grids[s.cur], s.grids[1-s.cur]
	in := stepInput{
		width:       s.params.Width,
		height:      s.params.Height,
		viscosity:   float32(s.params.Viscosity),
		disturbance: s.disturbance,
	}
	if err := s.backend.Step(cur, next, in); err != nil {
		return fmt.Errorf("water: step %d: %w", s.steps+1, err)
	}
	s.cur = 1 - s.cur
	s.steps++
	return nil
}

// Disturb replaces the active disturbance. The last value set before a
// step is the one that step uses.
func (s *Simulation) Disturb(d Disturbance) error {
	if s.closed {
		s.log.Debug("disturb on closed simulation")
		return ErrClosed
	}
	if err := d.validate(); err != nil {
		return fmt.Errorf("water: %w", err)
	}
	s.disturbance = d
	return nil
}

// Disturbance returns the active disturbance.
func (s *Simulation) Disturbance() Disturbance {
	return s.disturbance
}

// Grid returns the current grid. It is valid until the next Step.
func (s *Simulation) Grid() *Grid {
	return s.grids[s.cur]
}

// Snapshot copies the current grid into dst, allocating when dst is nil or
// the wrong size.
func (s *Simulation) Snapshot(dst *Grid) *Grid {
	cur := s.grids[s.cur]
	if dst == nil || dst.Size != cur.Size {
		return cur.Clone()
	}
	dst.CopyFrom(cur)
	return dst
}

// Load replaces the current grid contents.
func (s *Simulation) Load(g *Grid) error {
	if s.closed {
		return ErrClosed
	}
	if g.Size != s.params.Resolution {
		return fmt.Errorf("water: load %d grid into %d simulation", g.Size, s.params.Resolution)
	}
	s.grids[s.cur].CopyFrom(g)
	return nil
}

// Reseed refills the grid with noise from a new seed.
func (s *Simulation) Reseed(seed int64) error {
	if s.closed {
		return ErrClosed
	}
	s.params.Seed = seed
	Seed(s.grids[s.cur], seed, s.params.MaxHeight)
	return nil
}

// SetViscosity changes the damping for subsequent steps.
func (s *Simulation) SetViscosity(v float64) error {
	p := s.params
	p.Viscosity = v
	if err := p.Validate(); err != nil {
		return fmt.Errorf("water: %w", err)
	}
	s.params = p
	return nil
}

// Params returns the active parameters.
func (s *Simulation) Params() Params {
	return s.params
}

// Steps returns how many steps have completed.
func (s *Simulation) Steps() uint64 {
	return s.steps
}

// MaxAbsHeight returns the largest absolute height in the current grid.
// A value growing without bound means the damping is too weak.
func (s *Simulation) MaxAbsHeight() float64 {
	return s.grids[s.cur].MaxAbs()
}

// BackendName describes the step backend in use.
func (s *Simulation) BackendName() string {
	return s.backend.Name()
}

// Close releases the backend. Later Step and Disturb calls return ErrClosed.
func (s *Simulation) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.backend.Close()
	s.log.Debug("heightfield closed", zap.Uint64("steps", s.steps))
}
