package water

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// BackendKind selects the step implementation.
type BackendKind string

const (
	BackendAuto   BackendKind = "auto"
	BackendCPU    BackendKind = "cpu"
	BackendOpenCL BackendKind = "opencl"
)

// ParseBackend converts a configuration string to a BackendKind.
func ParseBackend(s string) (BackendKind, error) {
	switch BackendKind(s) {
	case BackendAuto, BackendCPU, BackendOpenCL:
		return BackendKind(s), nil
	case "":
		return BackendAuto, nil
	}
	return "", fmt.Errorf("unknown water backend %q", s)
}

// Params configures a Simulation.
type Params struct {
	Resolution int     // grid cells per side
	Width      float64 // surface extent along x, meters
	Height     float64 // surface extent along y, meters
	Viscosity  float64 // damping multiplier, 0 ≤ v < 1
	Radius     float64 // default disturbance radius
	Strength   float64 // default disturbance strength
	MaxHeight  float64 // amplitude of the first noise octave
	Seed       int64
	Backend    BackendKind
	Workers    int // CPU workers, 0 = GOMAXPROCS
}

// DefaultParams returns the standard simulation settings.
func DefaultParams() Params {
	return Params{
		Resolution: 128,
		Width:      165000,
		Height:     110000,
		Viscosity:  0.93,
		Radius:     5,
		Strength:   0.05,
		MaxHeight:  0.2,
		Seed:       1,
		Backend:    BackendAuto,
	}
}

// Validate checks the parameters. Zero viscosity is allowed: it damps the
// surface flat in one step.
func (p Params) Validate() error {
	switch {
	case p.Resolution <= 0:
		return fmt.Errorf("resolution must be positive, got %d", p.Resolution)
	case p.Width <= 0 || p.Height <= 0:
		return fmt.Errorf("bounds must be positive, got %gx%g", p.Width, p.Height)
	case p.Viscosity < 0 || p.Viscosity >= 1:
		return fmt.Errorf("viscosity must be in [0,1), got %g", p.Viscosity)
	case p.Radius <= 0:
		return fmt.Errorf("disturbance radius must be positive, got %g", p.Radius)
	case p.Workers < 0:
		return fmt.Errorf("workers must not be negative, got %d", p.Workers)
	}
	if _, err := ParseBackend(string(p.Backend)); err != nil {
		return err
	}
	return nil
}

// Disturbance is a circular push applied on every step until replaced.
// Position is in surface-local meters.
type Disturbance struct {
	X, Y     float64
	Radius   float64
	Strength float64
}

// FarAway is the coordinate used to park a disturbance. At this distance the
// cosine phase clamps to π for any sane radius and the contribution is
// exactly zero.
const FarAway = 1e12

// NoDisturbance returns a parked disturbance that keeps radius and strength.
func NoDisturbance(radius, strength float64) Disturbance {
	return Disturbance{X: FarAway, Y: FarAway, Radius: radius, Strength: strength}
}

// Parked reports whether the disturbance sits at the far-away position.
func (d Disturbance) Parked() bool {
	return d.X == FarAway && d.Y == FarAway
}

// validate rejects disturbances that would poison the grid with NaN.
func (d Disturbance) validate() error {
	if !(d.Radius > 0) || math.IsInf(d.Radius, 0) {
		return fmt.Errorf("disturbance radius must be positive and finite, got %g", d.Radius)
	}
	for _, v := range []float64{d.X, d.Y, d.Strength} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("disturbance values must be finite")
		}
	}
	return nil
}

// Contribution returns the amount subtracted from a cell at distance dist
// from the disturbance centre.
func (d Disturbance) Contribution(dist float64) float64 {
	phase := dist * math.Pi / d.Radius
	if phase >= math.Pi {
		return 0
	}
	if phase < 0 {
		phase = 0
	}
	return (math.Cos(phase) + 1) * d.Strength
}

// TriggerConfig configures the automatic wave pulses.
type TriggerConfig struct {
	Interval      time.Duration
	Hold          time.Duration
	PhaseStep     float64
	PulseRadius   float64
	PulseStrength float64
}

// DefaultTriggerConfig returns the standard pulse timing and size.
func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{
		Interval:      time.Second,
		Hold:          200 * time.Millisecond,
		PhaseStep:     0.06,
		PulseRadius:   5000,
		PulseStrength: 300,
	}
}
