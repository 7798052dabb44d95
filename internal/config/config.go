// Package config handles overlay configuration loading and management.
package config

import (
	"fmt"
	"time"
)

// Config holds all overlay settings.
type Config struct {
	Water    WaterConfig    `yaml:"water"`
	AutoWave AutoWaveConfig `yaml:"auto_wave"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Graphics GraphicsConfig `yaml:"graphics"`
	Stream   StreamConfig   `yaml:"stream"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WaterConfig holds heightfield simulation settings.
type WaterConfig struct {
	GridResolution      int     `yaml:"grid_resolution"`
	BoundsWidth         float64 `yaml:"bounds_width"`  // meters along local x
	BoundsHeight        float64 `yaml:"bounds_height"` // meters along local y
	Viscosity           float64 `yaml:"viscosity"`
	DisturbanceRadius   float64 `yaml:"disturbance_radius"`
	DisturbanceStrength float64 `yaml:"disturbance_strength"`
	PropagationSpeed    int     `yaml:"propagation_speed"` // 1..6, steps every 7-speed ticks
	MaxHeight           float64 `yaml:"max_height"`
	Backend             string  `yaml:"backend"` // auto, cpu or opencl
	Workers             int     `yaml:"workers"` // 0 = GOMAXPROCS
	Seed                int64   `yaml:"seed"`
}

// AutoWaveConfig holds the periodic pulse settings.
type AutoWaveConfig struct {
	Enabled       bool    `yaml:"enabled"`
	IntervalMS    int     `yaml:"interval_ms"`
	HoldMS        int     `yaml:"hold_ms"`
	PhaseStep     float64 `yaml:"phase_step"`
	PulseRadius   float64 `yaml:"pulse_radius"`
	PulseStrength float64 `yaml:"pulse_strength"`
}

// Interval returns the pulse interval as a duration.
func (a AutoWaveConfig) Interval() time.Duration {
	return time.Duration(a.IntervalMS) * time.Millisecond
}

// Hold returns how long each pulse stays applied.
func (a AutoWaveConfig) Hold() time.Duration {
	return time.Duration(a.HoldMS) * time.Millisecond
}

// BridgeConfig holds the overlay camera and anchor settings.
type BridgeConfig struct {
	CameraNear   float64 `yaml:"camera_near"`
	CameraFar    float64 `yaml:"camera_far"`
	AnchorLon    float64 `yaml:"anchor_lon"` // degrees
	AnchorLat    float64 `yaml:"anchor_lat"` // degrees
	AnchorHeight float64 `yaml:"anchor_height"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
}

// StreamConfig holds the heightfield stream server settings.
type StreamConfig struct {
	Addr            string `yaml:"addr"`
	FrameIntervalMS int    `yaml:"frame_interval_ms"`
}

// FrameInterval returns the simulation tick period of the stream server.
func (s StreamConfig) FrameInterval() time.Duration {
	return time.Duration(s.FrameIntervalMS) * time.Millisecond
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Water: WaterConfig{
			GridResolution:      128,
			BoundsWidth:         165000,
			BoundsHeight:        110000,
			Viscosity:           0.93,
			DisturbanceRadius:   5,
			DisturbanceStrength: 0.05,
			PropagationSpeed:    6,
			MaxHeight:           0.2,
			Backend:             "auto",
			Workers:             0,
			Seed:                1,
		},
		AutoWave: AutoWaveConfig{
			Enabled:       true,
			IntervalMS:    1000,
			HoldMS:        200,
			PhaseStep:     0.06,
			PulseRadius:   5000,
			PulseStrength: 300,
		},
		Bridge: BridgeConfig{
			CameraNear:   10000,
			CameraFar:    50000000,
			AnchorLon:    140.95,
			AnchorLat:    35.15,
			AnchorHeight: 300,
		},
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Stream: StreamConfig{
			Addr:            ":8080",
			FrameIntervalMS: 33,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks every setting. Out-of-range values are rejected, never
// clamped.
func (c *Config) Validate() error {
	w := c.Water
	switch {
	case w.GridResolution < 2:
		return invalid("water.grid_resolution", "must be at least 2, got %d", w.GridResolution)
	case w.BoundsWidth <= 0:
		return invalid("water.bounds_width", "must be positive, got %g", w.BoundsWidth)
	case w.BoundsHeight <= 0:
		return invalid("water.bounds_height", "must be positive, got %g", w.BoundsHeight)
	case w.Viscosity <= 0 || w.Viscosity >= 1:
		return invalid("water.viscosity", "must be in (0,1), got %g", w.Viscosity)
	case w.DisturbanceRadius <= 0:
		return invalid("water.disturbance_radius", "must be positive, got %g", w.DisturbanceRadius)
	case w.PropagationSpeed < 1 || w.PropagationSpeed > 6:
		return invalid("water.propagation_speed", "must be in [1,6], got %d", w.PropagationSpeed)
	case w.MaxHeight < 0:
		return invalid("water.max_height", "must not be negative, got %g", w.MaxHeight)
	case w.Workers < 0:
		return invalid("water.workers", "must not be negative, got %d", w.Workers)
	}
	switch w.Backend {
	case "auto", "cpu", "opencl":
	default:
		return invalid("water.backend", "must be auto, cpu or opencl, got %q", w.Backend)
	}

	a := c.AutoWave
	switch {
	case a.IntervalMS <= 0:
		return invalid("auto_wave.interval_ms", "must be positive, got %d", a.IntervalMS)
	case a.HoldMS <= 0:
		return invalid("auto_wave.hold_ms", "must be positive, got %d", a.HoldMS)
	case a.PhaseStep <= 0 || a.PhaseStep > 1:
		return invalid("auto_wave.phase_step", "must be in (0,1], got %g", a.PhaseStep)
	case a.PulseRadius <= 0:
		return invalid("auto_wave.pulse_radius", "must be positive, got %g", a.PulseRadius)
	}

	b := c.Bridge
	switch {
	case b.CameraNear <= 0:
		return invalid("bridge.camera_near", "must be positive, got %g", b.CameraNear)
	case b.CameraFar <= b.CameraNear:
		return invalid("bridge.camera_far", "must exceed camera_near, got %g", b.CameraFar)
	case b.AnchorLat < -90 || b.AnchorLat > 90:
		return invalid("bridge.anchor_lat", "must be in [-90,90], got %g", b.AnchorLat)
	case b.AnchorLon < -180 || b.AnchorLon > 180:
		return invalid("bridge.anchor_lon", "must be in [-180,180], got %g", b.AnchorLon)
	}

	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return invalid("graphics", "window size must be positive, got %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	if c.Stream.FrameIntervalMS <= 0 {
		return invalid("stream.frame_interval_ms", "must be positive, got %d", c.Stream.FrameIntervalMS)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return invalid("logging.level", "unknown level %q", c.Logging.Level)
	}
	return nil
}
