package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagSpeed      = flag.Int("speed", 0, "Wave propagation speed (1-6)")
	flagViscosity  = flag.Float64("viscosity", 0, "Wave damping multiplier (0-1)")
	flagResolution = flag.Int("resolution", 0, "Heightfield cells per side")
	flagBackend    = flag.String("backend", "", "Simulation backend: auto, cpu or opencl")
	flagNoAutoWave = flag.Bool("no-auto-wave", false, "Disable the periodic wave pulses")
	flagAddr       = flag.String("addr", "", "Stream server listen address")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config. Zero values mean
// the flag was not given.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagSpeed != 0 {
		cfg.Water.PropagationSpeed = *flagSpeed
	}
	if *flagViscosity != 0 {
		cfg.Water.Viscosity = *flagViscosity
	}
	if *flagResolution > 0 {
		cfg.Water.GridResolution = *flagResolution
	}
	if *flagBackend != "" {
		cfg.Water.Backend = *flagBackend
	}
	if *flagNoAutoWave {
		cfg.AutoWave.Enabled = false
	}
	if *flagAddr != "" {
		cfg.Stream.Addr = *flagAddr
	}
}
