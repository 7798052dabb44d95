package overlay

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/seaoverlay/internal/bridge"
	"github.com/Faultbox/seaoverlay/internal/config"
	"github.com/Faultbox/seaoverlay/internal/engine/water"
	"github.com/Faultbox/seaoverlay/pkg/geo"
)

// WaterParams converts the water section of a configuration.
func WaterParams(c config.WaterConfig) (water.Params, error) {
	kind, err := water.ParseBackend(c.Backend)
	if err != nil {
		return water.Params{}, err
	}
	p := water.Params{
		Resolution: c.GridResolution,
		Width:      c.BoundsWidth,
		Height:     c.BoundsHeight,
		Viscosity:  c.Viscosity,
		Radius:     c.DisturbanceRadius,
		Strength:   c.DisturbanceStrength,
		MaxHeight:  c.MaxHeight,
		Seed:       c.Seed,
		Backend:    kind,
		Workers:    c.Workers,
	}
	return p, p.Validate()
}

// TriggerConfig converts the auto-wave section of a configuration.
func TriggerConfig(c config.AutoWaveConfig) water.TriggerConfig {
	return water.TriggerConfig{
		Interval:      c.Interval(),
		Hold:          c.Hold(),
		PhaseStep:     c.PhaseStep,
		PulseRadius:   c.PulseRadius,
		PulseStrength: c.PulseStrength,
	}
}

// BridgeOptions converts the bridge section of a configuration.
func BridgeOptions(c config.BridgeConfig) bridge.Options {
	return bridge.Options{Near: c.CameraNear, Far: c.CameraFar}
}

// Anchor returns the geocentric point the water surface is centered on.
func Anchor(c config.BridgeConfig) mgl64.Vec3 {
	return geo.FromDegrees(c.AnchorLon, c.AnchorLat, c.AnchorHeight)
}
