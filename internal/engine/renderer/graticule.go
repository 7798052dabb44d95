package renderer

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/seaoverlay/pkg/geo"
)

// ErrGraticule is returned for a graticule with no lines.
var ErrGraticule = errors.New("renderer: graticule needs a positive span and step")

// Graticule describes the longitude/latitude lines drawn around an anchor.
type Graticule struct {
	LonDeg, LatDeg float64 // anchor
	SpanDeg        float64 // half extent in each direction
	StepDeg        float64 // spacing between lines
	Samples        int     // vertices per line
}

// DefaultGraticule returns a ±10° graticule with 1° spacing.
func DefaultGraticule(lonDeg, latDeg float64) Graticule {
	return Graticule{LonDeg: lonDeg, LatDeg: latDeg, SpanDeg: 10, StepDeg: 1, Samples: 64}
}

// Lines builds the graticule as line segments (pairs of points) in the
// anchor's East-North-Up frame, together with that frame. Local
// coordinates stay small, so they survive the narrowing to float32.
func (g Graticule) Lines() ([]mgl64.Vec3, geo.Frame, error) {
	if g.SpanDeg <= 0 || g.StepDeg <= 0 || g.Samples < 2 {
		return nil, geo.Frame{}, ErrGraticule
	}
	frame := geo.EastNorthUpToFixedFrame(geo.FromDegrees(g.LonDeg, g.LatDeg, 0))
	toLocal := frame.Inverse()

	lines := int(g.SpanDeg*2/g.StepDeg) + 1
	segs := make([]mgl64.Vec3, 0, lines*2*(g.Samples-1)*2)

	polyline := func(at func(t float64) (lon, lat float64)) {
		point := func(t float64) mgl64.Vec3 {
			lon, lat := at(t)
			return toLocal.Apply(geo.FromDegrees(lon, lat, 0))
		}
		prev := point(0)
		for s := 1; s < g.Samples; s++ {
			next := point(float64(s) / float64(g.Samples-1))
			segs = append(segs, prev, next)
			prev = next
		}
	}

	for k := 0; k < lines; k++ {
		offset := -g.SpanDeg + float64(k)*g.StepDeg
		lon := g.LonDeg + offset
		lat := clampLat(g.LatDeg + offset)
		// Meridian
		polyline(func(t float64) (float64, float64) {
			return lon, clampLat(g.LatDeg - g.SpanDeg + 2*g.SpanDeg*t)
		})
		// Parallel
		polyline(func(t float64) (float64, float64) {
			return g.LonDeg - g.SpanDeg + 2*g.SpanDeg*t, lat
		})
	}
	return segs, frame, nil
}

func clampLat(lat float64) float64 {
	if lat > 90 {
		return 90
	}
	if lat < -90 {
		return -90
	}
	return lat
}
