package geo

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrNoPoints is returned when localizing an empty point set.
var ErrNoPoints = errors.New("geo: no points to localize")

// Rectangle is a longitude/latitude bounding region in radians. West may be
// greater than East when the region crosses the antimeridian.
type Rectangle struct {
	West, South, East, North float64
}

// RectangleFromCartesians returns the smallest longitude/latitude rectangle
// containing every point, choosing the antimeridian-crossing variant when it
// is narrower.
func (e Ellipsoid) RectangleFromCartesians(points []mgl64.Vec3) Rectangle {
	west, east := math.Inf(1), math.Inf(-1)
	westOverIDL, eastOverIDL := math.Inf(1), math.Inf(-1)
	south, north := math.Inf(1), math.Inf(-1)

	for _, p := range points {
		c := e.CartesianToCartographic(p)
		west = math.Min(west, c.Lon)
		east = math.Max(east, c.Lon)
		south = math.Min(south, c.Lat)
		north = math.Max(north, c.Lat)

		lonAdjusted := c.Lon
		if lonAdjusted < 0 {
			lonAdjusted += 2 * math.Pi
		}
		westOverIDL = math.Min(westOverIDL, lonAdjusted)
		eastOverIDL = math.Max(eastOverIDL, lonAdjusted)
	}

	if east-west > eastOverIDL-westOverIDL {
		west, east = westOverIDL, eastOverIDL
		if east > math.Pi {
			east -= 2 * math.Pi
		}
		if west > math.Pi {
			west -= 2 * math.Pi
		}
	}

	return Rectangle{West: west, South: south, East: east, North: north}
}

// Center returns the rectangle's center at zero height.
func (r Rectangle) Center() Cartographic {
	east := r.East
	if east < r.West {
		east += 2 * math.Pi
	}
	lon := wrapPi((r.West + east) * 0.5)
	return Cartographic{Lon: lon, Lat: (r.South + r.North) * 0.5}
}

func wrapPi(a float64) float64 {
	if a >= -math.Pi && a <= math.Pi {
		return a
	}
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// Localized holds points re-expressed in a shared ENU frame.
type Localized struct {
	Points []mgl64.Vec3 // local coordinates, meters
	Center mgl64.Vec3   // frame anchor in geocentric coordinates
}

// Localize re-expresses geocentric points in the ENU frame anchored at the
// center of their bounding rectangle. Applying
// EastNorthUpToFixedFrame(result.Center) to any local point gives back the
// original point, up to floating-point error. Local coordinates stay small,
// so geometry built from them survives float32 storage.
func Localize(points []mgl64.Vec3) (Localized, error) {
	return WGS84.Localize(points)
}

// Localize is Localize on an arbitrary ellipsoid.
func (e Ellipsoid) Localize(points []mgl64.Vec3) (Localized, error) {
	if len(points) == 0 {
		return Localized{}, ErrNoPoints
	}

	center := e.CartographicToCartesian(e.RectangleFromCartesians(points).Center())
	toLocal := e.EastNorthUpToFixedFrame(center).Inverse()

	local := make([]mgl64.Vec3, len(points))
	for i, p := range points {
		local[i] = toLocal.Apply(p)
	}

	return Localized{Points: local, Center: center}, nil
}
