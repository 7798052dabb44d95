// Package geo provides WGS-84 ellipsoid math and local East-North-Up frames
// for placing locally-authored geometry on a geocentric globe.
package geo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// WGS-84 ellipsoid parameters.
const (
	wgs84A = 6378137.0           // semi-major axis (meters)
	wgs84F = 1.0 / 298.257223563 // flattening
)

// Ellipsoid is a reference ellipsoid of revolution around the Z axis.
type Ellipsoid struct {
	A  float64 // semi-major axis
	B  float64 // semi-minor axis
	E2 float64 // first eccentricity squared
}

// WGS84 is the reference ellipsoid used by the globe renderer.
var WGS84 = NewEllipsoid(wgs84A, wgs84F)

// NewEllipsoid builds an ellipsoid from its semi-major axis and flattening.
func NewEllipsoid(a, f float64) Ellipsoid {
	return Ellipsoid{
		A:  a,
		B:  a * (1 - f),
		E2: f * (2 - f),
	}
}

// Cartographic is a geodetic position: longitude/latitude in radians,
// height in meters above the ellipsoid.
type Cartographic struct {
	Lon, Lat, Height float64
}

// FromDegrees returns the geocentric position of a geodetic coordinate
// given in degrees and meters.
func FromDegrees(lonDeg, latDeg, height float64) mgl64.Vec3 {
	return WGS84.CartographicToCartesian(Cartographic{
		Lon:    mgl64.DegToRad(lonDeg),
		Lat:    mgl64.DegToRad(latDeg),
		Height: height,
	})
}

// CartographicToCartesian converts a geodetic position to geocentric (ECEF) meters.
func (e Ellipsoid) CartographicToCartesian(c Cartographic) mgl64.Vec3 {
	sinLat, cosLat := math.Sincos(c.Lat)
	sinLon, cosLon := math.Sincos(c.Lon)

	// Radius of curvature in the prime vertical.
	n := e.A / math.Sqrt(1-e.E2*sinLat*sinLat)

	return mgl64.Vec3{
		(n + c.Height) * cosLat * cosLon,
		(n + c.Height) * cosLat * sinLon,
		(n*(1-e.E2) + c.Height) * sinLat,
	}
}

// CartesianToCartographic converts geocentric meters to a geodetic position
// using Bowring's iteration. A few iterations reach sub-millimeter accuracy
// for points near the surface.
func (e Ellipsoid) CartesianToCartographic(p mgl64.Vec3) Cartographic {
	x, y, z := p[0], p[1], p[2]
	lon := math.Atan2(y, x)
	rho := math.Hypot(x, y)

	lat := math.Atan2(z, rho*(1-e.E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := e.A / math.Sqrt(1-e.E2*sinLat*sinLat)
		lat = math.Atan2(z+e.E2*n*sinLat, rho)
	}

	sinLat, cosLat := math.Sincos(lat)
	n := e.A / math.Sqrt(1-e.E2*sinLat*sinLat)

	var height float64
	if math.Abs(cosLat) > 1e-10 {
		height = rho/cosLat - n
	} else {
		height = math.Abs(z)/math.Abs(sinLat) - n*(1-e.E2)
	}

	return Cartographic{Lon: lon, Lat: lat, Height: height}
}

// GeodeticSurfaceNormal returns the outward unit normal of the ellipsoid
// surface through p.
func (e Ellipsoid) GeodeticSurfaceNormal(p mgl64.Vec3) mgl64.Vec3 {
	a2 := e.A * e.A
	b2 := e.B * e.B
	return mgl64.Vec3{p[0] / a2, p[1] / a2, p[2] / b2}.Normalize()
}
