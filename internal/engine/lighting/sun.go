// Package lighting provides the directional light used to shade the water.
package lighting

import "math"

// SunDirection converts a compass azimuth (degrees clockwise from north)
// and an elevation above the horizon (degrees) into a unit vector pointing
// towards the sun, in East-North-Up coordinates.
func SunDirection(azimuthDeg, elevationDeg float64) [3]float32 {
	az := azimuthDeg * math.Pi / 180.0
	el := elevationDeg * math.Pi / 180.0

	cosEl := math.Cos(el)
	return [3]float32{
		float32(cosEl * math.Sin(az)), // east
		float32(cosEl * math.Cos(az)), // north
		float32(math.Sin(el)),         // up
	}
}
